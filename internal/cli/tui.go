package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/crateview/pkg/navigator"
	"github.com/matzehuels/crateview/pkg/search"
	"github.com/matzehuels/crateview/pkg/tree"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	crumbStyle        = lipgloss.NewStyle().Foreground(colorGray)
	errorLineStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// browseKeys are the key bindings of the browser.
type browseKeys struct {
	Up     key.Binding
	Down   key.Binding
	Open   key.Binding
	Toggle key.Binding
	Back   key.Binding
	Top    key.Binding
	Search key.Binding
	Reload key.Binding
	Cancel key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultBrowseKeys() browseKeys {
	return browseKeys{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "fold")),
		Back:   key.NewBinding(key.WithKeys("backspace", "b"), key.WithHelp("b", "back")),
		Top:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "root package")),
		Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k browseKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Back, k.Search, k.Help, k.Quit}
}

func (k browseKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Toggle},
		{k.Back, k.Top, k.Reload},
		{k.Search, k.Cancel, k.Help, k.Quit},
	}
}

type browseMode int

const (
	modeTree browseMode = iota
	modeSearch
	modeResults
	modeDetail
)

// treeRow is one visible line of the flattened hierarchy.
type treeRow struct {
	node  *tree.Node
	depth int
	path  string
}

// navDoneMsg reports the end of a navigation started by the browser.
type navDoneMsg struct {
	err    error
	target string // entity to select afterwards
}

// BrowseModel is the bubbletea model of the interactive package browser.
type BrowseModel struct {
	ctx  context.Context
	nav  *navigator.Navigator
	keys browseKeys
	help help.Model

	mode      browseMode
	rows      []treeRow
	collapsed map[string]bool
	cursor    int
	offset    int
	height    int

	input   textinput.Model
	results []search.Result
	rcursor int
	detail  *navigator.EntityView

	loading bool
	spin    spinner.Model
	status  string
	err     error
}

// NewBrowseModel creates a browser over nav, which should already hold a
// package.
func NewBrowseModel(ctx context.Context, nav *navigator.Navigator) BrowseModel {
	ti := textinput.New()
	ti.Placeholder = "search entities..."
	ti.Prompt = "/ "
	ti.CharLimit = 256
	ti.Width = 50

	m := BrowseModel{
		ctx:       ctx,
		nav:       nav,
		keys:      defaultBrowseKeys(),
		help:      help.New(),
		collapsed: make(map[string]bool),
		height:    20,
		input:     ti,
		spin:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styleIconSpinner)),
	}
	m.refresh("")
	return m
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case navDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.collapsed = make(map[string]bool)
		m.mode = modeTree
		m.cursor, m.offset = 0, 0
		m.refresh(msg.target)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) && (m.mode != modeSearch || msg.String() == "ctrl+c") {
			return m, tea.Quit
		}
		if m.loading {
			return m, nil
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeResults:
			return m.updateResults(msg)
		case modeDetail:
			if key.Matches(msg, m.keys.Cancel, m.keys.Back, m.keys.Open) {
				m.mode = modeTree
				m.detail = nil
			}
			return m, nil
		default:
			return m.updateTree(msg)
		}
	}
	return m, nil
}

func (m BrowseModel) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.Toggle):
		if row, ok := m.selected(); ok && len(row.node.Children) > 0 {
			m.collapsed[row.path] = !m.collapsed[row.path]
			m.refresh(row.node.ID)
		}
	case key.Matches(msg, m.keys.Open):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		if row.node.Nested {
			ref := row.node.ID
			return m.startNav(func(ctx context.Context) error {
				_, err := m.nav.OpenNestedPackage(ctx, ref)
				return err
			}, "")
		}
		if view, ok := m.nav.Entity(row.node.ID); ok {
			m.detail = &view
			m.mode = modeDetail
		}
	case key.Matches(msg, m.keys.Back):
		if !m.nav.Nav().CanGoBack {
			m.status = "already at the first package"
			return m, nil
		}
		return m.startNav(func(ctx context.Context) error {
			_, err := m.nav.GoBack(ctx)
			return err
		}, "")
	case key.Matches(msg, m.keys.Top):
		if !m.nav.Nav().CanGoBack {
			return m, nil
		}
		return m.startNav(func(ctx context.Context) error {
			_, err := m.nav.GoToBreadcrumb(ctx, 0)
			return err
		}, "")
	case key.Matches(msg, m.keys.Reload):
		return m.startNav(func(ctx context.Context) error {
			_, err := m.nav.Reload(ctx)
			return err
		}, m.selectedID())
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m BrowseModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.mode = modeTree
		return m, nil
	case tea.KeyEnter:
		m.input.Blur()
		m.results = m.nav.Search(m.ctx, m.input.Value(), m.height)
		m.rcursor = 0
		m.mode = modeResults
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m BrowseModel) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeTree
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Up):
		if m.rcursor > 0 {
			m.rcursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.rcursor < len(m.results)-1 {
			m.rcursor++
		}
	case key.Matches(msg, m.keys.Open):
		if len(m.results) == 0 {
			return m, nil
		}
		r := m.results[m.rcursor]
		if r.CrateID == m.nav.Nav().Current.String() {
			m.mode = modeTree
			m.refresh(r.EntityID)
			return m, nil
		}
		return m.startNav(func(ctx context.Context) error {
			_, err := m.nav.Jump(ctx, r.CrateID)
			return err
		}, r.EntityID)
	}
	return m, nil
}

// startNav runs fn in the background and shows the spinner until it ends.
func (m BrowseModel) startNav(fn func(context.Context) error, target string) (tea.Model, tea.Cmd) {
	m.loading = true
	m.status = ""
	m.err = nil
	ctx := m.ctx
	load := func() tea.Msg {
		return navDoneMsg{err: fn(ctx), target: target}
	}
	return m, tea.Batch(load, m.spin.Tick)
}

// refresh rebuilds the visible rows and moves the cursor to target when it
// is visible.
func (m *BrowseModel) refresh(target string) {
	m.rows = nil
	if root := m.nav.Tree(); root != nil {
		m.flatten(root, 0, "0")
	}
	m.cursor = min(m.cursor, max(len(m.rows)-1, 0))
	if target != "" {
		for i, r := range m.rows {
			if r.node.ID == target {
				m.cursor = i
				break
			}
		}
	}
	m.scroll()
}

func (m *BrowseModel) flatten(n *tree.Node, depth int, path string) {
	m.rows = append(m.rows, treeRow{node: n, depth: depth, path: path})
	if m.collapsed[path] {
		return
	}
	for i, c := range n.Children {
		m.flatten(c, depth+1, path+"."+strconv.Itoa(i))
	}
}

func (m *BrowseModel) move(delta int) {
	m.cursor = min(max(m.cursor+delta, 0), max(len(m.rows)-1, 0))
	m.status = ""
	m.scroll()
}

func (m *BrowseModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m BrowseModel) selected() (treeRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return treeRow{}, false
	}
	return m.rows[m.cursor], true
}

func (m BrowseModel) selectedID() string {
	if row, ok := m.selected(); ok {
		return row.node.ID
	}
	return ""
}

func (m BrowseModel) View() string {
	var b strings.Builder

	state := m.nav.Nav()
	title := StyleTitle.Render(state.Name)
	if len(state.Breadcrumbs) > 0 {
		title = crumbStyle.Render(formatCrumbs(state.Breadcrumbs)+" "+iconCrumb+" ") + title
	}
	b.WriteString(title + "\n")
	b.WriteString(listDimStyle.Render(state.Current.String()) + "\n\n")

	switch m.mode {
	case modeDetail:
		b.WriteString(m.detailView())
	case modeResults:
		b.WriteString(m.resultsView())
	default:
		b.WriteString(m.treeView())
	}

	b.WriteString("\n")
	switch {
	case m.mode == modeSearch:
		b.WriteString(m.input.View() + "\n")
	case m.loading:
		b.WriteString(m.spin.View() + " " + StyleDim.Render("loading") + "\n")
	case m.err != nil:
		b.WriteString(errorLineStyle.Render(iconError+" "+m.err.Error()) + "\n")
	case m.status != "":
		b.WriteString(StyleDim.Render(m.status) + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m BrowseModel) treeView() string {
	var b strings.Builder
	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		cursor := "  "
		if i == m.cursor {
			cursor = listSelectedStyle.Render("▸ ")
		}
		fold := "  "
		if len(row.node.Children) > 0 {
			fold = StyleDim.Render("▾ ")
			if m.collapsed[row.path] {
				fold = StyleDim.Render("▸ ")
			}
		}
		b.WriteString(cursor + strings.Repeat("  ", row.depth) + fold + nodeLabel(row.node, false) + "\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.cursor+1, len(m.rows)), len(m.rows))) + "\n")
	return b.String()
}

func (m BrowseModel) resultsView() string {
	if len(m.results) == 0 {
		return StyleWarning.Render(fmt.Sprintf("No matches for %q", m.input.Value())) + "\n"
	}
	var b strings.Builder
	for i, r := range m.results {
		cursor, id := "  ", r.EntityID
		if i == m.rcursor {
			cursor, id = listSelectedStyle.Render("▸ "), listSelectedStyle.Render(id)
		}
		b.WriteString(cursor + id + "  " + listDimStyle.Render(r.CrateID) + "\n")
	}
	return b.String()
}

func (m BrowseModel) detailView() string {
	v := m.detail
	if v == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleHighlight.Render(v.ID) + "\n")
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(16)
	for _, k := range slices.Sorted(maps.Keys(v.Raw)) {
		b.WriteString(keyStyle.Render(k) + " " + StyleValue.Render(compactValue(v.Raw[k], 60)) + "\n")
		if h, ok := v.Hints[k]; ok {
			for _, t := range h.Targets {
				b.WriteString(strings.Repeat(" ", 17) + StyleDim.Render(iconArrow) + " " + StyleLink.Render(t) + "\n")
			}
		}
	}
	return b.String()
}

// compactValue renders a JSON value on one line, truncated to width runes.
func compactValue(v any, width int) string {
	var s string
	if str, ok := v.(string); ok {
		s = str
	} else {
		data, err := json.Marshal(v)
		if err != nil {
			s = fmt.Sprint(v)
		} else {
			s = string(data)
		}
	}
	r := []rune(s)
	if len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s
}
