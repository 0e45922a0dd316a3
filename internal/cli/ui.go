package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/crateview/pkg/linkhints"
	"github.com/matzehuels/crateview/pkg/navigator"
	"github.com/matzehuels/crateview/pkg/search"
	"github.com/matzehuels/crateview/pkg/tree"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings, nested packages
	colorRed    = lipgloss.Color("167") // Soft red - errors, broken links
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorCyan)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleDataset = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleFile    = lipgloss.NewStyle().Foreground(colorWhite)
	styleLinked  = lipgloss.NewStyle().Foreground(colorBlue).Italic(true)
	styleBroken  = lipgloss.NewStyle().Foreground(colorRed).Strikethrough(true)
	styleNested  = lipgloss.NewStyle().Foreground(colorYellow)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCrumb   = "/"
	iconNested  = "⧉"
	iconLink    = "↺"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented dim line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}

// =============================================================================
// Navigation Output
// =============================================================================

// printNav prints the current package, its trail and entity count.
func printNav(nav *navigator.Navigator) {
	state := nav.Nav()
	printKeyValue("Package", state.Name)
	printKeyValue("Locator", state.Current.String())
	if len(state.Breadcrumbs) > 0 {
		printKeyValue("Trail", formatCrumbs(state.Breadcrumbs))
	}
	printKeyValue("Entities", fmt.Sprint(len(nav.Entities())))
	if t := nav.Tree(); t != nil {
		printKeyValue("Tree nodes", fmt.Sprint(t.Count()))
	}
}

func formatCrumbs(crumbs []navigator.Crumb) string {
	names := make([]string, len(crumbs))
	for i, c := range crumbs {
		names[i] = c.Name
	}
	return strings.Join(names, " "+iconCrumb+" ")
}

// writeTree renders root as an indented outline.
func writeTree(w io.Writer, root *tree.Node, maxDepth int, showIDs bool) {
	var walk func(n *tree.Node, prefix string, last bool, depth int)
	walk = func(n *tree.Node, prefix string, last bool, depth int) {
		branch := "├── "
		next := prefix + "│   "
		if last {
			branch = "└── "
			next = prefix + "    "
		}
		if depth == 0 {
			branch, next = "", ""
		}
		fmt.Fprintln(w, StyleDim.Render(prefix+branch)+nodeLabel(n, showIDs))

		if maxDepth > 0 && depth >= maxDepth {
			if len(n.Children) > 0 {
				fmt.Fprintln(w, StyleDim.Render(next+fmt.Sprintf("… %d more", len(n.Children))))
			}
			return
		}
		for i, c := range n.Children {
			walk(c, next, i == len(n.Children)-1, depth+1)
		}
	}
	walk(root, "", true, 0)
}

func nodeLabel(n *tree.Node, showID bool) string {
	var label string
	switch n.Kind {
	case tree.KindDataset:
		label = styleDataset.Render(n.Name + "/")
	case tree.KindLink:
		label = styleLinked.Render(n.Name) + " " + StyleDim.Render(iconLink)
	case tree.KindBrokenLink:
		label = styleBroken.Render(n.Name) + " " + StyleDim.Render("(missing)")
	default:
		label = styleFile.Render(n.Name)
	}
	if n.Nested {
		label += " " + styleNested.Render(iconNested+" package")
	}
	if showID && n.ID != n.Name {
		label += " " + StyleDim.Render(n.ID)
	}
	return label
}

// printResults prints search hits, best first.
func printResults(results []search.Result) {
	for i, r := range results {
		fmt.Printf("%s %s %s\n",
			StyleNumber.Render(fmt.Sprintf("%3d.", i+1)),
			StyleValue.Render(r.EntityID),
			StyleDim.Render(fmt.Sprintf("in %s  score %.2f", r.CrateID, r.Score)),
		)
	}
}

// printHints prints the link hints of one entity, properties sorted.
func printHints(id string, hints map[string]linkhints.Hint) {
	fmt.Println(StyleTitle.Render(id))
	if len(hints) == 0 {
		printDetail("no linked properties")
		return
	}
	for _, prop := range slices.Sorted(maps.Keys(hints)) {
		h := hints[prop]
		iri := h.PropertyIRI
		if iri == "" {
			iri = "unknown IRI"
		}
		fmt.Println("  " + StyleHighlight.Render(prop) + " " + StyleDim.Render(iri))
		for _, target := range h.Targets {
			fmt.Println("    " + StyleDim.Render(iconArrow) + " " + StyleLink.Render(target))
		}
	}
}
