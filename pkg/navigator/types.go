package navigator

import (
	"context"
	"time"

	"github.com/matzehuels/crateview/pkg/crate"
	"github.com/matzehuels/crateview/pkg/linkhints"
	"github.com/matzehuels/crateview/pkg/locator"
	"github.com/matzehuels/crateview/pkg/tree"
)

// State is the navigator's load state.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Fetcher retrieves and validates a package document.
type Fetcher interface {
	Fetch(ctx context.Context, loc locator.Locator) (*crate.Document, error)
}

// FetcherFunc adapts a function to [Fetcher].
type FetcherFunc func(ctx context.Context, loc locator.Locator) (*crate.Document, error)

func (f FetcherFunc) Fetch(ctx context.Context, loc locator.Locator) (*crate.Document, error) {
	return f(ctx, loc)
}

// Entry is a fully processed package. Entries are never modified after
// they are cached; a reload stores a new one.
type Entry struct {
	Locator  locator.Locator
	Name     string
	Document *crate.Document
	Entities []*crate.Entity
	Tree     *tree.Node
	Hints    linkhints.Hints
	LoadedAt time.Time
}

// Crumb is one step of the breadcrumb trail.
type Crumb struct {
	Name    string          `json:"name"`
	Locator locator.Locator `json:"locator"`
}

// Nav is a snapshot of the navigation state.
type Nav struct {
	State       State           `json:"state"`
	Current     locator.Locator `json:"current"`
	Name        string          `json:"name,omitempty"`
	Root        locator.Locator `json:"root"`
	Breadcrumbs []Crumb         `json:"breadcrumbs"`
	CanGoBack   bool            `json:"can_go_back"`
}

// EntityView is an entity together with the link hints of its properties.
type EntityView struct {
	Entity *crate.Entity             `json:"-"`
	ID     string                    `json:"id"`
	Raw    map[string]any            `json:"raw"`
	Hints  map[string]linkhints.Hint `json:"hints"`
}
