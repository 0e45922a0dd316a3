package navigator

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/matzehuels/crateview/pkg/crate"
	"github.com/matzehuels/crateview/pkg/linkhints"
	"github.com/matzehuels/crateview/pkg/observability"
	"github.com/matzehuels/crateview/pkg/search"
	"github.com/matzehuels/crateview/pkg/tree"
)

// State returns the load state.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Current returns the current package, or nil.
func (n *Navigator) Current() *Entry {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Nav returns a snapshot of the navigation state.
func (n *Navigator) Nav() Nav {
	n.mu.Lock()
	defer n.mu.Unlock()
	nav := Nav{
		State:       n.state,
		Root:        n.root,
		Breadcrumbs: slices.Clone(n.crumbs),
		CanGoBack:   len(n.crumbs) > 0,
	}
	if nav.Breadcrumbs == nil {
		nav.Breadcrumbs = []Crumb{}
	}
	if n.current != nil {
		nav.Current = n.current.Locator
		nav.Name = n.current.Name
	}
	return nav
}

// Tree returns the current package's hierarchy. The tree is shared and
// must not be modified.
func (n *Navigator) Tree() *tree.Node {
	if e := n.Current(); e != nil {
		return e.Tree
	}
	return nil
}

// Entities returns the current package's entities in document order.
func (n *Navigator) Entities() []*crate.Entity {
	if e := n.Current(); e != nil {
		return slices.Clone(e.Entities)
	}
	return nil
}

// LinkHints returns the current package's link hints.
func (n *Navigator) LinkHints() linkhints.Hints {
	if e := n.Current(); e != nil {
		return e.Hints
	}
	return nil
}

// Entity returns the entity with the given identifier in the current
// package along with its link hints.
func (n *Navigator) Entity(id string) (EntityView, bool) {
	e := n.Current()
	if e == nil {
		return EntityView{}, false
	}
	ent, ok := e.Document.Entity(id)
	if !ok {
		return EntityView{}, false
	}
	hints := maps.Clone(e.Hints[id])
	if hints == nil {
		hints = map[string]linkhints.Hint{}
	}
	return EntityView{Entity: ent, ID: ent.ID, Raw: ent.Raw, Hints: hints}, true
}

// Search queries every package loaded in this session.
func (n *Navigator) Search(ctx context.Context, query string, limit int) []search.Result {
	start := time.Now()
	results := n.index.Search(query, limit)
	observability.Navigation().OnSearch(ctx, len(results), time.Since(start))
	return results
}

// Loaded returns the locators of cached packages.
func (n *Navigator) Loaded() []string {
	return n.cache.Keys()
}
