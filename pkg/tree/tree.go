// Package tree builds the browsable hierarchy of a crate.
//
// The hierarchy follows the "hasPart" property depth-first from a root entity.
// Each hasPart element may be a bare identifier string or a reference object.
// Identifiers that do not resolve to an entity still produce a node of kind
// [KindBrokenLink] so the declared shape is preserved.
//
// Cycles are cut with a visited set that belongs to the current path only:
// meeting an identifier that is already an ancestor yields a terminal
// [KindLink] node. The same entity may still appear under two unrelated
// branches.
//
// Siblings are ordered directories first, then by display name using
// case-insensitive collation, then by identifier.
package tree

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/matzehuels/crateview/pkg/crate"
)

// Kind classifies a tree node.
type Kind string

const (
	KindDataset    Kind = "Dataset"
	KindFile       Kind = "File"
	KindLink       Kind = "Link"
	KindBrokenLink Kind = "BrokenLink"
)

// PartProperty names the property listing an entity's children.
const PartProperty = crate.PropHasPart

// Node is one element of the hierarchy.
type Node struct {
	Name     string  `json:"name"`
	ID       string  `json:"id"`
	Kind     Kind    `json:"kind"`
	Nested   bool    `json:"nested,omitempty"` // entity points at another crate
	Children []*Node `json:"children,omitempty"`
}

// Build returns the hierarchy rooted at rootID.
func Build(rootID string, lookup map[string]*crate.Entity) *Node {
	b := &builder{
		lookup:   lookup,
		collator: collate.New(language.Und, collate.IgnoreCase),
	}
	return b.build(rootID, nil, true)
}

type builder struct {
	lookup   map[string]*crate.Entity
	collator *collate.Collator
}

func (b *builder) build(id string, path map[string]bool, root bool) *Node {
	e, ok := b.lookup[id]
	if !ok {
		return &Node{Name: DisplayName(nil, id), ID: id, Kind: KindBrokenLink}
	}

	n := &Node{
		Name:   DisplayName(e, id),
		ID:     id,
		Kind:   kindOf(e, root),
		Nested: e.IsNestedCrate(),
	}

	visited := make(map[string]bool, len(path)+1)
	for k := range path {
		visited[k] = true
	}
	visited[id] = true

	for _, child := range ChildIDs(e) {
		if visited[child] {
			n.Children = append(n.Children, &Node{
				Name: DisplayName(b.lookup[child], child),
				ID:   child,
				Kind: KindLink,
			})
			continue
		}
		n.Children = append(n.Children, b.build(child, visited, false))
	}

	slices.SortStableFunc(n.Children, func(x, y *Node) int {
		return cmp.Or(
			cmp.Compare(rank(x.Kind), rank(y.Kind)),
			b.collator.CompareString(x.Name, y.Name),
			strings.Compare(x.Name, y.Name),
			strings.Compare(x.ID, y.ID),
		)
	})
	return n
}

// ChildIDs returns the identifiers listed in e's part property.
func ChildIDs(e *crate.Entity) []string {
	if e == nil {
		return nil
	}
	v, ok := e.Get(PartProperty)
	if !ok {
		return nil
	}
	return v.IDs()
}

func kindOf(e *crate.Entity, root bool) Kind {
	if root || e.HasType("Dataset") || strings.HasSuffix(e.ID, "/") {
		return KindDataset
	}
	return KindFile
}

func rank(k Kind) int {
	if k == KindDataset {
		return 0
	}
	return 1
}

// DisplayName returns e's name property if set, otherwise the last non-empty
// path segment of id, otherwise id itself.
func DisplayName(e *crate.Entity, id string) string {
	if e != nil {
		if name := e.Name(); name != "" {
			return name
		}
	}
	segments := strings.Split(id, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(segments[i]); s != "" {
			return s
		}
	}
	return id
}

// Walk visits n and its descendants depth-first in order. Returning false
// from fn skips the node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Count returns the number of nodes in the tree.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node, int) bool { count++; return true })
	return count
}

// Find returns the first node with the given identifier in walk order.
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(node *Node, _ int) bool {
		if found != nil {
			return false
		}
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}
