package crate

import (
	"bytes"
	"encoding/json"

	"github.com/matzehuels/crateview/pkg/errors"
)

// Document is a parsed package: a JSON-LD context plus its entity graph.
type Document struct {
	Context any            // "@context" exactly as decoded
	Graph   []*Entity      // "@graph" in document order
	Raw     map[string]any // the decoded top-level object

	root   *Entity
	lookup map[string]*Entity
}

// Parse decodes and validates a metadata document.
func Parse(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidCrate, err, "metadata is not valid JSON")
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidCrate, "metadata must be a JSON object")
	}
	return FromMap(m)
}

// FromMap validates an already decoded metadata object.
func FromMap(raw map[string]any) (*Document, error) {
	ctx, ok := raw[KeyContext]
	if !ok || ctx == nil {
		return nil, errors.New(errors.ErrCodeInvalidCrate, "missing %s", KeyContext)
	}

	items, ok := raw[KeyGraph].([]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidCrate, "missing %s array", KeyGraph)
	}
	if len(items) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidCrate, "%s is empty", KeyGraph)
	}

	doc := &Document{
		Context: ctx,
		Graph:   make([]*Entity, 0, len(items)),
		Raw:     raw,
		lookup:  make(map[string]*Entity, len(items)),
	}

	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidCrate, "%s entry %d is not an object", KeyGraph, i)
		}
		e := entityFromMap(m)
		doc.Graph = append(doc.Graph, e)

		if e.ID == "" {
			continue
		}
		if _, dup := doc.lookup[e.ID]; !dup {
			doc.lookup[e.ID] = e
		}
		if e.IsRoot() {
			if doc.root != nil {
				return nil, errors.New(errors.ErrCodeInvalidCrate, "more than one root entity (%q and %q)", doc.root.ID, e.ID)
			}
			doc.root = e
		}
	}

	if doc.root == nil {
		return nil, errors.New(errors.ErrCodeInvalidCrate, `no root entity with %s "./" or "."`, KeyID)
	}
	return doc, nil
}

// Root returns the entity describing the package itself.
func (d *Document) Root() *Entity { return d.root }

// Entity returns the entity with the given identifier.
func (d *Document) Entity(id string) (*Entity, bool) {
	e, ok := d.lookup[id]
	return e, ok
}

// Lookup returns the identifier index of the graph. Entities without an
// identifier are not included; for duplicate identifiers the first wins.
// The returned map must not be modified.
func (d *Document) Lookup() map[string]*Entity { return d.lookup }

// Name returns the root entity's name, or "" if it has none.
func (d *Document) Name() string { return d.root.Name() }

// Validate reports whether data is a structurally valid metadata document
// without keeping the parsed result.
func Validate(data []byte) error {
	_, err := Parse(data)
	return err
}
