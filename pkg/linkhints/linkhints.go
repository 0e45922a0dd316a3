// Package linkhints precomputes which entity properties hold references to
// other entities.
//
// Shorthand property names are not self-describing: "author" may hold a
// reference in one context and a literal in another. The resolver probes the
// document's context once per property name to learn the property's full IRI,
// then reads that IRI off the expanded form of each entity. Expanded values
// that carry an "@id" are references; value objects and plain literals are not.
//
// Resolution never fails. A missing context, a failed probe, or a missing
// expanded document all degrade to hints with no known targets.
package linkhints

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/crateview/pkg/crate"
	"github.com/matzehuels/crateview/pkg/jsonld"
)

// probeValue is the literal assigned to a property in a probe document.
const probeValue = "placeholder"

// Hint describes one (entity, property) pair.
type Hint struct {
	// PropertyIRI is the expanded property IRI, or "" when unknown.
	PropertyIRI string `json:"property_iri,omitempty"`
	// Targets lists the identifiers the property's values reference.
	Targets []string `json:"targets"`
}

// Hints maps entity identifier to property name to [Hint].
type Hints map[string]map[string]Hint

// Get returns the hint for entityID's property prop.
func (h Hints) Get(entityID, prop string) (Hint, bool) {
	props, ok := h[entityID]
	if !ok {
		return Hint{}, false
	}
	hint, ok := props[prop]
	return hint, ok
}

// Targets returns the referenced identifiers of entityID's property prop.
func (h Hints) Targets(entityID, prop string) []string {
	hint, _ := h.Get(entityID, prop)
	return hint.Targets
}

// IsReference reports whether entityID's property prop references target.
func (h Hints) IsReference(entityID, prop, target string) bool {
	for _, t := range h.Targets(entityID, prop) {
		if t == target {
			return true
		}
	}
	return false
}

// Resolver derives [Hints] with an [jsonld.Expander].
type Resolver struct {
	expander jsonld.Expander
	logger   *log.Logger
}

// NewResolver creates a resolver. A nil expander yields hints without IRIs or
// targets; a nil logger uses log.Default().
func NewResolver(e jsonld.Expander, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{expander: e, logger: logger}
}

// ResolveDocument expands doc and resolves its hints. A failed expansion is
// returned alongside hints that carry property IRIs but no targets; callers
// should treat the error as a warning.
func (r *Resolver) ResolveDocument(doc *crate.Document) (Hints, error) {
	var expanded []any
	var expandErr error
	if r.expander != nil && doc.Context != nil {
		expanded, expandErr = r.expander.Expand(doc.Raw)
	}
	return r.Resolve(doc, expanded), expandErr
}

// Resolve computes hints for every identified entity and property of doc
// using its already expanded form. Identifier and type keys are skipped.
func (r *Resolver) Resolve(doc *crate.Document, expanded []any) Hints {
	base := ""
	if r.expander != nil {
		base = r.expander.Base()
	}

	nodes := indexExpanded(expanded)
	rawIDs := make(map[string]string, len(doc.Lookup()))
	for id := range doc.Lookup() {
		rawIDs[jsonld.NormalizeIRI(jsonld.ResolveID(base, id))] = id
	}

	iris := make(map[string]string)
	hints := make(Hints, len(doc.Lookup()))
	for _, e := range doc.Graph {
		if e.ID == "" {
			continue
		}
		if _, seen := hints[e.ID]; seen {
			continue
		}
		node := nodes[jsonld.NormalizeIRI(jsonld.ResolveID(base, e.ID))]

		props := make(map[string]Hint, len(e.Props))
		for _, prop := range e.Keys() {
			if strings.HasPrefix(prop, "@") {
				continue
			}
			iri, ok := iris[prop]
			if !ok {
				iri = r.propertyIRI(doc.Context, prop)
				iris[prop] = iri
			}

			hint := Hint{PropertyIRI: iri, Targets: []string{}}
			if iri != "" && node != nil {
				hint.Targets = targetsOf(node[iri], base, rawIDs)
			}
			props[prop] = hint
		}
		hints[e.ID] = props
	}
	return hints
}

// propertyIRI expands a single-key probe document to learn prop's IRI.
func (r *Resolver) propertyIRI(ctx any, prop string) string {
	if r.expander == nil || ctx == nil {
		return ""
	}

	out, err := r.expander.Expand(map[string]any{
		crate.KeyContext: ctx,
		prop:             probeValue,
	})
	if err != nil {
		r.logger.Debug("property probe failed", "property", prop, "err", err)
		return ""
	}

	for _, item := range out {
		node, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for key := range node {
			if !strings.HasPrefix(key, "@") {
				return key
			}
		}
	}
	return ""
}

func indexExpanded(expanded []any) map[string]map[string]any {
	nodes := make(map[string]map[string]any, len(expanded))
	for _, item := range expanded {
		node, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := node[crate.KeyID].(string); ok {
			key := jsonld.NormalizeIRI(id)
			if _, dup := nodes[key]; !dup {
				nodes[key] = node
			}
		}
	}
	return nodes
}

// targetsOf collects the identifiers of the object values of an expanded
// property, mapped back to the raw identifiers used in the document.
// Values inside "@list" containers are included.
func targetsOf(values any, base string, rawIDs map[string]string) []string {
	targets := []string{}
	seen := make(map[string]bool)

	var collect func(items []any)
	collect = func(items []any) {
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if list, ok := obj["@list"].([]any); ok {
				collect(list)
				continue
			}
			id, ok := obj[crate.KeyID].(string)
			if !ok {
				continue
			}
			raw, known := rawIDs[jsonld.NormalizeIRI(id)]
			if !known {
				raw = jsonld.RelativeTo(base, id)
			}
			if !seen[raw] {
				seen[raw] = true
				targets = append(targets, raw)
			}
		}
	}

	items, _ := values.([]any)
	collect(items)
	return targets
}
