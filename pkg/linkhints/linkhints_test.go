package linkhints

import (
	"errors"
	"reflect"
	"testing"

	"github.com/matzehuels/crateview/pkg/crate"
	"github.com/matzehuels/crateview/pkg/jsonld"
)

func mustDoc(t *testing.T, raw map[string]any) *crate.Document {
	t.Helper()
	doc, err := crate.FromMap(raw)
	if err != nil {
		t.Fatalf("FromMap() error: %v", err)
	}
	return doc
}

func schemaDoc(t *testing.T) *crate.Document {
	return mustDoc(t, map[string]any{
		"@context": map[string]any{"@vocab": "http://schema.org/"},
		"@graph": []any{
			map[string]any{
				"@id":     "./",
				"name":    "Root",
				"hasPart": []any{map[string]any{"@id": "a.txt"}, map[string]any{"@id": "data/"}},
				"author":  map[string]any{"@id": "#brian"},
			},
			map[string]any{"@id": "a.txt", "@type": "File", "name": "A"},
			map[string]any{"@id": "data/", "@type": "Dataset"},
			map[string]any{"@id": "#brian", "name": "Brian", "sameAs": map[string]any{"@id": "https://orcid.org/0000-0001"}},
		},
	})
}

func TestResolveDocumentWithGold(t *testing.T) {
	e, err := jsonld.NewGoldExpander(jsonld.Options{})
	if err != nil {
		t.Fatalf("NewGoldExpander() error: %v", err)
	}
	doc := schemaDoc(t)

	hints, err := NewResolver(e, nil).ResolveDocument(doc)
	if err != nil {
		t.Fatalf("ResolveDocument() error: %v", err)
	}

	tests := []struct {
		entity, prop string
		iri          string
		targets      []string
	}{
		{"./", "hasPart", "http://schema.org/hasPart", []string{"a.txt", "data/"}},
		{"./", "author", "http://schema.org/author", []string{"#brian"}},
		{"./", "name", "http://schema.org/name", []string{}},
		{"a.txt", "name", "http://schema.org/name", []string{}},
		{"#brian", "sameAs", "http://schema.org/sameAs", []string{"https://orcid.org/0000-0001"}},
	}
	for _, tt := range tests {
		t.Run(tt.entity+" "+tt.prop, func(t *testing.T) {
			hint, ok := hints.Get(tt.entity, tt.prop)
			if !ok {
				t.Fatalf("no hint for %s %s", tt.entity, tt.prop)
			}
			if hint.PropertyIRI != tt.iri {
				t.Errorf("PropertyIRI = %q, want %q", hint.PropertyIRI, tt.iri)
			}
			if !reflect.DeepEqual(hint.Targets, tt.targets) {
				t.Errorf("Targets = %v, want %v", hint.Targets, tt.targets)
			}
		})
	}

	if _, ok := hints.Get("a.txt", "@type"); ok {
		t.Error("@type should not produce a hint")
	}
	if !hints.IsReference("./", "author", "#brian") {
		t.Error("IsReference(./ author #brian) = false")
	}
	if hints.IsReference("./", "name", "Root") {
		t.Error("IsReference(./ name Root) = true")
	}
}

// probeExpander answers probe documents with "urn:<prop>" and returns full for
// the whole document.
type probeExpander struct {
	probes map[string]int
	full   []any
	fail   map[string]bool
	err    error
}

func (p *probeExpander) Base() string { return "http://crate.invalid/" }

func (p *probeExpander) Expand(doc any) ([]any, error) {
	m := doc.(map[string]any)
	if _, ok := m["@graph"]; ok {
		return p.full, p.err
	}
	for k := range m {
		if k == "@context" {
			continue
		}
		p.probes[k]++
		if p.fail[k] {
			return nil, errors.New("probe failed")
		}
		return []any{map[string]any{"urn:" + k: []any{map[string]any{"@value": "placeholder"}}}}, nil
	}
	return nil, nil
}

func TestResolveProbesOncePerProperty(t *testing.T) {
	p := &probeExpander{probes: map[string]int{}}
	doc := mustDoc(t, map[string]any{
		"@context": "https://w3id.org/ro/crate/1.1/context",
		"@graph": []any{
			map[string]any{"@id": "./", "name": "Root"},
			map[string]any{"@id": "a", "name": "A"},
			map[string]any{"@id": "b", "name": "B", "size": 3.0},
		},
	})

	NewResolver(p, nil).Resolve(doc, nil)

	if p.probes["name"] != 1 {
		t.Errorf("name probed %d times, want 1", p.probes["name"])
	}
	if p.probes["size"] != 1 {
		t.Errorf("size probed %d times, want 1", p.probes["size"])
	}
}

func TestResolveProbeFailureIsLocal(t *testing.T) {
	p := &probeExpander{
		probes: map[string]int{},
		fail:   map[string]bool{"bad": true},
		full: []any{
			map[string]any{
				"@id":      "http://crate.invalid/",
				"urn:good": []any{map[string]any{"@id": "http://crate.invalid/a"}},
				"urn:bad":  []any{map[string]any{"@id": "http://crate.invalid/a"}},
			},
		},
	}
	doc := mustDoc(t, map[string]any{
		"@context": map[string]any{},
		"@graph": []any{
			map[string]any{"@id": "./", "good": map[string]any{"@id": "a"}, "bad": map[string]any{"@id": "a"}},
			map[string]any{"@id": "a"},
		},
	})

	hints := NewResolver(p, nil).Resolve(doc, p.full)

	if got := hints.Targets("./", "good"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("good targets = %v, want [a]", got)
	}
	bad, ok := hints.Get("./", "bad")
	if !ok {
		t.Fatal("failed probe should still record a hint")
	}
	if bad.PropertyIRI != "" || len(bad.Targets) != 0 {
		t.Errorf("bad hint = %+v, want empty", bad)
	}
}

func TestResolveWithoutContext(t *testing.T) {
	p := &probeExpander{probes: map[string]int{}}
	doc := schemaDoc(t)
	doc.Context = nil

	hints, err := NewResolver(p, nil).ResolveDocument(doc)
	if err != nil {
		t.Fatalf("ResolveDocument() error: %v", err)
	}
	if len(p.probes) != 0 {
		t.Errorf("probes = %v, want none without a context", p.probes)
	}
	hint, ok := hints.Get("./", "hasPart")
	if !ok || hint.PropertyIRI != "" || len(hint.Targets) != 0 {
		t.Errorf("hasPart hint = %+v, %v; want empty hint", hint, ok)
	}
}

func TestResolveDocumentExpansionFailure(t *testing.T) {
	p := &probeExpander{probes: map[string]int{}, err: errors.New("context unreachable")}
	doc := schemaDoc(t)

	hints, err := NewResolver(p, nil).ResolveDocument(doc)
	if err == nil {
		t.Fatal("ResolveDocument() error = nil, want expansion error")
	}
	hint, ok := hints.Get("./", "hasPart")
	if !ok {
		t.Fatal("hints should still be produced")
	}
	if hint.PropertyIRI != "urn:hasPart" || len(hint.Targets) != 0 {
		t.Errorf("hasPart hint = %+v, want IRI without targets", hint)
	}
}

func TestResolveNilExpander(t *testing.T) {
	hints := NewResolver(nil, nil).Resolve(schemaDoc(t), nil)
	if len(hints) != 4 {
		t.Errorf("len(hints) = %d, want 4", len(hints))
	}
	if got := hints.Targets("./", "hasPart"); len(got) != 0 {
		t.Errorf("Targets = %v, want none", got)
	}
}

func TestTargetsOfList(t *testing.T) {
	rawIDs := map[string]string{"http://crate.invalid/a": "a"}
	values := []any{
		map[string]any{"@list": []any{
			map[string]any{"@id": "http://crate.invalid/a"},
			map[string]any{"@id": "http://crate.invalid/unknown"},
		}},
		map[string]any{"@value": "literal"},
		map[string]any{"@id": "http://crate.invalid/a"},
	}

	got := targetsOf(values, "http://crate.invalid/", rawIDs)
	if want := []string{"a", "unknown"}; !reflect.DeepEqual(got, want) {
		t.Errorf("targetsOf() = %v, want %v", got, want)
	}
}
