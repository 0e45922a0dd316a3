package search

import (
	"fmt"
	"sync"
	"testing"

	"github.com/matzehuels/crateview/pkg/crate"
)

func entity(id string, props map[string]any) *crate.Entity {
	raw := map[string]any{"@id": id}
	for k, v := range props {
		raw[k] = v
	}
	return &crate.Entity{ID: id, Raw: raw}
}

func TestSearchFuzzy(t *testing.T) {
	idx := New(DefaultOptions())
	n := idx.Index([]*crate.Entity{
		entity("#brian", map[string]any{"@type": "Person", "name": "Brian Smith"}),
		entity("a.txt", map[string]any{"@type": "File", "description": "raw measurements"}),
	}, "p1")
	if n != 2 {
		t.Fatalf("Index() = %d, want 2", n)
	}

	tests := []struct {
		query string
		want  string
	}{
		{"brian", "#brian"},
		{"BRIAN", "#brian"},
		{"brain", "#brian"},
		{"smiht", "#brian"},
		{"measurement", "a.txt"},
		{"description", "a.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results := idx.Search(tt.query, 10)
			if len(results) == 0 {
				t.Fatalf("Search(%q) returned no results", tt.query)
			}
			if results[0].EntityID != tt.want || results[0].CrateID != "p1" {
				t.Errorf("Search(%q)[0] = %+v, want %s in p1", tt.query, results[0], tt.want)
			}
		})
	}

	if results := idx.Search("zzzzqqqq", 10); len(results) != 0 {
		t.Errorf("Search(zzzzqqqq) = %v, want none", results)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	idx := New(DefaultOptions())
	idx.Index([]*crate.Entity{entity("x", map[string]any{"name": "X"})}, "p1")

	for _, q := range []string{"", "   ", "\t\n", "!!"} {
		if results := idx.Search(q, 10); results != nil {
			t.Errorf("Search(%q) = %v, want nil", q, results)
		}
	}
	if results := idx.Search("x", 0); results != nil {
		t.Errorf("Search with limit 0 = %v, want nil", results)
	}
}

func TestSearchMinTokenLength(t *testing.T) {
	idx := New(Options{Threshold: 0.4, MinTokenLength: 3})
	idx.Index([]*crate.Entity{entity("x", map[string]any{"name": "ab cd"})}, "p1")

	if results := idx.Search("ab", 10); results != nil {
		t.Errorf("Search(ab) = %v, want nil (token shorter than minimum)", results)
	}
}

func TestSearchRanking(t *testing.T) {
	idx := New(DefaultOptions())
	idx.Index([]*crate.Entity{
		entity("fuzzy", map[string]any{"name": "Brain Atlas"}),
		entity("exact", map[string]any{"name": "Brian Smith"}),
	}, "p1")

	results := idx.Search("brian", 10)
	if len(results) != 2 {
		t.Fatalf("Search() = %v, want 2 results", results)
	}
	if results[0].EntityID != "exact" || results[1].EntityID != "fuzzy" {
		t.Errorf("ranking = %v, want exact before fuzzy", results)
	}
	if results[0].Score >= results[1].Score {
		t.Errorf("scores = %v, want ascending", results)
	}
}

func TestSearchLimit(t *testing.T) {
	idx := New(DefaultOptions())
	var entities []*crate.Entity
	for i := range 20 {
		entities = append(entities, entity(fmt.Sprintf("e%02d", i), map[string]any{"name": "sample"}))
	}
	idx.Index(entities, "p1")

	if got := len(idx.Search("sample", 5)); got != 5 {
		t.Errorf("len(Search(limit 5)) = %d", got)
	}
}

func TestIndexReplacesPerCrate(t *testing.T) {
	idx := New(DefaultOptions())
	idx.Index([]*crate.Entity{entity("old", map[string]any{"name": "Obsolete"})}, "A")
	idx.Index([]*crate.Entity{entity("other", map[string]any{"name": "Obsolete"})}, "B")
	idx.Index([]*crate.Entity{entity("new", map[string]any{"name": "Current"})}, "A")

	if idx.Len() != 2 {
		t.Errorf("Len() = %d, want 2", idx.Len())
	}

	results := idx.Search("obsolete", 10)
	if len(results) != 1 || results[0].CrateID != "B" {
		t.Errorf("Search(obsolete) = %v, want only the entry in B", results)
	}
	if results := idx.Search("current", 10); len(results) != 1 || results[0].EntityID != "new" {
		t.Errorf("Search(current) = %v", results)
	}
}

func TestIndexSameIDDifferentCrates(t *testing.T) {
	idx := New(DefaultOptions())
	idx.Index([]*crate.Entity{entity("./", map[string]any{"name": "Root crate"})}, "A")
	idx.Index([]*crate.Entity{entity("./", map[string]any{"name": "Root crate"})}, "B")

	results := idx.Search("root", 10)
	if len(results) != 2 {
		t.Fatalf("Search() = %v, want one hit per crate", results)
	}
	if results[0].CrateID != "A" || results[1].CrateID != "B" {
		t.Errorf("results = %v", results)
	}
}

func TestIndexSkipsUnsearchable(t *testing.T) {
	idx := New(DefaultOptions())
	n := idx.Index([]*crate.Entity{
		nil,
		{Raw: map[string]any{"name": "no id"}},
		{ID: "empty"},
		entity("ok", map[string]any{"name": "fine"}),
	}, "p1")

	if n != 1 || idx.Len() != 1 {
		t.Errorf("Index() = %d, Len() = %d, want 1", n, idx.Len())
	}
	if got := idx.Entries("p1"); len(got) != 1 || got[0].EntityID != "ok" {
		t.Errorf("Entries() = %v", got)
	}
}

func TestIndexEmptyCrateIsValid(t *testing.T) {
	idx := New(DefaultOptions())
	idx.Index([]*crate.Entity{entity("x", map[string]any{"name": "X"})}, "A")

	if n := idx.Index(nil, "A"); n != 0 {
		t.Errorf("Index(nil) = %d", n)
	}
	if idx.Len() != 0 || len(idx.Crates()) != 0 {
		t.Errorf("re-indexing with no entities should clear the crate, Len() = %d", idx.Len())
	}
}

func TestRemoveAndReset(t *testing.T) {
	idx := New(DefaultOptions())
	idx.Index([]*crate.Entity{entity("x", map[string]any{"name": "X"})}, "A")
	idx.Index([]*crate.Entity{entity("y", map[string]any{"name": "Y"})}, "B")

	idx.Remove("A")
	if got := idx.Crates(); len(got) != 1 || got[0] != "B" {
		t.Errorf("Crates() after Remove = %v", got)
	}

	idx.Reset()
	if idx.Len() != 0 {
		t.Errorf("Len() after Reset = %d", idx.Len())
	}
}

func TestIndexConcurrentReaders(t *testing.T) {
	idx := New(DefaultOptions())
	batch := func(n int) []*crate.Entity {
		out := make([]*crate.Entity, n)
		for i := range out {
			out[i] = entity(fmt.Sprintf("e%d", i), map[string]any{"name": "sample"})
		}
		return out
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 50 {
			idx.Index(batch(10+i%2*10), "A")
		}
	}()
	go func() {
		defer wg.Done()
		for range 50 {
			if n := len(idx.Search("sample", 100)); n != 0 && n != 10 && n != 20 {
				t.Errorf("observed partial index with %d entries", n)
			}
		}
	}()
	wg.Wait()
}
