package search

import (
	"strings"
	"testing"

	"github.com/matzehuels/crateview/pkg/crate"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "  hello   world ", "hello world"},
		{"number", 2024.0, "2024"},
		{"bool", true, "true"},
		{"empty object", map[string]any{}, ""},
		{"empty array", []any{}, ""},
		{"mixed array", []any{"a", nil, 1.5, "", false}, "a 1.5 false"},
		{
			"object with context",
			map[string]any{"@context": "https://w3id.org/ro/crate/1.1/context", "@id": "#b", "name": "Brian Smith"},
			"@id #b name Brian Smith",
		},
		{
			"nested",
			map[string]any{"author": map[string]any{"@id": "#b"}, "tags": []any{"x", "y"}},
			"author @id #b tags x y",
		},
		{"key with empty value", map[string]any{"note": ""}, "note"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Flatten(tt.in); got != tt.want {
				t.Errorf("Flatten() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFlattenDepthBound(t *testing.T) {
	leaf := any("deepvalue")
	for i := 0; i < 2*MaxDepth; i++ {
		leaf = map[string]any{"k": leaf}
	}

	got := Flatten(leaf)
	if strings.Contains(got, "deepvalue") {
		t.Errorf("Flatten() should stop at depth %d, got %q", MaxDepth, got)
	}
	if !strings.HasPrefix(got, "k") {
		t.Errorf("Flatten() = %q, want keys up to the bound", got)
	}
}

func TestFlattenCyclic(t *testing.T) {
	m := map[string]any{}
	m["self"] = m
	list := []any{nil}
	list[0] = list

	got := Flatten(m)
	if n := strings.Count(got, "self"); n != MaxDepth+1 {
		t.Errorf("Flatten(cyclic map) emitted %d keys, want %d", n, MaxDepth+1)
	}
	if got := Flatten(list); got != "" {
		t.Errorf("Flatten(cyclic list) = %q, want empty", got)
	}
}

func TestFlattenEntity(t *testing.T) {
	if got := FlattenEntity(nil); got != "" {
		t.Errorf("FlattenEntity(nil) = %q", got)
	}
	e := &crate.Entity{ID: "x", Raw: map[string]any{"@id": "x", "name": "X"}}
	if got := FlattenEntity(e); got != "@id x name X" {
		t.Errorf("FlattenEntity() = %q", got)
	}
}
