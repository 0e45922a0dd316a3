package crate

import (
	"path"
	"slices"
	"strings"
)

// Reserved JSON-LD keys.
const (
	KeyID      = "@id"
	KeyType    = "@type"
	KeyContext = "@context"
	KeyGraph   = "@graph"
)

// Well-known property names.
const (
	PropName       = "name"
	PropHasPart    = "hasPart"
	PropConformsTo = "conformsTo"
)

// MetadataSuffix is the filename suffix of a package's metadata document.
// Both "ro-crate-metadata.json" and "<prefix>-ro-crate-metadata.json" match.
const MetadataSuffix = "ro-crate-metadata.json"

// crateProfilePrefix identifies RO-Crate specification IRIs in conformsTo.
const crateProfilePrefix = "https://w3id.org/ro/crate"

// Entity is an addressable node of the document graph.
type Entity struct {
	ID    string           // "@id", may be empty for nested objects
	Types []string         // "@type", normalized to a slice
	Props map[string]Value // every other key
	Raw   map[string]any   // the decoded object, unchanged
}

func entityFromMap(m map[string]any) *Entity {
	e := &Entity{
		Props: make(map[string]Value, len(m)),
		Raw:   m,
	}
	for k, v := range m {
		switch k {
		case KeyID:
			if s, ok := v.(string); ok {
				e.ID = s
			}
		case KeyType:
			e.Types = typesOf(v)
		default:
			e.Props[k] = ValueOf(v)
		}
	}
	return e
}

func typesOf(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Get returns the value of property key.
func (e *Entity) Get(key string) (Value, bool) {
	v, ok := e.Props[key]
	return v, ok
}

// Keys returns the property names in sorted order, excluding "@id" and "@type".
func (e *Entity) Keys() []string {
	keys := make([]string, 0, len(e.Props))
	for k := range e.Props {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// HasType reports whether the entity declares type t.
func (e *Entity) HasType(t string) bool {
	return slices.Contains(e.Types, t)
}

// Name returns the entity's "name" property when it is a non-empty string.
// Lists yield their first string element.
func (e *Entity) Name() string {
	v, ok := e.Props[PropName]
	if !ok {
		return ""
	}
	for _, item := range v.Items() {
		if s, ok := item.Literal.(string); ok && item.Kind == KindLiteral {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// IsRoot reports whether the entity carries a root identifier.
func (e *Entity) IsRoot() bool {
	return IsRootID(e.ID)
}

// IsNestedCrate reports whether the entity points at another package: its
// identifier names a metadata document, or it declares conformance to the
// RO-Crate specification without being the root itself.
func (e *Entity) IsNestedCrate() bool {
	if e.IsRoot() || e.ID == "" {
		return false
	}
	if IsMetadataFilename(path.Base(strings.TrimRight(e.ID, "/"))) {
		return true
	}
	v, ok := e.Props[PropConformsTo]
	if !ok {
		return false
	}
	for _, id := range v.IDs() {
		if strings.HasPrefix(id, crateProfilePrefix) {
			return true
		}
	}
	return false
}

// IsRootID reports whether id is one of the root identifiers "./" or ".".
func IsRootID(id string) bool {
	return id == "./" || id == "."
}

// IsMetadataFilename reports whether name is a metadata document filename.
func IsMetadataFilename(name string) bool {
	return name != "" && strings.HasSuffix(name, MetadataSuffix)
}
