package crate

import (
	"strconv"
	"strings"
)

// ValueKind discriminates the variants of [Value].
type ValueKind int

const (
	// KindLiteral is a string, number, boolean or null.
	KindLiteral ValueKind = iota
	// KindReference is an object holding only an identifier.
	KindReference
	// KindNested is an inline object with properties of its own.
	KindNested
	// KindList is an array of values.
	KindList
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindReference:
		return "reference"
	case KindNested:
		return "nested"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a property value of an [Entity].
// Exactly one of Literal, Ref, Nested or List is meaningful, selected by Kind.
type Value struct {
	Kind    ValueKind
	Literal any     // string, float64, bool or nil
	Ref     string  // target identifier for KindReference
	Nested  *Entity // inline object for KindNested
	List    []Value // elements for KindList
}

// Literal returns a literal value.
func Literal(v any) Value { return Value{Kind: KindLiteral, Literal: v} }

// Reference returns a reference to the entity with the given identifier.
func Reference(id string) Value { return Value{Kind: KindReference, Ref: id} }

// List returns a list value.
func List(items ...Value) Value { return Value{Kind: KindList, List: items} }

// ValueOf converts a decoded JSON value into a [Value].
func ValueOf(raw any) Value {
	switch v := raw.(type) {
	case map[string]any:
		if id, ok := v[KeyID].(string); ok && len(v) == 1 {
			return Reference(id)
		}
		return Value{Kind: KindNested, Nested: entityFromMap(v)}
	case []any:
		items := make([]Value, len(v))
		for i, item := range v {
			items[i] = ValueOf(item)
		}
		return List(items...)
	default:
		return Literal(v)
	}
}

// IsReference reports whether v is a reference to another entity.
func (v Value) IsReference() bool { return v.Kind == KindReference }

// Items normalizes v to a slice: lists return their elements,
// anything else returns itself as a single element.
func (v Value) Items() []Value {
	if v.Kind == KindList {
		return v.List
	}
	return []Value{v}
}

// ID reduces v to an identifier string. References and nested objects with an
// "@id" yield that identifier; string literals yield themselves. Anything else
// yields "" and false.
func (v Value) ID() (string, bool) {
	switch v.Kind {
	case KindReference:
		return v.Ref, v.Ref != ""
	case KindNested:
		if v.Nested != nil && v.Nested.ID != "" {
			return v.Nested.ID, true
		}
	case KindLiteral:
		if s, ok := v.Literal.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// IDs returns the identifiers of every element of v that can be reduced to one.
// See [Value.ID].
func (v Value) IDs() []string {
	var ids []string
	for _, item := range v.Items() {
		if id, ok := item.ID(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Text renders v for display. Literals render their value, references render
// their identifier, nested objects render their identifier or name, and lists
// join their elements with ", ".
func (v Value) Text() string {
	switch v.Kind {
	case KindLiteral:
		return literalText(v.Literal)
	case KindReference:
		return v.Ref
	case KindNested:
		if v.Nested == nil {
			return ""
		}
		if v.Nested.ID != "" {
			return v.Nested.ID
		}
		return v.Nested.Name()
	case KindList:
		parts := make([]string, 0, len(v.List))
		for _, item := range v.List {
			if s := item.Text(); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func literalText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
