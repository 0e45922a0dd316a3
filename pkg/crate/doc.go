// Package crate models a research-data package ("crate"): a JSON-LD document
// whose @graph is a flat list of entities, one of which is the root.
//
// # Values
//
// Entity properties are decoded into a tagged [Value] so the difference
// between a literal and a reference to another entity is visible in the type:
//
//	KindLiteral    string, number, bool or null
//	KindReference  an object with only an "@id" key
//	KindNested     any other object (decoded as an anonymous [Entity])
//	KindList       an array of values
//
// # Validation
//
// [Parse] and [FromMap] perform the minimal structural checks every package
// must pass before it can be browsed: a context is present, the graph is a
// non-empty array of objects, and exactly one entity has the root identifier
// "./" or ".". Violations are reported with code INVALID_CRATE.
//
// Documents are immutable after parsing. The raw decoded map is kept on
// [Document.Raw] so it can be handed unchanged to a JSON-LD expander.
package crate
