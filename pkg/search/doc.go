// Package search provides the in-memory fuzzy full-text index over every
// entity loaded in a session.
//
// # Flattening
//
// [Flatten] turns any decoded JSON value into one searchable string. Object
// keys are emitted next to their values so property names are searchable as
// well ("author Brian Smith"). The "@context" key is skipped. Recursion stops
// at [MaxDepth]; anything deeper contributes nothing, which keeps flattening
// total for pathological input.
//
// # Indexing
//
// An [Index] holds entries grouped by crate identifier. [Index.Index] replaces
// the entries of one crate and leaves the others untouched, so packages can be
// added incrementally as the user navigates. Readers always see either the
// previous or the next complete entry set, never a partial one.
//
// # Matching
//
// Queries and content are case-folded and split into tokens. A query token
// matches a content token when it is a substring of it, or when its edit
// distance to the token (or to any equally long window of it) divided by the
// query token length is at most the configured threshold. Every query token
// must match. Results are ranked by mean token score, best first.
//
//	idx := search.New(search.DefaultOptions())
//	idx.Index(doc.Graph, "https://example.org/crate/")
//	for _, r := range idx.Search("brain smith", 10) {
//	    fmt.Println(r.CrateID, r.EntityID)
//	}
package search
