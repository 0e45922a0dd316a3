// Package pkg holds the crateview libraries for browsing research-object
// packages: JSON-LD metadata documents whose entities form a hierarchy,
// possibly with nested packages inside.
//
// # Overview
//
// The pkg directory is organized by concern:
//
//  1. Model: [crate] (document, entities, values), [tree] (hierarchy),
//     [locator] (package addresses and nested reference resolution)
//  2. Derivation: [search] (flattening and fuzzy index), [linkhints]
//     (which properties reference which entities), [jsonld] (expansion)
//  3. Loading: [fetch] (HTTP, directories, archives, pasted text),
//     [httputil] (retry and rate limiting), [cache] (LRU package cache)
//  4. Navigation: [navigator] (current package, breadcrumbs, reload and
//     superseded loads), [session] (one navigator per API client)
//  5. Outputs: [render] (DOT, SVG, PDF, PNG, JSON, YAML), [api] (HTTP JSON)
//  6. Support: [errors], [observability], [buildinfo]
//
// # Data flow
//
//	locator ──► fetch ──► crate.Document
//	                          │
//	         ┌────────────────┼────────────────┐
//	         ▼                ▼                ▼
//	     tree.Build     search.Index     linkhints.Resolve
//	         └────────────────┼────────────────┘
//	                          ▼
//	              navigator.Entry (cached)
//
// # Quick Start
//
//	client := fetch.New(fetch.Options{})
//	nav := navigator.New(navigator.Options{Fetcher: client})
//
//	if _, err := nav.OpenPackage(ctx, "https://example.org/crates/survey/", "", true); err != nil {
//	    return err
//	}
//	for _, r := range nav.Search(ctx, "temperature", 10) {
//	    fmt.Println(r.EntityID, r.CrateID)
//	}
//	if _, err := nav.OpenNestedPackage(ctx, "sub/ro-crate-metadata.json"); err != nil {
//	    return err
//	}
//	nav.GoBack(ctx)
//
// [crate]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/crate
// [tree]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/tree
// [locator]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/locator
// [search]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/search
// [linkhints]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/linkhints
// [jsonld]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/jsonld
// [fetch]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/fetch
// [httputil]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/httputil
// [cache]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/cache
// [navigator]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/navigator
// [session]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/session
// [render]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/render
// [api]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/api
// [errors]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/crateview/pkg/buildinfo
package pkg
