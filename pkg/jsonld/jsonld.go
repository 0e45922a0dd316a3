// Package jsonld provides JSON-LD expansion for crate documents.
//
// Expansion turns shorthand property names into fully qualified IRIs under a
// document's context. crateview uses it for one purpose: deciding whether a
// property value is a reference to another entity or opaque literal text.
//
// [GoldExpander] wraps github.com/piprate/json-gold. Remote contexts are
// fetched once and cached for the lifetime of the expander; well-known
// contexts can be preloaded from local files so expansion works offline.
//
// Relative identifiers are resolved against a synthetic base IRI so that
// "./", "#person" and "data/" expand to distinct absolute IRIs. Use
// [ResolveID] with the same base to map a raw identifier to its expanded form.
package jsonld

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/piprate/json-gold/ld"

	"github.com/matzehuels/crateview/pkg/errors"
)

// DefaultBase is the base IRI relative identifiers are resolved against.
// The .invalid TLD guarantees it never collides with a real package location.
const DefaultBase = "http://crate.invalid/"

// Expander expands a decoded JSON-LD document.
type Expander interface {
	// Expand returns the expanded node objects of doc.
	Expand(doc any) ([]any, error)
	// Base returns the base IRI used to resolve relative identifiers.
	Base() string
}

// Options configures a [GoldExpander].
type Options struct {
	// Base overrides DefaultBase.
	Base string
	// HTTPClient is used to fetch remote contexts. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Contexts maps context URLs to local files that are loaded instead.
	Contexts map[string]string
}

// GoldExpander implements [Expander] with json-gold.
// It is safe for concurrent use.
type GoldExpander struct {
	proc   *ld.JsonLdProcessor
	loader *ld.CachingDocumentLoader
	base   string
}

// NewGoldExpander creates an expander. It fails only when a preloaded context
// file cannot be read.
func NewGoldExpander(opts Options) (*GoldExpander, error) {
	if opts.Base == "" {
		opts.Base = DefaultBase
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	loader := ld.NewCachingDocumentLoader(ld.NewDefaultDocumentLoader(client))
	if len(opts.Contexts) > 0 {
		if err := loader.PreloadWithMapping(opts.Contexts); err != nil {
			return nil, errors.Wrap(errors.ErrCodeExpansion, err, "preload contexts")
		}
	}

	return &GoldExpander{
		proc:   ld.NewJsonLdProcessor(),
		loader: loader,
		base:   opts.Base,
	}, nil
}

// AddContext registers an in-memory context document for url.
func (e *GoldExpander) AddContext(url string, doc any) {
	e.loader.AddDocument(url, doc)
}

// Expand implements [Expander].
func (e *GoldExpander) Expand(doc any) ([]any, error) {
	opts := ld.NewJsonLdOptions(e.base)
	opts.DocumentLoader = e.loader

	out, err := e.proc.Expand(doc, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExpansion, err, "expand document")
	}
	return out, nil
}

// Base implements [Expander].
func (e *GoldExpander) Base() string { return e.base }

var _ Expander = (*GoldExpander)(nil)

// Func adapts a plain function to [Expander].
type Func struct {
	BaseIRI string
	Fn      func(doc any) ([]any, error)
}

// Expand implements [Expander].
func (f Func) Expand(doc any) ([]any, error) { return f.Fn(doc) }

// Base implements [Expander].
func (f Func) Base() string { return f.BaseIRI }

// ResolveID resolves a raw entity identifier against base the way expansion
// does. Identifiers that cannot be parsed are returned unchanged.
func ResolveID(base, id string) string {
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return id
	}
	ref, err := url.Parse(id)
	if err != nil {
		return id
	}
	return b.ResolveReference(ref).String()
}

// NormalizeIRI returns a comparison key for an IRI that ignores
// percent-encoding differences.
func NormalizeIRI(iri string) string {
	if s, err := url.PathUnescape(iri); err == nil {
		return s
	}
	return iri
}

// RelativeTo strips base from iri. IRIs outside base are returned unchanged.
func RelativeTo(base, iri string) string {
	if base != "" && strings.HasPrefix(iri, base) {
		return strings.TrimPrefix(iri, base)
	}
	return iri
}
