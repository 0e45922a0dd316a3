package navigator

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/crateview/pkg/cache"
	"github.com/matzehuels/crateview/pkg/crate"
	"github.com/matzehuels/crateview/pkg/errors"
	"github.com/matzehuels/crateview/pkg/jsonld"
	"github.com/matzehuels/crateview/pkg/linkhints"
	"github.com/matzehuels/crateview/pkg/locator"
	"github.com/matzehuels/crateview/pkg/observability"
	"github.com/matzehuels/crateview/pkg/search"
	"github.com/matzehuels/crateview/pkg/tree"
)

const cacheKeyType = "package"

var (
	// ErrNoHistory is returned by GoBack when the breadcrumb trail is empty.
	ErrNoHistory = errors.New(errors.ErrCodeNoHistory, "no previous package")

	// ErrBadBreadcrumb is returned for a breadcrumb index outside the trail.
	ErrBadBreadcrumb = errors.New(errors.ErrCodeInvalidInput, "breadcrumb index out of range")

	// ErrNoPackage is returned by operations that need a current package.
	ErrNoPackage = errors.New(errors.ErrCodeInvalidInput, "no package is open")
)

// Options configures a Navigator.
type Options struct {
	Fetcher  Fetcher             // required
	Expander jsonld.Expander     // nil disables link hints
	Cache    cache.Cache[*Entry] // default cache.NewMemory
	Search   search.Options      // default search.DefaultOptions
	Logger   *log.Logger
}

// Navigator is the navigation and cache manager of one session.
type Navigator struct {
	fetcher  Fetcher
	resolver *linkhints.Resolver
	cache    cache.Cache[*Entry]
	index    *search.Index
	logger   *log.Logger

	mu      sync.Mutex
	state   State
	current *Entry
	root    locator.Locator
	crumbs  []Crumb
	gen     uint64
	cancel  context.CancelFunc
}

// New creates a Navigator in the Empty state.
func New(opts Options) *Navigator {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory[*Entry](0)
	}
	if opts.Search == (search.Options{}) {
		opts.Search = search.DefaultOptions()
	}
	return &Navigator{
		fetcher:  opts.Fetcher,
		resolver: linkhints.NewResolver(opts.Expander, opts.Logger),
		cache:    opts.Cache,
		index:    search.New(opts.Search),
		logger:   opts.Logger,
	}
}

// OpenPackage makes the package at ref current. A cached package is shown
// without being fetched again. When first is true, or no root is known yet,
// the package becomes the session root and the trail is cleared.
// displayName is used when the package declares no name of its own.
func (n *Navigator) OpenPackage(ctx context.Context, ref, displayName string, first bool) (*Entry, error) {
	if err := errors.ValidateReference(ref); err != nil {
		return nil, err
	}
	return n.navigate(ctx, request{
		loc:   locator.Split(ref),
		name:  displayName,
		first: first,
	})
}

// OpenNestedPackage resolves reference against the current package and
// opens it, pushing the current package onto the trail.
func (n *Navigator) OpenNestedPackage(ctx context.Context, reference string) (*Entry, error) {
	n.mu.Lock()
	var base locator.Locator
	if n.current != nil {
		base = n.current.Locator
	}
	n.mu.Unlock()

	loc, err := locator.Resolve(base, reference)
	if err != nil {
		return nil, err
	}
	return n.navigate(ctx, request{
		loc:  loc,
		name: tree.DisplayName(nil, loc.Base),
		push: true,
	})
}

// Jump opens the package at ref, taken as an absolute locator, and pushes
// the current package onto the trail so GoBack returns to it. Search hits
// in other loaded packages are opened this way.
func (n *Navigator) Jump(ctx context.Context, ref string) (*Entry, error) {
	if err := errors.ValidateReference(ref); err != nil {
		return nil, err
	}
	loc := locator.Split(ref)
	return n.navigate(ctx, request{
		loc:  loc,
		name: tree.DisplayName(nil, loc.Base),
		push: true,
	})
}

// GoToBreadcrumb truncates the trail to the entries before index and opens
// the package at index.
func (n *Navigator) GoToBreadcrumb(ctx context.Context, index int) (*Entry, error) {
	n.mu.Lock()
	if index < 0 || index >= len(n.crumbs) {
		n.mu.Unlock()
		return nil, ErrBadBreadcrumb
	}
	crumb := n.crumbs[index]
	n.mu.Unlock()

	return n.navigate(ctx, request{
		loc:   crumb.Locator,
		name:  crumb.Name,
		cut:   true,
		keep:  index,
	})
}

// GoBack opens the last package on the trail and removes it from the trail.
// With an empty trail nothing changes and ErrNoHistory is returned.
func (n *Navigator) GoBack(ctx context.Context) (*Entry, error) {
	n.mu.Lock()
	last := len(n.crumbs) - 1
	n.mu.Unlock()
	if last < 0 {
		return nil, ErrNoHistory
	}
	return n.GoToBreadcrumb(ctx, last)
}

// Reload fetches the current package again and replaces its cache entry.
func (n *Navigator) Reload(ctx context.Context) (*Entry, error) {
	n.mu.Lock()
	cur := n.current
	n.mu.Unlock()
	if cur == nil {
		return nil, ErrNoPackage
	}
	return n.navigate(ctx, request{loc: cur.Locator, name: cur.Name, refresh: true})
}

// Reset clears the cache, the search index, the trail and the root, and
// cancels any load in flight.
func (n *Navigator) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gen++
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.cache.Clear()
	n.index.Reset()
	n.state = StateEmpty
	n.current = nil
	n.root = locator.Locator{}
	n.crumbs = nil
	n.logger.Debug("navigator reset")
}

type request struct {
	loc     locator.Locator
	name    string
	first   bool
	refresh bool

	// cut trims the trail to its first keep entries before loading. The
	// cut stands even if the load fails.
	cut  bool
	keep int

	// push appends the package current at commit time to the trail. It is
	// applied only when the load succeeds, so a failed or superseded load
	// never leaves a crumb behind.
	push bool
}

func (n *Navigator) navigate(ctx context.Context, req request) (*Entry, error) {
	if n.fetcher == nil {
		return nil, errors.New(errors.ErrCodeInternal, "navigator has no fetcher")
	}
	n.mu.Lock()
	gen, ctx, cancel := n.begin(ctx)
	defer cancel()

	prevState := n.settledState()
	if req.cut && req.keep < len(n.crumbs) {
		n.crumbs = slices.Clone(n.crumbs[:req.keep])
	}

	hooks := observability.Navigation()
	hooks.OnLoadStart(ctx, req.loc.Base)
	start := time.Now()

	if !req.refresh {
		if e, ok := n.cache.Get(req.loc.Base); ok {
			observability.Cache().OnCacheHit(ctx, cacheKeyType)
			n.commit(e, req)
			n.mu.Unlock()
			hooks.OnLoadComplete(ctx, e.Locator.Base, len(e.Entities), time.Since(start), nil)
			n.logger.Debug("opened cached package", "locator", e.Locator.Base)
			return e, nil
		}
		observability.Cache().OnCacheMiss(ctx, cacheKeyType)
	}
	n.state = StateLoading
	n.mu.Unlock()

	entry, cached, err := n.load(ctx, req)

	n.mu.Lock()
	defer n.mu.Unlock()

	if gen != n.gen {
		err = errors.New(errors.ErrCodeSuperseded, "navigation to %s was superseded", req.loc.Base)
		hooks.OnLoadComplete(ctx, req.loc.Base, 0, time.Since(start), err)
		return nil, err
	}
	n.cancel = nil

	if err != nil {
		n.state = prevState
		hooks.OnLoadComplete(ctx, req.loc.Base, 0, time.Since(start), err)
		n.logger.Warn("failed to open package", "locator", req.loc.Base, "err", errors.UserMessage(err))
		return nil, err
	}

	if !cached {
		n.cache.Set(entry.Locator.Base, entry)
		observability.Cache().OnCacheSet(ctx, cacheKeyType, len(entry.Entities))
		if req.loc.Base != entry.Locator.Base {
			n.cache.Set(req.loc.Base, entry)
		}
		indexed := n.index.Index(entry.Entities, entry.Locator.Base)
		n.logger.Debug("indexed package", "locator", entry.Locator.Base, "searchable", indexed)
	}
	n.commit(entry, req)

	d := time.Since(start)
	hooks.OnLoadComplete(ctx, entry.Locator.Base, len(entry.Entities), d, nil)
	n.logger.Info("opened package", "locator", entry.Locator.Base, "entities", len(entry.Entities), "duration", d.Round(time.Millisecond))
	return entry, nil
}

// begin starts a new generation and cancels the previous one. n.mu must be held.
func (n *Navigator) begin(ctx context.Context) (uint64, context.Context, context.CancelFunc) {
	if n.cancel != nil {
		n.cancel()
	}
	n.gen++
	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	return n.gen, ctx, cancel
}

// settledState is the state to return to if the current load fails.
func (n *Navigator) settledState() State {
	if n.current != nil {
		return StateReady
	}
	return StateEmpty
}

// commit makes e current, pushing the package it replaces when req asks
// for it. n.mu must be held.
func (n *Navigator) commit(e *Entry, req request) {
	if req.push && n.current != nil && n.current.Locator.Base != e.Locator.Base {
		n.crumbs = append(slices.Clone(n.crumbs), Crumb{Name: n.current.Name, Locator: n.current.Locator})
	}
	n.current = e
	n.state = StateReady
	if req.first || n.root.IsZero() {
		n.root = e.Locator
	}
	if e.Locator.Base == n.root.Base {
		n.crumbs = nil
	}
}

// load fetches and derives the package for req. It follows one
// already-indexed redirect. cached reports whether the entry came from the
// cache by way of that redirect.
func (n *Navigator) load(ctx context.Context, req request) (entry *Entry, cached bool, err error) {
	loc := req.loc
	doc, err := n.fetcher.Fetch(ctx, loc)
	if ai, ok := errors.AsAlreadyIndexed(err); ok {
		alt := locator.Split(ai.Alternate)
		n.logger.Info("package already indexed elsewhere", "locator", loc.Base, "alternate", alt.Base)
		if e, hit := n.cache.Get(alt.Base); hit && !req.refresh {
			return e, true, nil
		}
		loc = alt
		doc, err = n.fetcher.Fetch(ctx, loc)
		if _, again := errors.AsAlreadyIndexed(err); again {
			err = errors.Wrap(errors.ErrCodeAlreadyIndexed, err, "redirect loop at %s", loc.Base)
		}
	}
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeFetch, err, "could not load %s", loc.Base)
		}
		return nil, false, err
	}
	if ctx.Err() != nil {
		return nil, false, ctx.Err()
	}
	return n.derive(loc, req.name, doc), false, nil
}

// derive builds the tree, link hints and entity list of doc. Link hint
// failures degrade to partial hints.
func (n *Navigator) derive(loc locator.Locator, fallbackName string, doc *crate.Document) *Entry {
	hints, err := n.resolver.ResolveDocument(doc)
	if err != nil {
		n.logger.Warn("link hints are incomplete", "locator", loc.Base, "err", errors.UserMessage(err))
	}

	name := doc.Name()
	if name == "" {
		name = fallbackName
	}
	if name == "" {
		name = tree.DisplayName(nil, loc.Base)
	}

	return &Entry{
		Locator:  loc,
		Name:     name,
		Document: doc,
		Entities: doc.Graph,
		Tree:     tree.Build(doc.Root().ID, doc.Lookup()),
		Hints:    hints,
		LoadedAt: time.Now(),
	}
}
