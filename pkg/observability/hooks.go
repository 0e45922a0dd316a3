// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific backends to the core packages. Consumers register
// hooks at startup to receive events about package loads, cache lookups,
// searches and remote fetches.
//
// # Architecture
//
//   - Hook interfaces per event category
//   - No-op default implementations
//   - A global registry written once by main
//
// [Prometheus] implements every interface and is installed by the serve
// command to back the /metrics endpoint.
//
// # Usage
//
//	func main() {
//	    observability.Install(observability.NewPrometheus(prometheus.DefaultRegisterer))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Navigation().OnLoadStart(ctx, locator)
//	// ... fetch and derive ...
//	observability.Navigation().OnLoadComplete(ctx, locator, entityCount, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Navigation Hooks
// =============================================================================

// NavigationHooks receives events from the navigator.
type NavigationHooks interface {
	// Load events. err is nil on success.
	OnLoadStart(ctx context.Context, locator string)
	OnLoadComplete(ctx context.Context, locator string, entityCount int, duration time.Duration, err error)

	// OnSearch records a search over the session index.
	OnSearch(ctx context.Context, resultCount int, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopNavigationHooks is a no-op implementation of NavigationHooks.
type NoopNavigationHooks struct{}

func (NoopNavigationHooks) OnLoadStart(context.Context, string) {}
func (NoopNavigationHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopNavigationHooks) OnSearch(context.Context, int, time.Duration) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	navigationHooks NavigationHooks = NoopNavigationHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	httpHooks       HTTPHooks       = NoopHTTPHooks{}
	hooksMu         sync.RWMutex
)

// SetNavigationHooks registers custom navigation hooks.
// This should be called once at application startup before any packages are opened.
func SetNavigationHooks(h NavigationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		navigationHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Hooks is implemented by backends that cover every event category.
type Hooks interface {
	NavigationHooks
	CacheHooks
	HTTPHooks
}

// Install registers h for all categories.
func Install(h Hooks) {
	SetNavigationHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

// Navigation returns the registered navigation hooks.
func Navigation() NavigationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return navigationHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	navigationHooks = NoopNavigationHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
