// Package cache stores fully processed packages in memory, keyed by locator.
//
// Entries are replaced, never mutated: a reload of the same locator calls
// Set again with a fresh value. [Memory] is the store used by the navigator;
// [Null] disables caching without changing call sites.
package cache

// Cache is a keyed in-memory store.
type Cache[V any] interface {
	// Get returns the value stored under key.
	Get(key string) (V, bool)
	// Set stores value under key, replacing any previous value.
	Set(key string, value V)
	// Delete removes key. Missing keys are ignored.
	Delete(key string)
	// Clear removes every entry.
	Clear()
	// Len returns the number of entries.
	Len() int
	// Keys returns the stored keys, least recently used first.
	Keys() []string
}
