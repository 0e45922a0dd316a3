package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxEntries bounds a Memory cache created with a non-positive size.
const DefaultMaxEntries = 256

// Memory is a size-bounded LRU cache. It is safe for concurrent use.
type Memory[V any] struct {
	lru *lru.Cache[string, V]
}

// NewMemory creates a cache holding at most maxEntries values.
func NewMemory[V any](maxEntries int) *Memory[V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c, err := lru.New[string, V](maxEntries)
	if err != nil {
		// only returned for non-positive sizes
		panic(err)
	}
	return &Memory[V]{lru: c}
}

func (m *Memory[V]) Get(key string) (V, bool) { return m.lru.Get(key) }

func (m *Memory[V]) Set(key string, value V) { m.lru.Add(key, value) }

func (m *Memory[V]) Delete(key string) { m.lru.Remove(key) }

func (m *Memory[V]) Clear() { m.lru.Purge() }

func (m *Memory[V]) Len() int { return m.lru.Len() }

func (m *Memory[V]) Keys() []string { return m.lru.Keys() }

// Peek returns the value under key without updating its recency.
func (m *Memory[V]) Peek(key string) (V, bool) { return m.lru.Peek(key) }

var _ Cache[int] = (*Memory[int])(nil)
