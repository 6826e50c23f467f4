// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package cache provides a size-bounded LRU map.
//
//	c := cache.New[[32]byte, []byte](64)
//	module, err := c.GetOrCreate(sum, compile)
package cache

import "sync"

// LRU maps keys to values and drops the least recently used entry once it
// holds more than its limit. It is safe for concurrent use and must not be
// copied.
type LRU[K comparable, V any] struct {
	mu    sync.Mutex
	limit int
	items map[K]*node[K, V]
	list  list[K, V]

	hits, misses uint64
}

// Stats is a snapshot of cache usage.
type Stats struct {
	Len    int
	Limit  int
	Hits   uint64
	Misses uint64
}

// New returns a cache holding at most limit entries. A limit of 0 or less
// means unbounded.
func New[K comparable, V any](limit int) *LRU[K, V] {
	return &LRU[K, V]{limit: limit, items: make(map[K]*node[K, V])}
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key)
}

// Add stores value under key, replacing any earlier value.
func (c *LRU[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(key, value)
}

// GetOrCreate returns the cached value for key, or stores and returns the
// result of create. create runs under the cache lock, so concurrent callers
// for one key call it once. Errors are returned and not cached.
func (c *LRU[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.get(key); ok {
		return v, nil
	}
	v, err := create()
	if err != nil {
		return v, err
	}
	c.add(key, v)
	return v, nil
}

// Remove deletes key and reports whether it was present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if ok {
		c.list.unlink(n)
		delete(c.items, key)
	}
	return ok
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns usage counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Len: len(c.items), Limit: c.limit, Hits: c.hits, Misses: c.misses}
}

func (c *LRU[K, V]) get(key K) (V, bool) {
	n, ok := c.items[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.list.moveToFront(n)
	return n.value, true
}

func (c *LRU[K, V]) add(key K, value V) {
	if n, ok := c.items[key]; ok {
		n.value = value
		c.list.moveToFront(n)
		return
	}
	n := &node[K, V]{key: key, value: value}
	c.items[key] = n
	c.list.pushFront(n)
	if c.limit > 0 && len(c.items) > c.limit {
		oldest := c.list.tail
		c.list.unlink(oldest)
		delete(c.items, oldest.key)
	}
}
