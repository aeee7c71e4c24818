// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package heuristic

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// lru is a fixed-capacity least-recently-used map.
//
// Thread Safety: All methods are safe for concurrent use.
type lru[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	order    *list.List // front is most recent

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type lruItem[K comparable, V any] struct {
	key   K
	value V
}

// newLRU returns an empty cache. capacity <= 0 selects DefaultCacheCapacity.
func newLRU[K comparable, V any](capacity int) *lru[K, V] {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &lru[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}
}

// get returns the value for key and marks it most recently used.
func (c *lru[K, V]) get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		c.order.MoveToFront(e)
		c.hits.Add(1)
		return e.Value.(*lruItem[K, V]).value, true
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// add stores value under key, evicting the oldest entry when full. It
// reports whether an entry was evicted.
func (c *lru[K, V]) add(key K, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		c.order.MoveToFront(e)
		e.Value.(*lruItem[K, V]).value = value
		return false
	}

	evicted := false
	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*lruItem[K, V]).key)
			c.evictions.Add(1)
			evicted = true
		}
	}
	c.items[key] = c.order.PushFront(&lruItem[K, V]{key: key, value: value})
	return evicted
}

// purge drops every entry. Counters are kept.
func (c *lru[K, V]) purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.order.Len()
	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
	return n
}

func (c *lru[K, V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Entries   int
	Capacity  int
	Hits      int64
	Misses    int64
	Evictions int64
}

func (c *lru[K, V]) stats() CacheStats {
	return CacheStats{
		Entries:   c.len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
