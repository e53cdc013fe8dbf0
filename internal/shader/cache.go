// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import "sync"

// Cache holds parsed modules keyed by their WGSL source, with a soft limit.
// When the limit is exceeded the least recently used quarter is evicted.
// Failed parses are not cached.
//
// Cache is safe for concurrent use.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*cacheEntry
	softLimit int
	tick      int64

	hits, misses uint64
}

type cacheEntry struct {
	module *Module
	atime  int64
}

// NewCache returns a cache holding about softLimit modules. A softLimit of
// 0 means unlimited.
func NewCache(softLimit int) *Cache {
	return &Cache{
		entries:   make(map[string]*cacheEntry),
		softLimit: softLimit,
	}
}

// Parse returns the cached module for src, parsing it on a miss. The
// returned module is shared and must not be modified.
func (c *Cache) Parse(src string) (*Module, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++
	if e, ok := c.entries[src]; ok {
		e.atime = c.tick
		c.hits++
		return e.module, nil
	}
	c.misses++

	m, err := Parse(src)
	if err != nil {
		return nil, err
	}
	c.entries[src] = &cacheEntry{module: m, atime: c.tick}
	if c.softLimit > 0 && len(c.entries) > c.softLimit {
		c.evictOldest()
	}
	return m, nil
}

// Len returns the number of cached modules.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Clear drops every entry. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// evictOldest trims the cache to three quarters of the soft limit.
// Caller must hold c.mu.
func (c *Cache) evictOldest() {
	target := max(c.softLimit*3/4, 1)
	for len(c.entries) > target {
		var (
			oldest string
			atime  int64 = -1
		)
		for k, e := range c.entries {
			if atime < 0 || e.atime < atime {
				oldest, atime = k, e.atime
			}
		}
		delete(c.entries, oldest)
	}
}
