// Package pathcache caches resolved absolute paths of indexed file-path ids.
//
// Ephemeral transfers address indexed sources by absolute path, which the
// backend resolves one query per item. The cache keeps those answers so a
// repeated transfer of the same selection does not refetch them.
package pathcache

import (
	"sync"
	"time"
)

// Cache is a bounded TTL cache of file-path id -> absolute path.
type Cache struct {
	ttl        time.Duration
	maxEntries int

	mu      sync.RWMutex
	entries map[int32]entry
}

type entry struct {
	path     string
	fetched  time.Time
	lastUsed time.Time
}

// New creates a cache. ttl <= 0 disables expiry; maxEntries <= 0 means
// unbounded.
func New(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[int32]entry),
	}
}

// Get returns the cached absolute path for a file-path id.
func (c *Cache) Get(id int32) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return "", false
	}
	if c.ttl > 0 && time.Since(e.fetched) > c.ttl {
		delete(c.entries, id)
		return "", false
	}
	e.lastUsed = time.Now()
	c.entries[id] = e
	return e.path, true
}

// Put stores a resolved path, evicting the least recently used entry when
// the cache is full.
func (c *Cache) Put(id int32, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[id]; !exists {
			c.evictOldest()
		}
	}

	now := time.Now()
	c.entries[id] = entry{path: path, fetched: now, lastUsed: now}
}

// Invalidate drops one id, e.g. after a cut moved the file.
func (c *Cache) Invalidate(id int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// InvalidateAll drops everything, e.g. after a location rescan.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int32]entry)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictOldest removes the least recently used entry. Lock must be held.
func (c *Cache) evictOldest() {
	var oldestID int32
	var oldest time.Time
	first := true
	for id, e := range c.entries {
		if first || e.lastUsed.Before(oldest) {
			oldestID, oldest = id, e.lastUsed
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestID)
	}
}
