package ingest

import (
	"sync"
	"time"
)

// ResultCache stores recent ingestion results keyed by query string. It is
// an explicit collaborator injected by the caller, not ambient state, so
// tests control expiry deterministically.
type ResultCache interface {
	Get(key string) (*Result, bool)
	Set(key string, res *Result)
}

type cacheEntry struct {
	res       *Result
	expiresAt time.Time
}

// MemoryCache is a thread-safe in-memory ResultCache with TTL expiry.
type MemoryCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewMemoryCache creates a cache whose entries expire after ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return NewMemoryCacheWithClock(ttl, time.Now)
}

// NewMemoryCacheWithClock creates a cache with an injected clock.
func NewMemoryCacheWithClock(ttl time.Duration, clock func() time.Time) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     clock,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached result for key if present and unexpired.
func (c *MemoryCache) Get(key string) (*Result, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.res, true
}

// Set stores a result under key, resetting its TTL.
func (c *MemoryCache) Set(key string, res *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		res:       res,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Purge drops expired entries. Called opportunistically by long-lived
// owners; correctness never depends on it since Get checks expiry.
func (c *MemoryCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of entries including expired ones not yet purged.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
