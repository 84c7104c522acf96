package steamapi

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/onnwee/steam-chat-bot/telemetry"
)

const (
	// CacheTTL is how long a fetched response is served from memory.
	CacheTTL = 300 * time.Second

	defaultCacheSize = 4096
)

type cacheEntry struct {
	value    any
	storedAt time.Time
}

// Cache is a process-local read-through cache keyed by "<operation>_<params>".
// Stale entries are evicted lazily on lookup; there is no background sweep.
type Cache struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, cacheEntry]
	ttl time.Duration
	now func() time.Time
}

// NewCache builds a cache holding at most size entries. A nil now uses time.Now.
func NewCache(size int, ttl time.Duration, now func() time.Time) *Cache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = CacheTTL
	}
	if now == nil {
		now = time.Now
	}
	l, err := simplelru.NewLRU[string, cacheEntry](size, nil)
	if err != nil {
		// only errors on non-positive size, guarded above
		panic(err)
	}
	return &Cache{lru: l, ttl: ttl, now: now}
}

// Get returns the value stored under key when it is younger than the TTL.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(key)
	if !ok {
		telemetry.IncCache("miss")
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.lru.Remove(key)
		telemetry.IncCache("expired")
		return nil, false
	}
	telemetry.IncCache("hit")
	return e.value, true
}

// Set stores value under key with the current timestamp.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, cacheEntry{value: value, storedAt: c.now()})
}

// Len reports the number of entries, including stale ones not yet evicted.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// cached serves key from c when present and fresh, otherwise calls fetch and
// stores its result. clone runs on both sides of the cache so callers never
// share backing arrays with the stored value. Empty results (ok=false) are
// not stored.
func cached[T any](c *Cache, key string, forceRefresh bool, clone func(T) T, fetch func() (T, bool)) T {
	if !forceRefresh {
		if v, ok := c.Get(key); ok {
			if t, ok := v.(T); ok {
				return clone(t)
			}
		}
	}
	val, ok := fetch()
	if !ok {
		var zero T
		return zero
	}
	c.Set(key, clone(val))
	return val
}
