// Package memory provides the in-process TTL cache for search results.
package memory

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lookup-erp/lookup/pkg/models"
)

// DefaultTTL is how long a search result stays fresh.
const DefaultTTL = 30 * time.Second

type entry[T any] struct {
	data      []T
	timestamp time.Time
}

// Cache maps keys to result slices that expire after a fixed TTL.
// There is no size bound; entries leave only by expiry or Clear.
// Returned slices are shared and must not be modified.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]
	ttl     time.Duration
	now     func() time.Time
	hits    atomic.Int64
	misses  atomic.Int64
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now as the cache's time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a Cache with the given TTL. A non-positive TTL uses DefaultTTL.
func New[T any](ttl time.Duration, opts ...Option) *Cache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		now:     o.now,
	}
}

// Get returns the cached data for key if present and not expired.
func (c *Cache[T]) Get(key string) ([]T, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && c.expired(e, c.now()) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return e.data, true
}

// Set stores data under key, overwriting any previous entry, then sweeps.
func (c *Cache[T]) Set(key string, data []T) {
	c.mu.Lock()
	c.entries[key] = entry[T]{data: data, timestamp: c.now()}
	c.sweepLocked()
	c.mu.Unlock()
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Cache[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked()
}

// Clear removes all entries.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[T])
	c.mu.Unlock()
}

// Len returns the number of stored entries, including ones not yet swept.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache performance metrics.
func (c *Cache[T]) Stats() models.CacheStats {
	return models.CacheStats{
		Entries: int64(c.Len()),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

func (c *Cache[T]) sweepLocked() int {
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *Cache[T]) expired(e entry[T], now time.Time) bool {
	return now.Sub(e.timestamp) > c.ttl
}
