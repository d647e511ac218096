// Package sqlite persists search results so that short-lived processes share
// them within the TTL.
package sqlite

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lookup-erp/lookup/pkg/models"
)

// Cache is an exact-match search result cache backed by SQLite.
type Cache struct {
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	hits   atomic.Int64
	misses atomic.Int64
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS search_cache (
	cache_key TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	created_ms INTEGER NOT NULL,
	ttl_ms INTEGER NOT NULL
);
`

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now as the cache's time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache with the given database path and TTL.
func New(dbPath string, ttl time.Duration, opts ...Option) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	c := &Cache{db: db, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get retrieves a cached payload. Returns false if not found or expired.
func (c *Cache) Get(key string) ([]byte, bool) {
	var payload []byte
	var createdMs, ttlMs int64

	err := c.db.QueryRow(
		`SELECT payload, created_ms, ttl_ms FROM search_cache WHERE cache_key = ?`,
		key,
	).Scan(&payload, &createdMs, &ttlMs)

	if err != nil {
		c.misses.Add(1)
		return nil, false
	}

	if c.now().UnixMilli()-createdMs > ttlMs {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return payload, true
}

// Put stores a payload, replacing any previous one for key, then sweeps
// expired rows.
func (c *Cache) Put(key string, payload []byte) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO search_cache (cache_key, payload, created_ms, ttl_ms)
		 VALUES (?, ?, ?, ?)`,
		key, payload, c.now().UnixMilli(), c.ttl.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	if _, err := c.Sweep(); err != nil {
		return err
	}
	return nil
}

// Sweep deletes expired rows and returns how many were removed.
func (c *Cache) Sweep() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM search_cache WHERE ? - created_ms > ttl_ms`, c.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", err)
	}
	return n, nil
}

// Stats returns cache performance metrics. Hits and misses count this
// process only.
func (c *Cache) Stats() (models.CacheStats, error) {
	var count int64
	err := c.db.QueryRow(`SELECT COUNT(*) FROM search_cache`).Scan(&count)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return models.CacheStats{
		Entries: count,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// Clear removes cache entries. If expiredOnly is true, only expired entries are removed.
func (c *Cache) Clear(expiredOnly bool) error {
	if expiredOnly {
		_, err := c.Sweep()
		return err
	}
	if _, err := c.db.Exec(`DELETE FROM search_cache`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
