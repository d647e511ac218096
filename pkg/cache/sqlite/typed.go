package sqlite

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// Typed adapts a Cache to search.Cache[T] by storing results as JSON.
// Storage failures are logged and behave like misses.
type Typed[T any] struct {
	c   *Cache
	log zerolog.Logger
}

// NewTyped wraps c for result type T.
func NewTyped[T any](c *Cache, log zerolog.Logger) *Typed[T] {
	return &Typed[T]{c: c, log: log.With().Str("component", "cache").Logger()}
}

func (t *Typed[T]) Get(key string) ([]T, bool) {
	payload, ok := t.c.Get(key)
	if !ok {
		return nil, false
	}
	var data []T
	if err := json.Unmarshal(payload, &data); err != nil {
		t.log.Warn().Err(err).Str("key", key).Msg("dropping undecodable cache entry")
		return nil, false
	}
	return data, true
}

func (t *Typed[T]) Set(key string, data []T) {
	payload, err := json.Marshal(data)
	if err != nil {
		t.log.Warn().Err(err).Str("key", key).Msg("cannot encode results for cache")
		return
	}
	if err := t.c.Put(key, payload); err != nil {
		t.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (t *Typed[T]) Clear() {
	if err := t.c.Clear(false); err != nil {
		t.log.Warn().Err(err).Msg("cache clear failed")
	}
}
