package search

import (
	"time"

	"github.com/lookup-erp/lookup/pkg/normalize"
)

// Policy holds the timing rules of the debounced search.
type Policy struct {
	// MinLength is the shortest normalized query that triggers a search.
	MinLength int
	// Delay is the debounce window for regular queries.
	Delay time.Duration
	// ShortDelay replaces Delay for queries of at most ShortLength runes,
	// trading latency for fewer wasted calls on very short prefixes.
	ShortDelay  time.Duration
	ShortLength int
}

// DefaultPolicy returns the stock debounce timings.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:   normalize.MinLength,
		Delay:       300 * time.Millisecond,
		ShortDelay:  500 * time.Millisecond,
		ShortLength: 3,
	}
}

// DelayFor returns the debounce delay for a normalized query.
func (p Policy) DelayFor(q string) time.Duration {
	if normalize.Length(q) <= p.ShortLength && p.ShortDelay > 0 {
		return p.ShortDelay
	}
	return p.Delay
}

// Searchable reports whether a normalized query is long enough to search.
func (p Policy) Searchable(q string) bool {
	return normalize.Searchable(q, p.MinLength)
}
