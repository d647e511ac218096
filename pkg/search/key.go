package search

import (
	"net/url"
	"strings"
)

// CacheKey builds the cache key for a normalized query under a scope
// (usually the domain) and the fixed contextual parameters.
// url.Values.Encode sorts by key, so equal parameter sets give equal keys.
func CacheKey(scope, query string, params url.Values) string {
	var b strings.Builder
	b.WriteString(scope)
	b.WriteByte('|')
	b.WriteString(query)
	if len(params) > 0 {
		b.WriteByte('|')
		b.WriteString(params.Encode())
	}
	return b.String()
}
