// Package normalize canonicalises user typed search input.
package normalize

import (
	"strings"
	"unicode/utf8"
)

// MinLength is the shortest normalized query, in runes, that is worth sending
// to the backend.
const MinLength = 2

// Query trims, lowercases and collapses runs of whitespace to a single space.
// Query(Query(s)) == Query(s) for every s.
func Query(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// Length returns the length of a normalized query in runes.
func Length(q string) int {
	return utf8.RuneCountInString(q)
}

// Searchable reports whether a normalized query reaches min runes.
// A min below one falls back to MinLength.
func Searchable(q string, min int) bool {
	if min < 1 {
		min = MinLength
	}
	return Length(q) >= min
}
