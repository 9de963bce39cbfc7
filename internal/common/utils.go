package common

import "strings"

// Matches reports whether s contains query, ignoring case and surrounding
// space. An empty query matches everything.
func Matches(s, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), q)
}

// PrefixOfAny returns true if s is a case-insensitive prefix of any of the
// words.
func PrefixOfAny(s string, words ...string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, w := range words {
		if strings.HasPrefix(strings.ToLower(w), s) {
			return true
		}
	}
	return false
}
