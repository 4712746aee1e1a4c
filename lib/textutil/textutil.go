package textutil

import (
	"strings"
)

func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// StripPrefixes removes the first matching prefix (case-insensitive)
// and trims the remainder.
func StripPrefixes(s string, prefixes []string) string {
	lower := strings.ToLower(s)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, strings.ToLower(p)) {
			return strings.TrimSpace(s[len(p):])
		}
	}
	return s
}

// StripChars removes every occurrence of the given characters.
func StripChars(s string, chars string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(chars, r) {
			return -1
		}
		return r
	}, s)
}
