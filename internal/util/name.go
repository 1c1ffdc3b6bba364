package util

import (
	"strings"
	"time"
	"unicode"
)

// SafeName lowercases s and reduces it to [a-z0-9_] so it is usable as a
// directory and object name component.
func SafeName(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	name := strings.TrimSuffix(b.String(), "_")
	if name == "" {
		return "user"
	}
	return name
}

// RepoName builds the directory name for a generated repository,
// e.g. "alex_smith_life_20240101_153000".
func RepoName(author string, at time.Time) string {
	return SafeName(author) + "_life_" + at.UTC().Format("20060102_150405")
}
