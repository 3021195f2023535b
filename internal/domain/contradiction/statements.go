package contradiction

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	sentenceBreak = regexp.MustCompile(`[.!?]+(?:\s+|$)|\n+`)
	factIndicator = regexp.MustCompile(`(?i)\b(must|shall|should|required|requires?|mandatory|always|never|` +
		`process|procedures?|steps?|workflow|versions?|releases?|released)\b|\d`)
)

// KeyStatements returns the factual sentences of content: longer than minLength
// characters and carrying an obligation, process, versioning or numeric indicator.
func KeyStatements(content string, minLength int) []string {
	var out []string
	for _, s := range sentenceBreak.Split(content, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) <= minLength {
			continue
		}
		if factIndicator.MatchString(s) {
			out = append(out, s)
		}
	}
	return out
}

// excerpt returns at most n runes of s.
func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
