package vector

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// stopWords are dropped before weighting. Negations ("not", "no", "never") are kept
// because the contradiction rules depend on them.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"on": {}, "at": {}, "by": {}, "as": {}, "is": {}, "are": {}, "be": {}, "was": {},
	"were": {}, "it": {}, "its": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"with": {}, "from": {}, "for": {},
}

// Lexical builds the local fallback embedding: term frequencies over lowercase tokens.
// It needs no provider and is deterministic, so it doubles as the on-the-fly vector for
// documents and versions that carry no stored embedding.
func Lexical(text string) Sparse {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return Sparse{}
	}

	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}
	total := float64(len(tokens))
	vec := make(Sparse, len(counts))
	for term, c := range counts {
		vec[term] = float64(c) / total
	}
	return vec
}

// Tokenize splits text into lowercase tokens of letters, digits, '-' and '_' in any script,
// skipping single-rune tokens and stop words.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	var tokens []string
	var current strings.Builder
	flush := func() {
		tok := strings.Trim(current.String(), "-_")
		current.Reset()
		if utf8.RuneCountInString(tok) < 2 {
			return
		}
		if _, stop := stopWords[tok]; !stop {
			tokens = append(tokens, tok)
		}
	}
	for _, r := range text {
		if isTokenRune(r) {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || r == '-' || r == '_'
}

// TextSimilarity compares two texts through their lexical vectors.
func TextSimilarity(a, b string) float64 {
	sim, _ := Similarity(Lexical(a), Lexical(b))
	return sim
}

// Compare returns the similarity of two texts, using their stored vectors when both are
// present and comparable, and lexical vectors of both texts otherwise.
func Compare(aText string, aVec Vector, bText string, bVec Vector) float64 {
	if Compatible(aVec, bVec) {
		sim, _ := Similarity(aVec, bVec)
		return sim
	}
	return TextSimilarity(aText, bText)
}
