package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords are articles and prepositions dropped during tokenization.
// Queries are predominantly Spanish with occasional English, so both sets
// are carried; the lists are static configuration, not derived data.
var stopwords = map[string]struct{}{
	"de": {}, "del": {}, "la": {}, "el": {}, "los": {}, "las": {},
	"y": {}, "con": {}, "para": {}, "por": {}, "en": {},
	"un": {}, "una": {}, "unos": {}, "unas": {},
	"of": {}, "the": {}, "and": {}, "with": {}, "for": {}, "a": {}, "an": {},
}

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lower-cases, strips diacritics and trims surrounding
// whitespace. It is pure and deterministic; on a (practically impossible)
// transform failure the lower-cased input is returned as-is.
func Normalize(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	stripped, _, err := transform.String(deaccent, lowered)
	if err != nil {
		return lowered
	}
	return stripped
}

// Tokenize splits a query into comparable tokens: normalized, naively
// singularized (trailing "s" dropped for tokens longer than three runes)
// and with stopwords removed.
func Tokenize(text string) []string {
	fields := strings.Fields(Normalize(text))
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len(tok) > 3 && strings.HasSuffix(tok, "s") {
			tok = tok[:len(tok)-1]
		}
		if _, skip := stopwords[tok]; skip {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
