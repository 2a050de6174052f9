// Package search provides the language-aware text normalization behind
// full-text search. Message content is shadowed by a stemmed token
// stream at index time and queries are stemmed the same way, so
// different inflections of a Spanish word match each other.
package search

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

const language = "spanish"

// tokenize lowercases and splits on anything that is not a letter or
// digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// stem reduces one token to its Spanish stem. Tokens the stemmer cannot
// handle (digits, other scripts) are kept as-is; search stays
// best-effort rather than failing.
func stem(token string) string {
	stemmed, err := snowball.Stem(token, language, true)
	if err != nil || stemmed == "" {
		return token
	}
	return stemmed
}

// StemText produces the stemmed shadow of message content that gets
// stored in the full-text index alongside the raw text.
func StemText(content string) string {
	tokens := tokenize(content)
	stems := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		stems = append(stems, stem(tok))
	}
	return strings.Join(stems, " ")
}

// MatchQuery turns a free-form user query into an FTS5 MATCH
// expression: each term stemmed and double-quoted (so FTS operators in
// user input stay inert), all terms required. Returns "" for queries
// with no usable terms.
func MatchQuery(query string) string {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		quoted = append(quoted, `"`+stem(tok)+`"`)
	}
	return strings.Join(quoted, " ")
}
