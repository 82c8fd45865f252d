package search

import (
	"strings"
	"unicode"
)

// Tokenize splits text into lowercase word tokens. Tokens are maximal
// runs of unicode letters and digits; everything else is a boundary.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// CountTokens returns the number of word tokens in text.
func CountTokens(text string) int {
	return len(Tokenize(text))
}
