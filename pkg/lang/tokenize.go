package lang

import (
	"strings"
	"unicode"
)

// Tokenize lowercases the text and splits it into word tokens on
// whitespace and punctuation. Letters (including accented ones) and
// digits are kept; everything else separates tokens, so hyphenated
// terms split into their parts.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// TokenSet returns the distinct tokens of the text.
func TokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

// JoinedTokens returns the token stream as a single space-separated
// string with leading and trailing spaces, so multi-word terms can be
// matched whole-word with a substring check.
func JoinedTokens(text string) string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return " "
	}
	return " " + strings.Join(tokens, " ") + " "
}
