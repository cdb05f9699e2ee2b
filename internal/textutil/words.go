package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// IsWordRune reports whether r is a word character: a letter, a number, or
// an underscore.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// WordTokens returns up to limit maximal runs of word characters in text, in
// order. Text is NFC-normalized first so precomposed and decomposed accents
// tokenize identically. A limit <= 0 returns every token.
func WordTokens(text string, limit int) []string {
	text = norm.NFC.String(text)
	var tokens []string
	start := -1
	for i, r := range text {
		if IsWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, text[start:i])
			start = -1
			if limit > 0 && len(tokens) == limit {
				return tokens
			}
		}
	}
	if start >= 0 {
		tokens = append(tokens, text[start:])
	}
	if limit > 0 && len(tokens) > limit {
		tokens = tokens[:limit]
	}
	return tokens
}

// TruncateBytes shortens s to at most max bytes without splitting a rune.
func TruncateBytes(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimRight(s[:cut], "_")
}
