// Package wordfreq counts and ranks the words of a free-text input.
//
// The canonical pipeline is tokenize, count, drop stop words and one-character
// tokens, then rank by count (descending) with ties broken alphabetically and
// keep the top 20.
package wordfreq

import (
	"iter"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// isWordRune reports whether r belongs to a token: letters, digits, combining
// marks (Hebrew niqqud, Arabic harakat) and underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r)
}

// Tokens yields the lowercased word tokens of text from left to right.
//
// A token is a maximal run of word runes; everything else is a delimiter and
// dropped. The sequence is lazy and may be ranged over any number of times.
func Tokens(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		// A Caser is stateful, so every iteration gets its own.
		lower := cases.Lower(language.Und)

		start := -1
		for i := 0; i < len(text); {
			r, size := utf8.DecodeRuneInString(text[i:])
			if isWordRune(r) {
				if start < 0 {
					start = i
				}
			} else if start >= 0 {
				if !yield(lower.String(text[start:i])) {
					return
				}
				start = -1
			}
			i += size
		}
		if start >= 0 {
			yield(lower.String(text[start:]))
		}
	}
}

// Count tallies every token. Each map holds exact integer frequencies.
func Count(tokens iter.Seq[string]) map[string]int {
	counts := make(map[string]int)
	for tok := range tokens {
		counts[tok]++
	}
	return counts
}
