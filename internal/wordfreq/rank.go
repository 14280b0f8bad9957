package wordfreq

import (
	"cmp"
	"math"
	"slices"
	"unicode/utf8"
)

// DefaultLimit is the number of ranked words returned by default.
const DefaultLimit = 20

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "with": {},
	"by": {}, "of": {}, "is": {}, "are": {}, "was": {}, "were": {},
}

// IsStopword reports whether tok is dropped by FilterStopwords.
func IsStopword(tok string) bool {
	if utf8.RuneCountInString(tok) <= 1 {
		return true
	}
	_, ok := stopwords[tok]
	return ok
}

// FilterStopwords returns a copy of counts without stop words and one-character tokens.
func FilterStopwords(counts map[string]int) map[string]int {
	out := make(map[string]int, len(counts))
	for tok, n := range counts {
		if !IsStopword(tok) {
			out[tok] = n
		}
	}
	return out
}

// WordCount is one ranked word.
type WordCount struct {
	Word  string `json:"word" yaml:"word"`
	Count int    `json:"count" yaml:"count"`
	// Percentage is the word's share of all counted tokens, rounded to 2 decimals.
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// Rank orders counts by frequency (descending, ties by word ascending) and keeps the first n.
// A non-positive n keeps everything.
func Rank(counts map[string]int, n int) []WordCount {
	total := 0
	for _, c := range counts {
		total += c
	}

	ranked := make([]WordCount, 0, len(counts))
	for word, c := range counts {
		ranked = append(ranked, WordCount{Word: word, Count: c, Percentage: percentage(c, total)})
	}

	slices.SortFunc(ranked, func(a, b WordCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Word, b.Word)
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*10000) / 100
}
