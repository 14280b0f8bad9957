package wordfreq

// Options tunes Analyze.
type Options struct {
	// Limit caps the ranked list; zero means DefaultLimit.
	Limit int
	// KeepStopwords disables stop-word and one-character filtering.
	KeepStopwords bool
}

// Analysis is the outcome of one text analysis.
type Analysis struct {
	Words []WordCount
	// TotalWords counts the tokens that survived filtering.
	TotalWords int
	// UniqueWords counts the distinct tokens that survived filtering.
	UniqueWords int
}

// Analyze runs the word-frequency pipeline over text.
func Analyze(text string, opts Options) Analysis {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	counts := Count(Tokens(text))
	if !opts.KeepStopwords {
		counts = FilterStopwords(counts)
	}

	total := 0
	for _, c := range counts {
		total += c
	}

	return Analysis{
		Words:       Rank(counts, limit),
		TotalWords:  total,
		UniqueWords: len(counts),
	}
}

// ProcessText returns the top DefaultLimit words of text with stop words removed.
// It never fails: empty or whitespace-only text yields an empty, non-nil slice.
func ProcessText(text string) []WordCount {
	return Analyze(text, Options{}).Words
}
