package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/affectlab/affectlab-server/internal/errors"
	"github.com/affectlab/affectlab-server/internal/langdetect"
	"github.com/affectlab/affectlab-server/internal/sentiment"
	"github.com/affectlab/affectlab-server/internal/wordfreq"
)

// TextResult is the outcome of a word-frequency analysis.
type TextResult struct {
	Results     []wordfreq.WordCount `json:"results"`
	Summary     string               `json:"summary"`
	TotalWords  int                  `json:"total_words"`
	UniqueWords int                  `json:"unique_words"`
	Sentiment   *sentiment.Score     `json:"sentiment,omitempty"`
	Language    string               `json:"language,omitempty"`
}

// TextService ranks word frequencies and annotates the text with its
// language and, for English, its sentiment.
type TextService struct {
	analyzer *sentiment.Analyzer
	detector *langdetect.Detector
	limit    int
	logger   *slog.Logger
}

// NewTextService creates a new text service. Either annotator may be nil.
func NewTextService(analyzer *sentiment.Analyzer, detector *langdetect.Detector, logger *slog.Logger) *TextService {
	return &TextService{
		analyzer: analyzer,
		detector: detector,
		limit:    wordfreq.DefaultLimit,
		logger:   logger,
	}
}

// Analyze returns the top words of text. Blank text is INVALID_INPUT.
func (s *TextService) Analyze(ctx context.Context, text string) (*TextResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.InvalidInput("empty text provided")
	}

	analysis := wordfreq.Analyze(text, wordfreq.Options{Limit: s.limit})

	result := &TextResult{
		Results:     analysis.Words,
		TotalWords:  analysis.TotalWords,
		UniqueWords: analysis.UniqueWords,
		Summary:     TextSummary(analysis.TotalWords, analysis.UniqueWords),
	}
	if result.Results == nil {
		result.Results = []wordfreq.WordCount{}
	}

	if s.detector != nil {
		result.Language = s.detector.Detect(text)
	}
	// VADER's lexicon is English only.
	if s.analyzer != nil && (result.Language == "" || result.Language == "en") {
		score := s.analyzer.Score(text)
		result.Sentiment = &score
	}

	s.logger.Info("text analyzed",
		"total_words", result.TotalWords,
		"unique_words", result.UniqueWords,
		"language", result.Language,
	)
	return result, nil
}

// TextSummary is the human-readable outcome line of an analysis.
func TextSummary(total, unique int) string {
	if total == 0 {
		return "No words found in the provided text. Please check your input."
	}
	return fmt.Sprintf("Analysis complete! Found %d unique words out of %d total words.", unique, total)
}
