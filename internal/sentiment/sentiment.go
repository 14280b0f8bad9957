// Package sentiment scores free text with VADER.
package sentiment

import (
	"html"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
)

// Labels.
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

// Threshold is the absolute compound score needed for a non-neutral label.
const Threshold = 0.2

var (
	mdLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?://[^\s)]+)\)`)
	urlPattern    = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
)

// Score is the sentiment of a text.
type Score struct {
	Compound float64 `json:"compound" yaml:"compound"`
	Label    string  `json:"label" yaml:"label"`
}

// Analyzer wraps a VADER intensity analyzer. It is safe for concurrent use.
type Analyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

// NewAnalyzer loads the VADER lexicon.
func NewAnalyzer() *Analyzer {
	return &Analyzer{vader: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the compound polarity of text after markdown and links are stripped.
func (a *Analyzer) Score(text string) Score {
	compound := a.vader.PolarityScores(PlainText(text)).Compound
	return Score{Compound: compound, Label: Label(compound)}
}

// Label maps a compound score to positive, negative or neutral.
func Label(compound float64) string {
	switch {
	case compound >= Threshold:
		return LabelPositive
	case compound <= -Threshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// PlainText renders markdown, drops markup and links, and collapses whitespace.
func PlainText(input string) string {
	input = mdLinkPattern.ReplaceAllString(input, "$1")

	rendered := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	text := html.UnescapeString(tagPattern.ReplaceAllString(string(rendered), " "))
	text = urlPattern.ReplaceAllString(text, "")

	return strings.Join(strings.Fields(text), " ")
}
