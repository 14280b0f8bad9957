// Package langdetect identifies the language of submitted text.
package langdetect

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Languages the detector chooses between.
var Languages = []lingua.Language{
	lingua.English,
	lingua.Hebrew,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Arabic,
	lingua.Russian,
}

// minRelativeDistance rejects guesses too close to the runner-up.
const minRelativeDistance = 0.1

// Detector is safe for concurrent use.
type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector over Languages.
func New() *Detector {
	d := lingua.NewLanguageDetectorBuilder().
		FromLanguages(Languages...).
		WithMinimumRelativeDistance(minRelativeDistance).
		Build()
	return &Detector{detector: d}
}

// Detect returns the lowercase ISO 639-1 code of text's language,
// or "" when the text is blank or no language is reliable.
func (d *Detector) Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
