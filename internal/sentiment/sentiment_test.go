package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "just words", "just words"},
		{"emphasis", "this is **really** _good_", "this is really good"},
		{"markdown link", "see [the docs](https://example.com/x) now", "see the docs now"},
		{"bare url", "visit https://example.com today", "visit today"},
		{"heading and list", "# Title\n\n- one\n- two", "Title one two"},
		{"entities", "fish & chips", "fish & chips"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.input))
		})
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, LabelPositive, Label(0.2))
	assert.Equal(t, LabelPositive, Label(0.9))
	assert.Equal(t, LabelNegative, Label(-0.2))
	assert.Equal(t, LabelNeutral, Label(0.19))
	assert.Equal(t, LabelNeutral, Label(0))
}

func TestAnalyzer_Score(t *testing.T) {
	a := NewAnalyzer()

	pos := a.Score("I love this, it is wonderful and great!")
	assert.Equal(t, LabelPositive, pos.Label)
	assert.Greater(t, pos.Compound, 0.5)

	neg := a.Score("This is terrible, awful and I hate it.")
	assert.Equal(t, LabelNegative, neg.Label)
	assert.Less(t, neg.Compound, -0.5)

	empty := a.Score("")
	assert.Equal(t, LabelNeutral, empty.Label)
	assert.Zero(t, empty.Compound)
}
