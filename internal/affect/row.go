// Package affect implements the tabular normalization pipeline for affect ratings.
//
// A table of rows carrying a group label, a post label and two ratings on a 1-5
// scale (valence and arousal) is turned into:
//
//   - the processed rows, each augmented with the ratings mapped onto 0-1,
//   - per-group and per-post averages of the four numeric fields,
//   - min-max scaled variants of those averages.
//
// Every function here is pure. State is allocated per call and nothing is shared
// between invocations.
package affect

import "math"

// Rating scale bounds.
const (
	ScaleMin = 1.0
	ScaleMax = 5.0
)

// SingleKeyScaledValue is the scaled value reported when an aggregate set has no
// spread (one key, or every key sharing the same mean).
const SingleKeyScaledValue = 0.5

// Column names of the derived and required fields.
const (
	ColumnGroup             = "group"
	ColumnPost              = "post"
	ColumnValence           = "valence"
	ColumnArousal           = "arousal"
	ColumnNormalizedValence = "normalized_valence"
	ColumnNormalizedArousal = "normalized_arousal"
)

// RequiredColumns lists the columns every input table must carry.
var RequiredColumns = []string{ColumnGroup, ColumnPost, ColumnValence, ColumnArousal}

// Field is a pass-through column value.
type Field struct {
	Name  string
	Value any
}

// Row is one rating record.
type Row struct {
	// ID identifies the row in its source (the 1-based row number when ingested from a file).
	ID      string
	Group   string
	Post    string
	Valence float64
	Arousal float64
	// Extra holds every other source column in source order.
	Extra []Field
	// Source is the record as read, under its source column names and in
	// source order. When set, original_data reproduces it instead of the
	// canonical layout.
	Source []Field
}

// ProcessedRow is a Row augmented with its normalized ratings.
type ProcessedRow struct {
	Row
	NormalizedValence float64
	NormalizedArousal float64
}

// NormalizeValue maps a 1-5 rating onto 0-1.
func NormalizeValue(x float64) float64 {
	return (x - ScaleMin) / (ScaleMax - ScaleMin)
}

// InRange reports whether x is a finite rating within the scale.
func InRange(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x >= ScaleMin && x <= ScaleMax
}
