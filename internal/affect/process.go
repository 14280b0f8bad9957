package affect

import (
	"fmt"
	"strconv"

	"github.com/affectlab/affectlab-server/internal/errors"
)

// Issue describes one rejected value in an input table.
type Issue struct {
	Row     string `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result bundles every table produced from one input.
type Result struct {
	Original      []Row
	Processed     []ProcessedRow
	GroupAverages []Aggregate
	PostAverages  []Aggregate
	GroupScaled   []Scaled
	PostScaled    []Scaled
}

// ProcessTable validates rows and runs the full pipeline.
//
// The input must be non-empty, every row must carry a non-empty group and post,
// and both ratings must be finite values within [ScaleMin, ScaleMax]. Any violation
// fails the whole table with an INVALID_INPUT error whose details list each Issue.
func ProcessTable(rows []Row) (*Result, error) {
	if err := Validate(rows); err != nil {
		return nil, err
	}

	processed := Normalize(rows)

	groups, err := AggregateByGroup(processed)
	if err != nil {
		return nil, err
	}
	posts, err := AggregateByPost(processed)
	if err != nil {
		return nil, err
	}

	return &Result{
		Original:      rows,
		Processed:     processed,
		GroupAverages: groups,
		PostAverages:  posts,
		GroupScaled:   ScaleAggregates(groups),
		PostScaled:    ScaleAggregates(posts),
	}, nil
}

// Validate checks rows against the fail-fast input policy.
func Validate(rows []Row) error {
	if len(rows) == 0 {
		return errors.InvalidInput("table has no rows")
	}

	var issues []Issue
	for i, r := range rows {
		id := r.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		if r.Group == "" {
			issues = append(issues, Issue{Row: id, Field: ColumnGroup, Message: "is required"})
		}
		if r.Post == "" {
			issues = append(issues, Issue{Row: id, Field: ColumnPost, Message: "is required"})
		}
		if !InRange(r.Valence) {
			issues = append(issues, Issue{Row: id, Field: ColumnValence, Message: outOfRange(r.Valence)})
		}
		if !InRange(r.Arousal) {
			issues = append(issues, Issue{Row: id, Field: ColumnArousal, Message: outOfRange(r.Arousal)})
		}
	}

	if len(issues) > 0 {
		first := issues[0]
		return errors.InvalidInputf("row %s: %s %s", first.Row, first.Field, first.Message).WithDetails(issues)
	}
	return nil
}

func outOfRange(x float64) string {
	return fmt.Sprintf("must be a number between %g and %g, got %g", ScaleMin, ScaleMax, x)
}

// Summary describes the result in one sentence.
func (r *Result) Summary() string {
	return fmt.Sprintf("Data scaling complete! Processed %d rows and %d columns. Created %d tables.",
		len(r.Original), originalWidth(r.Original), len(TableNames))
}
