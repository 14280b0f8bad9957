package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/affectlab/affectlab-server/internal/affect"
	"github.com/affectlab/affectlab-server/internal/errors"
	"github.com/affectlab/affectlab-server/internal/validation"
)

// MaxIssues bounds the number of row problems reported back to the caller.
const MaxIssues = 50

// rowInput is the validated shape of one record.
type rowInput struct {
	Group   string   `json:"group" validate:"required"`
	Post    string   `json:"post" validate:"required"`
	Valence *float64 `json:"valence" validate:"required,gte=1,lte=5"`
	Arousal *float64 `json:"arousal" validate:"required,gte=1,lte=5"`
}

// Schema converts loosely typed records into affect rows.
type Schema struct {
	validator *validation.Validator
}

// NewSchema creates a schema backed by v. A nil v gets a fresh validator.
func NewSchema(v *validation.Validator) *Schema {
	if v == nil {
		v = validation.New()
	}
	return &Schema{validator: v}
}

// Rows validates records against the row schema and converts them.
//
// Required columns are matched case-insensitively. Labels may be numbers
// (1 becomes "1") and ratings may be numeric strings. Every failing record is
// reported as an affect.Issue in the INVALID_INPUT error details, up to MaxIssues.
func (s *Schema) Rows(records []Record, columns []string) ([]affect.Row, error) {
	if len(records) == 0 {
		return nil, errors.InvalidInput("table has no rows")
	}

	required := make(map[string]string, len(affect.RequiredColumns))
	for _, col := range columns {
		lc := strings.ToLower(col)
		for _, want := range affect.RequiredColumns {
			if lc == want {
				if _, dup := required[want]; !dup {
					required[want] = col
				}
			}
		}
	}
	var missing []string
	for _, want := range affect.RequiredColumns {
		if _, ok := required[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return nil, errors.InvalidInputf("missing required columns: %s", strings.Join(missing, ", ")).
			WithDetails(map[string]any{"missing": missing, "columns": columns})
	}

	isRequired := make(map[string]bool, len(required))
	for _, src := range required {
		isRequired[src] = true
	}

	rows := make([]affect.Row, 0, len(records))
	var issues []affect.Issue
	for i, rec := range records {
		id := strconv.Itoa(i + 1)

		in, convIssues := convert(rec, required, id)
		issues = append(issues, convIssues...)

		fields, err := s.validator.Fields(in)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "validate row")
		}
		for _, col := range affect.RequiredColumns {
			if msg, bad := fields[col]; bad && !hasIssue(convIssues, col) {
				issues = append(issues, affect.Issue{Row: id, Field: col, Message: msg})
			}
		}
		if len(fields) > 0 || len(convIssues) > 0 {
			continue
		}

		row := affect.Row{
			ID:      id,
			Group:   in.Group,
			Post:    in.Post,
			Valence: *in.Valence,
			Arousal: *in.Arousal,
		}
		for _, col := range columns {
			row.Source = append(row.Source, affect.Field{Name: col, Value: rec[col]})
			if !isRequired[col] {
				row.Extra = append(row.Extra, affect.Field{Name: col, Value: rec[col]})
			}
		}
		rows = append(rows, row)
	}

	if len(issues) > 0 {
		first := issues[0]
		if len(issues) > MaxIssues {
			issues = issues[:MaxIssues]
		}
		return nil, errors.InvalidInputf("row %s: %s %s", first.Row, first.Field, first.Message).WithDetails(issues)
	}
	return rows, nil
}

func hasIssue(issues []affect.Issue, field string) bool {
	for _, is := range issues {
		if is.Field == field {
			return true
		}
	}
	return false
}

// convert maps a record onto rowInput. Type problems are returned as issues;
// range and presence checks are left to the validator.
func convert(rec Record, cols map[string]string, id string) (rowInput, []affect.Issue) {
	var (
		in     rowInput
		issues []affect.Issue
	)

	in.Group = label(rec[cols[affect.ColumnGroup]])
	in.Post = label(rec[cols[affect.ColumnPost]])

	for _, target := range []struct {
		name string
		dst  **float64
	}{
		{affect.ColumnValence, &in.Valence},
		{affect.ColumnArousal, &in.Arousal},
	} {
		v, err := number(rec[cols[target.name]])
		if err != nil {
			issues = append(issues, affect.Issue{Row: id, Field: target.name, Message: err.Error()})
			continue
		}
		*target.dst = v
	}
	return in, issues
}

// label renders a group or post cell as a string.
func label(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// number parses a rating cell. A nil result means the cell was empty.
func number(v any) (*float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return nil, nil
	case float64:
		f = x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("must be numeric, got %q", x)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("must be numeric, got %v", x)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("must be a finite number")
	}
	return &f, nil
}
