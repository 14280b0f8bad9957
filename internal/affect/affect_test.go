package affect

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affectlab/affectlab-server/internal/errors"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func sampleRows() []Row {
	return []Row{
		{ID: "1", Group: "A", Post: "P1", Valence: 4.5, Arousal: 3.2},
		{ID: "2", Group: "B", Post: "P2", Valence: 3.8, Arousal: 4.1},
	}
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1, 0},
		{2, 0.25},
		{3, 0.5},
		{4.5, 0.875},
		{3.8, 0.7},
		{5, 1},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, NormalizeValue(tt.in), 1e-12, "NormalizeValue(%v)", tt.in)
	}
}

func TestNormalize_WithinUnitInterval(t *testing.T) {
	var rows []Row
	for v := 1.0; v <= 5.0; v += 0.125 {
		rows = append(rows, Row{Group: "g", Post: "p", Valence: v, Arousal: 6 - v})
	}

	for i, p := range Normalize(rows) {
		assert.InDelta(t, (rows[i].Valence-1)/4, p.NormalizedValence, 1e-12)
		assert.InDelta(t, (rows[i].Arousal-1)/4, p.NormalizedArousal, 1e-12)
		assert.GreaterOrEqual(t, p.NormalizedValence, 0.0)
		assert.LessOrEqual(t, p.NormalizedValence, 1.0)
	}
}

func TestNormalize_PreservesOrderAndFields(t *testing.T) {
	rows := []Row{
		{ID: "3", Group: "C", Post: "P9", Valence: 2, Arousal: 5, Extra: []Field{{Name: "rater", Value: "r7"}}},
		{ID: "1", Group: "A", Post: "P1", Valence: 1, Arousal: 1},
		{ID: "2", Group: "C", Post: "P2", Valence: 5, Arousal: 3},
	}

	out := Normalize(rows)

	require.Len(t, out, len(rows))
	for i := range rows {
		assert.Equal(t, rows[i], out[i].Row)
	}
}

func TestNormalize_NaNPropagates(t *testing.T) {
	out := Normalize([]Row{{Group: "A", Post: "P", Valence: math.NaN(), Arousal: 2}})
	assert.True(t, math.IsNaN(out[0].NormalizedValence))
	assert.InDelta(t, 0.25, out[0].NormalizedArousal, 1e-12)
}

func TestAggregateByGroup_FirstSeenOrder(t *testing.T) {
	rows := Normalize([]Row{
		{Group: "zeta", Post: "p1", Valence: 5, Arousal: 1},
		{Group: "alpha", Post: "p1", Valence: 1, Arousal: 1},
		{Group: "zeta", Post: "p2", Valence: 3, Arousal: 3},
		{Group: "mid", Post: "p3", Valence: 2, Arousal: 4},
	})

	got, err := AggregateByGroup(rows)
	require.NoError(t, err)

	want := []Aggregate{
		{Key: "zeta", Count: 2, Valence: 4, Arousal: 2, NormalizedValence: 0.75, NormalizedArousal: 0.25},
		{Key: "alpha", Count: 1, Valence: 1, Arousal: 1, NormalizedValence: 0, NormalizedArousal: 0},
		{Key: "mid", Count: 1, Valence: 2, Arousal: 4, NormalizedValence: 0.25, NormalizedArousal: 0.75},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("AggregateByGroup() mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateByGroup_NormalizedMeanMatchesFormula(t *testing.T) {
	rows := Normalize([]Row{
		{Group: "G", Post: "a", Valence: 1.3, Arousal: 2},
		{Group: "G", Post: "b", Valence: 4.9, Arousal: 3},
		{Group: "G", Post: "c", Valence: 2.2, Arousal: 5},
		{Group: "H", Post: "d", Valence: 3.3, Arousal: 1},
	})

	got, err := AggregateByGroup(rows)
	require.NoError(t, err)
	require.Len(t, got, 2)

	want := ((1.3-1)/4 + (4.9-1)/4 + (2.2-1)/4) / 3
	assert.InDelta(t, want, got[0].NormalizedValence, 1e-12)
	assert.Equal(t, 3, got[0].Count)
}

func TestAggregateByGroup_ExactKeyEquality(t *testing.T) {
	rows := Normalize([]Row{
		{Group: "a", Post: "p", Valence: 1, Arousal: 1},
		{Group: "A", Post: "p", Valence: 5, Arousal: 5},
		{Group: "a ", Post: "p", Valence: 3, Arousal: 3},
	})

	got, err := AggregateByGroup(rows)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestAggregateByPost(t *testing.T) {
	rows := Normalize([]Row{
		{Group: "A", Post: "P1", Valence: 2, Arousal: 4},
		{Group: "B", Post: "P1", Valence: 4, Arousal: 2},
		{Group: "A", Post: "P2", Valence: 5, Arousal: 5},
	})

	got, err := AggregateByPost(rows)
	require.NoError(t, err)

	want := []Aggregate{
		{Key: "P1", Count: 2, Valence: 3, Arousal: 3, NormalizedValence: 0.5, NormalizedArousal: 0.5},
		{Key: "P2", Count: 1, Valence: 5, Arousal: 5, NormalizedValence: 1, NormalizedArousal: 1},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("AggregateByPost() mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	got, err := AggregateByGroup(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMean(t *testing.T) {
	m, err := Mean([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 2.5, m, 1e-12)

	_, err = Mean(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEmptyAggregate))
}

func TestScaleAggregates(t *testing.T) {
	tests := []struct {
		name string
		aggs []Aggregate
		want []Scaled
	}{
		{
			name: "empty",
			aggs: nil,
			want: []Scaled{},
		},
		{
			name: "single key uses midpoint",
			aggs: []Aggregate{{Key: "A", Valence: 4.5, Arousal: 3.2}},
			want: []Scaled{{Key: "A", Valence: 0.5, Arousal: 0.5}},
		},
		{
			name: "all equal uses midpoint",
			aggs: []Aggregate{{Key: "A", Valence: 3, Arousal: 2}, {Key: "B", Valence: 3, Arousal: 4}},
			want: []Scaled{{Key: "A", Valence: 0.5, Arousal: 0}, {Key: "B", Valence: 0.5, Arousal: 1}},
		},
		{
			name: "min to zero and max to one",
			aggs: []Aggregate{
				{Key: "A", Valence: 2, Arousal: 5},
				{Key: "B", Valence: 4, Arousal: 1},
				{Key: "C", Valence: 3, Arousal: 2},
			},
			want: []Scaled{
				{Key: "A", Valence: 0, Arousal: 1},
				{Key: "B", Valence: 1, Arousal: 0},
				{Key: "C", Valence: 0.5, Arousal: 0.25},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScaleAggregates(tt.aggs)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("ScaleAggregates() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProcessTable_EndToEnd(t *testing.T) {
	res, err := ProcessTable(sampleRows())
	require.NoError(t, err)

	require.Len(t, res.Processed, 2)
	assert.InDelta(t, 0.875, res.Processed[0].NormalizedValence, 1e-12)
	assert.InDelta(t, 0.7, res.Processed[1].NormalizedValence, 1e-12)
	assert.InDelta(t, 0.55, res.Processed[0].NormalizedArousal, 1e-12)
	assert.InDelta(t, 0.775, res.Processed[1].NormalizedArousal, 1e-12)

	want := []Aggregate{
		{Key: "A", Count: 1, Valence: 4.5, Arousal: 3.2, NormalizedValence: 0.875, NormalizedArousal: 0.55},
		{Key: "B", Count: 1, Valence: 3.8, Arousal: 4.1, NormalizedValence: 0.7, NormalizedArousal: 0.775},
	}
	if diff := cmp.Diff(want, res.GroupAverages, approx); diff != "" {
		t.Errorf("group averages mismatch (-want +got):\n%s", diff)
	}

	wantScaled := []Scaled{{Key: "A", Valence: 1, Arousal: 0}, {Key: "B", Valence: 0, Arousal: 1}}
	if diff := cmp.Diff(wantScaled, res.GroupScaled, approx); diff != "" {
		t.Errorf("group scaled mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessTable_SingleRow(t *testing.T) {
	row := Row{ID: "1", Group: "solo", Post: "only", Valence: 2.6, Arousal: 4.2}

	res, err := ProcessTable([]Row{row})
	require.NoError(t, err)

	require.Len(t, res.GroupAverages, 1)
	require.Len(t, res.PostAverages, 1)
	for _, agg := range []Aggregate{res.GroupAverages[0], res.PostAverages[0]} {
		assert.InDelta(t, row.Valence, agg.Valence, 1e-12)
		assert.InDelta(t, row.Arousal, agg.Arousal, 1e-12)
		assert.InDelta(t, NormalizeValue(row.Valence), agg.NormalizedValence, 1e-12)
	}
	assert.Equal(t, []Scaled{{Key: "solo", Valence: 0.5, Arousal: 0.5}}, res.GroupScaled)
	assert.Equal(t, []Scaled{{Key: "only", Valence: 0.5, Arousal: 0.5}}, res.PostScaled)
}

func TestProcessTable_Idempotent(t *testing.T) {
	first, err := ProcessTable(sampleRows())
	require.NoError(t, err)

	// Feed the processed rows back in, carrying the derived columns as pass-through fields.
	again := make([]Row, len(first.Processed))
	for i, p := range first.Processed {
		r := p.Row
		r.Extra = append(r.Extra,
			Field{Name: ColumnNormalizedValence, Value: p.NormalizedValence},
			Field{Name: ColumnNormalizedArousal, Value: p.NormalizedArousal},
		)
		again[i] = r
	}

	second, err := ProcessTable(again)
	require.NoError(t, err)

	for i := range first.Processed {
		assert.Equal(t, first.Processed[i].NormalizedValence, second.Processed[i].NormalizedValence)
		assert.Equal(t, first.Processed[i].NormalizedArousal, second.Processed[i].NormalizedArousal)
	}
	assert.Equal(t, first.Tables()[1], second.Tables()[1])
}

func TestProcessTable_FailFast(t *testing.T) {
	tests := []struct {
		name      string
		rows      []Row
		wantField string
	}{
		{name: "empty table", rows: nil},
		{name: "missing group", rows: []Row{{Post: "p", Valence: 3, Arousal: 3}}, wantField: ColumnGroup},
		{name: "missing post", rows: []Row{{Group: "g", Valence: 3, Arousal: 3}}, wantField: ColumnPost},
		{name: "valence above scale", rows: []Row{{Group: "g", Post: "p", Valence: 5.5, Arousal: 3}}, wantField: ColumnValence},
		{name: "arousal below scale", rows: []Row{{Group: "g", Post: "p", Valence: 3, Arousal: 0}}, wantField: ColumnArousal},
		{name: "nan valence", rows: []Row{{Group: "g", Post: "p", Valence: math.NaN(), Arousal: 3}}, wantField: ColumnValence},
		{name: "infinite arousal", rows: []Row{{Group: "g", Post: "p", Valence: 3, Arousal: math.Inf(1)}}, wantField: ColumnArousal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ProcessTable(tt.rows)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput))

			if tt.wantField == "" {
				return
			}
			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			issues, ok := domainErr.Details.([]Issue)
			require.True(t, ok)
			require.Len(t, issues, 1)
			assert.Equal(t, tt.wantField, issues[0].Field)
			assert.Equal(t, "1", issues[0].Row)
		})
	}
}

func TestProcessTable_ReportsEveryIssue(t *testing.T) {
	rows := []Row{
		{ID: "2", Group: "A", Post: "P1", Valence: 3, Arousal: 3},
		{ID: "3", Group: "", Post: "P2", Valence: 9, Arousal: 3},
		{ID: "4", Group: "B", Post: "P3", Valence: 3, Arousal: -1},
	}

	_, err := ProcessTable(rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3: group is required")

	var domainErr *errors.Error
	require.True(t, errors.As(err, &domainErr))
	issues := domainErr.Details.([]Issue)
	assert.Equal(t, []Issue{
		{Row: "3", Field: ColumnGroup, Message: "is required"},
		{Row: "3", Field: ColumnValence, Message: "must be a number between 1 and 5, got 9"},
		{Row: "4", Field: ColumnArousal, Message: "must be a number between 1 and 5, got -1"},
	}, issues)
}

func TestResult_Tables(t *testing.T) {
	rows := sampleRows()
	rows[0].Extra = []Field{{Name: "rater", Value: "r1"}}
	rows[1].Extra = []Field{{Name: "session", Value: 2.0}}

	res, err := ProcessTable(rows)
	require.NoError(t, err)

	tables := res.Tables()
	require.Len(t, tables, len(TableNames))
	for i, tbl := range tables {
		assert.Equal(t, TableNames[i], tbl.Name)
		assert.NotEmpty(t, tbl.Title)
		for _, row := range tbl.Rows {
			assert.Len(t, row, len(tbl.Columns), "table %s", tbl.Name)
		}
	}

	original := tables[0]
	assert.Equal(t, []string{"group", "post", "valence", "arousal", "rater", "session"}, original.Columns)
	assert.Equal(t, []any{"A", "P1", 4.5, 3.2, "r1", nil}, original.Rows[0])
	assert.Equal(t, [2]int{2, 6}, original.Shape())

	processed := tables[1]
	assert.Equal(t, []string{"group", "post", "valence", "arousal", "rater", "session", "normalized_valence", "normalized_arousal"}, processed.Columns)

	groups := tables[2]
	assert.Equal(t, "Group Averages", groups.Title)
	assert.Equal(t, "group", groups.Columns[0])
	assert.Len(t, groups.Rows, 2)

	postScaled := tables[5]
	assert.Equal(t, []string{"post", "valence_scaled", "arousal_scaled"}, postScaled.Columns)
}

func TestResult_OriginalTableKeepsSource(t *testing.T) {
	rows := sampleRows()
	for i := range rows {
		rows[i].Source = []Field{
			{Name: "Valence", Value: rows[i].Valence},
			{Name: "Post", Value: rows[i].Post},
			{Name: "valence", Value: "dup"},
			{Name: "Group", Value: rows[i].Group},
			{Name: "Arousal", Value: rows[i].Arousal},
		}
	}
	rows[1].Source = append(rows[1].Source, Field{Name: "note", Value: "late"})

	res, err := ProcessTable(rows)
	require.NoError(t, err)

	original := res.Tables()[0]
	assert.Equal(t, []string{"Valence", "Post", "valence", "Group", "Arousal", "note"}, original.Columns)
	assert.Equal(t, []any{4.5, "P1", "dup", "A", 3.2, nil}, original.Rows[0])
	assert.Equal(t, "late", original.Rows[1][5])
	assert.Contains(t, res.Summary(), "and 6 columns")

	processed := res.Tables()[1]
	assert.Equal(t, []string{"group", "post", "valence", "arousal", "normalized_valence", "normalized_arousal"}, processed.Columns)
}

func TestResult_Summary(t *testing.T) {
	res, err := ProcessTable(sampleRows())
	require.NoError(t, err)

	assert.Equal(t, "Data scaling complete! Processed 2 rows and 4 columns. Created 6 tables.", res.Summary())
}

func TestTitle_Unknown(t *testing.T) {
	assert.Equal(t, "custom", Title("custom"))
}
