package affect

// Table names.
const (
	TableOriginal      = "original_data"
	TableProcessed     = "processed_data"
	TableGroupAverages = "group_averages"
	TablePostAverages  = "post_averages"
	TableGroupScaled   = "group_scaled"
	TablePostScaled    = "post_scaled"
)

// TableNames lists every output table in publication order.
var TableNames = []string{
	TableOriginal,
	TableProcessed,
	TableGroupAverages,
	TablePostAverages,
	TableGroupScaled,
	TablePostScaled,
}

var tableTitles = map[string]string{
	TableOriginal:      "Original Data",
	TableProcessed:     "Processed Data",
	TableGroupAverages: "Group Averages",
	TablePostAverages:  "Post Averages",
	TableGroupScaled:   "Group Scaled",
	TablePostScaled:    "Post Scaled",
}

// Title returns the human-readable title of a table name.
func Title(name string) string {
	if t, ok := tableTitles[name]; ok {
		return t
	}
	return name
}

// Table is a rectangular, independently serializable output.
// Cell values are string, float64, int or nil.
type Table struct {
	Name    string
	Title   string
	Columns []string
	Rows    [][]any
}

// Shape returns the row and column counts.
func (t Table) Shape() [2]int {
	return [2]int{len(t.Rows), len(t.Columns)}
}

// Tables renders the result as its six named tables, in TableNames order.
func (r *Result) Tables() []Table {
	return []Table{
		r.originalTable(),
		r.processedTable(),
		aggregateTable(TableGroupAverages, ColumnGroup, r.GroupAverages),
		aggregateTable(TablePostAverages, ColumnPost, r.PostAverages),
		scaledTable(TableGroupScaled, ColumnGroup, r.GroupScaled),
		scaledTable(TablePostScaled, ColumnPost, r.PostScaled),
	}
}

// originalColumns returns the required columns followed by every pass-through
// column in first-seen order.
func originalColumns(rows []Row) []string {
	cols := append([]string(nil), RequiredColumns...)
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	for _, r := range rows {
		for _, f := range r.Extra {
			if !seen[f.Name] {
				seen[f.Name] = true
				cols = append(cols, f.Name)
			}
		}
	}
	return cols
}

func extraValue(r Row, name string) any {
	for _, f := range r.Extra {
		if f.Name == name {
			return f.Value
		}
	}
	return nil
}

func baseCells(r Row, extras []string) []any {
	cells := make([]any, 0, len(RequiredColumns)+len(extras)+2)
	cells = append(cells, r.Group, r.Post, r.Valence, r.Arousal)
	for _, name := range extras {
		cells = append(cells, extraValue(r, name))
	}
	return cells
}

// sourceColumns returns the source column names in first-seen order, or nil
// when no row carries its source record.
func sourceColumns(rows []Row) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, r := range rows {
		for _, f := range r.Source {
			if !seen[f.Name] {
				seen[f.Name] = true
				cols = append(cols, f.Name)
			}
		}
	}
	return cols
}

func sourceValue(r Row, name string) any {
	for _, f := range r.Source {
		if f.Name == name {
			return f.Value
		}
	}
	return nil
}

// originalWidth is the column count of original_data.
func originalWidth(rows []Row) int {
	if cols := sourceColumns(rows); cols != nil {
		return len(cols)
	}
	return len(originalColumns(rows))
}

func (r *Result) originalTable() Table {
	if cols := sourceColumns(r.Original); cols != nil {
		rows := make([][]any, len(r.Original))
		for i, row := range r.Original {
			cells := make([]any, len(cols))
			for j, name := range cols {
				cells[j] = sourceValue(row, name)
			}
			rows[i] = cells
		}
		return Table{Name: TableOriginal, Title: Title(TableOriginal), Columns: cols, Rows: rows}
	}

	cols := originalColumns(r.Original)
	extras := cols[len(RequiredColumns):]

	rows := make([][]any, len(r.Original))
	for i, row := range r.Original {
		rows[i] = baseCells(row, extras)
	}
	return Table{Name: TableOriginal, Title: Title(TableOriginal), Columns: cols, Rows: rows}
}

// processedTable appends the derived columns. Pass-through columns that share a
// derived column's name are replaced, so processing an already processed table
// yields the same output.
func (r *Result) processedTable() Table {
	var extras []string
	for _, c := range originalColumns(r.Original)[len(RequiredColumns):] {
		if c != ColumnNormalizedValence && c != ColumnNormalizedArousal {
			extras = append(extras, c)
		}
	}

	cols := append([]string(nil), RequiredColumns...)
	cols = append(cols, extras...)
	cols = append(cols, ColumnNormalizedValence, ColumnNormalizedArousal)

	rows := make([][]any, len(r.Processed))
	for i, p := range r.Processed {
		rows[i] = append(baseCells(p.Row, extras), p.NormalizedValence, p.NormalizedArousal)
	}
	return Table{Name: TableProcessed, Title: Title(TableProcessed), Columns: cols, Rows: rows}
}

func aggregateTable(name, keyColumn string, aggs []Aggregate) Table {
	rows := make([][]any, len(aggs))
	for i, a := range aggs {
		rows[i] = []any{a.Key, a.Count, a.Valence, a.Arousal, a.NormalizedValence, a.NormalizedArousal}
	}
	return Table{
		Name:  name,
		Title: Title(name),
		Columns: []string{
			keyColumn, "count",
			ColumnValence, ColumnArousal,
			ColumnNormalizedValence, ColumnNormalizedArousal,
		},
		Rows: rows,
	}
}

func scaledTable(name, keyColumn string, scaled []Scaled) Table {
	rows := make([][]any, len(scaled))
	for i, s := range scaled {
		rows[i] = []any{s.Key, s.Valence, s.Arousal}
	}
	return Table{
		Name:    name,
		Title:   Title(name),
		Columns: []string{keyColumn, "valence_scaled", "arousal_scaled"},
		Rows:    rows,
	}
}
