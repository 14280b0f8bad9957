// Package ingest decodes uploaded rating tables into rows for the affect pipeline.
//
// Decoding happens in two steps. Decode turns an .xlsx, .csv or .json file into
// loosely typed records. Schema.Rows then checks those records against the row
// schema and converts them.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/affectlab/affectlab-server/internal/affect"
	"github.com/affectlab/affectlab-server/internal/errors"
)

// MaxFileSize is the largest accepted input file (16 MiB).
const MaxFileSize int64 = 16 << 20

// Supported file extensions.
const (
	ExtXLSX = ".xlsx"
	ExtCSV  = ".csv"
	ExtJSON = ".json"
)

// Record is one decoded row keyed by column name.
// Values are string, float64, bool or nil.
type Record map[string]any

// Supported reports whether filename has a decodable extension.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ExtXLSX, ExtCSV, ExtJSON:
		return true
	default:
		return false
	}
}

// Decode reads a table from r, choosing the format by the extension of filename.
// It returns the records and the column names in source order.
func Decode(r io.Reader, filename string) ([]Record, []string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !Supported(filename) {
		return nil, nil, errors.InvalidInputf("unsupported file format: %q (use .xlsx, .csv or .json)", ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeInvalidInput, "read input file")
	}
	if int64(len(data)) > MaxFileSize {
		return nil, nil, errors.PayloadTooLargef("file exceeds %d bytes", MaxFileSize)
	}

	var (
		records []Record
		columns []string
	)
	switch ext {
	case ExtXLSX:
		records, columns, err = decodeXLSX(data)
	case ExtCSV:
		records, columns, err = decodeCSV(data)
	case ExtJSON:
		records, columns, err = decodeJSON(data)
	}
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, errors.InvalidInputf("%s contains no data rows", filepath.Base(filename))
	}
	return records, columns, nil
}

func decodeXLSX(data []byte) ([]Record, []string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeInvalidInput, "malformed spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.InvalidInput("spreadsheet has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.CodeInvalidInput, "read sheet %q", sheet)
	}

	// Only cells stored as numbers or booleans are converted; text cells stay
	// text even when they look numeric ("007", "inf").
	return fromGrid(rows, func(row, col int, _ string, raw string) (any, error) {
		if strings.TrimSpace(raw) == "" {
			return nil, nil
		}
		ref, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return nil, err
		}
		typ, err := f.GetCellType(sheet, ref)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeInvalidInput, "read cell %s", ref)
		}
		switch typ {
		case excelize.CellTypeUnset, excelize.CellTypeNumber:
			if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
				return v, nil
			}
			return raw, nil
		case excelize.CellTypeBool:
			return raw == "1" || strings.EqualFold(raw, "true"), nil
		default:
			return raw, nil
		}
	})
}

func decodeCSV(data []byte) ([]Record, []string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeInvalidInput, "malformed csv")
	}

	// CSV has no cell types. Labels keep their exact text so "007" and "7"
	// stay distinct; other numeric-looking cells become float64.
	return fromGrid(rows, func(_, _ int, column, raw string) (any, error) {
		if isLabelColumn(column) {
			if strings.TrimSpace(raw) == "" {
				return nil, nil
			}
			return raw, nil
		}
		return inferValue(raw), nil
	})
}

// isLabelColumn reports whether column holds group or post labels.
func isLabelColumn(column string) bool {
	return strings.EqualFold(column, affect.ColumnGroup) || strings.EqualFold(column, affect.ColumnPost)
}

// cellFunc types one cell of a grid. row and col are 0-based grid positions
// (row 0 is the header).
type cellFunc func(row, col int, column, raw string) (any, error)

// fromGrid treats the first row as the header. Blank lines are skipped and
// every other cell is typed by cell.
func fromGrid(rows [][]string, cell cellFunc) ([]Record, []string, error) {
	if len(rows) == 0 {
		return nil, nil, errors.InvalidInput("table is empty")
	}

	header := make([]string, len(rows[0]))
	seen := make(map[string]bool, len(header))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "column_" + strconv.Itoa(i+1)
		}
		if seen[h] {
			return nil, nil, errors.InvalidInputf("duplicate column %q", h)
		}
		seen[h] = true
		header[i] = h
	}

	records := make([]Record, 0, len(rows)-1)
	for r, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		rec := make(Record, len(header))
		for i, name := range header {
			if i >= len(cells) {
				rec[name] = nil
				continue
			}
			v, err := cell(r+1, i, name, cells[i])
			if err != nil {
				return nil, nil, err
			}
			rec[name] = v
		}
		records = append(records, rec)
	}
	return records, header, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func inferValue(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return s
}

// decodeJSON accepts an array of flat objects. Key order of the first
// occurrence of each key defines the column order.
func decodeJSON(data []byte) ([]Record, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, nil, err
	}

	var (
		records []Record
		columns []string
		seen    = make(map[string]bool)
	)
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, nil, err
		}
		rec := make(Record)
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, nil, errors.Wrap(err, errors.CodeInvalidInput, "malformed json")
			}
			key, ok := tok.(string)
			if !ok {
				return nil, nil, errors.InvalidInput("malformed json: expected object key")
			}
			var raw any
			if err := dec.Decode(&raw); err != nil {
				return nil, nil, errors.Wrap(err, errors.CodeInvalidInput, "malformed json")
			}
			value, err := scalar(raw)
			if err != nil {
				return nil, nil, errors.InvalidInputf("column %q: %v", key, err)
			}
			rec[key] = value
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, nil, err
		}
		records = append(records, rec)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, nil, err
	}
	return records, columns, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "malformed json")
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return errors.InvalidInputf("malformed json: expected %q", want)
	}
	return nil
}

func scalar(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool:
		return x, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s", x)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("nested values are not supported")
	}
}
