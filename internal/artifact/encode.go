// Package artifact publishes output tables as downloadable files.
//
// A Sink encodes each table with an Encoder, writes it to a Store (local disk or
// S3) and records it in the artifact registry so it can be served and expired.
package artifact

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/affectlab/affectlab-server/internal/affect"
)

// Formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Encoder serializes one table to a file format.
type Encoder interface {
	Format() string
	ContentType() string
	Encode(w io.Writer, t affect.Table) error
}

// NewEncoder returns the encoder for format.
func NewEncoder(format string) (Encoder, error) {
	switch strings.ToLower(format) {
	case FormatXLSX:
		return XLSXEncoder{}, nil
	case FormatCSV:
		return CSVEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown artifact format %q", format)
	}
}

// XLSXEncoder writes a single-sheet workbook named after the table title.
type XLSXEncoder struct{}

// Format implements Encoder.
func (XLSXEncoder) Format() string { return FormatXLSX }

// ContentType implements Encoder.
func (XLSXEncoder) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Encode implements Encoder.
func (XLSXEncoder) Encode(w io.Writer, t affect.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(t.Title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetName makes title a legal worksheet name (max 31 chars, no []:*?/\).
func sheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, title)
	if name == "" {
		return "Sheet1"
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}

// CSVEncoder writes RFC 4180 CSV with a header row.
type CSVEncoder struct{}

// Format implements Encoder.
func (CSVEncoder) Format() string { return FormatCSV }

// ContentType implements Encoder.
func (CSVEncoder) ContentType() string { return "text/csv; charset=utf-8" }

// Encode implements Encoder.
func (CSVEncoder) Encode(w io.Writer, t affect.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range record {
			if i < len(row) {
				record[i] = formatCell(row[i])
			} else {
				record[i] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
