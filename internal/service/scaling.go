package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/affectlab/affectlab-server/internal/affect"
	"github.com/affectlab/affectlab-server/internal/artifact"
	"github.com/affectlab/affectlab-server/internal/errors"
	"github.com/affectlab/affectlab-server/internal/id"
	"github.com/affectlab/affectlab-server/internal/ingest"
	"github.com/affectlab/affectlab-server/internal/source"
)

// PreviewRows is the number of leading rows returned inline per table.
const PreviewRows = 5

// PreviewIndexColumn holds the 1-based row number in previews.
const PreviewIndexColumn = "#"

// Fetcher downloads remote input files.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, filename string) (*source.File, error)
}

// Publisher stores output tables and returns where to download them.
type Publisher interface {
	Publish(ctx context.Context, jobID string, tables []affect.Table) (map[string]artifact.Artifact, error)
}

// TableFile describes one published output table.
type TableFile struct {
	URL      string           `json:"url"`
	Filename string           `json:"filename"`
	Preview  []map[string]any `json:"preview"`
	Shape    [2]int           `json:"shape"`
	Columns  []string         `json:"columns"`
}

// ScalingResult is the outcome of a scaling job.
type ScalingResult struct {
	JobID       string `json:"job_id"`
	Summary     string `json:"summary"`
	RowCount    int    `json:"row_count"`
	ColumnCount int    `json:"column_count"`
	// DataFrames is keyed by table title.
	DataFrames map[string]TableFile `json:"dataframes"`
}

// ScalingService runs the affect scaling pipeline: decode, validate, process, publish.
type ScalingService struct {
	fetcher Fetcher
	schema  *ingest.Schema
	sink    Publisher
	logger  *slog.Logger
}

// NewScalingService creates a new scaling service.
func NewScalingService(fetcher Fetcher, schema *ingest.Schema, sink Publisher, logger *slog.Logger) *ScalingService {
	if schema == nil {
		schema = ingest.NewSchema(nil)
	}
	return &ScalingService{
		fetcher: fetcher,
		schema:  schema,
		sink:    sink,
		logger:  logger,
	}
}

// Scale decodes and processes a table without publishing it.
func (s *ScalingService) Scale(ctx context.Context, filename string, r io.Reader) (*affect.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, columns, err := ingest.Decode(r, filename)
	if err != nil {
		return nil, err
	}

	rows, err := s.schema.Rows(records, columns)
	if err != nil {
		return nil, err
	}

	return affect.ProcessTable(rows)
}

// ProcessUpload runs a scaling job over an uploaded file.
func (s *ScalingService) ProcessUpload(ctx context.Context, filename string, r io.Reader) (*ScalingResult, error) {
	jobID, err := id.NewJob()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create job")
	}

	start := time.Now()
	log := s.logger.With("job_id", jobID, "filename", filename)

	result, err := s.Scale(ctx, filename, r)
	if err != nil {
		log.Warn("scaling job rejected", "error", err)
		return nil, err
	}

	tables := result.Tables()
	published, err := s.sink.Publish(ctx, jobID, tables)
	if err != nil {
		log.Error("failed to publish scaling output", "error", err)
		return nil, fmt.Errorf("publish tables: %w", err)
	}

	out := &ScalingResult{
		JobID:       jobID,
		Summary:     result.Summary(),
		RowCount:    len(result.Original),
		ColumnCount: tables[0].Shape()[1],
		DataFrames:  make(map[string]TableFile, len(tables)),
	}
	for _, t := range tables {
		a := published[t.Name]
		out.DataFrames[t.Title] = TableFile{
			URL:      a.URL,
			Filename: a.Filename,
			Preview:  Preview(t, PreviewRows),
			Shape:    t.Shape(),
			Columns:  t.Columns,
		}
	}

	log.Info("scaling job complete",
		"rows", out.RowCount,
		"columns", out.ColumnCount,
		"groups", len(result.GroupAverages),
		"posts", len(result.PostAverages),
		"duration", time.Since(start),
	)
	return out, nil
}

// ProcessRemote downloads rawURL and runs a scaling job over it.
func (s *ScalingService) ProcessRemote(ctx context.Context, rawURL, filename string) (*ScalingResult, error) {
	file, err := s.fetcher.Fetch(ctx, rawURL, filename)
	if err != nil {
		return nil, err
	}
	return s.ProcessUpload(ctx, file.Name, bytes.NewReader(file.Data))
}

// ProcessFile runs a scaling job over a local file.
func (s *ScalingService) ProcessFile(ctx context.Context, path string) (*ScalingResult, error) {
	f, err := os.Open(path) //#nosec G304 -- path comes from the operator (CLI or inbox)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return s.ProcessUpload(ctx, filepath.Base(path), f)
}

// Preview returns up to n leading rows of t as column-keyed maps,
// each carrying its 1-based row number under PreviewIndexColumn.
func Preview(t affect.Table, n int) []map[string]any {
	n = min(n, len(t.Rows))
	out := make([]map[string]any, n)
	for i := range n {
		row := make(map[string]any, len(t.Columns)+1)
		for j, col := range t.Columns {
			if j < len(t.Rows[i]) {
				row[col] = t.Rows[i][j]
			} else {
				row[col] = nil
			}
		}
		row[PreviewIndexColumn] = i + 1
		out[i] = row
	}
	return out
}
