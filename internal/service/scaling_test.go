package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affectlab/affectlab-server/internal/affect"
	"github.com/affectlab/affectlab-server/internal/artifact"
	"github.com/affectlab/affectlab-server/internal/errors"
	"github.com/affectlab/affectlab-server/internal/source"
	"github.com/affectlab/affectlab-server/internal/store/sqlite"
)

const sampleCSV = "group,post,valence,arousal,rater\n" +
	"A,p1,4.5,3,r1\n" +
	"A,p2,3.8,4,r2\n" +
	"B,p1,2,1,r3\n"

type stubFetcher struct {
	file *source.File
	err  error
	url  string
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL, _ string) (*source.File, error) {
	f.url = rawURL
	return f.file, f.err
}

// setupScaling creates a scaling service publishing CSV artifacts to a temp dir.
func setupScaling(t *testing.T, fetcher Fetcher) (*ScalingService, *sqlite.Store, string) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	outDir := t.TempDir()
	local, err := artifact.NewLocalStore(outDir, "http://localhost:8080")
	require.NoError(t, err)

	sink := artifact.NewSink(local, reg, artifact.CSVEncoder{}, time.Hour, logger)
	return NewScalingService(fetcher, nil, sink, logger), reg, outDir
}

func TestScalingService_ProcessUpload(t *testing.T) {
	svc, reg, outDir := setupScaling(t, nil)
	ctx := context.Background()

	res, err := svc.ProcessUpload(ctx, "ratings.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.JobID, "job-"))
	assert.Equal(t, 3, res.RowCount)
	assert.Equal(t, 5, res.ColumnCount)
	assert.Equal(t, "Data scaling complete! Processed 3 rows and 5 columns. Created 6 tables.", res.Summary)
	require.Len(t, res.DataFrames, 6)

	processed, ok := res.DataFrames["Processed Data"]
	require.True(t, ok)
	assert.Equal(t, [2]int{3, 7}, processed.Shape)
	assert.Equal(t, "processed_data.csv", processed.Filename)
	assert.Equal(t, "http://localhost:8080/output/"+res.JobID+"/processed_data.csv", processed.URL)
	require.Len(t, processed.Preview, 3)
	assert.Equal(t, 1, processed.Preview[0]["#"])
	assert.InDelta(t, 0.875, processed.Preview[0]["normalized_valence"], 1e-9)
	assert.InDelta(t, 0.7, processed.Preview[1]["normalized_valence"], 1e-9)
	assert.Equal(t, "r2", processed.Preview[1]["rater"])

	groups := res.DataFrames["Group Averages"]
	assert.Equal(t, 2, groups.Shape[0])
	assert.Equal(t, "A", groups.Preview[0]["group"])

	recs, err := reg.ListArtifactsByJob(ctx, res.JobID)
	require.NoError(t, err)
	assert.Len(t, recs, 6)

	data, err := os.ReadFile(filepath.Join(outDir, res.JobID, "group_scaled.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "group,valence_scaled,arousal_scaled\n"))
}

func TestScalingService_RejectsInvalidRows(t *testing.T) {
	svc, _, outDir := setupScaling(t, nil)

	input := "group,post,valence,arousal\nA,p1,6,3\nB,p2,x,3\n"
	_, err := svc.ProcessUpload(context.Background(), "bad.csv", strings.NewReader(input))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.CodeOf(err))

	var domainErr *errors.Error
	require.True(t, errors.As(err, &domainErr))
	issues, ok := domainErr.Details.([]affect.Issue)
	require.True(t, ok)
	assert.Len(t, issues, 2)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScalingService_MissingColumns(t *testing.T) {
	svc, _, _ := setupScaling(t, nil)

	_, err := svc.ProcessUpload(context.Background(), "x.csv", strings.NewReader("group,valence\nA,3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns: post, arousal")
}

func TestScalingService_UnsupportedFormat(t *testing.T) {
	svc, _, _ := setupScaling(t, nil)

	_, err := svc.ProcessUpload(context.Background(), "notes.txt", strings.NewReader("hello"))
	assert.Equal(t, errors.CodeInvalidInput, errors.CodeOf(err))
}

func TestScalingService_ProcessRemote(t *testing.T) {
	fetcher := &stubFetcher{file: &source.File{Name: "remote.csv", Data: []byte(sampleCSV)}}
	svc, _, _ := setupScaling(t, fetcher)

	res, err := svc.ProcessRemote(context.Background(), "https://example.com/remote.csv", "")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/remote.csv", fetcher.url)
	assert.Equal(t, 3, res.RowCount)
}

func TestScalingService_ProcessRemote_SourceUnavailable(t *testing.T) {
	fetcher := &stubFetcher{err: errors.SourceUnavailable("upstream returned 404")}
	svc, _, _ := setupScaling(t, fetcher)

	_, err := svc.ProcessRemote(context.Background(), "https://example.com/missing.csv", "")
	assert.Equal(t, errors.CodeSourceUnavailable, errors.CodeOf(err))
}

func TestScalingService_ProcessFile(t *testing.T) {
	svc, _, _ := setupScaling(t, nil)

	path := filepath.Join(t.TempDir(), "ratings.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	res, err := svc.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, res.RowCount)

	_, err = svc.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestScalingService_CancelledContext(t *testing.T) {
	svc, _, _ := setupScaling(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.ProcessUpload(ctx, "ratings.csv", strings.NewReader(sampleCSV))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPreview(t *testing.T) {
	table := affect.Table{
		Columns: []string{"a", "b"},
		Rows: [][]any{
			{1.0, "x"}, {2.0, "y"}, {3.0, "z"}, {4.0, "w"}, {5.0, "v"}, {6.0, "u"},
		},
	}

	got := Preview(table, PreviewRows)
	require.Len(t, got, 5)
	assert.Equal(t, map[string]any{"a": 1.0, "b": "x", "#": 1}, got[0])
	assert.Equal(t, 5, got[4]["#"])

	assert.Empty(t, Preview(affect.Table{Columns: []string{"a"}}, PreviewRows))
}
