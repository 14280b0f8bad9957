package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/affectlab/affectlab-server/internal/ingest"
	"github.com/affectlab/affectlab-server/internal/service"
)

// FileProcessor runs the scaling pipeline over a local file.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (*service.ScalingResult, error)
}

// Inbox runs every spreadsheet dropped into a directory through a FileProcessor.
type Inbox struct {
	dir       string
	watcher   *Watcher
	processor FileProcessor
	logger    *slog.Logger
}

// NewInbox watches dir for .xlsx, .csv and .json files.
func NewInbox(dir string, processor FileProcessor, logger *slog.Logger, opts Options) (*Inbox, error) {
	opts.Extensions = []string{ingest.ExtXLSX, ingest.ExtCSV, ingest.ExtJSON}

	w, err := New(logger, opts)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(dir); err != nil {
		w.Stop() //nolint:errcheck // already failing
		return nil, err
	}

	return &Inbox{
		dir:       dir,
		watcher:   w,
		processor: processor,
		logger:    logger.With("inbox", dir),
	}, nil
}

// Run processes settled files until ctx is cancelled. Files are handled one at a time.
func (in *Inbox) Run(ctx context.Context) {
	go func() {
		if err := in.watcher.Start(ctx); err != nil {
			in.logger.Error("inbox watcher stopped", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-in.watcher.Events():
			if !ok {
				return
			}
			if event.Type == EventReady {
				in.process(ctx, event)
			}
		case err, ok := <-in.watcher.Errors():
			if !ok {
				return
			}
			in.logger.Warn("inbox watcher error", "error", err)
		}
	}
}

func (in *Inbox) process(ctx context.Context, event Event) {
	start := time.Now()
	result, err := in.processor.ProcessFile(ctx, event.Path)
	if err != nil {
		in.logger.Warn("inbox file rejected", "path", event.Path, "error", err)
		return
	}

	in.logger.Info("inbox file processed",
		"path", event.Path,
		"job_id", result.JobID,
		"rows", result.RowCount,
		"tables", len(result.DataFrames),
		"duration", time.Since(start),
	)
}

// Stop releases the underlying watcher.
func (in *Inbox) Stop() error {
	return in.watcher.Stop()
}
