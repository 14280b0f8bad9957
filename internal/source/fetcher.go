// Package source downloads input spreadsheets referenced by URL.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/affectlab/affectlab-server/internal/errors"
	"github.com/affectlab/affectlab-server/internal/ingest"
	"github.com/affectlab/affectlab-server/internal/ratelimit"
)

const (
	// Rate limit: 2 requests per second per host, burst of 5
	defaultRPS   = 2.0
	defaultBurst = 5

	defaultTimeout = 30 * time.Second
)

// File is a downloaded input file.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Options configures a Fetcher.
type Options struct {
	Timeout time.Duration
	MaxSize int64
	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// Fetcher is a rate-limited HTTP downloader.
type Fetcher struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	maxSize int64
	logger  *slog.Logger
}

// New creates a new Fetcher.
func New(opts Options, logger *slog.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = ingest.MaxFileSize
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Fetcher{
		http:    client,
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		maxSize: opts.MaxSize,
		logger:  logger,
	}
}

// Close releases resources held by the fetcher.
func (f *Fetcher) Close() {
	f.limiter.Stop()
}

// Fetch downloads rawURL. When filename is empty the last path segment of the
// URL is used, which decides the decoder downstream.
//
// Malformed or non-HTTP URLs are INVALID_INPUT. Transport failures, non-2xx
// responses and bodies over the size limit are SOURCE_UNAVAILABLE.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, filename string) (*File, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return nil, errors.InvalidInputf("invalid file URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.InvalidInputf("unsupported URL scheme %q", u.Scheme)
	}

	if filename == "" {
		filename = path.Base(u.Path)
	}
	if filename == "" || filename == "/" || filename == "." {
		return nil, errors.InvalidInput("file name is required when the URL has no file name")
	}

	if err := f.limiter.Wait(ctx, u.Host); err != nil {
		return nil, errors.Wrap(err, errors.CodeSourceUnavailable, "rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "create request")
	}
	req.Header.Set("User-Agent", "affectlab/1.0")

	f.logger.Debug("fetching source file", "host", u.Host, "file_name", filename)

	start := time.Now()
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSourceUnavailable, "download failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.SourceUnavailablef("download failed: HTTP %d", resp.StatusCode)
	}
	if resp.ContentLength > f.maxSize {
		return nil, errors.SourceUnavailablef("remote file exceeds %d bytes", f.maxSize)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSourceUnavailable, "read response")
	}
	if int64(len(data)) > f.maxSize {
		return nil, errors.SourceUnavailablef("remote file exceeds %d bytes", f.maxSize)
	}

	f.logger.Info("source file fetched",
		"host", u.Host,
		"file_name", filename,
		"bytes", len(data),
		"duration", time.Since(start),
	)

	return &File{
		Name:        filename,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// String implements fmt.Stringer for logging.
func (f *File) String() string {
	return fmt.Sprintf("%s (%d bytes)", f.Name, len(f.Data))
}
