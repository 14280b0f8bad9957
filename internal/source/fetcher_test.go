package source

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/affectlab/affectlab-server/internal/errors"
)

func newTestFetcher(t *testing.T, opts Options) *Fetcher {
	t.Helper()
	f := New(opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(f.Close)
	return f
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/uploads/ratings.csv", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "group,post,valence,arousal\nA,P1,4.5,3.2\n")
	}))
	defer srv.Close()

	f := newTestFetcher(t, Options{})

	file, err := f.Fetch(context.Background(), srv.URL+"/uploads/ratings.csv", "")
	require.NoError(t, err)

	assert.Equal(t, "ratings.csv", file.Name)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "group,post"))
}

func TestFetch_ExplicitFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "[]")
	}))
	defer srv.Close()

	f := newTestFetcher(t, Options{})

	file, err := f.Fetch(context.Background(), srv.URL+"/o/abc123?alt=media", "ratings.json")
	require.NoError(t, err)
	assert.Equal(t, "ratings.json", file.Name)
}

func TestFetch_SourceUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		maxSize int64
		wantMsg string
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "gone", http.StatusNotFound)
			},
			wantMsg: "HTTP 404",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantMsg: "HTTP 502",
		},
		{
			name: "too large",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, strings.Repeat("x", 64))
			},
			maxSize: 16,
			wantMsg: "exceeds 16 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			f := newTestFetcher(t, Options{MaxSize: tt.maxSize})

			_, err := f.Fetch(context.Background(), srv.URL+"/file.csv", "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrSourceUnavailable))
			assert.False(t, errors.Is(err, errors.ErrInvalidInput))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestFetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f := newTestFetcher(t, Options{})

	_, err := f.Fetch(context.Background(), addr+"/file.csv", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSourceUnavailable))
}

func TestFetch_InvalidURL(t *testing.T) {
	f := newTestFetcher(t, Options{})

	for _, raw := range []string{"", "not a url", "ftp://files.example.com/a.csv", "file:///etc/passwd", "https://files.example.com/"} {
		t.Run(raw, func(t *testing.T) {
			_, err := f.Fetch(context.Background(), raw, "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "x")
	}))
	defer srv.Close()

	f := newTestFetcher(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, srv.URL+"/a.csv", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSourceUnavailable))
}
