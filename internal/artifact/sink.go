package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/affectlab/affectlab-server/internal/affect"
	"github.com/affectlab/affectlab-server/internal/errors"
	"github.com/affectlab/affectlab-server/internal/id"
	"github.com/affectlab/affectlab-server/internal/store"
)

// DefaultTTL is how long published artifacts are kept.
const DefaultTTL = 24 * time.Hour

// publishConcurrency bounds concurrent encode+upload work per job.
const publishConcurrency = 4

// Artifact is a published table file.
type Artifact struct {
	ID          string
	Table       string
	Title       string
	Key         string
	Filename    string
	URL         string
	ContentType string
	Size        int64
	ExpiresAt   time.Time
}

// Sink publishes output tables to a Store and records them in the registry.
type Sink struct {
	store    Store
	registry store.ArtifactRegistry
	encoder  Encoder
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewSink creates a sink. A non-positive ttl means DefaultTTL.
func NewSink(st Store, registry store.ArtifactRegistry, enc Encoder, ttl time.Duration, logger *slog.Logger) *Sink {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Sink{
		store:    st,
		registry: registry,
		encoder:  enc,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Format returns the file format the sink writes.
func (s *Sink) Format() string { return s.encoder.Format() }

// Key returns the storage key of a job's table.
func (s *Sink) Key(jobID, table string) string {
	return jobID + "/" + table + "." + s.encoder.Format()
}

// Publish encodes and stores every table, keyed by table name.
// Either all tables are published or none are: on failure, anything already
// stored or registered for this call is removed before the error is returned.
func (s *Sink) Publish(ctx context.Context, jobID string, tables []affect.Table) (map[string]Artifact, error) {
	if !ValidKey(jobID) {
		return nil, errors.InvalidInputf("invalid job id %q", jobID)
	}

	var (
		mu        sync.Mutex
		published = make(map[string]Artifact, len(tables))
		stored    []string
		recorded  []string
	)

	created := s.now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(publishConcurrency)

	for _, t := range tables {
		g.Go(func() error {
			var buf bytes.Buffer
			if err := s.encoder.Encode(&buf, t); err != nil {
				return fmt.Errorf("encode %s: %w", t.Name, err)
			}

			key := s.Key(jobID, t.Name)
			if err := s.store.Put(gctx, key, s.encoder.ContentType(), buf.Bytes()); err != nil {
				return fmt.Errorf("store %s: %w", t.Name, err)
			}
			mu.Lock()
			stored = append(stored, key)
			mu.Unlock()

			artID, err := id.NewArtifact()
			if err != nil {
				return err
			}
			rec := &store.Artifact{
				ID:          artID,
				JobID:       jobID,
				TableName:   t.Name,
				StorageKey:  key,
				ContentType: s.encoder.ContentType(),
				Size:        int64(buf.Len()),
				CreatedAt:   created,
				ExpiresAt:   created.Add(s.ttl),
			}
			if err := s.registry.CreateArtifact(gctx, rec); err != nil {
				return fmt.Errorf("register %s: %w", t.Name, err)
			}
			mu.Lock()
			recorded = append(recorded, rec.ID)
			mu.Unlock()

			url, err := s.store.URL(gctx, key)
			if err != nil {
				return fmt.Errorf("url for %s: %w", t.Name, err)
			}

			mu.Lock()
			published[t.Name] = Artifact{
				ID:          rec.ID,
				Table:       t.Name,
				Title:       t.Title,
				Key:         key,
				Filename:    t.Name + "." + s.encoder.Format(),
				URL:         url,
				ContentType: rec.ContentType,
				Size:        rec.Size,
				ExpiresAt:   rec.ExpiresAt,
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.rollback(jobID, stored, recorded)
		return nil, err
	}

	s.logger.Info("artifacts published",
		"job_id", jobID,
		"tables", len(published),
		"format", s.encoder.Format(),
	)
	return published, nil
}

// rollback runs on a fresh context since the publish context may be cancelled.
func (s *Sink) rollback(jobID string, keys, ids []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, artID := range ids {
		if err := s.registry.DeleteArtifact(ctx, artID); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("rollback: failed to unregister artifact", "job_id", jobID, "artifact_id", artID, "error", err)
		}
	}
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("rollback: failed to delete artifact", "job_id", jobID, "key", key, "error", err)
		}
	}
}

// Open returns a reader for a registered, unexpired artifact.
func (s *Sink) Open(ctx context.Context, key string) (io.ReadCloser, *store.Artifact, error) {
	if !ValidKey(key) {
		return nil, nil, errors.NotFoundf("artifact %s not found", key)
	}
	rec, err := s.registry.GetArtifactByKey(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	if rec.Expired(s.now()) {
		return nil, nil, errors.NotFoundf("artifact %s has expired", key)
	}
	rc, err := s.store.Open(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	return rc, rec, nil
}

// DeleteExpired removes expired artifacts from the store and the registry.
// It returns how many were deleted.
func (s *Sink) DeleteExpired(ctx context.Context) (int, error) {
	expired, err := s.registry.ListExpiredArtifacts(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("list expired artifacts: %w", err)
	}

	deleted := 0
	for _, a := range expired {
		if err := s.store.Delete(ctx, a.StorageKey); err != nil {
			s.logger.Warn("failed to delete expired artifact", "key", a.StorageKey, "error", err)
			continue
		}
		if err := s.registry.DeleteArtifact(ctx, a.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return deleted, fmt.Errorf("unregister artifact %s: %w", a.ID, err)
		}
		deleted++
	}
	return deleted, nil
}
