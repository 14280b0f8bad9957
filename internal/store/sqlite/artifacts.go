package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/affectlab/affectlab-server/internal/store"
)

// artifactColumns must match the scan order in scanArtifact.
const artifactColumns = `id, job_id, table_name, storage_key, content_type, size, created_at, expires_at`

func scanArtifact(scanner interface{ Scan(dest ...any) error }) (*store.Artifact, error) {
	var (
		a         store.Artifact
		createdAt string
		expiresAt string
	)

	err := scanner.Scan(
		&a.ID,
		&a.JobID,
		&a.TableName,
		&a.StorageKey,
		&a.ContentType,
		&a.Size,
		&createdAt,
		&expiresAt,
	)
	if err != nil {
		return nil, err
	}

	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if a.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	return &a, nil
}

// CreateArtifact inserts a new artifact record.
// Returns store.ErrAlreadyExists if the ID or storage key is taken.
func (s *Store) CreateArtifact(ctx context.Context, a *store.Artifact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (`+artifactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.JobID,
		a.TableName,
		a.StorageKey,
		a.ContentType,
		a.Size,
		formatTime(a.CreatedAt),
		formatTime(a.ExpiresAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// GetArtifactByKey retrieves an artifact by its storage key.
// Returns store.ErrNotFound if no artifact has that key.
func (s *Store) GetArtifactByKey(ctx context.Context, key string) (*store.Artifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE storage_key = ?`, key)

	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListArtifactsByJob returns a job's artifacts ordered by table name.
func (s *Store) ListArtifactsByJob(ctx context.Context, jobID string) ([]*store.Artifact, error) {
	return s.list(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE job_id = ? ORDER BY table_name`, jobID)
}

// ListExpiredArtifacts returns artifacts whose expiry is at or before now, oldest first.
func (s *Store) ListExpiredArtifacts(ctx context.Context, now time.Time) ([]*store.Artifact, error) {
	return s.list(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE expires_at <= ? ORDER BY expires_at`, formatTime(now))
}

// DeleteArtifact removes an artifact record.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) DeleteArtifact(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*store.Artifact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*store.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
