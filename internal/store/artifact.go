// Package store defines the bookkeeping records kept for generated artifacts.
package store

import (
	"context"
	"time"

	"github.com/affectlab/affectlab-server/internal/errors"
)

// Sentinel errors.
var (
	ErrNotFound      = errors.NotFound("artifact not found")
	ErrAlreadyExists = errors.InvalidInput("artifact already exists")
)

// Artifact is one published output file.
type Artifact struct {
	ID          string
	JobID       string
	TableName   string
	StorageKey  string
	ContentType string
	Size        int64
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the artifact has passed its expiry at now.
func (a *Artifact) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// ArtifactRegistry records published artifacts so they can be served and expired.
type ArtifactRegistry interface {
	CreateArtifact(ctx context.Context, a *Artifact) error
	GetArtifactByKey(ctx context.Context, key string) (*Artifact, error)
	ListArtifactsByJob(ctx context.Context, jobID string) ([]*Artifact, error)
	ListExpiredArtifacts(ctx context.Context, now time.Time) ([]*Artifact, error)
	DeleteArtifact(ctx context.Context, id string) error
}
