package api

import (
	"context"
	"io"

	"github.com/affectlab/affectlab-server/internal/service"
	"github.com/affectlab/affectlab-server/internal/store"
)

// Services groups the business logic used by the API server.
type Services struct {
	Scaling *service.ScalingService
	Text    *service.TextService
}

// ArtifactOpener serves published artifacts.
type ArtifactOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, *store.Artifact, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
