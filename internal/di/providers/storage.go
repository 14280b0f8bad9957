package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/affectlab/affectlab-server/internal/artifact"
	"github.com/affectlab/affectlab-server/internal/config"
	"github.com/affectlab/affectlab-server/internal/logger"
)

// ProvideArtifactStore provides the artifact byte store for the configured backend.
func ProvideArtifactStore(i do.Injector) (artifact.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Storage.Backend == config.BackendS3 {
		st, err := artifact.NewS3Store(context.Background(), artifact.S3Options{
			Bucket:   cfg.Storage.S3Bucket,
			Prefix:   cfg.Storage.S3Prefix,
			Region:   cfg.Storage.S3Region,
			URLTTL:   cfg.Storage.S3URLTTL,
			Endpoint: cfg.Storage.S3Endpoint,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Artifact storage ready", "backend", "s3", "bucket", cfg.Storage.S3Bucket, "prefix", cfg.Storage.S3Prefix)
		return st, nil
	}

	st, err := artifact.NewLocalStore(cfg.Storage.OutputPath, cfg.Server.PublicURL)
	if err != nil {
		return nil, err
	}
	log.Info("Artifact storage ready", "backend", "local", "path", st.Root())
	return st, nil
}

// ProvideSink provides the artifact publisher.
func ProvideSink(i do.Injector) (*artifact.Sink, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	st := do.MustInvoke[artifact.Store](i)

	enc, err := artifact.NewEncoder(cfg.Storage.Format)
	if err != nil {
		return nil, err
	}
	return artifact.NewSink(st, storeHandle.Store, enc, cfg.Storage.ArtifactTTL, log.Component("artifact").Logger), nil
}
