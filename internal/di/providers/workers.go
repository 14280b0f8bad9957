package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/affectlab/affectlab-server/internal/artifact"
	"github.com/affectlab/affectlab-server/internal/config"
	"github.com/affectlab/affectlab-server/internal/logger"
	"github.com/affectlab/affectlab-server/internal/service"
	"github.com/affectlab/affectlab-server/internal/watcher"
)

// artifactCleanupInterval is how often expired artifacts are purged.
const artifactCleanupInterval = time.Hour

// InboxHandle wraps the drop-folder inbox with shutdown capability.
// Inbox is nil when no inbox path is configured.
type InboxHandle struct {
	*watcher.Inbox
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *InboxHandle) Shutdown() error {
	if h.Inbox == nil {
		return nil
	}
	h.cancel()
	<-h.done
	return h.Inbox.Stop()
}

// ProvideInbox provides the drop-folder watcher.
func ProvideInbox(i do.Injector) (*InboxHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Inbox.Path == "" {
		log.Info("Inbox disabled by configuration")
		return &InboxHandle{}, nil
	}

	scaling := do.MustInvoke[*service.ScalingService](i)
	inbox, err := watcher.NewInbox(cfg.Inbox.Path, scaling, log.Component("inbox").Logger, watcher.Options{})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		inbox.Run(ctx)
	}()

	log.Info("Inbox watcher started", "path", cfg.Inbox.Path)

	return &InboxHandle{Inbox: inbox, cancel: cancel, done: done}, nil
}

// ArtifactCleanupJob runs periodic removal of expired artifacts.
type ArtifactCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *ArtifactCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideArtifactCleanupJob provides the periodic artifact cleanup job.
func ProvideArtifactCleanupJob(i do.Injector) (*ArtifactCleanupJob, error) {
	sink := do.MustInvoke[*artifact.Sink](i)
	log := do.MustInvoke[*logger.Logger](i).Component("cleanup")

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(artifactCleanupInterval)
		defer ticker.Stop()

		// Initial cleanup on startup
		if count, err := sink.DeleteExpired(ctx); err != nil {
			log.WithError(err).Warn("Initial artifact cleanup failed")
		} else if count > 0 {
			log.Info("Initial artifact cleanup completed", "deleted", count)
		}

		for {
			select {
			case <-ticker.C:
				if count, err := sink.DeleteExpired(ctx); err != nil {
					log.WithError(err).Warn("Artifact cleanup failed")
				} else if count > 0 {
					log.Info("Artifact cleanup completed", "deleted", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Artifact cleanup job started", "interval", artifactCleanupInterval)

	return &ArtifactCleanupJob{cancel: cancel}, nil
}
