package providers

import (
	"github.com/samber/do/v2"

	"github.com/affectlab/affectlab-server/internal/artifact"
	"github.com/affectlab/affectlab-server/internal/config"
	"github.com/affectlab/affectlab-server/internal/ingest"
	"github.com/affectlab/affectlab-server/internal/langdetect"
	"github.com/affectlab/affectlab-server/internal/logger"
	"github.com/affectlab/affectlab-server/internal/sentiment"
	"github.com/affectlab/affectlab-server/internal/service"
	"github.com/affectlab/affectlab-server/internal/source"
	"github.com/affectlab/affectlab-server/internal/validation"
)

// FetcherHandle wraps the remote file fetcher with shutdown capability.
type FetcherHandle struct {
	*source.Fetcher
}

// Shutdown implements do.Shutdownable.
func (h *FetcherHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideFetcher provides the rate-limited remote file downloader.
func ProvideFetcher(i do.Injector) (*FetcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	f := source.New(source.Options{
		Timeout: cfg.Fetch.Timeout,
		MaxSize: cfg.Server.MaxUploadBytes,
	}, log.Component("source").Logger)
	return &FetcherHandle{Fetcher: f}, nil
}

// ProvideScalingService provides the affect-ratings scaling pipeline.
func ProvideScalingService(i do.Injector) (*service.ScalingService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	fetcher := do.MustInvoke[*FetcherHandle](i)
	sink := do.MustInvoke[*artifact.Sink](i)

	schema := ingest.NewSchema(validation.New())
	return service.NewScalingService(fetcher.Fetcher, schema, sink, log.Component("scaling").Logger), nil
}

// ProvideTextService provides the word-frequency service.
// Building the language models is slow, so this runs once at startup.
func ProvideTextService(i do.Injector) (*service.TextService, error) {
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewTextService(sentiment.NewAnalyzer(), langdetect.New(), log.Component("text").Logger)
	log.Info("Text analysis ready", "languages", len(langdetect.Languages))
	return svc, nil
}
