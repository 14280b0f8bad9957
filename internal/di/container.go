// Package di provides dependency injection configuration for the affectlab server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/affectlab/affectlab-server/internal/artifact"
	"github.com/affectlab/affectlab-server/internal/config"
	"github.com/affectlab/affectlab-server/internal/di/providers"
	"github.com/affectlab/affectlab-server/internal/logger"
	"github.com/affectlab/affectlab-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideArtifactStore)
	do.Provide(injector, providers.ProvideSink)

	// Business services
	do.Provide(injector, providers.ProvideFetcher)
	do.Provide(injector, providers.ProvideScalingService)
	do.Provide(injector, providers.ProvideTextService)

	// Workers
	do.Provide(injector, providers.ProvideInbox)
	do.Provide(injector, providers.ProvideArtifactCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[artifact.Store](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*artifact.Sink](injector)
	_ = do.MustInvoke[*providers.FetcherHandle](injector)
	_ = do.MustInvoke[*service.ScalingService](injector)
	_ = do.MustInvoke[*service.TextService](injector)

	// Workers
	if _, err := do.Invoke[*providers.InboxHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.ArtifactCleanupJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
