// Package di provides dependency injection configuration for comicbridge.
package di

import (
	"github.com/samber/do/v2"

	"github.com/comicbridge/comicbridge/internal/config"
	"github.com/comicbridge/comicbridge/internal/di/providers"
)

// Params are the per-invocation inputs the container cannot load itself.
type Params struct {
	Load config.LoadOptions
	Run  providers.RunFlags
}

// NewContainer creates and configures the DI container with all providers.
// Nothing is constructed until first invoked.
func NewContainer(params Params) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, params.Load)
	do.ProvideValue(injector, params.Run)

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideClock)
	do.Provide(injector, providers.ProvideLimiter)

	// Catalog clients
	do.Provide(injector, providers.ProvideMylarClient)
	do.Provide(injector, providers.ProvideKapowarrClient)

	// Storage and search
	do.Provide(injector, providers.ProvideHistory)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Migration
	do.Provide(injector, providers.ProvideMigrateOptions)
	do.Provide(injector, providers.ProvidePipeline)

	return injector
}
