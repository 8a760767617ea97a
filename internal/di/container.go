// Package di provides dependency injection configuration for the catalog server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/catalogapp/catalog-server/internal/api"
	"github.com/catalogapp/catalog-server/internal/auth"
	"github.com/catalogapp/catalog-server/internal/config"
	"github.com/catalogapp/catalog-server/internal/di/providers"
	"github.com/catalogapp/catalog-server/internal/edge"
	"github.com/catalogapp/catalog-server/internal/logger"
	"github.com/catalogapp/catalog-server/internal/metrics"
	"github.com/catalogapp/catalog-server/internal/render"
	"github.com/catalogapp/catalog-server/internal/service"
	"github.com/catalogapp/catalog-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
// Configuration is read from the process arguments and environment.
func NewContainer() *do.RootScope {
	injector := do.New()
	do.Provide(injector, providers.ProvideConfig)
	registerServer(injector)
	return injector
}

// NewContainerWithConfig is NewContainer with a configuration built by the
// caller, as the admin CLI does.
func NewContainerWithConfig(cfg *config.Config) *do.RootScope {
	injector := do.New()
	do.ProvideValue(injector, cfg)
	registerServer(injector)
	return injector
}

func registerServer(injector do.Injector) {
	// Core infrastructure
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideMetrics)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Business services
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideEntryService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideAuthService)

	// Rendering
	do.Provide(injector, providers.ProvideDataLoader)
	do.Provide(injector, providers.ProvideBundle)
	do.Provide(injector, providers.ProvideBundleWatcher)

	// HTTP
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideEdgeRouter)
	do.Provide(injector, providers.ProvideHTTPServer)
}

// Bootstrap initializes all services and starts the HTTP server.
// This triggers lazy initialization of every provider.
func Bootstrap(injector do.Injector) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)

	// Business services
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*service.EntryService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)

	// Rendering
	_ = do.MustInvoke[*render.Bundle](injector)
	_ = do.MustInvoke[*providers.BundleWatcherHandle](injector)

	// Server
	_ = do.MustInvoke[*api.Server](injector)
	_ = do.MustInvoke[*edge.Router](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
