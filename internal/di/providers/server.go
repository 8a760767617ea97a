package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/catalogapp/catalog-server/internal/api"
	"github.com/catalogapp/catalog-server/internal/config"
	"github.com/catalogapp/catalog-server/internal/edge"
	"github.com/catalogapp/catalog-server/internal/logger"
	"github.com/catalogapp/catalog-server/internal/metrics"
	"github.com/catalogapp/catalog-server/internal/ratelimit"
	"github.com/catalogapp/catalog-server/internal/render"
	"github.com/catalogapp/catalog-server/internal/service"
)

// Version is reported in the OpenAPI document. Set at build time.
var Version = "dev"

// shutdownTimeout bounds how long in-flight requests may drain.
const shutdownTimeout = 30 * time.Second

// ProvideMetrics provides the Prometheus registry and collectors.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(true), nil
}

// RateLimiterHandle wraps the per-client limiter with shutdown capability.
// Limiter is nil when rate limiting is disabled.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	if h.KeyedRateLimiter != nil {
		h.Stop()
	}
	return nil
}

// ProvideRateLimiter provides the API rate limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.RateLimit.RequestsPerSecond <= 0 {
		log.Info("API rate limiting disabled")
		return &RateLimiterHandle{}, nil
	}

	log.Info("API rate limiting enabled",
		"rps", cfg.RateLimit.RequestsPerSecond,
		"burst", cfg.RateLimit.Burst,
	)
	return &RateLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	}, nil
}

// ProvideAPIServer provides the JSON API handler.
func ProvideAPIServer(i do.Injector) (*api.Server, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Entry:  do.MustInvoke[*service.EntryService](i),
		Tag:    do.MustInvoke[*service.TagService](i),
		Auth:   do.MustInvoke[*service.AuthService](i),
		Search: do.MustInvoke[*service.SearchService](i),
	}

	return api.NewServer(api.Options{
		Store:         storeHandle.Store,
		Services:      services,
		Metrics:       m,
		SecureCookies: cfg.Auth.SecureCookies,
		Version:       Version,
		Logger:        log.Component("api").Logger,
	}), nil
}

// ProvideEdgeRouter provides the top-level handler: the stage chain around
// the API and the page renderer.
func ProvideEdgeRouter(i do.Injector) (*edge.Router, error) {
	cfg := do.MustInvoke[*config.Config](i)
	apiServer := do.MustInvoke[*api.Server](i)
	bundle := do.MustInvoke[*render.Bundle](i)
	limiter := do.MustInvoke[*RateLimiterHandle](i)
	authService := do.MustInvoke[*service.AuthService](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	stages := edge.DefaultStages(edge.StageConfig{
		Logger:           log.Component("http").Logger,
		Metrics:          m,
		CORSOrigin:       cfg.CORS.AllowedOrigin,
		Limiter:          limiter.KeyedRateLimiter,
		Authenticator:    authService,
		RequireForWrites: cfg.Auth.RequireForWrites,
	})

	return edge.New(edge.Options{
		API:       apiServer,
		Renderers: bundle,
		Stages:    stages,
		Metrics:   m,
		Logger:    log.Component("edge").Logger,
	}), nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	router := do.MustInvoke[*edge.Router](i)
	log := do.MustInvoke[*logger.Logger](i)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
