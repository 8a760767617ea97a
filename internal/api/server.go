// Package api serves the catalog's JSON API under /api using huma on chi.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/catalogapp/catalog-server/internal/metrics"
	"github.com/catalogapp/catalog-server/internal/store"
)

// Prefix is the path prefix reserved for the API.
const Prefix = "/api"

// Options configures NewServer.
type Options struct {
	Store    store.Store
	Services *Services
	// Metrics enables GET /api/metrics when set.
	Metrics *metrics.Metrics
	// SecureCookies marks session cookies Secure.
	SecureCookies bool
	Version       string
	Logger        *slog.Logger
}

// Server is the API's http.Handler.
type Server struct {
	store         store.Store
	services      *Services
	metrics       *metrics.Metrics
	secureCookies bool
	router        chi.Router
	api           huma.API
	logger        *slog.Logger
}

// NewServer builds the router and registers every operation.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	router := chi.NewRouter()

	humaConfig := huma.DefaultConfig("Catalog API", version)
	humaConfig.OpenAPIPath = Prefix + "/openapi"
	humaConfig.DocsPath = Prefix + "/docs"
	humaConfig.SchemasPath = Prefix + "/schemas"
	// Response bodies are plain objects; no $schema link field.
	humaConfig.CreateHooks = nil
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}

	RegisterErrorHandler(logger)

	s := &Server{
		store:         opts.Store,
		services:      opts.Services,
		metrics:       opts.Metrics,
		secureCookies: opts.SecureCookies,
		router:        router,
		api:           humachi.New(router, humaConfig),
		logger:        logger,
	}

	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API { return s.api }

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerEntryRoutes()
	s.registerTagRoutes()
	s.registerSearchRoutes()
	s.registerAuthRoutes()

	if s.metrics != nil {
		s.router.Method(http.MethodGet, Prefix+"/metrics", s.metrics.Handler(s.logger))
	}

	notFound := func(w http.ResponseWriter, r *http.Request) {
		writeError(w, huma.NewError(http.StatusNotFound, "route not found"))
	}
	s.router.NotFound(notFound)
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, huma.NewError(http.StatusMethodNotAllowed, "method not allowed"))
	})
}
