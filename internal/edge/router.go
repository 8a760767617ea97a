// Package edge fronts all traffic. Each request is classified by path:
// /api and everything under it goes to the API handler untouched, anything
// else is handed to the page renderer. The renderer gets an *http.Client
// whose transport answers API calls in process.
package edge

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/catalogapp/catalog-server/internal/http/response"
	"github.com/catalogapp/catalog-server/internal/metrics"
)

// APIPrefix is the path prefix reserved for the API.
const APIPrefix = "/api"

// BuildHint is the diagnostic served when the page renderer cannot be
// loaded.
const BuildHint = "Build frontend first: cd frontend && npm run build"

// IsAPIPath reports whether path belongs to the API.
func IsAPIPath(path string) bool {
	return path == APIPrefix || strings.HasPrefix(path, APIPrefix+"/")
}

// Renderer renders a page. client must be used for any data the page
// needs; API calls made through it are served in process.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, client *http.Client) error
}

// RendererLoader produces the current renderer, or an error when the
// rendered artifact is not available.
type RendererLoader interface {
	Load() (Renderer, error)
}

// Options configures New.
type Options struct {
	API       http.Handler
	Renderers RendererLoader
	Stages    []Stage
	// Base serves the renderer's non-API outbound calls.
	Base    http.RoundTripper
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Router is the edge http.Handler.
type Router struct {
	api       http.Handler
	renderers RendererLoader
	base      http.RoundTripper
	metrics   *metrics.Metrics
	logger    *slog.Logger
	handler   http.Handler
}

// New composes the stage list around the API and render paths.
func New(opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rt := &Router{
		api:       chain(opts.API, opts.Stages, ScopeAPI),
		renderers: opts.Renderers,
		base:      opts.Base,
		metrics:   opts.Metrics,
		logger:    logger,
	}
	rt.handler = chain(http.HandlerFunc(rt.dispatch), opts.Stages, ScopeAll)

	names := make([]string, len(opts.Stages))
	for i, s := range opts.Stages {
		names[i] = s.Name + "(" + s.Scope.String() + ")"
	}
	logger.Debug("edge router composed", "stages", names)
	return rt
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.handler.ServeHTTP(w, r)
}

// Client returns an HTTP client that serves API calls in process on behalf
// of origin, which may be nil.
func (rt *Router) Client(origin *http.Request) *http.Client {
	return &http.Client{Transport: &InProcessTransport{
		API:     rt.api,
		Base:    rt.base,
		Origin:  origin,
		Metrics: rt.metrics,
	}}
}

func (rt *Router) dispatch(w http.ResponseWriter, r *http.Request) {
	if IsAPIPath(r.URL.Path) {
		rt.api.ServeHTTP(w, r)
		return
	}
	rt.render(w, r)
}

func (rt *Router) render(w http.ResponseWriter, r *http.Request) {
	if rt.renderers == nil {
		rt.renderUnavailable(w, fmt.Errorf("no renderer configured"))
		return
	}
	renderer, err := rt.renderers.Load()
	if err != nil {
		rt.renderUnavailable(w, err)
		return
	}

	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
	if err := renderer.Render(ww, r, rt.Client(r)); err != nil {
		rt.logger.Error("page render failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		if rt.metrics != nil {
			rt.metrics.RenderFailure("render")
		}
		if ww.Status() == 0 {
			response.Text(w, http.StatusBadGateway, "Page data unavailable\n")
		}
	}
}

func (rt *Router) renderUnavailable(w http.ResponseWriter, err error) {
	rt.logger.Warn("renderer unavailable", "error", err)
	if rt.metrics != nil {
		rt.metrics.RenderFailure("load")
	}
	response.Text(w, http.StatusServiceUnavailable, fmt.Sprintf("%s\n\nError: %v", BuildHint, err))
}
