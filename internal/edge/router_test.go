package edge

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogapp/catalog-server/internal/metrics"
)

// rendererFunc adapts a function to Renderer.
type rendererFunc func(w http.ResponseWriter, r *http.Request, client *http.Client) error

func (f rendererFunc) Render(w http.ResponseWriter, r *http.Request, client *http.Client) error {
	return f(w, r, client)
}

type staticLoader struct {
	renderer Renderer
	err      error
}

func (l staticLoader) Load() (Renderer, error) { return l.renderer, l.err }

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// networkGuard fails the test if anything reaches the network transport.
func networkGuard(t *testing.T, calls *atomic.Int32) http.RoundTripper {
	return roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, errors.New("network disabled in tests: " + r.URL.String())
	})
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w.Body.String()
}

func TestIsAPIPath(t *testing.T) {
	tests := map[string]bool{
		"/api":           true,
		"/api/":          true,
		"/api/entry":     true,
		"/api/entry/x/y": true,
		"/apis":          false,
		"/app/api":       false,
		"/":              false,
		"":               false,
	}
	for path, want := range tests {
		assert.Equal(t, want, IsAPIPath(path), path)
	}
}

func TestRouter_APIResponsePassesThroughVerbatim(t *testing.T) {
	var seen *http.Request
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		w.Header().Set("X-Custom", "kept")
		w.WriteHeader(http.StatusTeapot)
		_, _ = io.WriteString(w, `{"brewed":false}`)
	})
	rt := New(Options{API: api, Renderers: staticLoader{err: errors.New("unused")}})

	req := httptest.NewRequest(http.MethodPost, "/api/entry?name=x", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	rt.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "kept", w.Header().Get("X-Custom"))
	assert.Equal(t, `{"brewed":false}`, w.Body.String())

	require.NotNil(t, seen)
	assert.Equal(t, "/api/entry", seen.URL.Path)
	assert.Equal(t, "name=x", seen.URL.RawQuery)
	body, _ := io.ReadAll(seen.Body)
	assert.Equal(t, `{"a":1}`, string(body))
}

func TestRouter_MissingArtifactIs503(t *testing.T) {
	m := metrics.New(false)
	apiCalled := false
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { apiCalled = true })
	rt := New(Options{
		API:       api,
		Renderers: staticLoader{err: errors.New("open frontend/build/index.html: no such file or directory")},
		Metrics:   m,
	})

	for _, path := range []string{"/", "/entries/new", "/apis"} {
		w := httptest.NewRecorder()
		rt.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Contains(t, w.Body.String(), "Build frontend first: cd frontend && npm run build")
		assert.Contains(t, w.Body.String(), "no such file or directory")
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
	}
	assert.False(t, apiCalled)
	assert.Contains(t, scrape(t, m), `catalog_render_load_failures_total{stage="load"} 3`)
}

func TestRouter_NilLoaderIs503(t *testing.T) {
	rt := New(Options{API: http.NotFoundHandler()})

	w := httptest.NewRecorder()
	rt.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_RenderCallsAPIInProcessOnce(t *testing.T) {
	var apiCalls, netCalls atomic.Int32
	m := metrics.New(false)
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"entries":[]}`)
	})
	renderer := rendererFunc(func(w http.ResponseWriter, r *http.Request, client *http.Client) error {
		resp, err := client.Get("http://" + r.Host + "/api/entry?tags=a,b")
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		_, _ = io.WriteString(w, "page:"+resp.Status+":"+string(body))
		return nil
	})
	rt := New(Options{
		API:       api,
		Renderers: staticLoader{renderer: renderer},
		Base:      networkGuard(t, &netCalls),
		Metrics:   m,
	})

	w := httptest.NewRecorder()
	rt.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `page:200 OK:{"entries":[]}`, w.Body.String())
	assert.Equal(t, int32(1), apiCalls.Load())
	assert.Equal(t, int32(0), netCalls.Load())
	assert.Contains(t, scrape(t, m), `catalog_render_inprocess_api_calls_total{status="200"} 1`)
}

func TestRouter_RenderNonAPICallsUseNetwork(t *testing.T) {
	var apiCalls, netCalls atomic.Int32
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { apiCalls.Add(1) })
	renderer := rendererFunc(func(w http.ResponseWriter, r *http.Request, client *http.Client) error {
		_, err := client.Get("https://cdn.example.com/lib.js")
		assert.Error(t, err)
		_, _ = io.WriteString(w, "ok")
		return nil
	})
	rt := New(Options{API: api, Renderers: staticLoader{renderer: renderer}, Base: networkGuard(t, &netCalls)})

	w := httptest.NewRecorder()
	rt.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, int32(0), apiCalls.Load())
	assert.Equal(t, int32(1), netCalls.Load())
}

func TestRouter_RenderErrorBeforeWriteIs502(t *testing.T) {
	m := metrics.New(false)
	renderer := rendererFunc(func(w http.ResponseWriter, r *http.Request, client *http.Client) error {
		return errors.New("entries: status 500")
	})
	rt := New(Options{API: http.NotFoundHandler(), Renderers: staticLoader{renderer: renderer}, Metrics: m})

	w := httptest.NewRecorder()
	rt.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, scrape(t, m), `catalog_render_load_failures_total{stage="render"} 1`)
}

func TestRouter_StageOrderAndScope(t *testing.T) {
	var trace []string
	mark := func(name string, scope Scope) Stage {
		return Stage{Name: name, Scope: scope, Wrap: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name)
				next.ServeHTTP(w, r)
			})
		}}
	}
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { trace = append(trace, "api") })
	renderer := rendererFunc(func(w http.ResponseWriter, r *http.Request, client *http.Client) error {
		trace = append(trace, "render")
		resp, err := client.Get("http://in.process/api/tag")
		if err != nil {
			return err
		}
		return resp.Body.Close()
	})
	rt := New(Options{
		API:       api,
		Renderers: staticLoader{renderer: renderer},
		Stages: []Stage{
			mark("first", ScopeAll),
			mark("api-1", ScopeAPI),
			mark("second", ScopeAll),
			mark("api-2", ScopeAPI),
		},
	})

	rt.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/entry", nil))
	assert.Equal(t, []string{"first", "second", "api-1", "api-2", "api"}, trace)

	trace = nil
	rt.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"first", "second", "render", "api-1", "api-2", "api"}, trace)
}
