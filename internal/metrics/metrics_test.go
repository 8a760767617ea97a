package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New(false)

	m.ObserveRequest(RouteAPI, http.MethodGet, 200, 10*time.Millisecond)
	m.ObserveRequest(RouteAPI, http.MethodGet, 200, 20*time.Millisecond)
	m.ObserveRequest(RouteRender, http.MethodGet, 503, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(RouteAPI, "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(RouteRender, "GET", "503")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestRenderCounters(t *testing.T) {
	m := New(false)

	m.InProcessCall(200)
	m.InProcessCall(200)
	m.RenderFailure("load")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.inProcessCalls.WithLabelValues("200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renderFailures.WithLabelValues("load")))
}

func TestHandler_Exposition(t *testing.T) {
	m := New(true)
	m.ObserveRequest(RouteAPI, http.MethodPost, 201, time.Millisecond)

	srv := httptest.NewServer(m.Handler(nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `catalog_http_requests_total{method="POST",route="api",status="201"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
