// Package metrics owns the Prometheus registry and the collectors the edge
// router records into.
package metrics

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalog"

// Route kinds used as the "route" label. Kept to a fixed set so label
// cardinality stays bounded.
const (
	RouteAPI    = "api"
	RouteRender = "render"
)

// Metrics is the set of collectors exported at /api/metrics.
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	inProcessCalls *prometheus.CounterVec
	renderFailures *prometheus.CounterVec
}

// New registers every collector on a fresh registry. Go runtime and process
// collectors are included when withRuntime is set.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests handled, by route kind, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by route kind and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		inProcessCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "inprocess_api_calls_total",
			Help:      "API calls made by the renderer without a network round trip, by status.",
		}, []string{"status"}),
		renderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "load_failures_total",
			Help:      "Renderer load or data-load failures, by stage.",
		}, []string{"stage"}),
	}

	reg.MustRegister(m.requests, m.duration, m.inProcessCalls, m.renderFailures)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest records one finished request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// InProcessCall records one intercepted renderer call into the API.
func (m *Metrics) InProcessCall(status int) {
	m.inProcessCalls.WithLabelValues(strconv.Itoa(status)).Inc()
}

// RenderFailure records a render-side failure at stage ("load", "render").
func (m *Metrics) RenderFailure(stage string) {
	m.renderFailures.WithLabelValues(stage).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler(logger *slog.Logger) http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      errorLog{logger},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// errorLog adapts slog to promhttp.Logger.
type errorLog struct{ logger *slog.Logger }

func (l errorLog) Println(v ...any) {
	if l.logger != nil {
		l.logger.Error("metrics exposition failed", "error", fmt.Sprint(v...))
	}
}
