// Package metrics exposes Prometheus collectors for the HTTP server and page pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Render outcomes.
const (
	RenderOK       = "ok"
	RenderNotFound = "not_found"
	RenderError    = "error"
	RenderCached   = "cached"
)

// Metrics owns a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	renders         *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	mutations       *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landingkit_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "landingkit_http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "landingkit_page_renders_total",
			Help: "Public landing page requests by outcome",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "landingkit_page_cache_lookups_total",
			Help: "Rendered page cache lookups by result",
		}, []string{"result"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "landingkit_page_mutations_total",
			Help: "Landing page writes by operation",
		}, []string{"operation"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration,
		m.inFlight,
		m.renders,
		m.cacheLookups,
		m.mutations,
	)
	return m
}

// Middleware records request duration by route pattern, so slugs never become label values.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRender counts one public page request.
func (m *Metrics) ObserveRender(outcome string) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(outcome).Inc()
}

// ObserveCache counts one cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveMutation counts a create, update or delete.
func (m *Metrics) ObserveMutation(operation string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(operation).Inc()
}
