// Package metrics provides Prometheus metrics for the edge server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"jobboard-edge/internal/model"
)

// Default histogram buckets for edge latency.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds all Prometheus metric collectors for the edge server.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	OriginDuration  *prometheus.HistogramVec
	OriginResponses *prometheus.CounterVec

	SPAFallbacks       *prometheus.CounterVec
	AssetCacheRequests *prometheus.CounterVec
}

// Fallback reason labels for SPAFallbacks.
const (
	FallbackNotFound   = "not_found"
	FallbackStoreError = "store_error"
)

// Asset cache result labels for AssetCacheRequests.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// New creates a Metrics instance with a custom registry and all collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_edge_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "route_class"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobboard_edge_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "route_class"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobboard_edge_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		OriginDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobboard_edge_origin_request_duration_seconds",
			Help:    "API origin call latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method"}),

		OriginResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_edge_origin_responses_total",
			Help: "Total API origin responses by method and status code.",
		}, []string{"method", "status_code"}),

		SPAFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_edge_spa_fallback_total",
			Help: "Total responses answered with the SPA shell instead of the requested path.",
		}, []string{"reason"}),

		AssetCacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobboard_edge_asset_cache_requests_total",
			Help: "Asset hot-cache lookups by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.OriginDuration,
		m.OriginResponses,
		m.SPAFallbacks,
		m.AssetCacheRequests,
	)

	return m
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// NormalizeRoute returns a bounded route label for Prometheus metrics. Unlike
// a fixed-prefix list, the edge's path space is unbounded, so the label is
// the derived route class (api, asset, document).
func NormalizeRoute(path string) string {
	return string(model.Classify(path))
}
