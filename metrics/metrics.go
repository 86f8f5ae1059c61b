// Package metrics provides Prometheus metrics for the Oblique Strategies MCP server.
// It tracks tool calls, edition loads, cache performance and HTTP transport traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const (
	Namespace = "oblique_strategies_mcp"
)

var (
	// RequestsTotal counts total MCP tool calls by tool name and status
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "requests_total",
		Help:      "Total number of MCP tool calls",
	}, []string{"tool", "status"})

	// RequestDuration measures request latency distribution
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "request_duration_seconds",
		Help:      "Request latency distribution by tool",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5},
	}, []string{"tool"})

	// RequestInFlight tracks currently executing requests
	RequestInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "requests_in_flight",
		Help:      "Number of requests currently being processed",
	}, []string{"tool"})

	// CacheHits counts edition cache hits
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "cache_hits_total",
		Help:      "Total edition cache hit count",
	})

	// CacheMisses counts edition cache misses
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "cache_misses_total",
		Help:      "Total edition cache miss count",
	})

	// CacheEntries tracks cached editions across all stores
	CacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "cache_entries",
		Help:      "Current number of cached editions",
	})

	// EditionLoads counts edition source reads by edition and outcome
	EditionLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "edition_loads_total",
		Help:      "Edition source reads by edition and status",
	}, []string{"edition", "status"})

	// EditionsSkipped counts editions skipped during search or listing
	EditionsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "editions_skipped_total",
		Help:      "Editions skipped because they could not be loaded, by operation",
	}, []string{"operation", "edition"})

	// SearchMatches tracks the number of matches returned per search
	SearchMatches = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "search_matches",
		Help:      "Number of matches returned per search",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
	})

	// RateLimitRejections counts requests rejected due to rate limiting
	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rate_limit_rejections_total",
		Help:      "Requests rejected due to rate limiting",
	})

	// PanicsRecovered counts recovered panics
	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "panics_recovered_total",
		Help:      "Number of panics recovered in tool handlers",
	}, []string{"tool"})

	// HTTPRequestsTotal counts HTTP transport requests
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method and status",
	}, []string{"method", "status"})

	// HTTPRequestDuration measures HTTP request latency
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency distribution",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

// RecordRequest records a completed request with its duration and status
func RecordRequest(tool string, duration float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	RequestsTotal.WithLabelValues(tool, status).Inc()
	RequestDuration.WithLabelValues(tool).Observe(duration)
}

// RecordEditionLoad records a read of an edition source
func RecordEditionLoad(edition string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	EditionLoads.WithLabelValues(edition, status).Inc()
}

// RecordCacheAccess records a cache hit or miss
func RecordCacheAccess(hit bool) {
	if hit {
		CacheHits.Inc()
	} else {
		CacheMisses.Inc()
	}
}

// RecordSkippedEdition records an edition skipped by search or listing
func RecordSkippedEdition(operation, edition string) {
	EditionsSkipped.WithLabelValues(operation, edition).Inc()
}
