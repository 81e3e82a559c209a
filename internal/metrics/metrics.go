// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// parseTotal counts parses by outcome and source
	parseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mdast_parse_total",
		Help: "Total markdown parses by result and source",
	}, []string{"result", "source"})

	// parseDuration tracks event emission plus tree building
	parseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mdast_parse_duration_seconds",
		Help:    "Markdown parse duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
	})

	// parseInputBytes tracks input sizes
	parseInputBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mdast_parse_input_bytes",
		Help:    "Size of parsed markdown inputs in bytes",
		Buckets: prometheus.ExponentialBuckets(64, 4, 10), // 64B to ~16MB
	})

	// parseNodes tracks tree sizes
	parseNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mdast_parse_nodes",
		Help:    "Number of nodes per parsed tree",
		Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
	})

	// cacheLookups counts parse cache hits and misses
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mdast_cache_lookups_total",
		Help: "Parse cache lookups by result",
	}, []string{"result"})

	// jobsQueued tracks batch jobs waiting for a worker
	jobsQueued = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mdast_jobs_queued",
		Help: "Batch parse jobs waiting for a worker",
	})

	// sessionsActive tracks open streaming sessions
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mdast_sessions_active",
		Help: "Open streaming parse sessions",
	})

	// httpRequests counts API requests by route and status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mdast_http_requests_total",
		Help: "HTTP requests by route pattern and status code",
	}, []string{"route", "status"})
)

// Result labels for ObserveParse.
const (
	ResultOK        = "ok"
	ResultTruncated = "truncated"
	ResultCanceled  = "canceled"
	ResultError     = "error"
)

// ObserveParse records one parse.
func ObserveParse(source, result string, d time.Duration, bytes, nodes int) {
	parseTotal.WithLabelValues(result, source).Inc()
	if result == ResultError {
		return
	}
	parseDuration.Observe(d.Seconds())
	parseInputBytes.Observe(float64(bytes))
	parseNodes.Observe(float64(nodes))
}

// CacheLookup records a parse cache hit or miss.
func CacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// SetJobsQueued reports the current job queue depth.
func SetJobsQueued(n int) {
	jobsQueued.Set(float64(n))
}

// SetSessionsActive reports the number of open sessions.
func SetSessionsActive(n int) {
	sessionsActive.Set(float64(n))
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
