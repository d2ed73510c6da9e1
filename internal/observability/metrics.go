package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec
	importRowsTotal    *prometheus.CounterVec
	replaceSetsTotal   *prometheus.CounterVec
	cascadeDeletes     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors. Safe to call repeatedly.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		importRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "records_import_rows_total",
			Help: "Bulk import rows by source and outcome.",
		}, []string{"source", "outcome"})

		replaceSetsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "records_replace_sets_total",
			Help: "Attendance and mark replace-sets applied.",
		}, []string{"kind", "status"})

		cascadeDeletes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "records_cascade_deletes_total",
			Help: "Cascade deletions by entity and status.",
		}, []string{"entity", "status"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, httpErrorsTotal, importRowsTotal, replaceSetsTotal, cascadeDeletes)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// ImportRows counts bulk import rows; outcome is added, updated or skipped.
func ImportRows() *prometheus.CounterVec {
	RegisterMetrics()
	return importRowsTotal
}

// ReplaceSets counts attendance and mark replace-set transactions.
func ReplaceSets() *prometheus.CounterVec {
	RegisterMetrics()
	return replaceSetsTotal
}

// CascadeDeletes counts removal requests.
func CascadeDeletes() *prometheus.CounterVec {
	RegisterMetrics()
	return cascadeDeletes
}
