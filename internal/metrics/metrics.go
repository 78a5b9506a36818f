// Package metrics registers the Prometheus instruments the server exposes
// on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration observes HTTP request latency by method, route, and
	// status class.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "travelnote_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// Exports counts snapshot exports by format and outcome.
	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travelnote_exports_total",
		Help: "Snapshot exports.",
	}, []string{"format", "status"})

	// Imports counts snapshot imports by outcome.
	Imports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "travelnote_imports_total",
		Help: "Snapshot imports.",
	}, []string{"status"})

	// ImportSkippedRecords counts payments/shares silently dropped during
	// import because their person reference could not be mapped.
	ImportSkippedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travelnote_import_skipped_records_total",
		Help: "Import records skipped due to unmapped person references.",
	})

	// Settlements counts settlement computations.
	Settlements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "travelnote_settlement_computations_total",
		Help: "Settlement solver runs.",
	})
)
