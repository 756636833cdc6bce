// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Business metrics track digest-domain operations: what each gatherer
// branch found, persisted, and deduplicated, and how long extraction took.
var (
	// NewsItemsTotal tracks the total number of news items in the database.
	NewsItemsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "news_items_total",
			Help: "Total number of news items in the database",
		},
	)

	// SourcesTotal tracks total number of active sources (topics, feeds, channels).
	SourcesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sources_total",
			Help: "Total number of active sources by kind",
		},
		[]string{"kind"},
	)

	// ItemsGatheredTotal counts items a branch found, before dedup.
	ItemsGatheredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "items_gathered_total",
			Help: "Total number of items gathered by a branch, before dedup",
		},
		[]string{"branch"},
	)

	// ItemsPersistedTotal counts items a branch actually persisted, after dedup.
	ItemsPersistedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "items_persisted_total",
			Help: "Total number of items persisted by a branch, after dedup",
		},
		[]string{"branch"},
	)

	// ItemsDuplicateTotal counts items a branch dropped as duplicates.
	ItemsDuplicateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "items_duplicate_total",
			Help: "Total number of items dropped as duplicates during persist",
		},
		[]string{"branch"},
	)

	// ExtractionDuration measures time to extract+summarize one candidate.
	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extraction_duration_seconds",
			Help:    "Time taken to extract and summarize one candidate",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"kind"}, // kind: web, feed, video
	)

	// ExtractionErrorsTotal counts extractor failures by kind.
	ExtractionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_errors_total",
			Help: "Total number of extraction failures",
		},
		[]string{"kind"},
	)

	// BranchDuration measures wall time for one gatherer branch in one run.
	BranchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "branch_duration_seconds",
			Help:    "Time taken by a gatherer branch in one run",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"branch"},
	)

	// DigestItemsTotal measures the size of the synthesized digest per run.
	DigestItemsTotal = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "digest_items_total",
			Help:    "Number of items included in the synthesized digest",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
		},
	)
)

// Database metrics track database performance.
var (
	// DBQueryDuration measures database query duration.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections.
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections.
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordOperationDuration records the duration of a named database operation.
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
