// Package metrics exposes the Prometheus collectors this module registers
// for cache and query activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts record cache hits in the storage adapter.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ivfdb_cache_hits_total",
			Help: "Total number of record cache hits",
		},
	)

	// CacheMisses counts record cache misses in the storage adapter.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ivfdb_cache_misses_total",
			Help: "Total number of record cache misses",
		},
	)

	// QueriesTotal counts queries served, labeled by strategy.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ivfdb_queries_total",
			Help: "Total number of queries served, labeled by strategy",
		},
		[]string{"strategy"},
	)

	// QueryDuration measures query latency, labeled by strategy.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ivfdb_query_duration_seconds",
			Help:    "Duration of queries in seconds, labeled by strategy",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"strategy"},
	)

	// VectorsIndexed tracks the number of vectors currently held per index field.
	VectorsIndexed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ivfdb_vectors_indexed",
			Help: "Number of vectors currently indexed, labeled by field",
		},
		[]string{"field"},
	)
)
