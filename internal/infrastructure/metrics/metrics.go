// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysesTotal counts analyses by outcome: computed, cached, rejected.
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skinlens_analyses_total",
			Help: "Total number of ingredient analyses by outcome",
		},
		[]string{"outcome"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skinlens_analysis_duration_seconds",
			Help:    "Time spent scoring one ingredient list",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	ConflictsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skinlens_conflicts_detected_total",
			Help: "Total number of ingredient conflicts detected by severity",
		},
		[]string{"severity"},
	)

	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skinlens_recommendations_served_total",
			Help: "Total number of recommendations returned by variant",
		},
		[]string{"variant"}, // "match", "alternatives"
	)

	KnowledgeRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "skinlens_knowledge_records",
			Help: "Number of records in the active knowledge snapshot",
		},
		[]string{"kind"},
	)

	KnowledgeRecordsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skinlens_knowledge_records_rejected_total",
			Help: "Total number of knowledge-base records skipped during ingestion",
		},
		[]string{"kind"},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skinlens_cache_requests_total",
			Help: "Analysis cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "error"
	)

	LookupRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skinlens_product_lookup_requests_total",
			Help: "Barcode lookups against the remote product database by outcome",
		},
		[]string{"outcome"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skinlens_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
