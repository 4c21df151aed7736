// Package observability exposes Prometheus metrics and the health/metrics
// HTTP server for the embedding worker.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueueItemsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "embed_queue_items_processed_total",
		Help: "The total number of queue items processed, by terminal status",
	}, []string{"status"})

	QueueItemOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "embed_queue_item_outcomes_total",
		Help: "The total number of queue item outcomes, by outcome kind",
	}, []string{"outcome"})

	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "embed_queue_depth",
		Help: "Number of queue items by status",
	}, []string{"status"})

	EmbeddingCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "embed_embedding_calls_total",
		Help: "The total number of embedding API calls, by result",
	}, []string{"result"})

	EmbeddingCallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "embed_embedding_call_duration_seconds",
		Help:    "Duration of individual embedding API calls",
		Buckets: prometheus.DefBuckets,
	})

	JudgeCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "embed_judge_calls_total",
		Help: "The total number of judge API calls, by result",
	}, []string{"result"})

	ItemProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "embed_item_processing_duration_seconds",
		Help:    "End-to-end duration of processing one queue item",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})

	ChunksProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "embed_chunks_produced_total",
		Help: "The total number of chunks produced by preprocessing, by quality status",
	}, []string{"status"})

	IdempotentSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "embed_idempotent_skips_total",
		Help: "The total number of queue items skipped because content was unchanged",
	})

	StuckItemsRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "embed_stuck_items_recovered_total",
		Help: "The total number of queue items recovered from a stale processing state",
	})
)

// Metric label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)
