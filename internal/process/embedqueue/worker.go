// Package embedqueue drives the embedding queue: it claims queue items one
// at a time, runs the preprocessing pipeline, checks idempotency, embeds
// qualified chunks with bounded concurrency and records the terminal
// status. Multiple worker instances can run concurrently; the per-item
// lease token guarantees no item is processed twice.
package embedqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
	"github.com/hoshizora/content-embed-worker/internal/core/embeddings"
	"github.com/hoshizora/content-embed-worker/internal/core/judge"
	"github.com/hoshizora/content-embed-worker/internal/platform/config"
	"github.com/hoshizora/content-embed-worker/internal/platform/observability"
	"github.com/hoshizora/content-embed-worker/internal/platform/worker"
	db "github.com/hoshizora/content-embed-worker/internal/storage"
)

// Log field keys.
const (
	logFieldCorrelationID = "correlation_id"
	logFieldItemID        = "item_id"
	logFieldTargetType    = "target_type"
	logFieldTargetID      = "target_id"
	logFieldStatus        = "status"
	logFieldOutcome       = "outcome"
)

// Repository is the storage capability the worker depends on.
type Repository interface {
	ClaimNextQueueItem(ctx context.Context) (*db.QueueItem, error)
	MarkQueueItemProcessing(ctx context.Context, itemID string) error
	CompleteQueueItem(ctx context.Context, itemID, token, status, errorMessage string) error
	RecoverStuckQueueItems(ctx context.Context, threshold time.Duration, maxAttempts int) (int64, error)
	GetQueueCounts(ctx context.Context) (db.QueueCounts, error)
	GetSourceContent(ctx context.Context, targetType domain.TargetType, targetID string) (*domain.SourceContent, error)
	CountEligibleContent(ctx context.Context, targetType domain.TargetType) (int, error)
	GetChunkRecords(ctx context.Context, targetType domain.TargetType, targetID string) ([]db.ChunkRecord, error)
	UpsertChunkEmbedding(ctx context.Context, rec db.ChunkRecord, embedding []float32) error
	DeleteChunkRecordsFrom(ctx context.Context, targetType domain.TargetType, targetID string, fromIndex int) (int64, error)
	GetSetting(ctx context.Context, key string, target interface{}) error
}

// Compile-time assertion that *db.DB implements Repository.
var _ Repository = (*db.DB)(nil)

// Worker processes embedding queue items.
type Worker struct {
	cfg         *config.Config
	db          Repository
	embedder    embeddings.Client
	judge       judge.Judger
	sampler     *judge.Sampler
	overrides   *overrideCache
	concurrency int
	logger      *zerolog.Logger
}

// New creates a queue worker. judgeClient and sampler may be nil to disable
// judging entirely.
func New(cfg *config.Config, database Repository, embedder embeddings.Client, judgeClient judge.Judger, sampler *judge.Sampler, logger *zerolog.Logger) *Worker {
	concurrency := cfg.EmbedConcurrency
	if concurrency <= 0 {
		concurrency = DefaultEmbedConcurrency
	}

	return &Worker{
		cfg:         cfg,
		db:          database,
		embedder:    embedder,
		judge:       judgeClient,
		sampler:     sampler,
		overrides:   newOverrideCache(database, cfg.SettingsCacheTTL),
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run polls the queue until the context is canceled, recovering stuck items
// and publishing queue depth metrics on the side.
func (w *Worker) Run(ctx context.Context) error {
	return worker.Loop(ctx, worker.Config{
		Name:         "embedqueue",
		PollInterval: w.cfg.WorkerPollInterval,
		Process:      w.processNext,
		PeriodicTasks: []worker.PeriodicTask{
			{
				Name:     "recover_stuck_items",
				Interval: w.cfg.RecoveryInterval,
				Run:      w.recoverStuckItems,
			},
			{
				Name:     "update_queue_metrics",
				Interval: w.cfg.MetricsInterval,
				Run:      w.updateQueueMetrics,
			},
		},
		Logger: w.logger,
	})
}

// processNext claims and processes at most one queue item per invocation.
func (w *Worker) processNext(ctx context.Context) error {
	item, err := w.db.ClaimNextQueueItem(ctx)
	if err != nil {
		return fmt.Errorf("claim queue item: %w", err)
	}

	if item == nil {
		return nil
	}

	w.process(ctx, item)

	return nil
}

// ProcessByID is the legacy entry point for callers that already selected
// an item: the status flip to processing happens directly, without a lease
// token.
func (w *Worker) ProcessByID(ctx context.Context, item *db.QueueItem) error {
	if err := w.db.MarkQueueItemProcessing(ctx, item.ID); err != nil {
		return fmt.Errorf("mark item processing: %w", err)
	}

	item.Status = domain.QueueStatusProcessing
	item.ProcessingToken = ""

	w.process(ctx, item)

	return nil
}

// process runs the state machine for one claimed item and always releases
// the lease through the single completion path.
func (w *Worker) process(ctx context.Context, item *db.QueueItem) {
	correlationID := uuid.New().String()
	logger := w.logger.With().
		Str(logFieldCorrelationID, correlationID).
		Str(logFieldItemID, item.ID).
		Str(logFieldTargetType, string(item.TargetType)).
		Str(logFieldTargetID, item.TargetID).
		Logger()

	logger.Info().Msg("processing queue item")

	start := time.Now()
	result := w.processItem(ctx, item)

	observability.ItemProcessingDuration.Observe(time.Since(start).Seconds())
	observability.QueueItemsProcessed.WithLabelValues(result.status).Inc()

	if result.kind != "" {
		observability.QueueItemOutcomes.WithLabelValues(result.kind).Inc()
	}

	if err := w.db.CompleteQueueItem(ctx, item.ID, item.ProcessingToken, result.status, result.message); err != nil {
		logger.Error().Err(err).Msg("failed to finalize queue item")

		return
	}

	logger.Info().
		Str(logFieldStatus, result.status).
		Str(logFieldOutcome, result.kind).
		Int("chunks_total", result.chunksTotal).
		Int("chunks_embedded", result.chunksEmbedded).
		Bool("skipped_idempotent", result.skippedIdempotent).
		Dur("duration", time.Since(start)).
		Msg("queue item finished")
}

// recoverStuckItems resets items whose worker died mid-processing.
func (w *Worker) recoverStuckItems(ctx context.Context) {
	defer worker.RecoverPanic(w.logger, "recover stuck items")

	n, err := w.db.RecoverStuckQueueItems(ctx, w.cfg.StuckThreshold, w.cfg.MaxAttempts)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to recover stuck queue items")

		return
	}

	if n > 0 {
		observability.StuckItemsRecovered.Add(float64(n))
		w.logger.Warn().Int64("recovered", n).Msg("recovered stuck queue items")
	}
}

func (w *Worker) updateQueueMetrics(ctx context.Context) {
	counts, err := w.db.GetQueueCounts(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to read queue counts")

		return
	}

	observability.UpdateQueueDepth(counts)
}
