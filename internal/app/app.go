// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// different operational modes:
//
//   - Worker mode: Queue consumer that preprocesses content and stores embeddings
//   - Monitor mode: One-shot queue depth report for operators
//   - Enqueue mode: Inserts a single target into the embedding queue
//   - Set-setting mode: Stores a JSON settings value, e.g. a preprocessing override
//
// Each mode can be run independently based on deployment needs.
package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
	"github.com/hoshizora/content-embed-worker/internal/core/embeddings"
	"github.com/hoshizora/content-embed-worker/internal/core/judge"
	"github.com/hoshizora/content-embed-worker/internal/platform/config"
	"github.com/hoshizora/content-embed-worker/internal/platform/observability"
	"github.com/hoshizora/content-embed-worker/internal/process/embedqueue"
	db "github.com/hoshizora/content-embed-worker/internal/storage"
)

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunWorker runs the embedding queue worker until the context is canceled.
func (a *App) RunWorker(ctx context.Context) error {
	a.logger.Info().Msg("Starting worker mode")

	embedder := embeddings.NewClient(embeddings.Config{
		APIKey:     a.cfg.EmbeddingAPIKey,
		Model:      a.cfg.EmbeddingModel,
		Dimensions: a.cfg.EmbeddingDimensions,
		RateLimit:  a.cfg.EmbeddingRateLimit,
	}, a.logger)

	var (
		judgeClient judge.Judger
		sampler     *judge.Sampler
	)

	if a.cfg.JudgeEndpoint != "" {
		judgeClient = judge.NewClient(judge.Config{
			Endpoint: a.cfg.JudgeEndpoint,
			Timeout:  a.cfg.JudgeTimeout,
		})
		sampler = judge.NewSampler(a.cfg.JudgeMinPopulation, a.cfg.JudgeSampleRate, nil)

		a.logger.Info().Str("endpoint", a.cfg.JudgeEndpoint).Msg("chunk judge enabled")
	} else {
		a.logger.Info().Msg("no judge endpoint configured, judging disabled")
	}

	worker := embedqueue.New(a.cfg, a.database, embedder, judgeClient, sampler, a.logger)

	return worker.Run(ctx)
}

// RunMonitor prints current queue depth and exits. Intended for operators
// and cron checks; the same numbers are exported as gauges on /metrics.
func (a *App) RunMonitor(ctx context.Context) error {
	counts, err := a.database.GetQueueCounts(ctx)
	if err != nil {
		return fmt.Errorf("queue counts: %w", err)
	}

	a.logger.Info().
		Int("pending", counts.Pending).
		Int("processing", counts.Processing).
		Int("completed", counts.Completed).
		Int("failed", counts.Failed).
		Msg("queue depth")

	return nil
}

// RunEnqueue inserts one target into the embedding queue. Duplicate pending
// entries collapse onto the existing row.
func (a *App) RunEnqueue(ctx context.Context, targetType, targetID string) error {
	tt := domain.TargetType(targetType)
	if !tt.Valid() {
		return fmt.Errorf("invalid target type %q", targetType)
	}

	if targetID == "" {
		return fmt.Errorf("target id is required")
	}

	inserted, err := a.database.EnqueueTarget(ctx, tt, targetID)
	if err != nil {
		return fmt.Errorf("enqueue target: %w", err)
	}

	if inserted {
		a.logger.Info().Str("target_type", targetType).Str("target_id", targetID).Msg("target enqueued")
	} else {
		a.logger.Info().Str("target_type", targetType).Str("target_id", targetID).Msg("target already pending")
	}

	return nil
}

// RunSetSetting stores one JSON settings value, typically a per-type
// preprocessing override under a "preprocess.<type>" key. Workers pick the
// change up once their settings cache expires.
func (a *App) RunSetSetting(ctx context.Context, key, value string) error {
	payload, err := settingPayload(key, value)
	if err != nil {
		return err
	}

	if err := a.database.SetSetting(ctx, key, payload); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}

	a.logger.Info().Str("key", key).Msg("setting stored")

	return nil
}

// settingPayload validates raw flag input before it reaches storage.
func settingPayload(key, value string) (json.RawMessage, error) {
	if key == "" {
		return nil, fmt.Errorf("setting key is required")
	}

	if !json.Valid([]byte(value)) {
		return nil, fmt.Errorf("setting value for %q is not valid JSON", key)
	}

	return json.RawMessage(value), nil
}
