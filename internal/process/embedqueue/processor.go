package embedqueue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
	"github.com/hoshizora/content-embed-worker/internal/core/judge"
	"github.com/hoshizora/content-embed-worker/internal/core/preprocess"
	"github.com/hoshizora/content-embed-worker/internal/platform/observability"
	db "github.com/hoshizora/content-embed-worker/internal/storage"
)

const msgContentNotFound = "content not found"

// outcome is the terminal result of processing one queue item. The queue
// worker is the only layer that classifies failures; everything below it
// degrades gracefully instead.
type outcome struct {
	status            string // terminal queue status
	kind              string // domain.Outcome* classification
	message           string // persisted into error_message (may be a warning on completed)
	chunksTotal       int
	chunksEmbedded    int
	skippedIdempotent bool
}

func completedOutcome(kind, message string) outcome {
	return outcome{status: domain.QueueStatusCompleted, kind: kind, message: message}
}

func failedOutcome(kind, message string) outcome {
	return outcome{status: domain.QueueStatusFailed, kind: kind, message: message}
}

// processItem runs the per-item state machine: fetch, preprocess, check
// idempotency, judge (sampled), embed, clean up stale records. Panics are
// recovered here and classified as unexpected, so the lease is always
// released through the normal completion path.
func (w *Worker) processItem(ctx context.Context, item *db.QueueItem) (res outcome) {
	defer func() {
		if r := recover(); r != nil {
			res = failedOutcome(domain.OutcomeUnexpectedException, fmt.Sprintf("unexpected error: %v", r))
		}
	}()

	override := w.overrides.overrideFor(ctx, item.TargetType)

	content, err := w.db.GetSourceContent(ctx, item.TargetType, item.TargetID)
	if err != nil {
		return failedOutcome(domain.OutcomeUnexpectedException, err.Error())
	}

	if content == nil {
		return failedOutcome(domain.OutcomeContentNotFound, msgContentNotFound)
	}

	if strings.TrimSpace(content.RawContent) == "" {
		// Nothing to embed is a success, not an error.
		return completedOutcome(domain.OutcomeEmptyContent, "")
	}

	result := preprocess.RunFiltered(item.TargetType, content.RawContent, override)

	for _, chunk := range result.Chunks {
		observability.ChunksProduced.WithLabelValues(chunk.Status).Inc()
	}

	chunks := reindex(result.Chunks)
	if len(chunks) == 0 {
		return completedOutcome(domain.OutcomeNoQualifiedChunks, "")
	}

	hashes := ChunkHashes(chunks)

	stored, err := w.db.GetChunkRecords(ctx, item.TargetType, item.TargetID)
	if err != nil {
		return failedOutcome(domain.OutcomeUnexpectedException, err.Error())
	}

	if Unchanged(stored, hashes) {
		observability.IdempotentSkips.Inc()

		return outcome{
			status:            domain.QueueStatusCompleted,
			kind:              domain.OutcomeIdempotentSkip,
			message:           "skipped_reason=idempotent",
			chunksTotal:       len(chunks),
			chunksEmbedded:    len(chunks),
			skippedIdempotent: true,
		}
	}

	w.maybeJudge(ctx, item.TargetType, content.Context, chunks)

	// The judge can downgrade chunks to failed; those are dropped before
	// embedding like any other failed chunk.
	chunks = reindex(keepNonFailed(chunks))
	if len(chunks) == 0 {
		return completedOutcome(domain.OutcomeNoQualifiedChunks, "")
	}

	batch := runBatch(ctx, chunks, w.concurrency, func(ctx context.Context, chunk domain.QualifiedChunk) error {
		return w.embedAndPersist(ctx, item, chunk)
	})

	res = outcome{chunksTotal: len(chunks), chunksEmbedded: batch.Succeeded}

	switch {
	case batch.AllSucceeded():
		// Re-embedding may produce fewer chunks than the previous run.
		if _, err := w.db.DeleteChunkRecordsFrom(ctx, item.TargetType, item.TargetID, len(chunks)); err != nil {
			w.logger.Warn().Err(err).
				Str(logFieldTargetType, string(item.TargetType)).
				Str(logFieldTargetID, item.TargetID).
				Msg("failed to delete stale chunk records")
		}

		res.status = domain.QueueStatusCompleted
	case batch.Succeeded > 0:
		// Lenient by design: queue retries are reserved for total failures,
		// so a partial batch still completes, with a visible warning.
		res.status = domain.QueueStatusCompleted
		res.kind = domain.OutcomePartialChunksFailed
		res.message = fmt.Sprintf("partial success: %d/%d chunks embedded; last error: %s",
			batch.Succeeded, batch.Requested, batch.LastError)
	default:
		res.status = domain.QueueStatusFailed
		res.kind = domain.OutcomeAllChunksFailed
		res.message = batch.LastError
	}

	return res
}

// embedAndPersist generates and stores the embedding for one chunk.
func (w *Worker) embedAndPersist(ctx context.Context, item *db.QueueItem, chunk domain.QualifiedChunk) error {
	start := time.Now()

	vector, err := w.embedder.GetEmbedding(ctx, chunk.Text)

	observability.EmbeddingCallDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		observability.EmbeddingCalls.WithLabelValues(observability.ResultFailure).Inc()

		return fmt.Errorf("%s: chunk %d: %w", domain.OutcomeEmbeddingCallFailed, chunk.Index, err)
	}

	observability.EmbeddingCalls.WithLabelValues(observability.ResultSuccess).Inc()

	rec := db.ChunkRecord{
		TargetType:    item.TargetType,
		TargetID:      item.TargetID,
		ChunkIndex:    chunk.Index,
		ContentHash:   HashChunkText(chunk.Text),
		QualityScore:  chunk.Score,
		QualityStatus: chunk.Status,
		Metadata: db.ChunkMetadata{
			JudgeModel:      chunk.JudgeModel,
			JudgeReason:     chunk.JudgeReason,
			JudgeStandalone: chunk.JudgeStandalone,
		},
	}

	if err := w.db.UpsertChunkEmbedding(ctx, rec, vector); err != nil {
		return fmt.Errorf("persist chunk %d: %w", chunk.Index, err)
	}

	return nil
}

// maybeJudge samples the parent item and, when selected, judges all of its
// surviving chunks together so the item gets one consistent quality signal.
func (w *Worker) maybeJudge(ctx context.Context, targetType domain.TargetType, ectx domain.EnrichmentContext, chunks []domain.QualifiedChunk) {
	if w.judge == nil || w.sampler == nil {
		return
	}

	population, err := w.db.CountEligibleContent(ctx, targetType)
	if err != nil {
		w.logger.Warn().Err(err).Str(logFieldTargetType, string(targetType)).Msg("population count failed, skipping judge")

		return
	}

	if !w.sampler.ShouldJudge(population) {
		return
	}

	for i := range chunks {
		result := w.judge.Judge(ctx, judge.RequestFor(chunks[i].Text, ectx))

		if result.Success {
			observability.JudgeCalls.WithLabelValues(observability.ResultSuccess).Inc()
		} else {
			observability.JudgeCalls.WithLabelValues(observability.ResultFailure).Inc()
		}

		judge.ApplyResult(&chunks[i], result)
	}
}

func keepNonFailed(chunks []domain.QualifiedChunk) []domain.QualifiedChunk {
	kept := chunks[:0:0]

	for _, chunk := range chunks {
		if chunk.Status != domain.QualityFailed {
			kept = append(kept, chunk)
		}
	}

	return kept
}

// reindex renumbers chunks densely so stored chunk indexes stay contiguous
// after filtering.
func reindex(chunks []domain.QualifiedChunk) []domain.QualifiedChunk {
	for i := range chunks {
		chunks[i].Index = i
	}

	return chunks
}
