package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
)

// ChunkRecord is one persisted chunk embedding row, minus the vector. The
// idempotency check compares these against freshly computed chunk hashes.
type ChunkRecord struct {
	TargetType    domain.TargetType
	TargetID      string
	ChunkIndex    int
	ContentHash   string
	QualityScore  float64
	QualityStatus string
	Metadata      ChunkMetadata
	UpdatedAt     time.Time
}

// ChunkMetadata is the preprocessing metadata stored with an embedding,
// populated when the chunk was judge-evaluated.
type ChunkMetadata struct {
	JudgeModel      string `json:"judge_model,omitempty"`
	JudgeReason     string `json:"judge_reason,omitempty"`
	JudgeStandalone bool   `json:"judge_standalone,omitempty"`
}

// GetChunkRecords returns the stored chunk records for a target in chunk
// index order.
func (db *DB) GetChunkRecords(ctx context.Context, targetType domain.TargetType, targetID string) ([]ChunkRecord, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT target_type, target_id, chunk_index, content_hash,
			quality_score, quality_status, metadata, updated_at
		FROM content_embeddings
		WHERE target_type = $1 AND target_id = $2
		ORDER BY chunk_index
	`, string(targetType), targetID)
	if err != nil {
		return nil, fmt.Errorf("get chunk records: %w", err)
	}
	defer rows.Close()

	var records []ChunkRecord

	for rows.Next() {
		var (
			rec      ChunkRecord
			metaJSON []byte
		)

		if err := rows.Scan(
			&rec.TargetType,
			&rec.TargetID,
			&rec.ChunkIndex,
			&rec.ContentHash,
			&rec.QualityScore,
			&rec.QualityStatus,
			&metaJSON,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan chunk record: %w", err)
		}

		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &rec.Metadata)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk records: %w", err)
	}

	return records, nil
}

// UpsertChunkEmbedding writes one chunk's embedding and quality metadata,
// replacing any previous record at the same chunk index.
func (db *DB) UpsertChunkEmbedding(ctx context.Context, rec ChunkRecord, embedding []float32) error {
	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal chunk metadata: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO content_embeddings
			(target_type, target_id, chunk_index, content_hash,
			 quality_score, quality_status, metadata, embedding, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (target_type, target_id, chunk_index) DO UPDATE
		SET content_hash = EXCLUDED.content_hash,
			quality_score = EXCLUDED.quality_score,
			quality_status = EXCLUDED.quality_status,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			updated_at = now()
	`, string(rec.TargetType), rec.TargetID, rec.ChunkIndex, rec.ContentHash,
		rec.QualityScore, rec.QualityStatus, metaJSON, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("upsert chunk embedding: %w", err)
	}

	return nil
}

// DeleteChunkRecordsFrom removes stale chunk records at or beyond
// fromIndex, used when re-embedding produced fewer chunks than before.
func (db *DB) DeleteChunkRecordsFrom(ctx context.Context, targetType domain.TargetType, targetID string, fromIndex int) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM content_embeddings
		WHERE target_type = $1 AND target_id = $2 AND chunk_index >= $3
	`, string(targetType), targetID, fromIndex)
	if err != nil {
		return 0, fmt.Errorf("delete stale chunk records: %w", err)
	}

	return tag.RowsAffected(), nil
}
