package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
)

// QueueItem is an alias for the domain type.
type QueueItem = domain.QueueItem

// QueueCounts aggregates queue items by status for monitoring.
type QueueCounts struct {
	Pending    int
	Processing int
	Completed  int
	Failed     int
}

// ErrLeaseLost is returned when a completion update matches no row, meaning
// the processing token no longer owns the item.
var ErrLeaseLost = errors.New("queue item lease lost")

// EnqueueTarget inserts a pending queue item for a target, ignoring targets
// that already have a pending item. Reports whether a row was inserted.
func (db *DB) EnqueueTarget(ctx context.Context, targetType domain.TargetType, targetID string) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO embedding_queue (target_type, target_id)
		VALUES ($1, $2)
		ON CONFLICT (target_type, target_id) WHERE status = 'pending' DO NOTHING
	`, string(targetType), targetID)
	if err != nil {
		return false, fmt.Errorf("enqueue target: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ClaimNextQueueItem atomically claims the oldest pending item: flips it to
// processing, bumps the attempt counter and issues a fresh processing token.
// Returns nil when the queue is empty. Two workers can never claim the same
// item because the pick row is locked with SKIP LOCKED.
func (db *DB) ClaimNextQueueItem(ctx context.Context) (*QueueItem, error) {
	var (
		item      QueueItem
		id, token pgtype.UUID
		errMsg    pgtype.Text
		createdAt pgtype.Timestamptz
	)

	err := db.Pool.QueryRow(ctx, `
		WITH picked AS (
			SELECT id
			FROM embedding_queue
			WHERE status = $1
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE embedding_queue eq
		SET status = $2,
			attempts = eq.attempts + 1,
			processing_token = gen_random_uuid(),
			updated_at = now()
		FROM picked
		WHERE eq.id = picked.id
		RETURNING eq.id, eq.target_type, eq.target_id, eq.status, eq.attempts,
			eq.error_message, eq.processing_token, eq.created_at
	`, domain.QueueStatusPending, domain.QueueStatusProcessing).Scan(
		&id,
		&item.TargetType,
		&item.TargetID,
		&item.Status,
		&item.Attempts,
		&errMsg,
		&token,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil,nil indicates an empty queue
		}

		return nil, fmt.Errorf("claim next queue item: %w", err)
	}

	item.ID = fromUUID(id)
	item.ProcessingToken = fromUUID(token)
	item.ErrorMessage = fromText(errMsg)
	item.CreatedAt = createdAt.Time

	return &item, nil
}

// MarkQueueItemProcessing is the legacy claim path: a direct status flip
// without a token, for callers that performed their own external claim.
func (db *DB) MarkQueueItemProcessing(ctx context.Context, itemID string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE embedding_queue
		SET status = $1, attempts = attempts + 1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, domain.QueueStatusProcessing, toUUID(itemID), domain.QueueStatusPending)
	if err != nil {
		return fmt.Errorf("mark queue item processing: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrLeaseLost
	}

	return nil
}

// CompleteQueueItem finishes an item with a terminal status, releasing the
// lease. When token is non-empty the update only applies while the token
// still owns the item; a stale token returns ErrLeaseLost.
func (db *DB) CompleteQueueItem(ctx context.Context, itemID, token, status, errorMessage string) error {
	var (
		tag pgconn.CommandTag
		err error
	)

	if token != "" {
		tag, err = db.Pool.Exec(ctx, `
			UPDATE embedding_queue
			SET status = $1,
				error_message = $2,
				processing_token = NULL,
				processed_at = now(),
				updated_at = now()
			WHERE id = $3 AND processing_token = $4
		`, status, toText(errorMessage), toUUID(itemID), toUUID(token))
	} else {
		tag, err = db.Pool.Exec(ctx, `
			UPDATE embedding_queue
			SET status = $1,
				error_message = $2,
				processed_at = now(),
				updated_at = now()
			WHERE id = $3 AND status = $4
		`, status, toText(errorMessage), toUUID(itemID), domain.QueueStatusProcessing)
	}

	if err != nil {
		return fmt.Errorf("complete queue item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrLeaseLost
	}

	return nil
}

// RecoverStuckQueueItems resets items stuck in processing longer than
// threshold back to pending, or to failed once attempts reached maxAttempts.
// Handles workers that crashed after claiming an item.
func (db *DB) RecoverStuckQueueItems(ctx context.Context, threshold time.Duration, maxAttempts int) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE embedding_queue
		SET status = CASE WHEN attempts >= $1 THEN 'failed' ELSE 'pending' END,
			error_message = CASE WHEN attempts >= $1 THEN 'stuck in processing, attempts exhausted' ELSE error_message END,
			processing_token = NULL,
			updated_at = now()
		WHERE status = $2 AND updated_at < now() - $3::interval
	`, maxAttempts, domain.QueueStatusProcessing, threshold.String())
	if err != nil {
		return 0, fmt.Errorf("recover stuck queue items: %w", err)
	}

	return tag.RowsAffected(), nil
}

// GetQueueCounts returns the number of queue items per status.
func (db *DB) GetQueueCounts(ctx context.Context) (QueueCounts, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM embedding_queue
		GROUP BY status
	`)
	if err != nil {
		return QueueCounts{}, fmt.Errorf("get queue counts: %w", err)
	}
	defer rows.Close()

	var counts QueueCounts

	for rows.Next() {
		var (
			status string
			n      int
		)

		if err := rows.Scan(&status, &n); err != nil {
			return QueueCounts{}, fmt.Errorf("scan queue count: %w", err)
		}

		switch status {
		case domain.QueueStatusPending:
			counts.Pending = n
		case domain.QueueStatusProcessing:
			counts.Processing = n
		case domain.QueueStatusCompleted:
			counts.Completed = n
		case domain.QueueStatusFailed:
			counts.Failed = n
		}
	}

	if err := rows.Err(); err != nil {
		return QueueCounts{}, fmt.Errorf("iterate queue counts: %w", err)
	}

	return counts, nil
}
