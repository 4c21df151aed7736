package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
)

// GetSourceContent fetches the raw content and enrichment context for a
// target. Returns nil when the target does not exist or is not eligible for
// embedding (unpublished, soft-deleted).
func (db *DB) GetSourceContent(ctx context.Context, targetType domain.TargetType, targetID string) (*domain.SourceContent, error) {
	var (
		body, title, category, locale pgtype.Text
		tags                          []string
	)

	err := db.Pool.QueryRow(ctx, `
		SELECT body, title, category, tags, locale
		FROM contents
		WHERE target_type = $1 AND target_id = $2 AND eligible
	`, string(targetType), targetID).Scan(&body, &title, &category, &tags, &locale)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil,nil indicates an ineligible or missing target
		}

		return nil, fmt.Errorf("get source content: %w", err)
	}

	return &domain.SourceContent{
		RawContent: fromText(body),
		Context: domain.EnrichmentContext{
			TargetType:  targetType,
			TargetID:    targetID,
			ParentTitle: fromText(title),
			Category:    fromText(category),
			Tags:        tags,
			Locale:      fromText(locale),
		},
	}, nil
}

// CountEligibleContent returns the eligible content population for a type,
// used by the judge sampler to decide between exhaustive and sampled
// judging.
func (db *DB) CountEligibleContent(ctx context.Context, targetType domain.TargetType) (int, error) {
	var n int

	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM contents
		WHERE target_type = $1 AND eligible
	`, string(targetType)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count eligible content: %w", err)
	}

	return n, nil
}
