// Package embeddings provides embedding generation for content chunks.
//
// The OpenAI client is rate limited and returns vectors with a consistent
// dimension count; a deterministic mock stands in when no API key is
// configured so local runs and tests need no network access.
package embeddings

import (
	"context"

	"github.com/rs/zerolog"
)

// DefaultDimensions matches the pgvector column width in the embeddings
// table.
const DefaultDimensions = 1536

// Client generates an embedding vector for a single chunk text. Timeouts on
// the underlying HTTP calls belong to the HTTP client, not to callers.
type Client interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Config holds embedding client settings.
type Config struct {
	APIKey     string
	Model      string
	Dimensions int
	RateLimit  int // requests per second
}

// NewClient returns an OpenAI-backed client, or the mock when no API key is
// set.
func NewClient(cfg Config, logger *zerolog.Logger) Client {
	if cfg.APIKey == "" {
		logger.Warn().Msg("no embedding API key configured, using mock embeddings")

		return NewMockClient(cfg.Dimensions)
	}

	return NewOpenAIClient(cfg)
}
