package embeddings

import (
	"context"
	"hash/fnv"
)

// MockClient produces deterministic pseudo-embeddings derived from the text
// hash. Equal texts yield equal vectors, which is enough for local runs and
// idempotency tests.
type MockClient struct {
	dimensions int
}

// NewMockClient creates a mock embedding client.
func NewMockClient(dimensions int) *MockClient {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}

	return &MockClient{dimensions: dimensions}
}

// GetEmbedding returns a deterministic vector for text.
func (c *MockClient) GetEmbedding(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))

	seed := h.Sum64()
	vec := make([]float32, c.dimensions)

	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int32(seed>>33)) / float32(1<<31)
	}

	return vec, nil
}
