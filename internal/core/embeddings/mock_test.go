package embeddings

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestMockClientDeterministic(t *testing.T) {
	c := NewMockClient(16)

	a, err := c.GetEmbedding(context.Background(), "same text")
	if err != nil {
		t.Fatalf("GetEmbedding: %v", err)
	}

	b, _ := c.GetEmbedding(context.Background(), "same text")
	other, _ := c.GetEmbedding(context.Background(), "different text")

	if len(a) != 16 {
		t.Fatalf("dimensions = %d, want 16", len(a))
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("equal texts produced different vectors at %d", i)
		}
	}

	same := true

	for i := range a {
		if a[i] != other[i] {
			same = false
			break
		}
	}

	if same {
		t.Fatal("different texts produced identical vectors")
	}
}

func TestMockClientDefaultDimensions(t *testing.T) {
	c := NewMockClient(0)

	vec, err := c.GetEmbedding(context.Background(), "x")
	if err != nil {
		t.Fatalf("GetEmbedding: %v", err)
	}

	if len(vec) != DefaultDimensions {
		t.Fatalf("dimensions = %d, want %d", len(vec), DefaultDimensions)
	}
}

func TestNewClientFallsBackToMock(t *testing.T) {
	logger := zerolog.Nop()

	c := NewClient(Config{Model: "text-embedding-3-small"}, &logger)

	if _, ok := c.(*MockClient); !ok {
		t.Fatalf("NewClient without API key = %T, want *MockClient", c)
	}
}

func TestNewClientUsesOpenAI(t *testing.T) {
	logger := zerolog.Nop()

	c := NewClient(Config{APIKey: "sk-test", Model: "text-embedding-3-small"}, &logger)

	if _, ok := c.(*OpenAIClient); !ok {
		t.Fatalf("NewClient with API key = %T, want *OpenAIClient", c)
	}
}
