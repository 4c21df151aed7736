package embedqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
)

func makeChunks(n int) []domain.QualifiedChunk {
	chunks := make([]domain.QualifiedChunk, n)
	for i := range chunks {
		chunks[i] = domain.QualifiedChunk{
			ContentChunk: domain.ContentChunk{Index: i, Text: "chunk"},
			Status:       domain.QualityPassed,
		}
	}

	return chunks
}

func TestRunBatchAllSucceed(t *testing.T) {
	var calls int64

	result := runBatch(context.Background(), makeChunks(10), 2, func(_ context.Context, _ domain.QualifiedChunk) error {
		atomic.AddInt64(&calls, 1)

		return nil
	})

	if calls != 10 {
		t.Errorf("calls = %d, want 10", calls)
	}

	if result.Requested != 10 || result.Succeeded != 10 || result.Failed != 0 {
		t.Errorf("result = %+v", result)
	}

	if !result.AllSucceeded() {
		t.Errorf("AllSucceeded() = false")
	}
}

func TestRunBatchPartialFailure(t *testing.T) {
	result := runBatch(context.Background(), makeChunks(6), 2, func(_ context.Context, chunk domain.QualifiedChunk) error {
		if chunk.Index%2 == 0 {
			return errors.New("embed failed")
		}

		return nil
	})

	if result.Requested != 6 || result.Succeeded != 3 || result.Failed != 3 {
		t.Errorf("result = %+v", result)
	}

	if result.AllSucceeded() {
		t.Errorf("AllSucceeded() with failures")
	}

	if result.LastError != "embed failed" {
		t.Errorf("LastError = %q", result.LastError)
	}
}

func TestRunBatchConcurrencyCeiling(t *testing.T) {
	var (
		mu       sync.Mutex
		inflight int
		peak     int
	)

	runBatch(context.Background(), makeChunks(20), 3, func(_ context.Context, _ domain.QualifiedChunk) error {
		mu.Lock()
		inflight++
		if inflight > peak {
			peak = inflight
		}
		mu.Unlock()

		mu.Lock()
		inflight--
		mu.Unlock()

		return nil
	})

	if peak > 3 {
		t.Errorf("peak in-flight calls = %d, limit was 3", peak)
	}
}

func TestRunBatchDefaultsLimit(t *testing.T) {
	result := runBatch(context.Background(), makeChunks(4), 0, func(_ context.Context, _ domain.QualifiedChunk) error {
		return nil
	})

	if result.Succeeded != 4 {
		t.Errorf("result = %+v", result)
	}
}

func TestRunBatchEmpty(t *testing.T) {
	result := runBatch(context.Background(), nil, 2, func(_ context.Context, _ domain.QualifiedChunk) error {
		t.Fatal("call made for empty batch")

		return nil
	})

	if result.Requested != 0 || !result.AllSucceeded() {
		t.Errorf("result = %+v", result)
	}
}
