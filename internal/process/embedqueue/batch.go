package embedqueue

import (
	"context"
	"sync"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
)

// DefaultEmbedConcurrency caps in-flight embedding calls per queue item.
const DefaultEmbedConcurrency = 2

// BatchResult aggregates a bounded fan-out over one item's chunks.
// Requested always equals Succeeded+Failed; one chunk's failure neither
// cancels nor blocks its siblings.
type BatchResult struct {
	Requested int
	Succeeded int
	Failed    int
	LastError string
}

// AllSucceeded reports whether every chunk embedded.
func (r BatchResult) AllSucceeded() bool {
	return r.Failed == 0
}

// embedCall embeds and persists a single chunk.
type embedCall func(ctx context.Context, chunk domain.QualifiedChunk) error

// runBatch fans out one call per chunk, bounded by a channel semaphore so
// at most limit calls are in flight. Retry policy belongs to the queue, not
// here.
func runBatch(ctx context.Context, chunks []domain.QualifiedChunk, limit int, call embedCall) BatchResult {
	if limit <= 0 {
		limit = DefaultEmbedConcurrency
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = BatchResult{Requested: len(chunks)}
	)

	sem := make(chan struct{}, limit)

	for _, chunk := range chunks {
		wg.Add(1)

		go func(chunk domain.QualifiedChunk) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			err := call(ctx, chunk)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				result.Failed++
				result.LastError = err.Error()
			} else {
				result.Succeeded++
			}
		}(chunk)
	}

	wg.Wait()

	return result
}
