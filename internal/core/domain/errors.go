package domain

// Outcome kinds recorded on queue items. Only the queue worker classifies
// failures; component-level functions degrade gracefully instead of failing.
const (
	OutcomeContentNotFound     = "content_not_found"
	OutcomeEmptyContent        = "empty_content"
	OutcomeNoQualifiedChunks   = "no_qualified_chunks"
	OutcomeEmbeddingCallFailed = "embedding_call_failed"
	OutcomeAllChunksFailed     = "all_chunks_failed"
	OutcomePartialChunksFailed = "partial_chunks_failed"
	OutcomeIdempotentSkip      = "idempotent_skip"
	OutcomeUnexpectedException = "unexpected_exception"
)
