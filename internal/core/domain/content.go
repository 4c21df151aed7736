// Package domain holds the core types shared between the preprocessing
// pipeline, the embedding queue worker, and the storage layer.
package domain

import "time"

// TargetType identifies the kind of parent content being preprocessed.
// Each type carries its own compiled-in cleaning/chunking/quality defaults.
type TargetType string

// Supported target types.
const (
	TargetProduct     TargetType = "product"
	TargetPost        TargetType = "post"
	TargetGalleryItem TargetType = "gallery_item"
	TargetComment     TargetType = "comment"
)

// Valid reports whether t is one of the known target types.
func (t TargetType) Valid() bool {
	switch t {
	case TargetProduct, TargetPost, TargetGalleryItem, TargetComment:
		return true
	}

	return false
}

// ContentChunk is a bounded-size contiguous segment of cleaned source text,
// the unit of embedding. Chunks are created fresh on every preprocessing run
// and are never persisted directly; only derived embeddings and content
// hashes are stored.
type ContentChunk struct {
	Index          int    // 0-based sequence order within the parent content
	Text           string
	CharStart      int // byte offset into the cleaned text
	CharEnd        int
	TokenCount     int    // estimated, heuristic
	HeadingContext string // nearest preceding heading, empty when none
}

// Quality status values for a qualified chunk.
const (
	QualityPassed     = "passed"
	QualityIncomplete = "incomplete"
	QualityFailed     = "failed"
)

// ValidityMetrics captures the raw measurements behind a validity decision.
type ValidityMetrics struct {
	CharCount  int
	WordCount  int
	NoiseRatio float64
}

// ValidityResult is the structural pre-check applied before quality scoring.
type ValidityResult struct {
	IsValid bool
	Reason  string // too_short, too_noisy, no_content, duplicate; empty when valid
	Metrics ValidityMetrics
}

// Validity rejection reasons.
const (
	ReasonTooShort  = "too_short"
	ReasonTooNoisy  = "too_noisy"
	ReasonNoContent = "no_content"
	ReasonDuplicate = "duplicate"
)

// QualifiedChunk is a ContentChunk after the quality gate. Failed chunks are
// excluded from embedding; incomplete chunks are still embedded and remain
// candidates for judge reassessment.
type QualifiedChunk struct {
	ContentChunk

	Status   string // passed, incomplete, failed
	Score    float64
	Validity ValidityResult

	// Judge annotations, set only when the item was sampled for judging.
	JudgeModel      string
	JudgeReason     string
	JudgeStandalone bool
}

// EnrichmentContext carries parent-content metadata through the pipeline for
// judge prompts. It is never mutated after creation.
type EnrichmentContext struct {
	TargetType  TargetType
	TargetID    string
	ParentTitle string
	Category    string
	Tags        []string
	Locale      string
}

// SourceContent is what a ContentSource returns for an eligible target.
type SourceContent struct {
	RawContent string
	Context    EnrichmentContext
}

// Queue item status values.
const (
	QueueStatusPending    = "pending"
	QueueStatusProcessing = "processing"
	QueueStatusCompleted  = "completed"
	QueueStatusFailed     = "failed"
)

// QueueItem is one unit of embedding work. Its lifecycle is owned by the
// queue worker: pending -> processing -> completed|failed, where processing
// is only entered atomically via a lease token.
type QueueItem struct {
	ID              string
	TargetType      TargetType
	TargetID        string
	Status          string
	Attempts        int
	ErrorMessage    string
	ProcessingToken string // opaque lease credential, empty unless claimed
	ProcessedAt     *time.Time
	CreatedAt       time.Time
}
