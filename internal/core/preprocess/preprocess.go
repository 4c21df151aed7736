package preprocess

import "github.com/hoshizora/content-embed-worker/internal/core/domain"

// Result is the output of a full preprocessing run. Metadata always
// describes the unfiltered run, so dashboards can see what was dropped even
// when the caller asked for the filtered view.
type Result struct {
	CleanedText   string
	AppliedStages []string
	Chunks        []domain.QualifiedChunk
	Metadata      ChunkMetadata
}

// Run composes Cleaner, Chunker and QualityGate for one piece of content:
// resolve the per-type config, merge the optional override (chunking and
// quality only), then clean, chunk and gate. All chunks are returned,
// including failed ones.
func Run(targetType domain.TargetType, raw string, override *Override) Result {
	cfg := override.Apply(ResolveConfig(targetType))

	cleaned := NewCleaner(cfg.Cleaner).Clean(raw)
	chunked := NewChunker(cfg.Chunking).Chunk(cleaned.Text)
	qualified := NewQualityGate(cfg.Quality).Assess(chunked.Chunks)

	return Result{
		CleanedText:   cleaned.Text,
		AppliedStages: cleaned.AppliedStages,
		Chunks:        qualified,
		Metadata:      chunked.Metadata,
	}
}

// RunFiltered is Run with failed chunks dropped from the returned list.
// Callers that feed the embedding generator use this variant; Metadata still
// reflects the unfiltered run.
func RunFiltered(targetType domain.TargetType, raw string, override *Override) Result {
	result := Run(targetType, raw, override)

	kept := result.Chunks[:0:0]

	for _, chunk := range result.Chunks {
		if chunk.Status != domain.QualityFailed {
			kept = append(kept, chunk)
		}
	}

	result.Chunks = kept

	return result
}
