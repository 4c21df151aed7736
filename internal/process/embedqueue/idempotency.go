package embedqueue

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
	db "github.com/hoshizora/content-embed-worker/internal/storage"
)

// HashChunkText returns the deterministic content hash stored alongside a
// chunk's embedding and compared on later runs.
func HashChunkText(text string) string {
	sum := sha256.Sum256([]byte(text))

	return hex.EncodeToString(sum[:])
}

// ChunkHashes computes the content hash for every chunk in order.
func ChunkHashes(chunks []domain.QualifiedChunk) []string {
	hashes := make([]string, len(chunks))
	for i, chunk := range chunks {
		hashes[i] = HashChunkText(chunk.Text)
	}

	return hashes
}

// Unchanged reports whether stored chunk records make re-embedding
// redundant: the counts match exactly, every new hash equals the stored
// hash at the same index, and every stored chunk passed the quality gate.
// Any mismatch forces a full re-embed.
func Unchanged(stored []db.ChunkRecord, hashes []string) bool {
	if len(stored) == 0 || len(stored) != len(hashes) {
		return false
	}

	for i, rec := range stored {
		if rec.ChunkIndex != i {
			return false
		}

		if rec.ContentHash != hashes[i] {
			return false
		}

		if rec.QualityStatus != domain.QualityPassed {
			return false
		}
	}

	return true
}
