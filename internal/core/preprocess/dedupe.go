package preprocess

import (
	"hash/fnv"
	"strings"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
)

// Duplicate detection tunables. The similarity window bounds pairwise
// comparisons to the last few chunks, keeping the pass linear in chunk
// count for long documents.
const (
	dupSimilarityWindow    = 5
	dupSimilarityThreshold = 0.95
)

// detectDuplicates flags chunks already represented by an earlier chunk:
// exact repeats via a cheap content hash, near-repeats via Jaccard
// similarity against the preceding window.
func detectDuplicates(chunks []domain.ContentChunk) []bool {
	flags := make([]bool, len(chunks))
	seen := make(map[uint64]bool, len(chunks))
	wordSets := make([]map[string]bool, len(chunks))

	for i, chunk := range chunks {
		normalized := normalizeForHash(chunk.Text)
		wordSets[i] = wordSet(chunk.Text)

		h := contentHash(normalized)
		if seen[h] {
			flags[i] = true
			continue
		}

		seen[h] = true

		for j := i - 1; j >= 0 && j >= i-dupSimilarityWindow; j-- {
			if flags[j] {
				continue
			}

			if jaccard(wordSets[i], wordSets[j]) >= dupSimilarityThreshold {
				flags[i] = true
				break
			}
		}
	}

	return flags
}

func normalizeForHash(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func contentHash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))

	return h.Sum64()
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}

	return set
}

// JaccardSimilarity returns the word-set Jaccard similarity of two texts,
// tokenized on whitespace. It is symmetric in its arguments; two empty
// texts are identical.
func JaccardSimilarity(a, b string) float64 {
	return jaccard(wordSet(a), wordSet(b))
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}

	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0

	for w := range a {
		if b[w] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection

	return float64(intersection) / float64(union)
}
