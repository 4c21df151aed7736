package embedqueue

import (
	"testing"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
	db "github.com/hoshizora/content-embed-worker/internal/storage"
)

func TestHashChunkText(t *testing.T) {
	a := HashChunkText("some text")
	b := HashChunkText("some text")
	c := HashChunkText("other text")

	if a != b {
		t.Errorf("equal texts hash differently")
	}

	if a == c {
		t.Errorf("different texts collide")
	}

	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}

func storedRecords(hashes []string, status string) []db.ChunkRecord {
	records := make([]db.ChunkRecord, len(hashes))
	for i, h := range hashes {
		records[i] = db.ChunkRecord{ChunkIndex: i, ContentHash: h, QualityStatus: status}
	}

	return records
}

func TestUnchanged(t *testing.T) {
	hashes := []string{HashChunkText("a"), HashChunkText("b"), HashChunkText("c")}

	tests := []struct {
		name     string
		stored   []db.ChunkRecord
		hashes   []string
		expected bool
	}{
		{
			name:     "exact match all passed",
			stored:   storedRecords(hashes, domain.QualityPassed),
			hashes:   hashes,
			expected: true,
		},
		{
			name:     "no stored records",
			stored:   nil,
			hashes:   hashes,
			expected: false,
		},
		{
			name:     "count mismatch",
			stored:   storedRecords(hashes[:2], domain.QualityPassed),
			hashes:   hashes,
			expected: false,
		},
		{
			name: "hash mismatch",
			stored: append(
				storedRecords(hashes[:2], domain.QualityPassed),
				db.ChunkRecord{ChunkIndex: 2, ContentHash: HashChunkText("changed"), QualityStatus: domain.QualityPassed},
			),
			hashes:   hashes,
			expected: false,
		},
		{
			name: "incomplete chunk forces re-embed",
			stored: append(
				storedRecords(hashes[:2], domain.QualityPassed),
				db.ChunkRecord{ChunkIndex: 2, ContentHash: hashes[2], QualityStatus: domain.QualityIncomplete},
			),
			hashes:   hashes,
			expected: false,
		},
		{
			name: "index gap forces re-embed",
			stored: []db.ChunkRecord{
				{ChunkIndex: 0, ContentHash: hashes[0], QualityStatus: domain.QualityPassed},
				{ChunkIndex: 2, ContentHash: hashes[1], QualityStatus: domain.QualityPassed},
				{ChunkIndex: 3, ContentHash: hashes[2], QualityStatus: domain.QualityPassed},
			},
			hashes:   hashes,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unchanged(tt.stored, tt.hashes); got != tt.expected {
				t.Errorf("Unchanged() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestChunkHashesOrder(t *testing.T) {
	chunks := []domain.QualifiedChunk{
		{ContentChunk: domain.ContentChunk{Text: "first"}},
		{ContentChunk: domain.ContentChunk{Text: "second"}},
	}

	hashes := ChunkHashes(chunks)

	if len(hashes) != 2 {
		t.Fatalf("got %d hashes", len(hashes))
	}

	if hashes[0] != HashChunkText("first") || hashes[1] != HashChunkText("second") {
		t.Errorf("hash order does not follow chunk order")
	}
}
