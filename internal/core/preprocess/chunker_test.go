package preprocess

import (
	"strings"
	"testing"
)

func TestChunkEmptyInput(t *testing.T) {
	c := NewChunker(ChunkingConfig{TargetSize: 100, MaxSize: 150, Strategy: StrategySentence})

	for _, input := range []string{"", "   ", "\n\n\t"} {
		result := c.Chunk(input)
		if len(result.Chunks) != 0 {
			t.Errorf("Chunk(%q) produced %d chunks, want 0", input, len(result.Chunks))
		}
	}
}

func TestSplitSentences(t *testing.T) {
	text := "Hello world. How are you? 你好。Pi is 3.14 not more"

	segments := splitSentences(text, 0, len(text))

	want := []string{"Hello world.", "How are you?", "你好。", "Pi is 3.14 not more"}
	if len(segments) != len(want) {
		t.Fatalf("got %d segments, want %d: %+v", len(segments), len(want), segments)
	}

	for i, w := range want {
		got := text[segments[i].start:segments[i].end]
		if got != w {
			t.Errorf("segment %d = %q, want %q", i, got, w)
		}
	}
}

func TestSplitParagraphs(t *testing.T) {
	text := "first paragraph\n\nsecond paragraph\n \t\n\nthird"

	segments := splitParagraphs(text)

	want := []string{"first paragraph", "second paragraph", "third"}
	if len(segments) != len(want) {
		t.Fatalf("got %d segments, want %d", len(segments), len(want))
	}

	for i, w := range want {
		if got := text[segments[i].start:segments[i].end]; got != w {
			t.Errorf("segment %d = %q, want %q", i, got, w)
		}
	}
}

func TestFixedStrategy(t *testing.T) {
	// 50 chars, no whitespace: windows of TargetSize*4 bytes.
	text := strings.Repeat("abcde", 10)

	c := NewChunker(ChunkingConfig{TargetSize: 5, MinSize: 0, MaxSize: 8, Strategy: StrategyFixed})
	result := c.Chunk(text)

	if len(result.Chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(result.Chunks))
	}

	var rebuilt strings.Builder
	for i, chunk := range result.Chunks {
		if chunk.Index != i {
			t.Errorf("chunk %d has Index %d", i, chunk.Index)
		}

		rebuilt.WriteString(text[chunk.CharStart:chunk.CharEnd])
	}

	if rebuilt.String() != text {
		t.Errorf("concatenated spans do not reconstruct input: %q", rebuilt.String())
	}
}

func TestFixedStrategyRuneBoundaries(t *testing.T) {
	// Multi-byte runes must never be cut mid-sequence.
	text := strings.Repeat("中文字符测试", 30)

	c := NewChunker(ChunkingConfig{TargetSize: 40, MinSize: 0, MaxSize: 60, Strategy: StrategyFixed})
	result := c.Chunk(text)

	if len(result.Chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(result.Chunks))
	}

	for i, chunk := range result.Chunks {
		if !strings.Contains(text, chunk.Text) {
			t.Errorf("chunk %d is not a substring of the input (broken rune?): %q", i, chunk.Text)
		}

		if chunk.TokenCount > 60 {
			t.Errorf("chunk %d estimated at %d tokens, exceeds max", i, chunk.TokenCount)
		}
	}
}

func TestSemanticSingleChunkWhenSmall(t *testing.T) {
	text := "A short document that easily fits in one chunk."

	c := NewChunker(ChunkingConfig{TargetSize: 100, MinSize: 10, MaxSize: 150, Strategy: StrategySemantic})
	result := c.Chunk(text)

	if len(result.Chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(result.Chunks))
	}

	if result.Chunks[0].Text != text {
		t.Errorf("chunk text = %q, want full input", result.Chunks[0].Text)
	}
}

func TestSemanticHeadingBoundary(t *testing.T) {
	section := strings.Repeat("Some sentence with several plain words in it. ", 8)
	text := "# Alpha\n" + section + "\n# Beta\n" + section

	c := NewChunker(ChunkingConfig{
		TargetSize:      20,
		MinSize:         5,
		MaxSize:         30,
		Strategy:        StrategySemantic,
		HeadingBoundary: true,
	})

	result := c.Chunk(text)

	if len(result.Chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(result.Chunks))
	}

	if result.Chunks[0].HeadingContext != "Alpha" {
		t.Errorf("first chunk heading = %q, want Alpha", result.Chunks[0].HeadingContext)
	}

	last := result.Chunks[len(result.Chunks)-1]
	if last.HeadingContext != "Beta" {
		t.Errorf("last chunk heading = %q, want Beta", last.HeadingContext)
	}
}

func TestOverlapPrefix(t *testing.T) {
	text := "alpha bravo charlie delta echo foxtrot. second sentence with more words here okay."

	c := NewChunker(ChunkingConfig{TargetSize: 5, Overlap: 4, MinSize: 0, MaxSize: 20, Strategy: StrategySentence})
	result := c.Chunk(text)

	if len(result.Chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(result.Chunks))
	}

	second := result.Chunks[1]

	// Overlap of 4 tokens is three trailing words from the first sentence.
	if !strings.HasPrefix(second.Text, "delta echo foxtrot. second sentence") {
		t.Errorf("overlap prefix missing: %q", second.Text)
	}

	// Char offsets refer to the core span, excluding the prefix.
	core := text[second.CharStart:second.CharEnd]
	if !strings.HasPrefix(core, "second sentence") {
		t.Errorf("core span = %q, want sentence without overlap", core)
	}
}

func TestTrailingChunkMergesBackward(t *testing.T) {
	text := "This is a reasonably long first sentence right here. Tiny."

	c := NewChunker(ChunkingConfig{TargetSize: 8, MinSize: 3, MaxSize: 20, Strategy: StrategySentence})
	result := c.Chunk(text)

	if len(result.Chunks) != 1 {
		t.Fatalf("got %d chunks, want 1 after trailing merge", len(result.Chunks))
	}

	if !strings.HasSuffix(result.Chunks[0].Text, "Tiny.") {
		t.Errorf("trailing text lost: %q", result.Chunks[0].Text)
	}
}

func TestOversizedSegmentForceSplit(t *testing.T) {
	// One giant unbroken paragraph must still come out under MaxSize.
	text := strings.Repeat("word ", 400)

	c := NewChunker(ChunkingConfig{TargetSize: 20, MinSize: 5, MaxSize: 30, Strategy: StrategyParagraph})
	result := c.Chunk(text)

	if len(result.Chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(result.Chunks))
	}

	for i, chunk := range result.Chunks {
		core := text[chunk.CharStart:chunk.CharEnd]
		if tokens := EstimateTokens(core); tokens > 30 {
			t.Errorf("chunk %d estimated at %d tokens, exceeds max", i, tokens)
		}
	}
}

func TestChunkSpansOrderedAndDisjoint(t *testing.T) {
	text := strings.Repeat("One sentence here. Another sentence follows it. ", 30)

	configs := []ChunkingConfig{
		{TargetSize: 15, MinSize: 3, MaxSize: 25, Strategy: StrategySentence},
		{TargetSize: 15, MinSize: 3, MaxSize: 25, Strategy: StrategySemantic},
		{TargetSize: 15, MinSize: 3, MaxSize: 25, Strategy: StrategyFixed},
	}

	for _, cfg := range configs {
		t.Run(cfg.Strategy, func(t *testing.T) {
			result := NewChunker(cfg).Chunk(text)

			prevEnd := 0
			for i, chunk := range result.Chunks {
				if chunk.CharStart >= chunk.CharEnd {
					t.Errorf("chunk %d has empty span [%d,%d)", i, chunk.CharStart, chunk.CharEnd)
				}

				if cfg.Strategy != StrategyFixed && chunk.CharStart < prevEnd {
					t.Errorf("chunk %d span [%d,%d) overlaps previous end %d", i, chunk.CharStart, chunk.CharEnd, prevEnd)
				}

				prevEnd = chunk.CharEnd
			}
		})
	}
}

func TestChunkTokenCountWithinMaxSize(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog near the quiet riverbank today. "
	text := strings.Repeat(sentence, 40)

	configs := []ChunkingConfig{
		{TargetSize: 30, Overlap: 20, MinSize: 5, MaxSize: 30, Strategy: StrategySentence},
		{TargetSize: 25, Overlap: 10, MinSize: 5, MaxSize: 40, Strategy: StrategyParagraph},
		{TargetSize: 25, Overlap: 10, MinSize: 5, MaxSize: 40, Strategy: StrategySemantic},
		{TargetSize: 25, Overlap: 10, MinSize: 5, MaxSize: 40, Strategy: StrategyFixed},
	}

	for _, cfg := range configs {
		t.Run(cfg.Strategy, func(t *testing.T) {
			norm := cfg.Normalize()
			result := NewChunker(cfg).Chunk(text)

			if len(result.Chunks) < 2 {
				t.Fatalf("got %d chunks, want several", len(result.Chunks))
			}

			for i, chunk := range result.Chunks {
				// The bound covers the full chunk text, overlap prefix included.
				if chunk.TokenCount > norm.MaxSize {
					t.Errorf("chunk %d token count %d exceeds MaxSize %d", i, chunk.TokenCount, norm.MaxSize)
				}

				if got := EstimateTokens(chunk.Text); chunk.TokenCount != got {
					t.Errorf("chunk %d TokenCount %d does not match its text estimate %d", i, chunk.TokenCount, got)
				}
			}
		})
	}
}

func TestChunkMetadata(t *testing.T) {
	text := strings.Repeat("Plain words in a sentence. ", 40)

	c := NewChunker(ChunkingConfig{TargetSize: 15, MinSize: 3, MaxSize: 25, Strategy: StrategySentence})
	result := c.Chunk(text)

	if result.Metadata.Strategy != StrategySentence {
		t.Errorf("Strategy = %q", result.Metadata.Strategy)
	}

	if result.Metadata.TotalChunks != len(result.Chunks) {
		t.Errorf("TotalChunks = %d, chunks = %d", result.Metadata.TotalChunks, len(result.Chunks))
	}

	if result.Metadata.OriginalLength != len(text) {
		t.Errorf("OriginalLength = %d, want %d", result.Metadata.OriginalLength, len(text))
	}

	if result.Metadata.AvgTokenCount <= 0 {
		t.Errorf("AvgTokenCount = %f, want > 0", result.Metadata.AvgTokenCount)
	}
}

func TestHeadingContextFor(t *testing.T) {
	text := "intro\n# First\nbody one\n## Second\nbody two"
	headings := extractHeadings(text)

	if len(headings) != 2 {
		t.Fatalf("got %d headings, want 2", len(headings))
	}

	tests := []struct {
		pos      int
		expected string
	}{
		{0, ""},
		{strings.Index(text, "body one"), "First"},
		{strings.Index(text, "body two"), "Second"},
	}

	for _, tt := range tests {
		if got := headingContextFor(headings, tt.pos); got != tt.expected {
			t.Errorf("headingContextFor(%d) = %q, want %q", tt.pos, got, tt.expected)
		}
	}
}
