package preprocess

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
)

// charsPerToken converts token budgets to character budgets for the fixed
// splitter, matching the non-CJK token weight (4 chars per token).
const charsPerToken = 4

// wordsPerToken converts an overlap token budget into a trailing word count
// for the sliding-window prefix.
const wordsPerToken = 0.75

// ChunkMetadata describes a chunking run for audit and monitoring.
type ChunkMetadata struct {
	TotalChunks    int
	AvgTokenCount  float64
	Strategy       string
	OriginalLength int
}

// ChunkResult is the ordered chunk list plus run metadata.
type ChunkResult struct {
	Chunks   []domain.ContentChunk
	Metadata ChunkMetadata
}

// segment is a half-open byte span into the cleaned text. Strategies produce
// segments; chunks are assembled from them after size normalization so that
// concatenating chunk spans reconstructs the input (modulo whitespace).
type segment struct {
	start, end int
}

// Chunker splits cleaned text into bounded-size chunks using the configured
// strategy. It is pure and safe for concurrent use.
type Chunker struct {
	cfg ChunkingConfig
}

// NewChunker normalizes cfg and returns a chunker for it.
func NewChunker(cfg ChunkingConfig) *Chunker {
	return &Chunker{cfg: cfg.Normalize()}
}

// Chunk splits text. Empty or whitespace-only input yields zero chunks.
func (c *Chunker) Chunk(text string) ChunkResult {
	result := ChunkResult{
		Metadata: ChunkMetadata{
			Strategy:       c.cfg.Strategy,
			OriginalLength: len(text),
		},
	}

	if strings.TrimSpace(text) == "" {
		return result
	}

	var segments []segment

	switch c.cfg.Strategy {
	case StrategySentence:
		segments = splitSentences(text, 0, len(text))
	case StrategyParagraph:
		segments = splitParagraphs(text)
	case StrategyFixed:
		segments = c.splitFixed(text, 0, len(text))
	default: // semantic
		segments = c.splitSemantic(text)
	}

	segments = c.normalizeSizes(text, segments)

	headings := extractHeadings(text)
	result.Chunks = c.assemble(text, segments, headings)
	result.Metadata.TotalChunks = len(result.Chunks)

	if len(result.Chunks) > 0 {
		total := 0
		for _, ch := range result.Chunks {
			total += ch.TokenCount
		}

		result.Metadata.AvgTokenCount = float64(total) / float64(len(result.Chunks))
	}

	return result
}

// splitSentences splits text[start:end] on sentence-terminal punctuation:
// Latin terminators followed by whitespace, CJK terminators unconditionally.
func splitSentences(text string, start, end int) []segment {
	var segments []segment

	segStart := start
	i := start

	for i < end {
		r, size := decodeRune(text[i:end])
		next := i + size

		terminal := false

		switch r {
		case '.', '!', '?':
			// Latin terminators need trailing whitespace (or end of text)
			// so decimals and abbreviations stay intact.
			if next >= end {
				terminal = true
			} else {
				nr, _ := decodeRune(text[next:end])
				terminal = unicode.IsSpace(nr)
			}
		case '。', '！', '？':
			terminal = true
		}

		i = next

		if terminal {
			if seg, ok := trimSegment(text, segStart, i); ok {
				segments = append(segments, seg)
			}

			segStart = i
		}
	}

	if seg, ok := trimSegment(text, segStart, end); ok {
		segments = append(segments, seg)
	}

	return segments
}

var paragraphBreakPattern = regexp.MustCompile(`\n[ \t]*\n+`)

// splitParagraphs splits on blank-line runs.
func splitParagraphs(text string) []segment {
	var segments []segment

	breaks := paragraphBreakPattern.FindAllStringIndex(text, -1)
	start := 0

	for _, b := range breaks {
		if seg, ok := trimSegment(text, start, b[0]); ok {
			segments = append(segments, seg)
		}

		start = b[1]
	}

	if seg, ok := trimSegment(text, start, len(text)); ok {
		segments = append(segments, seg)
	}

	return segments
}

// splitFixed slides a character window of targetSize*4 bytes over
// text[start:end] stepping back overlap*4 bytes between windows. The step
// is clamped positive so a pathological overlap cannot stall the loop.
func (c *Chunker) splitFixed(text string, start, end int) []segment {
	window := c.cfg.TargetSize * charsPerToken
	if window <= 0 {
		window = defaultTargetSize * charsPerToken
	}

	step := window - c.cfg.Overlap*charsPerToken
	if step <= 0 {
		step = window
	}

	var segments []segment

	for pos := start; pos < end; pos += step {
		for pos < end && !isRuneStart(text[pos]) {
			pos++
		}

		segEnd := pos + window
		if segEnd > end {
			segEnd = end
		}

		// Align to rune boundaries.
		for segEnd < end && !isRuneStart(text[segEnd]) {
			segEnd++
		}

		if seg, ok := trimSegment(text, pos, segEnd); ok {
			segments = append(segments, seg)
		}

		if segEnd >= end {
			break
		}
	}

	return segments
}

// splitSemantic keeps whole text as one chunk while it fits under MaxSize,
// otherwise splits on heading boundaries (when enabled) with sentence-level
// recursion for oversized sections, or accumulates paragraphs up to
// TargetSize when heading boundaries are disabled.
func (c *Chunker) splitSemantic(text string) []segment {
	if EstimateTokens(text) <= c.cfg.MaxSize {
		if seg, ok := trimSegment(text, 0, len(text)); ok {
			return []segment{seg}
		}

		return nil
	}

	if c.cfg.HeadingBoundary {
		return c.splitByHeadings(text)
	}

	return c.accumulateParagraphs(text)
}

func (c *Chunker) splitByHeadings(text string) []segment {
	headings := extractHeadings(text)

	// Section boundaries: start of text plus each heading position.
	bounds := []int{0}

	for _, h := range headings {
		if h.pos > 0 {
			bounds = append(bounds, h.pos)
		}
	}

	bounds = append(bounds, len(text))

	var segments []segment

	for i := 0; i < len(bounds)-1; i++ {
		start, end := bounds[i], bounds[i+1]

		seg, ok := trimSegment(text, start, end)
		if !ok {
			continue
		}

		segments = append(segments, c.splitOversized(text, seg)...)
	}

	return segments
}

// splitOversized returns seg unchanged when it fits, otherwise recursively
// splits it into sentences, falling back to a token-bounded split for any
// single sentence still exceeding the target.
func (c *Chunker) splitOversized(text string, seg segment) []segment {
	if EstimateTokens(text[seg.start:seg.end]) <= c.cfg.MaxSize {
		return []segment{seg}
	}

	var out []segment

	for _, s := range splitSentences(text, seg.start, seg.end) {
		if EstimateTokens(text[s.start:s.end]) > c.cfg.TargetSize {
			out = append(out, splitByTokens(text, s.start, s.end, c.cfg.TargetSize)...)
		} else {
			out = append(out, s)
		}
	}

	return out
}

func (c *Chunker) accumulateParagraphs(text string) []segment {
	paragraphs := splitParagraphs(text)

	var segments []segment

	var buf *segment

	bufTokens := 0

	for _, p := range paragraphs {
		tokens := EstimateTokens(text[p.start:p.end])

		if buf != nil && bufTokens+tokens > c.cfg.TargetSize {
			segments = append(segments, *buf)
			buf = nil
			bufTokens = 0
		}

		if buf == nil {
			cp := p
			buf = &cp
			bufTokens = tokens

			continue
		}

		buf.end = p.end
		bufTokens += tokens
	}

	if buf != nil {
		segments = append(segments, *buf)
	}

	return segments
}

// normalizeSizes runs after strategy selection: adjacent segments merge
// forward while the combined estimate stays under the size budget (flushing
// at TargetSize), oversized segments are force-split, and a trailing segment
// under MinSize merges backward instead of being emitted on its own. When an
// overlap prefix will be attached later, the budget shrinks by the overlap
// so the final chunk text, prefix included, still fits under MaxSize.
func (c *Chunker) normalizeSizes(text string, segments []segment) []segment {
	if len(segments) == 0 {
		return segments
	}

	budget := c.cfg.MaxSize
	if c.overlapApplies() {
		budget -= c.cfg.Overlap
	}

	if budget < 1 {
		budget = 1
	}

	target := c.cfg.TargetSize
	if target > budget {
		target = budget
	}

	// Force-split anything alone over the budget first.
	var sized []segment

	for _, seg := range segments {
		if EstimateTokens(text[seg.start:seg.end]) > budget {
			sized = append(sized, splitByTokens(text, seg.start, seg.end, target)...)
		} else {
			sized = append(sized, seg)
		}
	}

	// Merge forward up to the target without crossing the budget. The merged
	// span is re-estimated as a whole so inter-segment whitespace counts.
	var merged []segment

	var cur *segment

	curTokens := 0

	for _, seg := range sized {
		if cur == nil {
			cp := seg
			cur = &cp
			curTokens = EstimateTokens(text[seg.start:seg.end])
		} else if combined := EstimateTokens(text[cur.start:seg.end]); combined <= budget && curTokens < target {
			cur.end = seg.end
			curTokens = combined
		} else {
			merged = append(merged, *cur)
			cp := seg
			cur = &cp
			curTokens = EstimateTokens(text[seg.start:seg.end])
		}

		if curTokens >= target {
			merged = append(merged, *cur)
			cur = nil
			curTokens = 0
		}
	}

	if cur != nil {
		merged = append(merged, *cur)
	}

	// A short trailing remainder is worth more appended to its predecessor
	// than as a standalone low-value chunk, budget permitting.
	if len(merged) > 1 {
		last := merged[len(merged)-1]
		prev := merged[len(merged)-2]

		if EstimateTokens(text[last.start:last.end]) < c.cfg.MinSize &&
			EstimateTokens(text[prev.start:last.end]) <= budget {
			merged[len(merged)-2].end = last.end
			merged = merged[:len(merged)-1]
		}
	}

	return merged
}

// assemble builds the final chunks: overlap prefixes, token counts and
// heading context. Char offsets always refer to the core span, excluding
// any overlap prefix.
func (c *Chunker) assemble(text string, segments []segment, headings []heading) []domain.ContentChunk {
	chunks := make([]domain.ContentChunk, 0, len(segments))

	for i, seg := range segments {
		chunkText := text[seg.start:seg.end]

		if c.overlapApplies() && i > 0 {
			prev := segments[i-1]
			if prefix := trailingWords(text[prev.start:prev.end], c.cfg.Overlap); prefix != "" {
				chunkText = joinWithinBudget(prefix, chunkText, c.cfg.MaxSize)
			}
		}

		chunks = append(chunks, domain.ContentChunk{
			Index:          i,
			Text:           chunkText,
			CharStart:      seg.start,
			CharEnd:        seg.end,
			TokenCount:     EstimateTokens(chunkText),
			HeadingContext: headingContextFor(headings, seg.start),
		})
	}

	return chunks
}

// overlapApplies reports whether chunks get an overlap prefix from their
// predecessor. The fixed strategy overlaps inside its windows instead.
func (c *Chunker) overlapApplies() bool {
	return c.cfg.Overlap > 0 && c.cfg.Strategy != StrategyFixed
}

// splitByTokens splits text[start:end] into consecutive segments whose token
// estimates stay at or under maxTokens, advancing rune by rune.
func splitByTokens(text string, start, end, maxTokens int) []segment {
	var segments []segment

	segStart := start
	tokens := 0.0

	for i := start; i < end; {
		r, size := decodeRune(text[i:end])

		weight := otherTokensPerChar
		if isCJK(r) {
			weight = cjkTokensPerChar
		}

		if tokens+weight > float64(maxTokens) && i > segStart {
			if seg, ok := trimSegment(text, segStart, i); ok {
				segments = append(segments, seg)
			}

			segStart = i
			tokens = 0
		}

		tokens += weight
		i += size
	}

	if seg, ok := trimSegment(text, segStart, end); ok {
		segments = append(segments, seg)
	}

	return segments
}

// joinWithinBudget prepends the overlap prefix to core, dropping leading
// prefix words while the combined estimate exceeds maxTokens. The core text
// is never trimmed.
func joinWithinBudget(prefix, core string, maxTokens int) string {
	words := strings.Fields(prefix)

	for len(words) > 0 {
		joined := strings.Join(words, " ") + " " + core
		if EstimateTokens(joined) <= maxTokens {
			return joined
		}

		words = words[1:]
	}

	return core
}

// trailingWords returns the last n-token's worth of whitespace-separated
// words from s, approximated at 0.75 words per token.
func trailingWords(s string, overlapTokens int) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	n := int(float64(overlapTokens) * wordsPerToken)
	if n <= 0 {
		n = 1
	}

	if n >= len(words) {
		return strings.Join(words, " ")
	}

	return strings.Join(words[len(words)-n:], " ")
}

// trimSegment shrinks [start,end) to exclude leading and trailing
// whitespace, reporting false for an all-whitespace span.
func trimSegment(text string, start, end int) (segment, bool) {
	for start < end {
		r, size := decodeRune(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}

		start += size
	}

	for end > start {
		r, size := decodeLastRune(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}

		end -= size
	}

	if start >= end {
		return segment{}, false
	}

	return segment{start: start, end: end}, true
}

func decodeRune(s string) (rune, int) {
	return utf8.DecodeRuneInString(s)
}

func decodeLastRune(s string) (rune, int) {
	return utf8.DecodeLastRuneInString(s)
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
