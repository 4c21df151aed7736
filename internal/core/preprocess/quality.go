package preprocess

import (
	"unicode"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
)

// Quality score component weights. The weighted sum is capped at 1.0.
const (
	lengthWeight     = 0.4
	lengthIdealChars = 500
	noiseWeight      = 0.3
	densityWeight    = 0.3
	densityScale     = 3.0
)

// QualityGate classifies chunks as passed, incomplete or failed before
// embedding. Failed chunks are dropped; incomplete chunks are embedded and
// remain candidates for judge reassessment.
type QualityGate struct {
	cfg QualityConfig
}

// NewQualityGate returns a gate for cfg.
func NewQualityGate(cfg QualityConfig) *QualityGate {
	return &QualityGate{cfg: cfg}
}

// Assess runs duplicate detection over the whole list, then validity and
// scoring per chunk. Input order is preserved.
func (g *QualityGate) Assess(chunks []domain.ContentChunk) []domain.QualifiedChunk {
	duplicates := detectDuplicates(chunks)

	qualified := make([]domain.QualifiedChunk, 0, len(chunks))

	for i, chunk := range chunks {
		qc := domain.QualifiedChunk{ContentChunk: chunk}

		validity := g.checkValidity(chunk.Text)
		qc.Validity = validity

		switch {
		case duplicates[i]:
			// Already represented by an earlier chunk; content quality is
			// irrelevant.
			qc.Status = domain.QualityFailed
			qc.Score = 0
			qc.Validity.IsValid = false
			qc.Validity.Reason = domain.ReasonDuplicate
		case !validity.IsValid:
			qc.Status = domain.QualityFailed
			qc.Score = 0
		default:
			qc.Score = g.score(validity.Metrics)
			if qc.Score >= g.cfg.MinQualityScore {
				qc.Status = domain.QualityPassed
			} else {
				qc.Status = domain.QualityIncomplete
			}
		}

		qualified = append(qualified, qc)
	}

	return qualified
}

// checkValidity computes the structural metrics and rejects chunks that are
// too short, too noisy or free of countable content.
func (g *QualityGate) checkValidity(text string) domain.ValidityResult {
	metrics := domain.ValidityMetrics{
		CharCount:  len([]rune(text)),
		WordCount:  CountWords(text),
		NoiseRatio: CalculateNoiseRatio(text),
	}

	result := domain.ValidityResult{Metrics: metrics}

	switch {
	case metrics.CharCount < g.cfg.MinLength:
		result.Reason = domain.ReasonTooShort
	case metrics.NoiseRatio > g.cfg.MaxNoiseRatio:
		result.Reason = domain.ReasonTooNoisy
	case metrics.WordCount == 0:
		result.Reason = domain.ReasonNoContent
	default:
		result.IsValid = true
	}

	return result
}

// score is a weighted sum over the validity metrics, capped at 1.0:
// chunk length toward 500 characters, low noise relative to the configured
// ceiling, and word density.
func (g *QualityGate) score(m domain.ValidityMetrics) float64 {
	length := float64(m.CharCount) / lengthIdealChars * lengthWeight
	if length > lengthWeight {
		length = lengthWeight
	}

	noise := 0.0
	if g.cfg.MaxNoiseRatio > 0 {
		noise = noiseWeight * (1 - m.NoiseRatio/g.cfg.MaxNoiseRatio)
		if noise < 0 {
			noise = 0
		}
	}

	density := 0.0
	if m.CharCount > 0 {
		density = float64(m.WordCount) / float64(m.CharCount) * densityScale
		if density > densityWeight {
			density = densityWeight
		}
	}

	score := length + noise + density
	if score > 1 {
		score = 1
	}

	return score
}

// CalculateNoiseRatio returns the fraction of characters that are neither
// letters nor digits, Unicode-aware. An empty string is all noise.
func CalculateNoiseRatio(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 1
	}

	noise := 0

	for _, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			noise++
		}
	}

	return float64(noise) / float64(len(runes))
}

// CountWords counts whitespace-delimited alphanumeric words, with each CJK
// character counting as one word since CJK text has no word separators.
func CountWords(text string) int {
	count := 0
	inWord := false

	for _, r := range text {
		switch {
		case isCJK(r) && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			count++

			inWord = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if !inWord {
				count++
				inWord = true
			}
		default:
			inWord = false
		}
	}

	return count
}
