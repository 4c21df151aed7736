package judge

import (
	"math/rand"
	"time"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
)

// Sampling tunables. Small populations are judged exhaustively so a new
// content type gets a complete manual-quality baseline before sampling
// kicks in.
const (
	DefaultMinPopulation = 50
	DefaultSampleRate    = 0.2
)

// Judge rescoring thresholds, stricter than the static quality gate so the
// judge can downgrade chunks the heuristic over-scored.
const (
	judgePassedThreshold     = 0.7
	judgeIncompleteThreshold = 0.5
)

// RandSource supplies uniform values in [0,1). *rand.Rand satisfies it;
// tests inject a fixed sequence.
type RandSource interface {
	Float64() float64
}

// Sampler decides per parent content item whether it gets judged. The
// decision is per item, not per chunk, so one piece of content receives a
// consistent manual-quality signal across all its chunks.
type Sampler struct {
	minPopulation int
	sampleRate    float64
	rand          RandSource
}

// NewSampler creates a sampler with the given random source. A nil source
// falls back to a time-seeded one.
func NewSampler(minPopulation int, sampleRate float64, src RandSource) *Sampler {
	if minPopulation <= 0 {
		minPopulation = DefaultMinPopulation
	}

	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	if src == nil {
		//nolint:gosec // sampling does not need a cryptographic source
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Sampler{
		minPopulation: minPopulation,
		sampleRate:    sampleRate,
		rand:          src,
	}
}

// ShouldJudge reports whether an item should be judged given the total
// content population of its type. Below the minimum population every item
// is judged; above it, each item is sampled independently.
func (s *Sampler) ShouldJudge(population int) bool {
	if population < s.minPopulation {
		return true
	}

	return s.rand.Float64() < s.sampleRate
}

// ApplyResult recomputes a chunk's score and status from a successful judge
// verdict. Failed verdicts leave the chunk untouched.
func ApplyResult(chunk *domain.QualifiedChunk, result Result) {
	if !result.Success {
		return
	}

	chunk.Score = result.Score
	chunk.JudgeModel = result.Model
	chunk.JudgeReason = result.Reason
	chunk.JudgeStandalone = result.Standalone

	switch {
	case result.Score >= judgePassedThreshold:
		chunk.Status = domain.QualityPassed
	case result.Score >= judgeIncompleteThreshold:
		chunk.Status = domain.QualityIncomplete
	default:
		chunk.Status = domain.QualityFailed
	}
}
