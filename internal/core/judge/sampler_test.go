package judge

import (
	"testing"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
)

// seqSource replays a fixed sequence of values, cycling at the end.
type seqSource struct {
	values []float64
	next   int
}

func (s *seqSource) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++

	return v
}

func TestShouldJudgeSmallPopulation(t *testing.T) {
	src := &seqSource{values: []float64{0.99}}
	s := NewSampler(50, 0.2, src)

	for _, population := range []int{0, 1, 49} {
		if !s.ShouldJudge(population) {
			t.Errorf("population %d below minimum should always be judged", population)
		}
	}

	if src.next != 0 {
		t.Errorf("random source consumed for exhaustive population")
	}
}

func TestShouldJudgeSampledPopulation(t *testing.T) {
	src := &seqSource{values: []float64{0.1, 0.19, 0.2, 0.9}}
	s := NewSampler(50, 0.2, src)

	want := []bool{true, true, false, false}
	for i, expected := range want {
		if got := s.ShouldJudge(100); got != expected {
			t.Errorf("draw %d: ShouldJudge = %v, want %v", i, got, expected)
		}
	}
}

func TestNewSamplerDefaults(t *testing.T) {
	s := NewSampler(0, 0, &seqSource{values: []float64{0.5}})

	if s.minPopulation != DefaultMinPopulation {
		t.Errorf("minPopulation = %d, want %d", s.minPopulation, DefaultMinPopulation)
	}

	if s.sampleRate != DefaultSampleRate {
		t.Errorf("sampleRate = %f, want %f", s.sampleRate, DefaultSampleRate)
	}
}

func TestNewSamplerNilSource(t *testing.T) {
	s := NewSampler(10, 0.5, nil)

	if !s.ShouldJudge(5) {
		t.Errorf("population below minimum should always be judged")
	}

	// Above the population floor the fallback source must be usable.
	for i := 0; i < 20; i++ {
		s.ShouldJudge(100)
	}
}

func TestApplyResult(t *testing.T) {
	tests := []struct {
		name           string
		result         Result
		expectedStatus string
		expectedScore  float64
	}{
		{
			name:           "high score passes",
			result:         Result{Success: true, Score: 0.85, Model: "judge-v1"},
			expectedStatus: domain.QualityPassed,
			expectedScore:  0.85,
		},
		{
			name:           "boundary passes",
			result:         Result{Success: true, Score: 0.7},
			expectedStatus: domain.QualityPassed,
			expectedScore:  0.7,
		},
		{
			name:           "middle band incomplete",
			result:         Result{Success: true, Score: 0.6},
			expectedStatus: domain.QualityIncomplete,
			expectedScore:  0.6,
		},
		{
			name:           "low score fails",
			result:         Result{Success: true, Score: 0.2},
			expectedStatus: domain.QualityFailed,
			expectedScore:  0.2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk := domain.QualifiedChunk{Status: domain.QualityIncomplete, Score: 0.55}

			ApplyResult(&chunk, tt.result)

			if chunk.Status != tt.expectedStatus {
				t.Errorf("Status = %q, want %q", chunk.Status, tt.expectedStatus)
			}

			if chunk.Score != tt.expectedScore {
				t.Errorf("Score = %f, want %f", chunk.Score, tt.expectedScore)
			}

			if chunk.JudgeModel != tt.result.Model {
				t.Errorf("JudgeModel = %q, want %q", chunk.JudgeModel, tt.result.Model)
			}
		})
	}
}

func TestApplyResultFailedVerdictIsNoop(t *testing.T) {
	chunk := domain.QualifiedChunk{Status: domain.QualityPassed, Score: 0.9}

	ApplyResult(&chunk, Result{Success: false, Error: "judge status 500"})

	if chunk.Status != domain.QualityPassed || chunk.Score != 0.9 {
		t.Errorf("failed verdict altered chunk: %q %f", chunk.Status, chunk.Score)
	}

	if chunk.JudgeModel != "" {
		t.Errorf("failed verdict recorded judge metadata")
	}
}
