package preprocess

import (
	"testing"

	"github.com/hoshizora/content-embed-worker/internal/core/domain"
)

func TestChunkingConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   ChunkingConfig
		want ChunkingConfig
	}{
		{
			name: "zero value gets defaults",
			in:   ChunkingConfig{},
			want: ChunkingConfig{TargetSize: 500, MaxSize: 750, Strategy: StrategySemantic},
		},
		{
			name: "max below target raised",
			in:   ChunkingConfig{TargetSize: 100, MaxSize: 50, Strategy: StrategySentence},
			want: ChunkingConfig{TargetSize: 100, MaxSize: 150, Strategy: StrategySentence},
		},
		{
			name: "min above target lowered",
			in:   ChunkingConfig{TargetSize: 100, MinSize: 200, MaxSize: 150, Strategy: StrategyFixed},
			want: ChunkingConfig{TargetSize: 100, MinSize: 100, MaxSize: 150, Strategy: StrategyFixed},
		},
		{
			name: "overlap at target halved",
			in:   ChunkingConfig{TargetSize: 100, Overlap: 100, MaxSize: 150, Strategy: StrategySentence},
			want: ChunkingConfig{TargetSize: 100, Overlap: 50, MaxSize: 150, Strategy: StrategySentence},
		},
		{
			name: "negative values clamped",
			in:   ChunkingConfig{TargetSize: 100, Overlap: -5, MinSize: -10, MaxSize: 150, Strategy: StrategySentence},
			want: ChunkingConfig{TargetSize: 100, MaxSize: 150, Strategy: StrategySentence},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveConfig(t *testing.T) {
	post := ResolveConfig(domain.TargetPost)
	if post.Chunking.Strategy != StrategySemantic || !post.Chunking.HeadingBoundary {
		t.Errorf("post config = %+v", post.Chunking)
	}

	comment := ResolveConfig(domain.TargetComment)
	if comment.Chunking.Strategy != StrategySentence {
		t.Errorf("comment strategy = %q", comment.Chunking.Strategy)
	}

	// Unknown types fall back to the post defaults.
	unknown := ResolveConfig(domain.TargetType("mystery"))
	if unknown.Chunking != post.Chunking || unknown.Quality != post.Quality {
		t.Errorf("unknown type config = %+v, want post defaults", unknown)
	}
}

func TestOverrideApply(t *testing.T) {
	intp := func(v int) *int { return &v }
	strp := func(v string) *string { return &v }
	floatp := func(v float64) *float64 { return &v }

	base := ResolveConfig(domain.TargetPost)

	o := &Override{
		TargetSize:      intp(200),
		Strategy:        strp(StrategySentence),
		MinQualityScore: floatp(0.8),
	}

	got := o.Apply(base)

	if got.Chunking.TargetSize != 200 {
		t.Errorf("TargetSize = %d, want 200", got.Chunking.TargetSize)
	}

	if got.Chunking.Strategy != StrategySentence {
		t.Errorf("Strategy = %q", got.Chunking.Strategy)
	}

	if got.Quality.MinQualityScore != 0.8 {
		t.Errorf("MinQualityScore = %f", got.Quality.MinQualityScore)
	}

	// Untouched fields keep the base values; cleaning is never overridable.
	if got.Quality.MinLength != base.Quality.MinLength {
		t.Errorf("MinLength changed: %d", got.Quality.MinLength)
	}

	if got.Cleaner.RemoveHTML != base.Cleaner.RemoveHTML || got.Cleaner.PreserveHeadings != base.Cleaner.PreserveHeadings {
		t.Errorf("cleaner config changed by override")
	}

	// The base config must not be mutated.
	if ResolveConfig(domain.TargetPost).Chunking.TargetSize != base.Chunking.TargetSize {
		t.Errorf("compiled defaults mutated by override")
	}
}

func TestOverrideApplyRenormalizes(t *testing.T) {
	intp := func(v int) *int { return &v }

	// An override that breaks the invariant gets clamped, not rejected.
	o := &Override{TargetSize: intp(100), MaxSize: intp(10)}

	got := o.Apply(ResolveConfig(domain.TargetProduct))

	if got.Chunking.MaxSize < got.Chunking.TargetSize {
		t.Errorf("invariant violated after Apply: target %d > max %d", got.Chunking.TargetSize, got.Chunking.MaxSize)
	}
}

func TestNilOverrideApply(t *testing.T) {
	var o *Override

	base := ResolveConfig(domain.TargetGalleryItem)
	if got := o.Apply(base); got.Chunking != base.Chunking {
		t.Errorf("nil override changed config: %+v", got.Chunking)
	}
}
