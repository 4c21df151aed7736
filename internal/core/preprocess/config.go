package preprocess

import "github.com/hoshizora/content-embed-worker/internal/core/domain"

// CleanerConfig selects which cleaning stages run. One immutable instance
// exists per content type; it is not overridable at call time.
type CleanerConfig struct {
	RemoveHTML          bool
	RemoveMarkdown      bool
	RemoveURLs          bool
	RemoveEmails        bool
	RemoveNoise         bool
	NormalizeUnicode    bool
	NormalizeWhitespace bool
	PreserveHeadings    bool
	CustomPatterns      []string
}

// Chunking strategy names.
const (
	StrategySentence  = "sentence"
	StrategyParagraph = "paragraph"
	StrategySemantic  = "semantic"
	StrategyFixed     = "fixed"
)

// ChunkingConfig bounds chunk sizes in estimated tokens and selects the
// split strategy. Invariant: MinSize <= TargetSize <= MaxSize and
// Overlap < TargetSize; Normalize clamps violations instead of failing.
type ChunkingConfig struct {
	TargetSize      int
	Overlap         int
	MinSize         int
	MaxSize         int
	Strategy        string
	HeadingBoundary bool
}

// Normalize returns a copy with the size invariants enforced.
func (c ChunkingConfig) Normalize() ChunkingConfig {
	if c.TargetSize <= 0 {
		c.TargetSize = defaultTargetSize
	}

	if c.MaxSize < c.TargetSize {
		c.MaxSize = c.TargetSize + c.TargetSize/2
	}

	if c.MinSize > c.TargetSize {
		c.MinSize = c.TargetSize
	}

	if c.MinSize < 0 {
		c.MinSize = 0
	}

	if c.Overlap >= c.TargetSize {
		c.Overlap = c.TargetSize / 2
	}

	if c.Overlap < 0 {
		c.Overlap = 0
	}

	if c.Strategy == "" {
		c.Strategy = StrategySemantic
	}

	return c
}

const defaultTargetSize = 500

// QualityConfig bounds the quality gate. Lengths are in characters (runes),
// scores and ratios in [0,1].
type QualityConfig struct {
	MinLength       int
	MaxLength       int
	MinQualityScore float64
	MaxNoiseRatio   float64
}

// TypeConfig bundles the three per-type configurations.
type TypeConfig struct {
	Cleaner  CleanerConfig
	Chunking ChunkingConfig
	Quality  QualityConfig
}

func defaultCleaner() CleanerConfig {
	return CleanerConfig{
		RemoveHTML:          true,
		RemoveMarkdown:      true,
		RemoveURLs:          true,
		RemoveEmails:        true,
		RemoveNoise:         true,
		NormalizeUnicode:    true,
		NormalizeWhitespace: true,
		PreserveHeadings:    true,
	}
}

// typeDefaults is the compiled-in configuration table, one entry per target
// type. Dynamic overrides merge on top of a copy; the table itself is never
// mutated.
var typeDefaults = map[domain.TargetType]TypeConfig{
	domain.TargetPost: {
		Cleaner: defaultCleaner(),
		Chunking: ChunkingConfig{
			TargetSize:      500,
			Overlap:         50,
			MinSize:         100,
			MaxSize:         750,
			Strategy:        StrategySemantic,
			HeadingBoundary: true,
		},
		Quality: QualityConfig{
			MinLength:       50,
			MaxLength:       3000,
			MinQualityScore: 0.5,
			MaxNoiseRatio:   0.5,
		},
	},
	domain.TargetProduct: {
		Cleaner: defaultCleaner(),
		Chunking: ChunkingConfig{
			TargetSize: 300,
			Overlap:    30,
			MinSize:    80,
			MaxSize:    450,
			Strategy:   StrategySentence,
		},
		Quality: QualityConfig{
			MinLength:       30,
			MaxLength:       2000,
			MinQualityScore: 0.4,
			MaxNoiseRatio:   0.55,
		},
	},
	domain.TargetGalleryItem: {
		Cleaner: func() CleanerConfig {
			c := defaultCleaner()
			c.PreserveHeadings = false

			return c
		}(),
		Chunking: ChunkingConfig{
			TargetSize: 200,
			Overlap:    0,
			MinSize:    40,
			MaxSize:    300,
			Strategy:   StrategyParagraph,
		},
		Quality: QualityConfig{
			MinLength:       20,
			MaxLength:       1500,
			MinQualityScore: 0.35,
			MaxNoiseRatio:   0.6,
		},
	},
	domain.TargetComment: {
		Cleaner: func() CleanerConfig {
			c := defaultCleaner()
			c.PreserveHeadings = false

			return c
		}(),
		Chunking: ChunkingConfig{
			TargetSize: 150,
			Overlap:    0,
			MinSize:    30,
			MaxSize:    250,
			Strategy:   StrategySentence,
		},
		Quality: QualityConfig{
			MinLength:       20,
			MaxLength:       1000,
			MinQualityScore: 0.3,
			MaxNoiseRatio:   0.6,
		},
	},
}

// fallbackDefault is used for unknown target types.
var fallbackDefault = typeDefaults[domain.TargetPost]

// ResolveConfig returns the compiled default configuration for a target
// type, or the fallback when the type is unknown.
func ResolveConfig(t domain.TargetType) TypeConfig {
	if cfg, ok := typeDefaults[t]; ok {
		return cfg
	}

	return fallbackDefault
}

// Override is a partial, caller- or settings-supplied adjustment. Only
// chunking and quality fields can be overridden; cleaning is fixed per type.
// Nil pointers mean "keep the resolved value".
type Override struct {
	TargetSize      *int     `json:"target_size,omitempty"`
	Overlap         *int     `json:"overlap,omitempty"`
	MinSize         *int     `json:"min_size,omitempty"`
	MaxSize         *int     `json:"max_size,omitempty"`
	Strategy        *string  `json:"strategy,omitempty"`
	HeadingBoundary *bool    `json:"heading_boundary,omitempty"`
	MinLength       *int     `json:"min_length,omitempty"`
	MaxLength       *int     `json:"max_length,omitempty"`
	MinQualityScore *float64 `json:"min_quality_score,omitempty"`
	MaxNoiseRatio   *float64 `json:"max_noise_ratio,omitempty"`
}

// Apply merges the override into a copy of cfg and re-normalizes the
// chunking invariants. The input is never mutated.
func (o *Override) Apply(cfg TypeConfig) TypeConfig {
	if o == nil {
		return cfg
	}

	if o.TargetSize != nil {
		cfg.Chunking.TargetSize = *o.TargetSize
	}

	if o.Overlap != nil {
		cfg.Chunking.Overlap = *o.Overlap
	}

	if o.MinSize != nil {
		cfg.Chunking.MinSize = *o.MinSize
	}

	if o.MaxSize != nil {
		cfg.Chunking.MaxSize = *o.MaxSize
	}

	if o.Strategy != nil {
		cfg.Chunking.Strategy = *o.Strategy
	}

	if o.HeadingBoundary != nil {
		cfg.Chunking.HeadingBoundary = *o.HeadingBoundary
	}

	if o.MinLength != nil {
		cfg.Quality.MinLength = *o.MinLength
	}

	if o.MaxLength != nil {
		cfg.Quality.MaxLength = *o.MaxLength
	}

	if o.MinQualityScore != nil {
		cfg.Quality.MinQualityScore = *o.MinQualityScore
	}

	if o.MaxNoiseRatio != nil {
		cfg.Quality.MaxNoiseRatio = *o.MaxNoiseRatio
	}

	cfg.Chunking = cfg.Chunking.Normalize()

	return cfg
}
