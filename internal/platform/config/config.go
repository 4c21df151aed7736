// Package config loads worker configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all environment-driven settings for the embedding worker.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"2"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Embedding API
	EmbeddingAPIKey     string `env:"EMBEDDING_API_KEY"`
	EmbeddingModel      string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingDimensions int    `env:"EMBEDDING_DIMENSIONS" envDefault:"1536"`
	EmbeddingRateLimit  int    `env:"EMBEDDING_RATE_LIMIT_RPS" envDefault:"1"`

	// Per-item embedding fan-out ceiling.
	EmbedConcurrency int `env:"EMBED_CONCURRENCY" envDefault:"2"`

	// Judge endpoint
	JudgeEndpoint      string        `env:"JUDGE_ENDPOINT"`
	JudgeTimeout       time.Duration `env:"JUDGE_TIMEOUT" envDefault:"60s"`
	JudgeMinPopulation int           `env:"JUDGE_MIN_POPULATION" envDefault:"50"`
	JudgeSampleRate    float64       `env:"JUDGE_SAMPLE_RATE" envDefault:"0.2"`

	// Worker loop
	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"5s"`
	StuckThreshold     time.Duration `env:"STUCK_THRESHOLD" envDefault:"15m"`
	MaxAttempts        int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	RecoveryInterval   time.Duration `env:"RECOVERY_INTERVAL" envDefault:"5m"`
	MetricsInterval    time.Duration `env:"METRICS_INTERVAL" envDefault:"30s"`

	// Dynamic override cache
	SettingsCacheTTL time.Duration `env:"SETTINGS_CACHE_TTL" envDefault:"1m"`
}

// Load reads configuration from the environment, with .env support for
// local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
