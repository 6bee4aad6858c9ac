// Package config holds the service settings of the scoutrate binary: where
// the stores live, how to reach the official results feed, and how the
// process logs and exposes metrics. Engine semantics (strategies, weights,
// rating parameters) live in the engine configuration file it points to.
package config

import (
	"errors"
	"time"
)

// Lock backends.
const (
	LockLocal    = "local"
	LockRedis    = "redis"
	LockPostgres = "postgres"
)

var (
	// ErrInvalidConfig is returned when loaded settings fail validation.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig is returned when a settings source cannot be read.
	ErrLoadConfig = errors.New("load config failed")
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// EngineConfig is the path of the engine configuration file.
	EngineConfig string `koanf:"engine_config" validate:"required"`

	// DatabaseDSN is the Postgres connection string of the rating store.
	DatabaseDSN string `koanf:"database_dsn"`

	// RedisAddr enables the Redis ground-truth cache when set.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"min=0,max=15"`
	RedisPrefix   string `koanf:"redis_prefix"`

	// LockBackend selects the per-match run lock: local, redis or postgres.
	LockBackend string        `koanf:"lock_backend" validate:"oneof=local redis postgres"`
	LockTTL     time.Duration `koanf:"lock_ttl" validate:"gt=0"`

	// TBAAPIKey authenticates against The Blue Alliance.
	TBAAPIKey     string        `koanf:"tba_api_key"`
	TBABaseURL    string        `koanf:"tba_base_url" validate:"omitempty,url"`
	TBARateLimit  float64       `koanf:"tba_rate_limit" validate:"gt=0"`
	TBABurst      int           `koanf:"tba_burst" validate:"min=1"`
	TBATimeout    time.Duration `koanf:"tba_timeout" validate:"gt=0"`
	TBAMaxRetries int           `koanf:"tba_max_retries" validate:"min=0,max=10"`

	// GroundTruthTTL bounds how long fetched official results are cached.
	GroundTruthTTL time.Duration `koanf:"ground_truth_ttl" validate:"min=0"`

	// MetricsAddr exposes /metrics when set, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		EngineConfig:   "configs/engine.yaml",
		RedisPrefix:    "scoutrate:",
		LockBackend:    LockLocal,
		LockTTL:        10 * time.Minute,
		TBARateLimit:   2,
		TBABurst:       1,
		TBATimeout:     10 * time.Second,
		TBAMaxRetries:  3,
		GroundTruthTTL: time.Hour,
	}
}
