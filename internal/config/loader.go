package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. SCOUTRATE_REDIS_ADDR.
const EnvPrefix = "SCOUTRATE_"

// EnvConfigPath names the variable holding a settings file path when none is
// passed explicitly.
const EnvConfigPath = EnvPrefix + "CONFIG"

var validate = validator.New()

// Load builds a Config by layering defaults, an optional file and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) at path, or at $SCOUTRATE_CONFIG when path is empty
//  3. env (prefix SCOUTRATE_)
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// SCOUTRATE_TBA_API_KEY -> tba_api_key. Keys are flat, so underscores
	// are kept.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the combinations they cannot
// express on their own.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch {
	case c.LockBackend == LockRedis && c.RedisAddr == "":
		return fmt.Errorf("%w: lock_backend redis needs redis_addr", ErrInvalidConfig)
	case c.LockBackend == LockPostgres && c.DatabaseDSN == "":
		return fmt.Errorf("%w: lock_backend postgres needs database_dsn", ErrInvalidConfig)
	}
	return nil
}
