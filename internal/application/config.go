package application

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-scoutrate/internal/domain"
)

// Engine defaults.
const (
	DefaultConcurrency      = 4
	DefaultStrategyWeight   = 1.0
	DefaultSuccessThreshold = domain.CloseMatchScore
)

// EngineConfig is the declarative configuration of the validation engine:
// which strategies run, how their scores are weighted, and the rating
// parameters applied to the aggregated score.
type EngineConfig struct {
	// Version is the configuration schema version (X.Y.Z).
	Version string `yaml:"version" validate:"required,semver"`
	// Season scopes ratings. Empty keeps a single global rating per scouter.
	Season string `yaml:"season" validate:"max=32"`
	// FieldRules is the path of the season's field-rules file. Relative
	// paths resolve against the directory of the engine config.
	FieldRules string `yaml:"field_rules" validate:"required"`
	// Strategies lists the enabled strategies and their weights.
	Strategies []StrategyConfig `yaml:"strategies" validate:"required,min=1,max=2,dive"`
	// Calculator holds the rating update parameters.
	Calculator domain.CalculatorConfig `yaml:"calculator"`
	// Concurrency bounds the number of scouters compared at once.
	Concurrency int `yaml:"concurrency" validate:"min=1,max=64"`
	// SuccessThreshold is the aggregated accuracy at or above which an update
	// counts as a successful validation.
	SuccessThreshold float64 `yaml:"success_threshold" validate:"gt=0,lte=1"`
}

// StrategyConfig enables one strategy.
type StrategyConfig struct {
	// Kind is consensus or official_result.
	Kind string `yaml:"kind" validate:"required,strategykind"`
	// Weight is the strategy's share in the aggregated accuracy.
	Weight float64 `yaml:"weight" validate:"omitempty,gt=0,max=100"`
}

// DefaultEngineConfig returns the configuration used when a file omits a
// setting: both strategies at equal weight and the standard calculator.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Version:    "1.0.0",
		FieldRules: "field_rules.yaml",
		Strategies: []StrategyConfig{
			{Kind: string(domain.StrategyConsensus), Weight: DefaultStrategyWeight},
			{Kind: string(domain.StrategyOfficialResult), Weight: DefaultStrategyWeight},
		},
		Calculator:       domain.DefaultCalculatorConfig(),
		Concurrency:      DefaultConcurrency,
		SuccessThreshold: DefaultSuccessThreshold,
	}
}

// Weights returns the configured weight of each enabled strategy.
func (c EngineConfig) Weights() map[domain.StrategyKind]float64 {
	w := make(map[domain.StrategyKind]float64, len(c.Strategies))
	for _, s := range c.Strategies {
		weight := s.Weight
		if weight == 0 {
			weight = DefaultStrategyWeight
		}
		w[domain.StrategyKind(s.Kind)] = weight
	}
	return w
}

// Kinds returns the enabled strategy kinds in configuration order.
func (c EngineConfig) Kinds() []domain.StrategyKind {
	kinds := make([]domain.StrategyKind, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		kinds = append(kinds, domain.StrategyKind(s.Kind))
	}
	return kinds
}

// ConfigLoader parses and validates engine configuration files.
type ConfigLoader struct {
	validator *validator.Validate
}

// NewConfigLoader creates a loader with the engine's custom validators
// registered.
func NewConfigLoader() (*ConfigLoader, error) {
	v := validator.New()
	if err := RegisterEngineValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	return &ConfigLoader{validator: v}, nil
}

// LoadFromFile reads an engine configuration file. A relative FieldRules
// path is resolved against the file's directory.
func (cl *ConfigLoader) LoadFromFile(path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("failed to read file: %w", err)
	}
	cfg, err := cl.load(data)
	if err != nil {
		return EngineConfig{}, err
	}
	if !filepath.IsAbs(cfg.FieldRules) {
		cfg.FieldRules = filepath.Join(filepath.Dir(path), cfg.FieldRules)
	}
	return cfg, nil
}

// LoadFromReader reads an engine configuration from r.
func (cl *ConfigLoader) LoadFromReader(r io.Reader) (EngineConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("failed to read data: %w", err)
	}
	return cl.load(data)
}

func (cl *ConfigLoader) load(data []byte) (EngineConfig, error) {
	cfg := DefaultEngineConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return EngineConfig{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cl.Validate(cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// Validate runs struct validation and the semantic checks struct tags
// cannot express.
func (cl *ConfigLoader) Validate(cfg EngineConfig) error {
	if err := cl.validator.Struct(cfg); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}
	if err := cfg.Calculator.Validate(); err != nil {
		return err
	}

	verr := domain.NewValidationError("engine")
	seen := make(map[string]bool, len(cfg.Strategies))
	for _, s := range cfg.Strategies {
		if seen[s.Kind] {
			verr.AddError(fmt.Sprintf("duplicate strategy: %s", s.Kind))
		}
		seen[s.Kind] = true
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
