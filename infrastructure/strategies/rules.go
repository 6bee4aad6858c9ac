package strategies

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-scoutrate/internal/domain"
)

// FieldRule describes how one field path is compared. Rules are season
// specific and loaded from the field rules file.
type FieldRule struct {
	// Path is the dotted field path in the observation data, e.g.
	// "teleop.coral_scored_L2".
	Path string `yaml:"path" json:"path" validate:"required"`

	// Kind selects the comparison family.
	Kind domain.ValueKind `yaml:"kind" json:"kind" validate:"required,oneof=numeric boolean categorical"`

	// Weight is the field's contribution to the aggregated score.
	// Zero means the default weight of 1.
	Weight float64 `yaml:"weight" json:"weight" validate:"min=0"`

	// Epsilon is the deviation at or below which two numbers are equal.
	// Zero means DefaultEpsilon.
	Epsilon float64 `yaml:"epsilon" json:"epsilon" validate:"min=0"`

	// AbsTolerance is the absolute deviation accepted as a close match.
	AbsTolerance float64 `yaml:"abs_tolerance" json:"abs_tolerance" validate:"min=0"`

	// RelTolerance is the deviation relative to max(|expected|, 1)
	// accepted as a close match.
	RelTolerance float64 `yaml:"rel_tolerance" json:"rel_tolerance" validate:"min=0,max=1"`

	// FuzzyThreshold is the Levenshtein similarity at or above which two
	// categorical values are a close match. Zero disables fuzzy matching.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" json:"fuzzy_threshold" validate:"min=0,max=1"`

	// PartialCredit scores numeric mismatches and close matches
	// proportionally instead of with the categorical score.
	PartialCredit bool `yaml:"partial_credit" json:"partial_credit"`

	// Critical marks fields where a large deviation is a critical error.
	Critical bool `yaml:"critical" json:"critical"`

	// CriticalDeviation is the absolute deviation beyond which a critical
	// numeric field, or any mismatch of a critical non-numeric field, is
	// reported as a critical error.
	CriticalDeviation float64 `yaml:"critical_deviation" json:"critical_deviation" validate:"min=0"`

	// CriticalWeight multiplies Weight for critical errors. Zero means
	// DefaultCriticalWeight.
	CriticalWeight float64 `yaml:"critical_weight" json:"critical_weight" validate:"min=0"`

	// OfficialPath maps the field onto the official results feed. It may
	// contain the {slot} placeholder, replaced by the robot's 1-based
	// position within its alliance. Only used by the official-result
	// strategy.
	OfficialPath string `yaml:"official_path,omitempty" json:"official_path,omitempty"`
}

// Default classification parameters.
const (
	DefaultEpsilon        = 1e-9
	DefaultFieldWeight    = 1.0
	DefaultCriticalWeight = 2.0
	DefaultMinSiblings    = 2
)

func (r FieldRule) weight() float64 {
	if r.Weight == 0 {
		return DefaultFieldWeight
	}
	return r.Weight
}

func (r FieldRule) epsilon() float64 {
	if r.Epsilon == 0 {
		return DefaultEpsilon
	}
	return r.Epsilon
}

func (r FieldRule) criticalWeight() float64 {
	if r.CriticalWeight == 0 {
		return DefaultCriticalWeight
	}
	return r.CriticalWeight
}

// FieldRules is the season schema file: one rule list per strategy.
type FieldRules struct {
	// Season names the game schema the paths belong to, e.g. "2025".
	Season string `yaml:"season" json:"season" validate:"required"`

	// MinSiblings is the minimum number of other scouts' observations
	// the consensus strategy needs.
	MinSiblings int `yaml:"min_siblings" json:"min_siblings" validate:"min=0"`

	Consensus      []FieldRule `yaml:"consensus" json:"consensus" validate:"max=256,dive"`
	OfficialResult []FieldRule `yaml:"official_result" json:"official_result" validate:"max=256,dive"`
}

// Validate checks the rule file for structural errors and duplicate paths.
func (f FieldRules) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("field rules validation failed: %w", err)
	}
	if err := checkDuplicates(f.Consensus); err != nil {
		return fmt.Errorf("consensus: %w", err)
	}
	if err := checkDuplicates(f.OfficialResult); err != nil {
		return fmt.Errorf("official_result: %w", err)
	}
	return nil
}

func checkDuplicates(rules []FieldRule) error {
	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		if _, ok := seen[r.Path]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateFieldRule, r.Path)
		}
		seen[r.Path] = struct{}{}
	}
	return nil
}

// LoadFieldRules decodes and validates a field rules document. Unknown keys
// are rejected so typos in the file are not silently ignored.
func LoadFieldRules(r io.Reader) (FieldRules, error) {
	var rules FieldRules
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&rules); err != nil {
		return FieldRules{}, fmt.Errorf("failed to decode field rules (check for typos): %w", err)
	}
	if rules.MinSiblings == 0 {
		rules.MinSiblings = DefaultMinSiblings
	}
	if err := rules.Validate(); err != nil {
		return FieldRules{}, err
	}
	return rules, nil
}

// LoadFieldRulesFile reads field rules from path.
func LoadFieldRulesFile(path string) (FieldRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FieldRules{}, fmt.Errorf("failed to read field rules %s: %w", path, err)
	}
	return LoadFieldRules(bytes.NewReader(data))
}
