package domain

import (
	"math"
)

// Default rating parameters.
const (
	DefaultKFactor       = 32.0
	DefaultRatingValue   = 1500.0
	DefaultMinRating     = 0.0
	DefaultMaxRating     = 3000.0
	DefaultNeutralBand   = 0.5
	DefaultMaxConfidence = 0.95

	// baseConfidence is the confidence of a scouter with zero validations.
	baseConfidence = 0.50
	// confidenceGrowth scales the logarithmic confidence curve.
	confidenceGrowth = 0.45
	// confidenceHorizon is the validation count at which the curve reaches the cap.
	confidenceHorizon = 100.0
	// eloSpread is the rating difference at which the stronger side is
	// expected to score ten times as often.
	eloSpread = 400.0
)

// Accuracy scores for categorical outcomes.
const (
	ExactMatchScore = 1.0
	CloseMatchScore = 0.7
	MismatchScore   = 0.0
)

// CalculatorConfig holds the value parameters of the rating update rule.
// Multiple configurations may coexist in one process. The validate tags are
// checked by the engine config loader; Validate applies the same rules to
// configurations built in code.
type CalculatorConfig struct {
	// KFactor scales the magnitude of each rating update.
	KFactor float64 `yaml:"k_factor" json:"k_factor" validate:"gt=0"`
	// DefaultRating is the starting rating and the implicit opponent.
	DefaultRating float64 `yaml:"default_rating" json:"default_rating" validate:"gtefield=MinRating,ltefield=MaxRating"`
	// MinRating and MaxRating bound every rating.
	MinRating float64 `yaml:"min_rating" json:"min_rating" validate:"min=0"`
	MaxRating float64 `yaml:"max_rating" json:"max_rating" validate:"gtfield=MinRating"`
	// NeutralBand is the |delta| at or below which an update is reported as
	// neutral rather than a gain or loss.
	NeutralBand float64 `yaml:"neutral_band" json:"neutral_band" validate:"min=0"`

	// ProvisionalKFactor, when positive, replaces KFactor for scouters with
	// fewer than ProvisionalValidations completed validations.
	ProvisionalKFactor     float64 `yaml:"provisional_k_factor" json:"provisional_k_factor" validate:"min=0"`
	ProvisionalValidations int     `yaml:"provisional_validations" json:"provisional_validations" validate:"min=0"`
}

// DefaultCalculatorConfig returns the standard rating parameters.
func DefaultCalculatorConfig() CalculatorConfig {
	return CalculatorConfig{
		KFactor:       DefaultKFactor,
		DefaultRating: DefaultRatingValue,
		MinRating:     DefaultMinRating,
		MaxRating:     DefaultMaxRating,
		NeutralBand:   DefaultNeutralBand,
	}
}

// Validate checks the configuration for internal consistency.
func (c CalculatorConfig) Validate() error {
	verr := NewValidationError("calculator")
	if !(c.KFactor > 0) {
		verr.AddError("k_factor must be positive")
	}
	if c.MinRating < 0 {
		verr.AddError("min_rating must not be negative")
	}
	if !(c.MaxRating > c.MinRating) {
		verr.AddError("max_rating must exceed min_rating")
	}
	if c.DefaultRating < c.MinRating || c.DefaultRating > c.MaxRating {
		verr.AddError("default_rating must lie within [min_rating, max_rating]")
	}
	if c.NeutralBand < 0 {
		verr.AddError("neutral_band must not be negative")
	}
	if c.ProvisionalKFactor < 0 || c.ProvisionalValidations < 0 {
		verr.AddError("provisional settings must not be negative")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// RatingChange is the result of one rating update.
type RatingChange struct {
	NewRating     float64    `json:"new_rating"`
	Delta         float64    `json:"delta"`
	Outcome       EloOutcome `json:"outcome"`
	ExpectedScore float64    `json:"expected_score"`
	ActualScore   float64    `json:"actual_score"`
}

// WeightedScore pairs an accuracy score with its weight.
type WeightedScore struct {
	Score  float64
	Weight float64
}

// Calculator implements the ELO-style update rule. It is a pure value:
// stateless and safe for concurrent use.
type Calculator struct {
	cfg CalculatorConfig
}

// NewCalculator validates cfg and returns a Calculator.
func NewCalculator(cfg CalculatorConfig) (Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return Calculator{}, err
	}
	return Calculator{cfg: cfg}, nil
}

// MustNewCalculator is NewCalculator for configurations known to be valid.
func MustNewCalculator(cfg CalculatorConfig) Calculator {
	c, err := NewCalculator(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Config returns the calculator's configuration.
func (c Calculator) Config() CalculatorConfig { return c.cfg }

// ForValidations returns the calculator to use for a scouter with the given
// number of completed validations, applying the provisional K-factor tier.
func (c Calculator) ForValidations(completed int) Calculator {
	if c.cfg.ProvisionalKFactor > 0 && completed < c.cfg.ProvisionalValidations {
		cfg := c.cfg
		cfg.KFactor = c.cfg.ProvisionalKFactor
		return Calculator{cfg: cfg}
	}
	return c
}

// ExpectedScore is the logistic ELO expectation of current against opponent.
func ExpectedScore(current, opponent float64) float64 {
	return 1 / (1 + math.Pow(10, (opponent-current)/eloSpread))
}

// CalculateNewRating applies one update for an observed accuracy score
// against opponent. Pass the configured default rating as opponent for the
// standard flow.
func (c Calculator) CalculateNewRating(current, accuracy, opponent float64) (RatingChange, error) {
	if err := checkAccuracy("accuracy_score", accuracy); err != nil {
		return RatingChange{}, err
	}
	if math.IsNaN(current) || math.IsInf(current, 0) || current < 0 {
		return RatingChange{}, NewInputError("current_rating", current, "must be a finite, non-negative number")
	}
	if math.IsNaN(opponent) || math.IsInf(opponent, 0) || opponent < 0 {
		return RatingChange{}, NewInputError("opponent_rating", opponent, "must be a finite, non-negative number")
	}

	expected := ExpectedScore(current, opponent)
	delta := c.cfg.KFactor * (accuracy - expected)

	return RatingChange{
		NewRating:     c.clamp(current + delta),
		Delta:         delta,
		Outcome:       c.classifyDelta(delta),
		ExpectedScore: expected,
		ActualScore:   accuracy,
	}, nil
}

// PredictDelta previews the delta a scouter at current would receive for
// the given accuracy against the default opponent. Nothing is persisted.
func (c Calculator) PredictDelta(current, expectedAccuracy float64) (float64, error) {
	change, err := c.CalculateNewRating(current, expectedAccuracy, c.cfg.DefaultRating)
	if err != nil {
		return 0, err
	}
	return change.Delta, nil
}

// CalculateConfidence maps a validation count to a confidence level:
// min(0.95, 0.50 + 0.45*log(n+1)/log(100)).
func (c Calculator) CalculateConfidence(validationCount int) (float64, error) {
	return CalculateConfidence(validationCount)
}

// CalculateConfidence is the configuration-independent confidence curve.
func CalculateConfidence(validationCount int) (float64, error) {
	if validationCount < 0 {
		return 0, NewInputError("validation_count", validationCount, "must not be negative")
	}
	conf := baseConfidence + confidenceGrowth*math.Log(float64(validationCount)+1)/math.Log(confidenceHorizon)
	return math.Min(DefaultMaxConfidence, conf), nil
}

// OutcomeToAccuracyScore maps a categorical outcome to its score.
// critical_error has no implicit score: callers must supply one explicitly.
func OutcomeToAccuracyScore(outcome ValidationOutcome) (float64, error) {
	switch outcome {
	case OutcomeExactMatch:
		return ExactMatchScore, nil
	case OutcomeCloseMatch:
		return CloseMatchScore, nil
	case OutcomeMismatch:
		return MismatchScore, nil
	default:
		return 0, NewInputError("outcome", outcome, "no implicit accuracy score; supply one explicitly")
	}
}

// CalculateAverageAccuracy returns the arithmetic mean, or 0 for no scores.
func CalculateAverageAccuracy(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// CalculateWeightedAccuracy returns the weighted mean, or 0 when the total
// weight is not positive.
func CalculateWeightedAccuracy(pairs []WeightedScore) float64 {
	var sum, total float64
	for _, p := range pairs {
		sum += p.Score * p.Weight
		total += p.Weight
	}
	if total <= 0 {
		return 0
	}
	return sum / total
}

func (c Calculator) clamp(r float64) float64 {
	return math.Max(c.cfg.MinRating, math.Min(c.cfg.MaxRating, r))
}

func (c Calculator) classifyDelta(delta float64) EloOutcome {
	switch {
	case delta > c.cfg.NeutralBand:
		return EloGain
	case delta < -c.cfg.NeutralBand:
		return EloLoss
	default:
		return EloNeutral
	}
}

func checkAccuracy(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return NewInputError(field, v, "must be within [0, 1]")
	}
	return nil
}
