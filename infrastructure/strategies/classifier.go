package strategies

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-scoutrate/internal/domain"
)

// Comparison is the classified outcome of one field comparison.
type Comparison struct {
	Outcome  domain.ValidationOutcome
	Score    float64
	Weight   float64
	Expected string
	Actual   string
	Notes    string
}

// Classify compares an actual scouted value against the expected value using
// the rule's comparison family and tolerance bands. A nil actual value is a
// mismatch noted as missing.
func Classify(rule FieldRule, expected, actual any) Comparison {
	c := Comparison{
		Weight:   rule.weight(),
		Expected: domain.FormatValue(expected),
		Actual:   domain.FormatValue(actual),
	}
	if actual == nil {
		return c.finish(rule, domain.OutcomeMismatch, "missing")
	}

	switch rule.Kind {
	case domain.KindNumeric:
		return classifyNumeric(rule, c, expected, actual)
	case domain.KindBoolean:
		return classifyBoolean(rule, c, expected, actual)
	default:
		return classifyCategorical(rule, c, expected, actual)
	}
}

func classifyNumeric(rule FieldRule, c Comparison, expected, actual any) Comparison {
	e, ok := domain.AsNumber(expected)
	if !ok {
		return c.finish(rule, domain.OutcomeMismatch, "expected value is not numeric")
	}
	a, ok := domain.AsNumber(actual)
	if !ok {
		return c.finish(rule, domain.OutcomeMismatch, "actual value is not numeric")
	}

	dev := math.Abs(a - e)
	rel := dev / math.Max(math.Abs(e), 1)

	switch {
	case dev <= rule.epsilon():
		return c.finish(rule, domain.OutcomeExactMatch, "")
	case dev <= rule.AbsTolerance || rel <= rule.RelTolerance:
		c = c.finish(rule, domain.OutcomeCloseMatch, fmt.Sprintf("deviation %.4g", dev))
	case rule.Critical && dev > rule.CriticalDeviation:
		return c.finish(rule, domain.OutcomeCriticalError, fmt.Sprintf("deviation %.4g exceeds critical %.4g", dev, rule.CriticalDeviation))
	default:
		c = c.finish(rule, domain.OutcomeMismatch, fmt.Sprintf("deviation %.4g", dev))
	}

	if rule.PartialCredit {
		c.Score = math.Max(0, 1-rel)
		c.Notes += " (partial credit)"
	}
	return c
}

func classifyBoolean(rule FieldRule, c Comparison, expected, actual any) Comparison {
	e, ok := domain.AsBool(expected)
	if !ok {
		return c.finish(rule, domain.OutcomeMismatch, "expected value is not boolean")
	}
	a, ok := domain.AsBool(actual)
	if !ok {
		return c.finish(rule, domain.OutcomeMismatch, "actual value is not boolean")
	}
	if a == e {
		return c.finish(rule, domain.OutcomeExactMatch, "")
	}
	return c.finish(rule, mismatchOutcome(rule), "")
}

func classifyCategorical(rule FieldRule, c Comparison, expected, actual any) Comparison {
	e := normalizeCategory(domain.FormatValue(expected))
	a := normalizeCategory(domain.FormatValue(actual))
	if a == e {
		return c.finish(rule, domain.OutcomeExactMatch, "")
	}

	sim := similarity(a, e)
	if rule.FuzzyThreshold > 0 && sim >= rule.FuzzyThreshold {
		return c.finish(rule, domain.OutcomeCloseMatch, fmt.Sprintf("similarity %.2f", sim))
	}
	return c.finish(rule, mismatchOutcome(rule), fmt.Sprintf("similarity %.2f", sim))
}

func mismatchOutcome(rule FieldRule) domain.ValidationOutcome {
	if rule.Critical {
		return domain.OutcomeCriticalError
	}
	return domain.OutcomeMismatch
}

// finish sets the outcome and its score. Critical errors have no categorical
// score, so they are scored 0 and weighted by the rule's critical weight.
func (c Comparison) finish(rule FieldRule, outcome domain.ValidationOutcome, notes string) Comparison {
	c.Outcome = outcome
	c.Notes = notes
	if outcome == domain.OutcomeCriticalError {
		c.Score = 0
		c.Weight = rule.weight() * rule.criticalWeight()
		return c
	}
	score, err := domain.OutcomeToAccuracyScore(outcome)
	if err != nil {
		score = 0
	}
	c.Score = score
	return c
}

// normalizeCategory trims and case-folds a categorical value. A new caser is
// built per call because cases.Caser is not safe for concurrent use.
func normalizeCategory(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// similarity computes 1 - distance/maxLen over runes, in [0, 1].
func similarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(s1, s2)
	maxLen := utf8.RuneCountInString(s1)
	if n := utf8.RuneCountInString(s2); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}
	return math.Max(0, 1.0-float64(distance)/float64(maxLen))
}
