// Package strategies provides the validation strategies that implement the
// ports.Strategy interface: consensus among sibling scouts and comparison
// against the official match results feed.
package strategies

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Common errors returned by strategy construction.
var (
	// ErrNoFieldRules is returned when a strategy is configured without any
	// field to compare.
	ErrNoFieldRules = errors.New("at least one field rule is required")

	// ErrDuplicateFieldRule is returned when the same field path is
	// configured twice for one strategy.
	ErrDuplicateFieldRule = errors.New("duplicate field rule")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()
