package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-scoutrate/internal/domain"
)

// RegisterEngineValidators registers the semver and strategykind tags used
// by EngineConfig.
func RegisterEngineValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}
	if err := v.RegisterValidation("strategykind", validateStrategyKind); err != nil {
		return fmt.Errorf("failed to register strategykind validator: %w", err)
	}
	return nil
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3 && major >= 0 && minor >= 0 && patch >= 0
}

// validateStrategyKind accepts only the compiled-in strategy kinds.
func validateStrategyKind(fl validator.FieldLevel) bool {
	return domain.StrategyKind(fl.Field().String()).Valid()
}
