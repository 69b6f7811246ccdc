package tariff

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned (wrapped in a *ConfigError) for unusable tariff settings.
var ErrInvalidConfig = errors.New("invalid tariff config")

// ErrPlanNotFound is returned when a named plan is not registered.
var ErrPlanNotFound = errors.New("plan not found")

// ConfigError describes which tariff field was rejected and why.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %q: %s", ErrInvalidConfig, e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}
