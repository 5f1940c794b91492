package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for vehicle construction and simulation.
var (
	// ErrUnknownVehicleType indicates a class discriminator with no registered constructor.
	ErrUnknownVehicleType = errors.New("dynamo: unknown vehicle type")

	// ErrMalformedConfig indicates a missing or unparsable configuration attribute,
	// or configuration text that could not be parsed at all.
	ErrMalformedConfig = errors.New("dynamo: malformed configuration")

	// ErrContractViolation indicates a dynamics model broke the vehicle contract,
	// e.g. it built its multibody system without providing a chassis body.
	// It is not retryable.
	ErrContractViolation = errors.New("dynamo: vehicle contract violation")

	// ErrDuplicateType indicates a second registration for the same class.
	ErrDuplicateType = errors.New("dynamo: duplicate vehicle type")

	// ErrRegistrySealed indicates a registration after the first construction.
	ErrRegistrySealed = errors.New("dynamo: vehicle registry sealed")

	// ErrTickFailed indicates a world that aborted a tick and can no longer advance.
	ErrTickFailed = errors.New("dynamo: simulation tick failed")

	// ErrUnknownVehicle indicates a lookup by a name no vehicle carries.
	ErrUnknownVehicle = errors.New("dynamo: unknown vehicle")

	// ErrInvalidState indicates a state vector holding NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// ConfigError wraps a configuration failure with the element and attribute
// that caused it.
type ConfigError struct {
	Element string
	Attr    string
	Value   string
	Wrapped error
}

func (e *ConfigError) Error() string {
	loc := e.Element
	if e.Attr != "" {
		loc = fmt.Sprintf("%s[@%s]", e.Element, e.Attr)
	}
	if e.Value != "" {
		return fmt.Sprintf("%s: %s=%q: %v", ErrMalformedConfig, loc, e.Value, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s: %v", ErrMalformedConfig, loc, e.Wrapped)
}

// Unwrap exposes both ErrMalformedConfig and the underlying cause.
func (e *ConfigError) Unwrap() []error {
	if e.Wrapped == nil {
		return []error{ErrMalformedConfig}
	}
	return []error{ErrMalformedConfig, e.Wrapped}
}

// Malformed builds a ConfigError for element/attr with a formatted cause.
func Malformed(element, attr, value string, format string, args ...any) error {
	return &ConfigError{
		Element: element,
		Attr:    attr,
		Value:   value,
		Wrapped: fmt.Errorf(format, args...),
	}
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Vehicle string
	Phase   string
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Vehicle != "" {
		return fmt.Sprintf("step %d (t=%.4f) %s %s: %v", e.Step, e.Time, e.Phase, e.Vehicle, e.Wrapped)
	}
	return fmt.Sprintf("step %d (t=%.4f) %s: %v", e.Step, e.Time, e.Phase, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
