package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors that can occur while building or running
// an engine.
var (
	// ErrConfigNotFound indicates that an engine configuration file does
	// not exist.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrUnsupportedUnit indicates a unit type with no registered factory.
	ErrUnsupportedUnit = errors.New("unsupported unit type")

	// ErrDuplicateExecutable indicates two stage members share an ID.
	ErrDuplicateExecutable = errors.New("duplicate executable id")

	// ErrMergeConflict indicates two members of a parallel layer wrote the
	// same state key.
	ErrMergeConflict = errors.New("conflicting writes in parallel layer")
)

// UnitError wraps a failure raised by a unit while a stage was running.
type UnitError struct {
	// Unit is the name of the failing unit.
	Unit string

	// Stage is the ID of the stage that contained the unit.
	Stage string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for UnitError.
func (e *UnitError) Error() string {
	return fmt.Sprintf("unit error: stage=%s, unit=%s, err=%v", e.Stage, e.Unit, e.Err)
}

// Unwrap returns the underlying error.
func (e *UnitError) Unwrap() error { return e.Err }

// NewUnitError creates a new UnitError with the given details.
func NewUnitError(stage, unit string, err error) *UnitError {
	return &UnitError{Stage: stage, Unit: unit, Err: err}
}

// ConfigError represents an error from configuration operations.
type ConfigError struct {
	// ConfigKey is the configuration key that was involved in the failed
	// operation.
	ConfigKey string

	// Err is the underlying error that caused the configuration operation
	// to fail.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{
		ConfigKey: key,
		Err:       err,
	}
}
