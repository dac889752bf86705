package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during scoring operations.
var (
	// ErrKeyNotFound indicates that a requested state key does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrTypeMismatch indicates that a value's type doesn't match the expected type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidInput indicates structurally impossible input, such as a
	// scalar where a sequence is required. It signals a caller bug rather
	// than messy user data.
	ErrInvalidInput = errors.New("invalid input shape")

	// ErrEmptyLeague indicates a league snapshot with no contestants.
	ErrEmptyLeague = errors.New("league has no contestants")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// StateError represents an error that occurred during State operations.
// It provides context about which key and operation caused the error.
type StateError struct {
	// Key is the name of the state key involved in the failed operation.
	Key string

	// Operation describes what operation was being performed when the error occurred.
	Operation string

	// Err is the underlying error that caused the operation to fail.
	Err error
}

// Error implements the error interface for StateError.
func (e *StateError) Error() string {
	return fmt.Sprintf("state error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error, supporting Go 1.13+ error unwrapping.
func (e *StateError) Unwrap() error { return e.Err }

// NewStateError creates a new StateError with the given details.
func NewStateError(key string, operation string, err error) *StateError {
	return &StateError{
		Key:       key,
		Operation: operation,
		Err:       err,
	}
}

// MissingKey returns a StateError reporting that key was absent when
// operation needed it.
func MissingKey[T any](key Key[T], operation string) *StateError {
	return NewStateError(key.name, operation, ErrKeyNotFound)
}

// ShapeError reports a snapshot field whose JSON/YAML type cannot be
// coerced into the expected shape.
type ShapeError struct {
	// Field is the snapshot field path, e.g. "participants[2].weeklyChallengePicks".
	Field string

	// Expected names the required shape ("array of strings", "object").
	Expected string

	// Got names the shape that was supplied.
	Got string
}

// Error implements the error interface for ShapeError.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%v: field %s: expected %s, got %s", ErrInvalidInput, e.Field, e.Expected, e.Got)
}

// Unwrap makes errors.Is(err, ErrInvalidInput) hold for every ShapeError.
func (e *ShapeError) Unwrap() error { return ErrInvalidInput }

// NewShapeError creates a new ShapeError for the given field.
func NewShapeError(field, expected, got string) *ShapeError {
	return &ShapeError{Field: field, Expected: expected, Got: got}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// Unwrap lets callers match validation failures with ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfiguration }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
