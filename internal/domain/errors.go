package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every specific error below wraps exactly one of them so
// callers can match either the precise sentinel or its class with errors.Is.
var (
	// ErrMissingArgument indicates that a required argument was not provided.
	ErrMissingArgument = errors.New("missing required argument")

	// ErrInvalidType indicates that a value has the wrong kind or shape of
	// capability (the equivalent of a type error).
	ErrInvalidType = errors.New("invalid type")

	// ErrInvalidValue indicates that a value has the right type but violates
	// a constraint (the equivalent of a value error).
	ErrInvalidValue = errors.New("invalid value")

	// ErrKeyNotFound indicates that a lookup key does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrNotImplemented indicates that a required capability was reached
	// through a stub that does not implement it.
	ErrNotImplemented = errors.New("not implemented")
)

// Specific decision-matrix errors.
var (
	// ErrNotRank2 indicates that the matrix is not exactly 2-dimensional.
	ErrNotRank2 = fmt.Errorf("%w: matrix must be 2-dimensional", ErrInvalidValue)

	// ErrEmptyMatrix indicates a matrix without alternatives or criteria.
	ErrEmptyMatrix = fmt.Errorf("%w: matrix has no alternatives or criteria", ErrInvalidValue)

	// ErrShapeMismatch indicates that an argument's length disagrees with the
	// matrix shape.
	ErrShapeMismatch = fmt.Errorf("%w: shape mismatch", ErrInvalidValue)

	// ErrInvalidObjective indicates an unrecognized objective alias.
	ErrInvalidObjective = fmt.Errorf("%w: invalid objective", ErrInvalidValue)

	// ErrInvalidWeight indicates a weight that is not a finite non-negative
	// number.
	ErrInvalidWeight = fmt.Errorf("%w: invalid weight", ErrInvalidValue)

	// ErrDuplicateName indicates a repeated alternative or criterion label.
	ErrDuplicateName = fmt.Errorf("%w: duplicate name", ErrInvalidValue)

	// ErrInvalidDType indicates a dtype that cannot represent its column.
	ErrInvalidDType = fmt.Errorf("%w: invalid dtype", ErrInvalidValue)

	// ErrInvalidRank indicates a ranking that is not a permutation of 1..N.
	ErrInvalidRank = fmt.Errorf("%w: invalid rank", ErrInvalidValue)
)

// ArgumentError reports which argument of a constructor was rejected.
// It provides context about the argument and wraps the underlying cause.
type ArgumentError struct {
	// Argument names the offending argument (e.g. "weights", "cnames").
	Argument string

	// Detail is a human readable description of the violation.
	Detail string

	// Err is the underlying sentinel error.
	Err error
}

// Error implements the error interface for ArgumentError.
func (e *ArgumentError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("argument %s: %v", e.Argument, e.Err)
	}
	return fmt.Sprintf("argument %s: %v: %s", e.Argument, e.Err, e.Detail)
}

// Unwrap returns the underlying error.
func (e *ArgumentError) Unwrap() error { return e.Err }

// NewArgumentError creates a new ArgumentError with a formatted detail.
func NewArgumentError(argument string, err error, format string, args ...any) *ArgumentError {
	return &ArgumentError{
		Argument: argument,
		Detail:   fmt.Sprintf(format, args...),
		Err:      err,
	}
}

// ValidationError collects several violations found while validating one
// entity.
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

// Unwrap classifies every ValidationError as an invalid value.
func (e *ValidationError) Unwrap() error { return ErrInvalidValue }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
