package ports

import (
	"fmt"

	"github.com/ahrav/go-criteria/internal/domain"
)

// Contract errors raised while wiring stages together.
var (
	// ErrContractViolation indicates that a stage lacks a capability its
	// configuration requires. It is a type error.
	ErrContractViolation = fmt.Errorf("%w: stage contract violation", domain.ErrInvalidType)

	// ErrInvalidTarget indicates an unknown transformation target. It is a
	// value error.
	ErrInvalidTarget = fmt.Errorf("%w: invalid target", domain.ErrInvalidValue)
)

// StageError represents a failure inside a stage operation.
// It includes the stage and the operation that failed.
type StageError struct {
	// Stage is the name of the stage that failed. It may be empty for
	// errors raised by embeddable stubs.
	Stage string

	// Operation is the name of the stage operation that failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for StageError.
func (e *StageError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("stage error: operation=%s, err=%v", e.Operation, e.Err)
	}
	return fmt.Sprintf("stage error: stage=%s, operation=%s, err=%v", e.Stage, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error { return e.Err }

// NewStageError creates a new StageError with the given details.
func NewStageError(stage, operation string, err error) *StageError {
	return &StageError{
		Stage:     stage,
		Operation: operation,
		Err:       err,
	}
}

// MetricsError represents an error from metrics collection operations.
type MetricsError struct {
	// Metric is the name of the metric that was being collected when the
	// error occurred.
	Metric string

	// Operation is the name of the metrics operation that failed.
	Operation string

	// Err is the underlying error that caused the metrics operation to fail.
	Err error
}

// Error implements the error interface for MetricsError.
func (e *MetricsError) Error() string {
	return fmt.Sprintf("metrics error: operation=%s, metric=%s, err=%v", e.Operation, e.Metric, e.Err)
}

// Unwrap returns the underlying error.
func (e *MetricsError) Unwrap() error { return e.Err }

// NewMetricsError creates a new MetricsError with the given details.
func NewMetricsError(metric, operation string, err error) *MetricsError {
	return &MetricsError{
		Metric:    metric,
		Operation: operation,
		Err:       err,
	}
}
