package ports

import (
	"context"
	"time"
)

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus, OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like step failures or cache hits.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// StepKind distinguishes the two roles a pipeline step can play.
type StepKind string

// Step kinds.
const (
	StepKindTransformer   StepKind = "transformer"
	StepKindDecisionMaker StepKind = "decision_maker"
)

// StepInfo describes a pipeline step as it is about to run.
type StepInfo struct {
	// Name is the step name inside the pipeline.
	Name string

	// Index is the zero-based position of the step.
	Index int

	// Kind is the role of the step.
	Kind StepKind

	// Stage is the String representation of the stage, if it has one,
	// otherwise its Name.
	Stage string

	// Alternatives and Criteria are the shape of the step's input matrix.
	Alternatives int
	Criteria     int
}

// StepObserver receives a callback around every pipeline step.
// Implementations must be safe for concurrent use because one pipeline may
// serve several evaluations at once.
type StepObserver interface {
	// OnStepStart is called before the step runs. The returned context is
	// passed to OnStepEnd, which lets tracing observers carry a span.
	OnStepStart(ctx context.Context, info StepInfo) context.Context

	// OnStepEnd is called after the step returns, with its error if any.
	OnStepEnd(ctx context.Context, info StepInfo, elapsed time.Duration, err error)
}

// StageFactory builds a stage from a step name and its decoded parameters.
type StageFactory func(name string, params map[string]any) (Stage, error)

// StageRegistry resolves stage type identifiers to factories.
type StageRegistry interface {
	// Register adds a factory under a type identifier. Registering the same
	// identifier twice is an error.
	Register(stageType string, factory StageFactory) error

	// CreateStage builds a stage of the given type.
	CreateStage(stageType, name string, params map[string]any) (Stage, error)

	// IsRegistered reports whether a type identifier has a factory.
	IsRegistered(stageType string) bool

	// SupportedTypes returns every registered type identifier, sorted.
	SupportedTypes() []string
}
