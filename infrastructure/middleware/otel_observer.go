package middleware

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-criteria/internal/ports"
)

const tracerName = "github.com/ahrav/go-criteria/pipeline"

var _ ports.StepObserver = (*OTelObserver)(nil)

// OTelObserver traces pipeline evaluation using OpenTelemetry. Every step
// becomes one span carrying the step name, kind, stage and input shape.
// The span travels in the context between OnStepStart and OnStepEnd, so
// one observer serves concurrent evaluations.
type OTelObserver struct {
	tracer trace.Tracer
}

// NewOTelObserver creates a new OpenTelemetry step observer. A nil tracer
// uses the global tracer provider.
func NewOTelObserver(tracer trace.Tracer) *OTelObserver {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &OTelObserver{tracer: tracer}
}

// OnStepStart implements ports.StepObserver. It starts the step span.
func (o *OTelObserver) OnStepStart(ctx context.Context, info ports.StepInfo) context.Context {
	ctx, _ = o.tracer.Start(ctx, "Pipeline."+string(info.Kind),
		trace.WithAttributes(
			attribute.String("step.name", info.Name),
			attribute.Int("step.index", info.Index),
			attribute.String("step.kind", string(info.Kind)),
			attribute.String("step.stage", info.Stage),
			attribute.Int("dm.alternatives", info.Alternatives),
			attribute.Int("dm.criteria", info.Criteria),
		),
	)
	return ctx
}

// OnStepEnd implements ports.StepObserver. It finalizes the span and
// records the error, if any.
func (o *OTelObserver) OnStepEnd(ctx context.Context, _ ports.StepInfo, elapsed time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(attribute.Float64("step.elapsed_ms", float64(elapsed.Microseconds())/1000))

	if err != nil {
		var stageErr *ports.StageError
		if errors.As(err, &stageErr) {
			span.AddEvent("stage.failed", trace.WithAttributes(
				attribute.String("stage", stageErr.Stage),
				attribute.String("operation", stageErr.Operation),
			))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
