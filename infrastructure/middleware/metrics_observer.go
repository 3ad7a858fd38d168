package middleware

import (
	"context"
	"time"

	"github.com/ahrav/go-criteria/internal/ports"
)

// Metric names reported by MetricsObserver.
const (
	MetricStepDuration     = "pipeline_step"
	MetricStepsTotal       = "pipeline_steps_total"
	MetricStepAlternatives = "step_alternatives"
	MetricStepCriteria     = "step_criteria"
	MetricStepCells        = "step_cells"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

var _ ports.StepObserver = (*MetricsObserver)(nil)

// MetricsObserver reports the latency, outcome and input shape of every
// pipeline step to a MetricsCollector. The shape is exported twice: as
// gauges holding the latest alternatives and criteria, and as a histogram
// of the matrix cells each step processed.
type MetricsObserver struct {
	metrics ports.MetricsCollector
}

// NewMetricsObserver creates a MetricsObserver. A nil collector makes the
// observer a no-op.
func NewMetricsObserver(metrics ports.MetricsCollector) *MetricsObserver {
	return &MetricsObserver{metrics: metrics}
}

// OnStepStart implements ports.StepObserver. Nothing is recorded until the
// step ends.
func (o *MetricsObserver) OnStepStart(ctx context.Context, _ ports.StepInfo) context.Context {
	return ctx
}

// OnStepEnd implements ports.StepObserver.
func (o *MetricsObserver) OnStepEnd(_ context.Context, info ports.StepInfo, elapsed time.Duration, err error) {
	if o.metrics == nil {
		return
	}

	labels := map[string]string{
		"step": info.Name,
		"kind": string(info.Kind),
	}
	o.metrics.RecordLatency(MetricStepDuration, elapsed, labels)
	o.metrics.RecordGauge(MetricStepAlternatives, float64(info.Alternatives), labels)
	o.metrics.RecordGauge(MetricStepCriteria, float64(info.Criteria), labels)
	o.metrics.RecordHistogram(MetricStepCells, float64(info.Alternatives*info.Criteria), labels)

	status := statusSuccess
	if err != nil {
		status = statusError
	}
	o.metrics.RecordCounter(MetricStepsTotal, 1, map[string]string{
		"step":   info.Name,
		"kind":   string(info.Kind),
		"status": status,
	})
}
