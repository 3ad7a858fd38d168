// Package middleware provides cross-cutting concerns for pipeline
// evaluation: metrics, tracing and logging observers.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-criteria/internal/ports"
)

const unknownStep = "unknown"

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It provides monitoring of step latency, step outcomes and the shape of the
// matrices flowing through decision pipelines.
type PrometheusMetrics struct {
	stepLatency      *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	stepGauges       *prometheus.GaugeVec
	valueHistogram   *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and registers
// its metrics with reg. A nil reg registers with the global Prometheus
// registry. Registering twice with the same registry panics.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		stepLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcda_step_duration_seconds",
				Help:    "Execution time of pipeline steps.",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
			},
			[]string{"operation", "step"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcda_step_operations_total",
				Help: "Total number of pipeline step operations by outcome.",
			},
			[]string{"operation", "status", "step"},
		),
		stepGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mcda_step_state",
				Help: "Last observed state values of pipeline steps.",
			},
			[]string{"metric", "step"},
		),
		valueHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcda_step_values",
				Help:    "Distribution of sizes reported by pipeline steps, such as matrix cells.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"metric", "step"},
		),
	}
}

// stepLabel returns the step label, falling back to "unknown" when it is
// missing or empty.
func stepLabel(labels map[string]string) string {
	if step := labels["step"]; step != "" {
		return step
	}
	return unknownStep
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.stepLatency.WithLabelValues(operation, stepLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters. The status label defaults to "success".
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	status := labels["status"]
	if status == "" {
		status = statusSuccess
	}
	pm.operationCounter.WithLabelValues(metric, status, stepLabel(labels)).Add(value)
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.stepGauges.WithLabelValues(metric, stepLabel(labels)).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	pm.valueHistogram.WithLabelValues(metric, stepLabel(labels)).Observe(value)
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
