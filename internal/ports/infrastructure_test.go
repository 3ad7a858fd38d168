package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockMetricsCollector implements MetricsCollector interface
type mockMetricsCollector struct {
	latencies  []time.Duration
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string][]float64
}

// newMockMetricsCollector creates a new mock metrics collector for testing.
func newMockMetricsCollector() *mockMetricsCollector {
	return &mockMetricsCollector{
		latencies:  []time.Duration{},
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

func (m *mockMetricsCollector) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	m.latencies = append(m.latencies, duration)
}

func (m *mockMetricsCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	m.counters[metric] += value
}

func (m *mockMetricsCollector) RecordGauge(metric string, value float64, labels map[string]string) {
	m.gauges[metric] = value
}

func (m *mockMetricsCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
	m.histograms[metric] = append(m.histograms[metric], value)
}

type ctxKey struct{}

// mockObserver implements StepObserver and carries a marker through ctx.
type mockObserver struct {
	started []StepInfo
	ended   []error
	marker  any
}

func (m *mockObserver) OnStepStart(ctx context.Context, info StepInfo) context.Context {
	m.started = append(m.started, info)
	return context.WithValue(ctx, ctxKey{}, info.Name)
}

func (m *mockObserver) OnStepEnd(ctx context.Context, info StepInfo, elapsed time.Duration, err error) {
	m.marker = ctx.Value(ctxKey{})
	m.ended = append(m.ended, err)
}

// mockRegistry implements StageRegistry over a plain map.
type mockRegistry struct{ factories map[string]StageFactory }

func (m *mockRegistry) Register(stageType string, factory StageFactory) error {
	if _, ok := m.factories[stageType]; ok {
		return errors.New("duplicate")
	}
	m.factories[stageType] = factory
	return nil
}

func (m *mockRegistry) CreateStage(stageType, name string, params map[string]any) (Stage, error) {
	f, ok := m.factories[stageType]
	if !ok {
		return nil, errors.New("unknown")
	}
	return f(name, params)
}

func (m *mockRegistry) IsRegistered(stageType string) bool {
	_, ok := m.factories[stageType]
	return ok
}

func (m *mockRegistry) SupportedTypes() []string { return nil }

type namedStage string

func (n namedStage) Name() string { return string(n) }

func TestInterfaces_Implementation(t *testing.T) {
	var _ MetricsCollector = (*mockMetricsCollector)(nil)
	var _ StepObserver = (*mockObserver)(nil)
	var _ StageRegistry = (*mockRegistry)(nil)
	var _ Stage = namedStage("")
}

func TestMetricsCollector_Recording(t *testing.T) {
	metrics := newMockMetricsCollector()
	labels := map[string]string{"step": "topsis"}

	metrics.RecordLatency("pipeline_step", 100*time.Millisecond, labels)
	assert.Len(t, metrics.latencies, 1, "RecordLatency() should record one duration")

	metrics.RecordCounter("step_total", 1, labels)
	metrics.RecordCounter("step_total", 2, labels)
	assert.Equal(t, float64(3), metrics.counters["step_total"], "RecordCounter() sum mismatch")

	metrics.RecordGauge("pipeline_steps", 3, labels)
	assert.Equal(t, float64(3), metrics.gauges["pipeline_steps"], "RecordGauge() value mismatch")

	metrics.RecordHistogram("alternatives", 6, labels)
	assert.Len(t, metrics.histograms["alternatives"], 1, "RecordHistogram() should record one value")
}

func TestStepObserver_ContextFlow(t *testing.T) {
	obs := &mockObserver{}
	info := StepInfo{Name: "scale", Index: 1, Kind: StepKindTransformer}

	ctx := obs.OnStepStart(context.Background(), info)
	obs.OnStepEnd(ctx, info, time.Millisecond, nil)

	require.Len(t, obs.started, 1)
	assert.Equal(t, "scale", obs.marker, "OnStepEnd should receive the context returned by OnStepStart")
	assert.Equal(t, []error{nil}, obs.ended)
}

func TestStageRegistry_Factory(t *testing.T) {
	reg := &mockRegistry{factories: map[string]StageFactory{}}
	require.NoError(t, reg.Register("named", func(name string, _ map[string]any) (Stage, error) {
		return namedStage(name), nil
	}))
	assert.Error(t, reg.Register("named", nil))

	stage, err := reg.CreateStage("named", "first", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", stage.Name())
	assert.True(t, reg.IsRegistered("named"))
	assert.False(t, reg.IsRegistered("other"))
}
