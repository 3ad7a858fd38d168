package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ahrav/go-criteria/infrastructure/stages"
	"github.com/ahrav/go-criteria/internal/application"
	"github.com/ahrav/go-criteria/internal/domain"
	"github.com/ahrav/go-criteria/internal/ports"
	"github.com/ahrav/go-criteria/internal/testutils"
)

// observedPipeline builds scale -> rank where rank is the full
// multiplicative form, which rejects non-positive values.
func observedPipeline(t *testing.T, obs ports.StepObserver) *application.Pipeline {
	t.Helper()
	scaler, err := stages.NewVectorScaler(stages.DefaultNormalizerConfig())
	require.NoError(t, err)
	pipe, err := application.NewPipeline([]application.Step{
		{Name: "scale", Stage: scaler},
		{Name: "rank", Stage: stages.NewFullMultiplicativeForm()},
	}, application.WithObserver(obs))
	require.NoError(t, err)
	return pipe
}

func negativeMatrix(t *testing.T) *domain.DecisionMatrix {
	t.Helper()
	dm, err := domain.Mkdm([][]float64{{1, -2}, {3, 4}, {5, 6}}, []string{"max", "min"})
	require.NoError(t, err)
	return dm
}

// fakeCollector records every call it receives.
type fakeCollector struct {
	mu        sync.Mutex
	latencies []string
	counters  []map[string]string
	gauges    map[string]float64
	samples   map[string][]float64
}

func (f *fakeCollector) RecordLatency(operation string, _ time.Duration, labels map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latencies = append(f.latencies, operation+"/"+labels["step"])
}

func (f *fakeCollector) RecordCounter(_ string, _ float64, labels map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, labels)
}

func (f *fakeCollector) RecordGauge(metric string, value float64, labels map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gauges == nil {
		f.gauges = make(map[string]float64)
	}
	f.gauges[metric+"/"+labels["step"]] = value
}

func (f *fakeCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.samples == nil {
		f.samples = make(map[string][]float64)
	}
	key := metric + "/" + labels["step"]
	f.samples[key] = append(f.samples[key], value)
}

func TestMetricsObserver(t *testing.T) {
	collector := &fakeCollector{}
	pipe := observedPipeline(t, NewMetricsObserver(collector))

	dm, err := testutils.Kracka()
	require.NoError(t, err)
	_, err = pipe.Evaluate(context.Background(), dm)
	require.NoError(t, err)

	assert.Equal(t, []string{"pipeline_step/scale", "pipeline_step/rank"}, collector.latencies)
	require.Len(t, collector.counters, 2)
	assert.Equal(t, map[string]string{"step": "rank", "kind": "decision_maker", "status": "success"}, collector.counters[1])
	assert.Equal(t, 6.0, collector.gauges["step_alternatives/rank"])
	assert.Equal(t, 7.0, collector.gauges["step_criteria/scale"])
	assert.Equal(t, []float64{42}, collector.samples["step_cells/scale"])
	assert.Equal(t, []float64{42}, collector.samples["step_cells/rank"])

	_, err = pipe.Evaluate(context.Background(), negativeMatrix(t))
	require.Error(t, err)
	require.Len(t, collector.counters, 4)
	assert.Equal(t, "error", collector.counters[3]["status"])
}

func TestMetricsObserver_Prometheus(t *testing.T) {
	pm, _ := newTestMetrics(t)
	pipe := observedPipeline(t, NewMetricsObserver(pm))

	dm, err := testutils.Kracka()
	require.NoError(t, err)
	for range 3 {
		_, err = pipe.Evaluate(context.Background(), dm)
		require.NoError(t, err)
	}
	_, err = pipe.Evaluate(context.Background(), negativeMatrix(t))
	require.Error(t, err)

	assert.Equal(t, 4.0, testutil.ToFloat64(pm.operationCounter.WithLabelValues(MetricStepsTotal, "success", "scale")))
	assert.Equal(t, 3.0, testutil.ToFloat64(pm.operationCounter.WithLabelValues(MetricStepsTotal, "success", "rank")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.operationCounter.WithLabelValues(MetricStepsTotal, "error", "rank")))
	assert.Equal(t, 3.0, testutil.ToFloat64(pm.stepGauges.WithLabelValues(MetricStepAlternatives, "rank")))

	cells, err := pm.valueHistogram.GetMetricWithLabelValues(MetricStepCells, "rank")
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, cells.(prometheus.Histogram).Write(&m))
	assert.Equal(t, uint64(4), m.GetHistogram().GetSampleCount())
	assert.Equal(t, 3*42.0+6.0, m.GetHistogram().GetSampleSum())
}

func TestMetricsObserver_NilCollector(t *testing.T) {
	pipe := observedPipeline(t, NewMetricsObserver(nil))
	dm, err := testutils.Kracka()
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		_, err = pipe.Evaluate(context.Background(), dm)
	})
	assert.NoError(t, err)
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestOTelObserver(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	pipe := observedPipeline(t, NewOTelObserver(provider.Tracer("test")))

	t.Run("success", func(t *testing.T) {
		dm, err := testutils.Kracka()
		require.NoError(t, err)
		_, err = pipe.Evaluate(context.Background(), dm)
		require.NoError(t, err)

		spans := recorder.Ended()
		require.Len(t, spans, 2)
		assert.Equal(t, "Pipeline.transformer", spans[0].Name())
		assert.Equal(t, "Pipeline.decision_maker", spans[1].Name())

		name, ok := spanAttr(spans[1], "step.name")
		require.True(t, ok)
		assert.Equal(t, "rank", name.AsString())
		index, ok := spanAttr(spans[1], "step.index")
		require.True(t, ok)
		assert.Equal(t, int64(1), index.AsInt64())
		alts, ok := spanAttr(spans[0], "dm.alternatives")
		require.True(t, ok)
		assert.Equal(t, int64(6), alts.AsInt64())
		_, ok = spanAttr(spans[0], "step.elapsed_ms")
		assert.True(t, ok)

		for _, s := range spans {
			assert.Equal(t, codes.Ok, s.Status().Code)
		}
	})

	t.Run("failure", func(t *testing.T) {
		before := len(recorder.Ended())
		_, err := pipe.Evaluate(context.Background(), negativeMatrix(t))
		require.Error(t, err)

		spans := recorder.Ended()[before:]
		require.Len(t, spans, 2)
		failed := spans[1]
		assert.Equal(t, codes.Error, failed.Status().Code)
		assert.Contains(t, failed.Status().Description, "must be positive")

		var events []string
		for _, e := range failed.Events() {
			events = append(events, e.Name)
		}
		assert.Contains(t, events, "stage.failed")
		assert.Contains(t, events, "exception")
	})
}

func TestOTelObserver_DefaultTracer(t *testing.T) {
	obs := NewOTelObserver(nil)
	require.NotNil(t, obs.tracer)

	// The global no-op provider yields non-recording spans.
	ctx := obs.OnStepStart(context.Background(), ports.StepInfo{Name: "x", Kind: ports.StepKindTransformer})
	assert.NotPanics(t, func() { obs.OnStepEnd(ctx, ports.StepInfo{Name: "x"}, time.Millisecond, nil) })
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	pipe := observedPipeline(t, NewLoggingObserver(logger))

	dm, err := testutils.Kracka()
	require.NoError(t, err)
	_, err = pipe.Evaluate(context.Background(), dm)
	require.NoError(t, err)
	_, err = pipe.Evaluate(context.Background(), negativeMatrix(t))
	require.Error(t, err)

	var records []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		records = append(records, rec)
	}

	var msgs []string
	for _, rec := range records {
		msgs = append(msgs, rec["level"].(string)+" "+rec["msg"].(string)+" "+rec["step"].(string))
	}
	assert.Equal(t, []string{
		"DEBUG step started scale",
		"INFO step finished scale",
		"DEBUG step started rank",
		"INFO step finished rank",
		"DEBUG step started scale",
		"INFO step finished scale",
		"DEBUG step started rank",
		"ERROR step failed rank",
	}, msgs)

	assert.Equal(t, "transformer", records[0]["kind"])
	assert.Equal(t, float64(6), records[0]["alternatives"])
	assert.Contains(t, records[7]["error"], "must be positive")
}

func TestLoggingObserver_InfoLevelSkipsStarts(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pipe := observedPipeline(t, NewLoggingObserver(logger))

	dm, err := testutils.Kracka()
	require.NoError(t, err)
	_, err = pipe.Evaluate(context.Background(), dm)
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "step started")
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("step finished")))
}

func TestObserversCompose(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	collector := &fakeCollector{}

	multi := application.NewMultiObserver(
		NewOTelObserver(provider.Tracer("test")),
		NewMetricsObserver(collector),
		NewLoggingObserver(slog.New(slog.DiscardHandler)),
	)
	pipe := observedPipeline(t, multi)

	dm, err := testutils.Kracka()
	require.NoError(t, err)
	_, err = pipe.Evaluate(context.Background(), dm)
	require.NoError(t, err)

	assert.Len(t, recorder.Ended(), 2)
	assert.Len(t, collector.latencies, 2)
}
