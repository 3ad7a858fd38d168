package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-criteria/infrastructure/stages"
	"github.com/ahrav/go-criteria/internal/domain"
	"github.com/ahrav/go-criteria/internal/ports"
	"github.com/ahrav/go-criteria/internal/testutils"
)

// sampleStages returns transformer and decision maker stages mixing
// objective inversion, scaling and two weighters, ending in TOPSIS.
func sampleStages(t *testing.T) []ports.Stage {
	t.Helper()
	scaler, err := stages.NewStandardScaler(stages.StandardScalerConfig{Target: ports.TargetMatrix, WithMean: true, WithStd: true})
	require.NoError(t, err)
	spearman, err := stages.NewCritic(stages.CriticConfig{Correlation: stages.CorrelationSpearman, Scale: true})
	require.NoError(t, err)
	pearson, err := stages.NewCritic(stages.DefaultCriticConfig())
	require.NoError(t, err)
	topsis, err := stages.NewTOPSIS(stages.DefaultTOPSISConfig())
	require.NoError(t, err)
	return []ports.Stage{stages.NewMinimizeToMaximize(), scaler, spearman, pearson, topsis}
}

func sampleMatrix(t *testing.T) *domain.DecisionMatrix {
	t.Helper()
	spec := testutils.DefaultMatrixSpec()
	spec.MaxAlternatives, spec.MaxCriteria = 20, 10
	dm, err := testutils.GenerateDecisionMatrix(42, spec)
	require.NoError(t, err)
	return dm
}

func TestMkpipe_EvaluateEqualsManualFold(t *testing.T) {
	dm := sampleMatrix(t)
	steps := sampleStages(t)

	expected := dm
	for _, s := range steps[:len(steps)-1] {
		var err error
		expected, err = s.(ports.Transformer).Transform(expected)
		require.NoError(t, err)
	}
	want, err := steps[len(steps)-1].(ports.DecisionMaker).Evaluate(expected)
	require.NoError(t, err)

	pipe, err := Mkpipe(steps...)
	require.NoError(t, err)
	got, err := pipe.Evaluate(context.Background(), dm)
	require.NoError(t, err)

	assert.True(t, got.Equal(want), "pipeline %s, manual %s", got, want)
	assert.Equal(t, len(steps), pipe.Len())
	for i, step := range pipe.Steps() {
		assert.Same(t, steps[i], step.Stage)
	}
	for name, stage := range pipe.NamedSteps() {
		assert.Contains(t, steps, stage, name)
	}
	assert.True(t, sampleMatrix(t).Equal(dm), "input must not be mutated")
}

func TestMkpipe_Names(t *testing.T) {
	pipe, err := Mkpipe(sampleStages(t)...)
	require.NoError(t, err)

	assert.Equal(t, []string{"minimizetomaximize", "standardscaler", "critic-1", "critic-2", "topsis"}, pipe.Names())
}

func TestPipeline_IndexingAndSlicing(t *testing.T) {
	steps := sampleStages(t)
	pipe, err := Mkpipe(steps...)
	require.NoError(t, err)

	for i, step := range steps {
		got, err := pipe.Get(i)
		require.NoError(t, err)
		assert.Same(t, step, got)
	}
	for name, step := range pipe.NamedSteps() {
		got, err := pipe.Get(name)
		require.NoError(t, err)
		assert.Same(t, step, got)
	}

	last, err := pipe.At(-1)
	require.NoError(t, err)
	assert.Same(t, steps[4], last)

	t.Run("open ended slice", func(t *testing.T) {
		got, err := pipe.Get(From(2))
		require.NoError(t, err)
		sub, ok := got.(*Pipeline)
		require.True(t, ok)
		assert.Equal(t, []string{"critic-1", "critic-2", "topsis"}, sub.Names())
		for i, step := range sub.Steps() {
			assert.Same(t, steps[i+2], step.Stage)
		}
	})

	t.Run("decision maker alone", func(t *testing.T) {
		sub, err := pipe.Slice(-1, 5)
		require.NoError(t, err)
		assert.Equal(t, []string{"topsis"}, sub.Names())
	})

	errorCases := []struct {
		name    string
		key     any
		wantErr error
		class   error
	}{
		{"stride", SliceKey{Step: 2}, ErrInvalidSlice, domain.ErrInvalidValue},
		{"slice without decision maker", Span(0, 2), ErrInvalidSlice, domain.ErrInvalidValue},
		{"empty slice", Span(3, 3), ErrInvalidSlice, domain.ErrInvalidValue},
		{"nil key", nil, ErrStepNotFound, domain.ErrKeyNotFound},
		{"float key", 1.5, ErrStepNotFound, domain.ErrKeyNotFound},
		{"unknown name", "critic-3", ErrStepNotFound, domain.ErrKeyNotFound},
		{"index out of range", 5, ErrStepNotFound, domain.ErrKeyNotFound},
		{"negative index out of range", -6, ErrStepNotFound, domain.ErrKeyNotFound},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := pipe.Get(tc.key)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.ErrorIs(t, err, tc.class)
			assert.Nil(t, got)
		})
	}

	t.Run("unknown name suggests the closest step", func(t *testing.T) {
		_, err := pipe.Lookup("critic-3")
		assert.ErrorContains(t, err, `did you mean "critic-1"?`)
	})
}

func TestPipeline_ConstructionErrors(t *testing.T) {
	critic, err := stages.NewCritic(stages.DefaultCriticConfig())
	require.NoError(t, err)
	topsis, err := stages.NewTOPSIS(stages.DefaultTOPSISConfig())
	require.NoError(t, err)

	tests := []struct {
		name    string
		steps   []Step
		wantErr error
		class   error
	}{
		{"two decision makers", []Step{{"a", topsis}, {"b", topsis}}, ErrStageOrder, domain.ErrInvalidType},
		{"no decision maker", []Step{{"a", critic}}, ErrStageOrder, domain.ErrInvalidType},
		{"empty", nil, ErrStageOrder, domain.ErrInvalidType},
		{"nil stage", []Step{{"a", nil}, {"b", topsis}}, ErrStageOrder, domain.ErrInvalidType},
		{"empty first name", []Step{{"", critic}, {"final", topsis}}, ErrInvalidStepName, domain.ErrInvalidType},
		{"empty last name", []Step{{"first", critic}, {"", topsis}}, ErrInvalidStepName, domain.ErrInvalidType},
		{"duplicate name", []Step{{"x", critic}, {"x", topsis}}, ErrDuplicateStep, domain.ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPipeline(tt.steps)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, tt.class)
			assert.Nil(t, p)
		})
	}

	t.Run("mkpipe reports the misplaced decision maker", func(t *testing.T) {
		_, err := Mkpipe(topsis, topsis)
		assert.ErrorIs(t, err, ErrStageOrder)
		assert.ErrorContains(t, err, "step 0 (topsis-1)")
	})
}

func TestPipeline_EvaluateErrors(t *testing.T) {
	norm, err := stages.NewSumNormalizer(stages.DefaultNormalizerConfig())
	require.NoError(t, err)
	pipe, err := Mkpipe(norm, stages.NewFullMultiplicativeForm())
	require.NoError(t, err)

	t.Run("stage failure names the step", func(t *testing.T) {
		dm, err := domain.Mkdm([][]float64{{0, 1}, {0, 2}}, []string{"max", "max"})
		require.NoError(t, err)

		_, err = pipe.Evaluate(context.Background(), dm)
		var stepErr *StepError
		require.ErrorAs(t, err, &stepErr)
		assert.Equal(t, "sumnormalizer", stepErr.Step)
		assert.Equal(t, 0, stepErr.Index)
		assert.ErrorIs(t, err, stages.ErrZeroDenominator)
	})

	t.Run("decision maker failure", func(t *testing.T) {
		dm, err := domain.Mkdm([][]float64{{1, 0}, {1, 2}}, []string{"max", "max"})
		require.NoError(t, err)

		_, err = pipe.Evaluate(context.Background(), dm)
		var stepErr *StepError
		require.ErrorAs(t, err, &stepErr)
		assert.Equal(t, 1, stepErr.Index)
		assert.ErrorIs(t, err, stages.ErrNonPositiveValue)
	})

	t.Run("nil matrix", func(t *testing.T) {
		_, err := pipe.Evaluate(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrMissingArgument)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := pipe.Evaluate(ctx, sampleMatrix(t))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// recordingObserver records every callback it receives.
type recordingObserver struct {
	mu     sync.Mutex
	starts []ports.StepInfo
	ends   []error
}

type observerKey struct{}

func (o *recordingObserver) OnStepStart(ctx context.Context, info ports.StepInfo) context.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.starts = append(o.starts, info)
	return context.WithValue(ctx, observerKey{}, info.Name)
}

func (o *recordingObserver) OnStepEnd(ctx context.Context, info ports.StepInfo, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ctx.Value(observerKey{}) != info.Name {
		panic("OnStepEnd did not receive the context returned by OnStepStart")
	}
	o.ends = append(o.ends, err)
}

func TestPipeline_Observer(t *testing.T) {
	obs := &recordingObserver{}
	scaler, err := stages.NewVectorScaler(stages.DefaultNormalizerConfig())
	require.NoError(t, err)
	pipe, err := NewPipeline([]Step{
		{Name: "scale", Stage: scaler},
		{Name: "rank", Stage: stages.NewRatioMOORA()},
	}, WithObserver(obs))
	require.NoError(t, err)

	dm, err := testutils.Kracka()
	require.NoError(t, err)
	result, err := pipe.Evaluate(context.Background(), dm)
	require.NoError(t, err)
	assert.Equal(t, testutils.KrackaRatioRank, result.Rank())

	require.Len(t, obs.starts, 2)
	assert.Equal(t, ports.StepInfo{
		Name: "scale", Index: 0, Kind: ports.StepKindTransformer,
		Stage: "VectorScaler(target=matrix)", Alternatives: 6, Criteria: 7,
	}, obs.starts[0])
	assert.Equal(t, ports.StepKindDecisionMaker, obs.starts[1].Kind)
	assert.Equal(t, "RatioMOORA()", obs.starts[1].Stage)
	assert.Equal(t, []error{nil, nil}, obs.ends)

	sub, err := pipe.Slice(1, 2)
	require.NoError(t, err)
	_, err = sub.Evaluate(context.Background(), dm)
	require.NoError(t, err)
	assert.Len(t, obs.starts, 3, "slices keep the observer")
}

func TestPipeline_ConcurrentEvaluate(t *testing.T) {
	pipe, err := Mkpipe(sampleStages(t)...)
	require.NoError(t, err)
	dm := sampleMatrix(t)
	want, err := pipe.Evaluate(context.Background(), dm)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*domain.Result, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = pipe.Evaluate(context.Background(), dm)
		}()
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.True(t, want.Equal(results[i]))
	}
}

func TestPipeline_String(t *testing.T) {
	scaler, err := stages.NewVectorScaler(stages.DefaultNormalizerConfig())
	require.NoError(t, err)
	topsis, err := stages.NewTOPSIS(stages.DefaultTOPSISConfig())
	require.NoError(t, err)
	pipe, err := Mkpipe(scaler, topsis)
	require.NoError(t, err)

	assert.Equal(t, "Pipeline(steps=[vectorscaler: VectorScaler(target=matrix), topsis: TOPSIS(metric=euclidean)])", pipe.String())
}
