package stages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ahrav/go-criteria/internal/domain"
	"github.com/ahrav/go-criteria/internal/ports"
)

func mustMkdm(t *testing.T, matrix any, objectives any, opts ...domain.Option) *domain.DecisionMatrix {
	t.Helper()
	dm, err := domain.Mkdm(matrix, objectives, opts...)
	require.NoError(t, err)
	return dm
}

func sampleMatrix(t *testing.T) *domain.DecisionMatrix {
	t.Helper()
	return mustMkdm(t,
		[][]int{{1, 2, 3}, {4, 5, 6}},
		[]string{"min", "max", "min"},
		domain.WithWeights([]int{1, 2, 3}),
		domain.WithAnames("first", "second"),
		domain.WithCnames("price", "quality", "weight"),
	)
}

// fortyTwoWeighter replaces every weight with 42.
type fortyTwoWeighter struct{}

func (fortyTwoWeighter) WeightMatrix(data domain.DecisionData) ([]float64, error) {
	_, cols := data.Matrix.Dims()
	w := make([]float64, cols)
	for j := range w {
		w[j] = 42
	}
	return w, nil
}

type shortWeighter struct{}

func (shortWeighter) WeightMatrix(domain.DecisionData) ([]float64, error) { return []float64{1}, nil }

// recordingMethod records the order in which the template calls it.
type recordingMethod struct {
	calls       []string
	validateErr error
}

func (m *recordingMethod) ValidateData(domain.DecisionData) error {
	m.calls = append(m.calls, "validate")
	return m.validateErr
}

func (m *recordingMethod) EvaluateData(data domain.DecisionData) ([]int, map[string]any, error) {
	m.calls = append(m.calls, "evaluate")
	rows, _ := data.Matrix.Dims()
	rank := make([]int, rows)
	for i := range rank {
		rank[i] = i + 1
	}
	return rank, map[string]any{"rows": rows}, nil
}

func (m *recordingMethod) MakeResult(anames []string, rank []int, extra map[string]any) (*domain.Result, error) {
	m.calls = append(m.calls, "result")
	return domain.NewResult("recording", anames, rank, extra)
}

// matrixOnly implements only the matrix capability.
type matrixOnly struct{ ports.UnimplementedWeightsTransformer }

func (matrixOnly) TransformMatrix(m *mat.Dense) (*mat.Dense, error) {
	m.Scale(2, m)
	return m, nil
}

type weightsOnly struct{}

func (weightsOnly) TransformWeights(w []float64) ([]float64, error) { return w, nil }

func TestWeighterStage_ReplacesOnlyWeights(t *testing.T) {
	dm := sampleMatrix(t)
	stage, err := NewWeighter("fortytwo", fortyTwoWeighter{})
	require.NoError(t, err)

	result, err := stage.Transform(dm)
	require.NoError(t, err)

	assert.Equal(t, []float64{42, 42, 42}, result.Weights())
	assert.True(t, mat.Equal(dm.Matrix(), result.Matrix()), "matrix should be preserved")
	assert.Equal(t, dm.Objectives(), result.Objectives())
	assert.Equal(t, dm.Anames(), result.Anames())
	assert.Equal(t, dm.Cnames(), result.Cnames())
	assert.Equal(t, dm.Dtypes(), result.Dtypes())
	assert.Equal(t, []float64{1, 2, 3}, dm.Weights(), "input should not be mutated")
	assert.Equal(t, "fortytwo", stage.Name())
}

func TestWeighterStage_WrongLength(t *testing.T) {
	stage, err := NewWeighter("short", shortWeighter{})
	require.NoError(t, err)

	_, err = stage.Transform(sampleMatrix(t))
	assert.ErrorIs(t, err, domain.ErrShapeMismatch)
}

func TestDecisionMakerStage_CallOrder(t *testing.T) {
	t.Run("runs validate evaluate and result in order", func(t *testing.T) {
		method := &recordingMethod{}
		stage, err := NewDecisionMaker("recording", method)
		require.NoError(t, err)

		result, err := stage.Evaluate(sampleMatrix(t))
		require.NoError(t, err)
		assert.Equal(t, []string{"validate", "evaluate", "result"}, method.calls)
		assert.Equal(t, []int{1, 2}, result.Rank())
		assert.Equal(t, []string{"first", "second"}, result.Anames())
		rows, ok := result.ExtraValue("rows")
		require.True(t, ok)
		assert.Equal(t, 2, rows)
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		boom := errors.New("boom")
		method := &recordingMethod{validateErr: boom}
		stage, err := NewDecisionMaker("recording", method)
		require.NoError(t, err)

		_, err = stage.Evaluate(sampleMatrix(t))
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"validate"}, method.calls)

		var stageErr *ports.StageError
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, "recording", stageErr.Stage)
		assert.Equal(t, "ValidateData", stageErr.Operation)
	})
}

func TestAdaptersRejectMissingInput(t *testing.T) {
	weighter, err := NewWeighter("w", fortyTwoWeighter{})
	require.NoError(t, err)
	_, err = weighter.Transform(nil)
	assert.ErrorIs(t, err, domain.ErrMissingArgument)

	maker, err := NewDecisionMaker("d", &recordingMethod{})
	require.NoError(t, err)
	_, err = maker.Evaluate(nil)
	assert.ErrorIs(t, err, domain.ErrMissingArgument)
}

func TestAdaptersRejectBadConstruction(t *testing.T) {
	_, err := NewWeighter("", fortyTwoWeighter{})
	assert.ErrorIs(t, err, ErrEmptyStageName)

	_, err = NewWeighter("w", nil)
	assert.ErrorIs(t, err, ports.ErrContractViolation)

	_, err = NewDecisionMaker("d", nil)
	assert.ErrorIs(t, err, ports.ErrContractViolation)

	_, err = NewTransformer("t", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidType)
}

func TestMatrixAndWeightTransformer_Targets(t *testing.T) {
	tests := []struct {
		name    string
		target  ports.Target
		impl    any
		wantErr error
	}{
		{"matrix target with matrix capability", ports.TargetMatrix, matrixOnly{}, nil},
		{"weights target with weights capability", ports.TargetWeights, weightsOnly{}, nil},
		{"matrix target without matrix capability", ports.TargetMatrix, weightsOnly{}, ports.ErrContractViolation},
		{"both target without matrix capability", ports.TargetBoth, weightsOnly{}, ports.ErrContractViolation},
		{"invalid target", "mtx", matrixOnly{}, ports.ErrInvalidTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage, err := NewMatrixAndWeightTransformer("custom", tt.target, tt.impl)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, stage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, stage.Target())
		})
	}

	t.Run("invalid target is a value error", func(t *testing.T) {
		_, err := NewMatrixAndWeightTransformer("custom", "mtx", matrixOnly{})
		assert.ErrorIs(t, err, domain.ErrInvalidValue)
	})

	t.Run("missing capability is a type error", func(t *testing.T) {
		_, err := NewMatrixAndWeightTransformer("custom", ports.TargetWeights, struct{}{})
		assert.ErrorIs(t, err, domain.ErrInvalidType)
	})
}

func TestMatrixAndWeightTransformer_NotImplementedStub(t *testing.T) {
	// matrixOnly embeds the weights stub, so targeting both compiles but
	// fails once the weights are reached.
	stage, err := NewMatrixAndWeightTransformer("custom", ports.TargetBoth, matrixOnly{})
	require.NoError(t, err)

	_, err = stage.Transform(sampleMatrix(t))
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
}

func TestMatrixAndWeightTransformer_PreservesUntouchedFields(t *testing.T) {
	dm := sampleMatrix(t)

	t.Run("matrix target", func(t *testing.T) {
		stage, err := NewMatrixAndWeightTransformer("double", ports.TargetMatrix, matrixOnly{})
		require.NoError(t, err)

		out, err := stage.Transform(dm)
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{2, 4, 6}, {8, 10, 12}}, out.RawMatrix())
		assert.Equal(t, dm.Weights(), out.Weights())
		assert.Equal(t, []domain.DType{domain.DTypeFloat, domain.DTypeFloat, domain.DTypeFloat}, out.Dtypes())
		assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, dm.RawMatrix(), "input should not be mutated")
	})

	t.Run("weights target keeps dtypes", func(t *testing.T) {
		stage, err := NewMatrixAndWeightTransformer("same", ports.TargetWeights, weightsOnly{})
		require.NoError(t, err)

		out, err := stage.Transform(dm)
		require.NoError(t, err)
		assert.Equal(t, dm.Dtypes(), out.Dtypes())
		assert.True(t, dm.Equal(out))
	})
}

func TestCriterionErrorNamesTheCriterion(t *testing.T) {
	dm := mustMkdm(t, [][]float64{{1, 0}, {2, 0}}, []string{"max", "max"}, domain.WithCnames("cost", "risk"))
	stage, err := NewSumNormalizer(DefaultNormalizerConfig())
	require.NoError(t, err)

	_, err = stage.Transform(dm)
	require.ErrorIs(t, err, ErrZeroDenominator)

	var ce *CriterionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Index)
	assert.Equal(t, "risk", ce.Name)
	assert.Contains(t, err.Error(), `criterion "risk"`)
}

type stubWeighter struct{ ports.UnimplementedMatrixWeighter }

type stubDataTransformer struct{ ports.UnimplementedDataTransformer }

// validatingMethod overrides only ValidateData.
type validatingMethod struct{ ports.UnimplementedDecisionMethod }

func (validatingMethod) ValidateData(domain.DecisionData) error { return nil }

// rankingMethod overrides everything but MakeResult.
type rankingMethod struct{ validatingMethod }

func (rankingMethod) EvaluateData(data domain.DecisionData) ([]int, map[string]any, error) {
	rows, _ := data.Matrix.Dims()
	rank := make([]int, rows)
	for i := range rank {
		rank[i] = i + 1
	}
	return rank, nil, nil
}

// weightsWithMatrixStub implements weights and embeds the matrix stub.
type weightsWithMatrixStub struct {
	ports.UnimplementedMatrixTransformer
	weightsOnly
}

func TestAdapters_NotImplemented(t *testing.T) {
	tests := []struct {
		name   string
		run    func(t *testing.T) (any, error)
		wantOp string
	}{
		{
			name: "weighter stub",
			run: func(t *testing.T) (any, error) {
				stage, err := NewWeighter("stub", stubWeighter{})
				require.NoError(t, err)
				return stage.Transform(sampleMatrix(t))
			},
			wantOp: "WeightMatrix",
		},
		{
			name: "data transformer stub",
			run: func(t *testing.T) (any, error) {
				stage, err := NewTransformer("stub", stubDataTransformer{})
				require.NoError(t, err)
				return stage.Transform(sampleMatrix(t))
			},
			wantOp: "TransformData",
		},
		{
			name: "decision method validate stub",
			run: func(t *testing.T) (any, error) {
				stage, err := NewDecisionMaker("stub", ports.UnimplementedDecisionMethod{})
				require.NoError(t, err)
				return stage.Evaluate(sampleMatrix(t))
			},
			wantOp: "ValidateData",
		},
		{
			name: "decision method evaluate stub",
			run: func(t *testing.T) (any, error) {
				stage, err := NewDecisionMaker("stub", validatingMethod{})
				require.NoError(t, err)
				return stage.Evaluate(sampleMatrix(t))
			},
			wantOp: "EvaluateData",
		},
		{
			name: "decision method result stub",
			run: func(t *testing.T) (any, error) {
				stage, err := NewDecisionMaker("stub", rankingMethod{})
				require.NoError(t, err)
				return stage.Evaluate(sampleMatrix(t))
			},
			wantOp: "MakeResult",
		},
		{
			name: "matrix target stub",
			run: func(t *testing.T) (any, error) {
				stage, err := NewMatrixAndWeightTransformer("stub", ports.TargetMatrix, weightsWithMatrixStub{})
				require.NoError(t, err)
				return stage.Transform(sampleMatrix(t))
			},
			wantOp: "TransformMatrix",
		},
		{
			name: "both target stops at the matrix stub",
			run: func(t *testing.T) (any, error) {
				stage, err := NewMatrixAndWeightTransformer("stub", ports.TargetBoth, weightsWithMatrixStub{})
				require.NoError(t, err)
				return stage.Transform(sampleMatrix(t))
			},
			wantOp: "TransformMatrix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.run(t)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrNotImplemented)
			assert.Nil(t, out, "no partial result on failure")

			var stageErr *ports.StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, "stub", stageErr.Stage)
			assert.Equal(t, tt.wantOp, stageErr.Operation)

			// The stub reports which hook is missing.
			var inner *ports.StageError
			require.ErrorAs(t, stageErr.Err, &inner)
			assert.Equal(t, tt.wantOp, inner.Operation)
		})
	}
}
