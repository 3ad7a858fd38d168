package stages

import (
	"fmt"

	"github.com/ahrav/go-criteria/internal/domain"
	"github.com/ahrav/go-criteria/internal/ports"
)

var (
	_ ports.Transformer   = (*TransformerStage)(nil)
	_ ports.Transformer   = (*MatrixAndWeightTransformer)(nil)
	_ ports.Transformer   = (*WeighterStage)(nil)
	_ ports.DecisionMaker = (*DecisionMakerStage)(nil)
)

// stageName holds the name every adapter reports through Name.
type stageName struct{ name string }

// Name returns the default step name of the stage.
func (s *stageName) Name() string { return s.name }

// setName replaces the stage name when name is non-empty. Factories call it
// before handing the stage out, never afterwards.
func (s *stageName) setName(name string) {
	if name != "" {
		s.name = name
	}
}

func newStageName(name string) (stageName, error) {
	if name == "" {
		return stageName{}, ErrEmptyStageName
	}
	return stageName{name: name}, nil
}

func requireMatrix(dm *domain.DecisionMatrix) error {
	if dm == nil {
		return &domain.ArgumentError{Argument: "dm", Err: domain.ErrMissingArgument}
	}
	return nil
}

// TransformerStage turns a DataTransformer into a ports.Transformer. It
// hands the capability a private copy of the data and validates whatever
// comes back by rebuilding a DecisionMatrix from it.
type TransformerStage struct {
	stageName
	impl ports.DataTransformer
}

// NewTransformer wraps impl as a Transformer named name.
func NewTransformer(name string, impl ports.DataTransformer) (*TransformerStage, error) {
	if impl == nil {
		return nil, fmt.Errorf("%w: transformer %q has no implementation", ports.ErrContractViolation, name)
	}
	n, err := newStageName(name)
	if err != nil {
		return nil, err
	}
	return &TransformerStage{stageName: n, impl: impl}, nil
}

// Transform implements ports.Transformer.
func (s *TransformerStage) Transform(dm *domain.DecisionMatrix) (*domain.DecisionMatrix, error) {
	if err := requireMatrix(dm); err != nil {
		return nil, err
	}
	cnames := dm.Cnames()
	data, err := s.impl.TransformData(dm.Data())
	if err != nil {
		return nil, ports.NewStageError(s.name, "TransformData", nameCriterion(err, cnames))
	}
	out, err := domain.FromData(data)
	if err != nil {
		return nil, ports.NewStageError(s.name, "TransformData", err)
	}
	return out, nil
}

// MatrixAndWeightTransformer dispatches to a matrix and/or weights
// capability depending on its target. Fields it does not rewrite are
// preserved; a rewritten matrix is always tagged as floating point.
type MatrixAndWeightTransformer struct {
	stageName
	target  ports.Target
	matrix  ports.MatrixTransformer
	weights ports.WeightsTransformer
}

// NewMatrixAndWeightTransformer wraps impl as a Transformer named name.
//
// target must be one of matrix, weights or both. impl must implement
// ports.MatrixTransformer when the target includes the matrix and
// ports.WeightsTransformer when it includes the weights; a missing
// capability fails with ports.ErrContractViolation before any data is
// seen.
func NewMatrixAndWeightTransformer(name string, target ports.Target, impl any) (*MatrixAndWeightTransformer, error) {
	t, err := ports.ParseTarget(string(target))
	if err != nil {
		return nil, err
	}
	n, err := newStageName(name)
	if err != nil {
		return nil, err
	}

	s := &MatrixAndWeightTransformer{stageName: n, target: t}
	if t.IncludesMatrix() {
		mt, ok := impl.(ports.MatrixTransformer)
		if !ok {
			return nil, fmt.Errorf("%w: %T does not implement TransformMatrix required by target %q",
				ports.ErrContractViolation, impl, t)
		}
		s.matrix = mt
	}
	if t.IncludesWeights() {
		wt, ok := impl.(ports.WeightsTransformer)
		if !ok {
			return nil, fmt.Errorf("%w: %T does not implement TransformWeights required by target %q",
				ports.ErrContractViolation, impl, t)
		}
		s.weights = wt
	}
	return s, nil
}

// Target returns the part of the matrix the stage rewrites.
func (s *MatrixAndWeightTransformer) Target() ports.Target { return s.target }

// Transform implements ports.Transformer.
func (s *MatrixAndWeightTransformer) Transform(dm *domain.DecisionMatrix) (*domain.DecisionMatrix, error) {
	if err := requireMatrix(dm); err != nil {
		return nil, err
	}
	data := dm.Data()

	if s.matrix != nil {
		m, err := s.matrix.TransformMatrix(data.Matrix)
		if err != nil {
			return nil, ports.NewStageError(s.name, "TransformMatrix", nameCriterion(err, data.Cnames))
		}
		data.Matrix = m
		data.Dtypes = make([]domain.DType, len(data.Dtypes))
		for j := range data.Dtypes {
			data.Dtypes[j] = domain.DTypeFloat
		}
	}
	if s.weights != nil {
		w, err := s.weights.TransformWeights(data.Weights)
		if err != nil {
			return nil, ports.NewStageError(s.name, "TransformWeights", err)
		}
		data.Weights = w
	}

	out, err := domain.FromData(data)
	if err != nil {
		return nil, ports.NewStageError(s.name, "Transform", err)
	}
	return out, nil
}

// WeighterStage turns a MatrixWeighter into a Transformer that replaces the
// weights and keeps every other field.
type WeighterStage struct {
	stageName
	impl ports.MatrixWeighter
}

// NewWeighter wraps impl as a Transformer named name.
func NewWeighter(name string, impl ports.MatrixWeighter) (*WeighterStage, error) {
	if impl == nil {
		return nil, fmt.Errorf("%w: weighter %q has no implementation", ports.ErrContractViolation, name)
	}
	n, err := newStageName(name)
	if err != nil {
		return nil, err
	}
	return &WeighterStage{stageName: n, impl: impl}, nil
}

// Transform implements ports.Transformer.
func (s *WeighterStage) Transform(dm *domain.DecisionMatrix) (*domain.DecisionMatrix, error) {
	if err := requireMatrix(dm); err != nil {
		return nil, err
	}
	data := dm.Data()
	weights, err := s.impl.WeightMatrix(dm.Data())
	if err != nil {
		return nil, ports.NewStageError(s.name, "WeightMatrix", nameCriterion(err, data.Cnames))
	}
	if len(weights) != len(data.Weights) {
		return nil, ports.NewStageError(s.name, "WeightMatrix", domain.NewArgumentError("weights",
			domain.ErrShapeMismatch, "%d weights for %d criteria", len(weights), len(data.Weights)))
	}
	data.Weights = weights

	out, err := domain.FromData(data)
	if err != nil {
		return nil, ports.NewStageError(s.name, "WeightMatrix", err)
	}
	return out, nil
}

// DecisionMakerStage runs a DecisionMethod in its fixed order:
// ValidateData, EvaluateData, MakeResult.
type DecisionMakerStage struct {
	stageName
	method ports.DecisionMethod
}

// NewDecisionMaker wraps method as a DecisionMaker named name.
func NewDecisionMaker(name string, method ports.DecisionMethod) (*DecisionMakerStage, error) {
	if method == nil {
		return nil, fmt.Errorf("%w: decision maker %q has no implementation", ports.ErrContractViolation, name)
	}
	n, err := newStageName(name)
	if err != nil {
		return nil, err
	}
	return &DecisionMakerStage{stageName: n, method: method}, nil
}

// Evaluate implements ports.DecisionMaker.
func (s *DecisionMakerStage) Evaluate(dm *domain.DecisionMatrix) (*domain.Result, error) {
	if err := requireMatrix(dm); err != nil {
		return nil, err
	}
	data := dm.Data()

	if err := s.method.ValidateData(data); err != nil {
		return nil, ports.NewStageError(s.name, "ValidateData", nameCriterion(err, data.Cnames))
	}
	rank, extra, err := s.method.EvaluateData(data)
	if err != nil {
		return nil, ports.NewStageError(s.name, "EvaluateData", nameCriterion(err, data.Cnames))
	}
	result, err := s.method.MakeResult(data.Anames, rank, extra)
	if err != nil {
		return nil, ports.NewStageError(s.name, "MakeResult", err)
	}
	return result, nil
}
