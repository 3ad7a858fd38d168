package ports

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ahrav/go-criteria/internal/domain"
)

// The Unimplemented types are embeddable placeholders. A stage that embeds
// one satisfies the capability interface but fails at call time with
// ErrNotImplemented until it overrides the method.

var (
	_ DataTransformer    = UnimplementedDataTransformer{}
	_ MatrixTransformer  = UnimplementedMatrixTransformer{}
	_ WeightsTransformer = UnimplementedWeightsTransformer{}
	_ MatrixWeighter     = UnimplementedMatrixWeighter{}
	_ DecisionMethod     = UnimplementedDecisionMethod{}
)

// UnimplementedDataTransformer is an embeddable DataTransformer stub.
type UnimplementedDataTransformer struct{}

// TransformData always fails with ErrNotImplemented.
func (UnimplementedDataTransformer) TransformData(domain.DecisionData) (domain.DecisionData, error) {
	return domain.DecisionData{}, notImplemented("TransformData")
}

// UnimplementedMatrixTransformer is an embeddable MatrixTransformer stub.
type UnimplementedMatrixTransformer struct{}

// TransformMatrix always fails with ErrNotImplemented.
func (UnimplementedMatrixTransformer) TransformMatrix(*mat.Dense) (*mat.Dense, error) {
	return nil, notImplemented("TransformMatrix")
}

// UnimplementedWeightsTransformer is an embeddable WeightsTransformer stub.
type UnimplementedWeightsTransformer struct{}

// TransformWeights always fails with ErrNotImplemented.
func (UnimplementedWeightsTransformer) TransformWeights([]float64) ([]float64, error) {
	return nil, notImplemented("TransformWeights")
}

// UnimplementedMatrixWeighter is an embeddable MatrixWeighter stub.
type UnimplementedMatrixWeighter struct{}

// WeightMatrix always fails with ErrNotImplemented.
func (UnimplementedMatrixWeighter) WeightMatrix(domain.DecisionData) ([]float64, error) {
	return nil, notImplemented("WeightMatrix")
}

// UnimplementedDecisionMethod is an embeddable DecisionMethod stub.
type UnimplementedDecisionMethod struct{}

// ValidateData always fails with ErrNotImplemented.
func (UnimplementedDecisionMethod) ValidateData(domain.DecisionData) error {
	return notImplemented("ValidateData")
}

// EvaluateData always fails with ErrNotImplemented.
func (UnimplementedDecisionMethod) EvaluateData(domain.DecisionData) ([]int, map[string]any, error) {
	return nil, nil, notImplemented("EvaluateData")
}

// MakeResult always fails with ErrNotImplemented.
func (UnimplementedDecisionMethod) MakeResult([]string, []int, map[string]any) (*domain.Result, error) {
	return nil, notImplemented("MakeResult")
}

func notImplemented(operation string) error {
	return &StageError{Operation: operation, Err: domain.ErrNotImplemented}
}
