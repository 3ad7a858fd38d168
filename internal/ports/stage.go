// Package ports defines the contracts between the pipeline and the stages it
// composes. Stage implementations live in the infrastructure layer and
// depend on these interfaces, never the other way around.
package ports

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ahrav/go-criteria/internal/domain"
)

// Stage is anything a pipeline can hold as a step.
type Stage interface {
	// Name returns the default step name used when a pipeline names its
	// steps automatically. It is usually the lowercased type name.
	Name() string
}

// Transformer maps a decision matrix to a new decision matrix.
// Implementations must not mutate their input and must be safe for
// concurrent use.
type Transformer interface {
	Stage

	// Transform returns a new validated matrix derived from dm.
	Transform(dm *domain.DecisionMatrix) (*domain.DecisionMatrix, error)
}

// DecisionMaker ranks the alternatives of a decision matrix.
// Implementations must be deterministic for a given input.
type DecisionMaker interface {
	Stage

	// Evaluate ranks the alternatives of dm.
	Evaluate(dm *domain.DecisionMatrix) (*domain.Result, error)
}

// DataTransformer rewrites the full decision data bundle. The bundle it
// receives is a private copy that it may modify and return.
type DataTransformer interface {
	TransformData(data domain.DecisionData) (domain.DecisionData, error)
}

// MatrixTransformer rewrites only the matrix values. The input is a private
// copy.
type MatrixTransformer interface {
	TransformMatrix(matrix *mat.Dense) (*mat.Dense, error)
}

// WeightsTransformer rewrites only the weights. The input is a private copy.
type WeightsTransformer interface {
	TransformWeights(weights []float64) ([]float64, error)
}

// MatrixWeighter derives a new weight vector from the decision data. It
// must return exactly one weight per criterion.
type MatrixWeighter interface {
	WeightMatrix(data domain.DecisionData) ([]float64, error)
}

// DecisionMethod is the three step capability every decision maker built on
// the framework template provides. The template calls ValidateData, then
// EvaluateData, then MakeResult, stopping at the first error.
type DecisionMethod interface {
	// ValidateData rejects inputs the method cannot rank.
	ValidateData(data domain.DecisionData) error

	// EvaluateData computes the ranking and the method specific extra
	// values.
	EvaluateData(data domain.DecisionData) (rank []int, extra map[string]any, err error)

	// MakeResult packages the ranking into a Result.
	MakeResult(anames []string, rank []int, extra map[string]any) (*domain.Result, error)
}
