package stages

import (
	"fmt"

	"github.com/ahrav/go-criteria/internal/domain"
	"github.com/ahrav/go-criteria/internal/ports"
)

var (
	_ ports.Transformer     = (*MinimizeToMaximize)(nil)
	_ ports.DataTransformer = (*MinimizeToMaximize)(nil)
)

// MinimizeToMaximize turns every MIN criterion into a MAX criterion by
// replacing each value x with 1/x. MAX criteria are left untouched.
type MinimizeToMaximize struct {
	*TransformerStage
}

// NewMinimizeToMaximize creates the objective inverter.
func NewMinimizeToMaximize() *MinimizeToMaximize {
	s := &MinimizeToMaximize{}
	s.TransformerStage = &TransformerStage{stageName: stageName{name: "minimizetomaximize"}, impl: s}
	return s
}

// TransformData implements ports.DataTransformer. A zero in a MIN column
// fails with ErrZeroDenominator naming the criterion.
func (s *MinimizeToMaximize) TransformData(data domain.DecisionData) (domain.DecisionData, error) {
	rows, _ := data.Matrix.Dims()
	if data.Dtypes == nil {
		data.Dtypes = make([]domain.DType, len(data.Objectives))
	}
	for j, obj := range data.Objectives {
		if obj != domain.ObjectiveMin {
			continue
		}
		for i := 0; i < rows; i++ {
			v := data.Matrix.At(i, j)
			if v == 0 {
				return data, criterionError(j, fmt.Errorf("%w: cannot invert zero at alternative %d", ErrZeroDenominator, i))
			}
			data.Matrix.Set(i, j, 1/v)
		}
		data.Objectives[j] = domain.ObjectiveMax
		data.Dtypes[j] = domain.DTypeFloat
	}
	return data, nil
}

// String returns the stage representation.
func (s *MinimizeToMaximize) String() string { return "MinimizeToMaximize()" }

// CreateMinimizeToMaximizeFromConfig creates a MinimizeToMaximize from a
// configuration map. The stage takes no parameters.
func CreateMinimizeToMaximizeFromConfig(name string, params map[string]any) (ports.Stage, error) {
	if err := noParams(params); err != nil {
		return nil, err
	}
	s := NewMinimizeToMaximize()
	s.setName(name)
	return s, nil
}
