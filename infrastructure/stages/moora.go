package stages

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ahrav/go-criteria/internal/domain"
	"github.com/ahrav/go-criteria/internal/ports"
)

var (
	_ ports.DecisionMaker  = (*RatioMOORA)(nil)
	_ ports.DecisionMethod = (*RatioMOORA)(nil)
	_ ports.DecisionMaker  = (*ReferencePointMOORA)(nil)
	_ ports.DecisionMaker  = (*FullMultiplicativeForm)(nil)
	_ ports.DecisionMaker  = (*MultiMOORA)(nil)
)

// weightedMatrix returns w_j * x_ij for every cell.
func weightedMatrix(data domain.DecisionData) *mat.Dense {
	rows, cols := data.Matrix.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(_, j int, v float64) float64 { return v * data.Weights[j] }, data.Matrix)
	return out
}

// ratioScores returns sum(w*x over MAX) - sum(w*x over MIN) per alternative.
func ratioScores(data domain.DecisionData) []float64 {
	wm := weightedMatrix(data)
	rows, _ := wm.Dims()
	scores := make([]float64, rows)
	for i := range scores {
		for j, obj := range data.Objectives {
			scores[i] += float64(obj.Value()) * wm.At(i, j)
		}
	}
	return scores
}

// referencePoint returns the best weighted value of each criterion and the
// Tchebycheff distance of every alternative to it.
func referencePoint(data domain.DecisionData) (ref, scores []float64) {
	wm := weightedMatrix(data)
	rows, cols := wm.Dims()
	ref = make([]float64, cols)
	for j := range ref {
		col := mat.Col(nil, j, wm)
		if data.Objectives[j] == domain.ObjectiveMax {
			ref[j] = floats.Max(col)
		} else {
			ref[j] = floats.Min(col)
		}
	}
	scores = make([]float64, rows)
	for i := range scores {
		row := mat.Row(nil, i, wm)
		scores[i] = floats.Distance(ref, row, math.Inf(1))
	}
	return ref, scores
}

// fmfScores returns sum(log(w*x) over MAX) - sum(log(w*x) over MIN).
func fmfScores(data domain.DecisionData) []float64 {
	wm := weightedMatrix(data)
	rows, _ := wm.Dims()
	scores := make([]float64, rows)
	for i := range scores {
		for j, obj := range data.Objectives {
			scores[i] += float64(obj.Value()) * math.Log(wm.At(i, j))
		}
	}
	return scores
}

// requirePositive rejects non-positive matrix values and weights.
func requirePositive(data domain.DecisionData) error {
	rows, cols := data.Matrix.Dims()
	for j := 0; j < cols; j++ {
		if data.Weights[j] <= 0 {
			return criterionError(j, fmt.Errorf("%w: weight %v", ErrNonPositiveValue, data.Weights[j]))
		}
		for i := 0; i < rows; i++ {
			if v := data.Matrix.At(i, j); v <= 0 {
				return criterionError(j, fmt.Errorf("%w: %v at alternative %d", ErrNonPositiveValue, v, i))
			}
		}
	}
	return nil
}

// methodResult builds the Result for a method name.
func methodResult(method string, anames []string, rank []int, extra map[string]any) (*domain.Result, error) {
	return domain.NewResult(method, anames, rank, extra)
}

// RatioMOORA ranks alternatives by the ratio system of MOORA: the sum of
// the weighted MAX criteria minus the sum of the weighted MIN criteria.
// Higher scores are better. The matrix is expected to be normalized by a
// previous step, usually a VectorScaler.
type RatioMOORA struct {
	*DecisionMakerStage
}

// NewRatioMOORA creates a RatioMOORA decision maker.
func NewRatioMOORA() *RatioMOORA {
	s := &RatioMOORA{}
	s.DecisionMakerStage = &DecisionMakerStage{stageName: stageName{name: "ratiomoora"}, method: s}
	return s
}

// ValidateData implements ports.DecisionMethod. Any finite matrix is valid.
func (s *RatioMOORA) ValidateData(domain.DecisionData) error { return nil }

// EvaluateData implements ports.DecisionMethod.
func (s *RatioMOORA) EvaluateData(data domain.DecisionData) ([]int, map[string]any, error) {
	scores := ratioScores(data)
	rank, err := domain.RankScores(scores, domain.HigherIsBetter)
	if err != nil {
		return nil, nil, err
	}
	return rank, map[string]any{"score": scores}, nil
}

// MakeResult implements ports.DecisionMethod.
func (s *RatioMOORA) MakeResult(anames []string, rank []int, extra map[string]any) (*domain.Result, error) {
	return methodResult("RatioMOORA", anames, rank, extra)
}

// String returns the stage representation.
func (s *RatioMOORA) String() string { return "RatioMOORA()" }

// ReferencePointMOORA ranks alternatives by their Tchebycheff distance to
// the reference point built from the best weighted value of every
// criterion. Lower distances are better.
type ReferencePointMOORA struct {
	*DecisionMakerStage
}

// NewReferencePointMOORA creates a ReferencePointMOORA decision maker.
func NewReferencePointMOORA() *ReferencePointMOORA {
	s := &ReferencePointMOORA{}
	s.DecisionMakerStage = &DecisionMakerStage{stageName: stageName{name: "referencepointmoora"}, method: s}
	return s
}

// ValidateData implements ports.DecisionMethod. Any finite matrix is valid.
func (s *ReferencePointMOORA) ValidateData(domain.DecisionData) error { return nil }

// EvaluateData implements ports.DecisionMethod.
func (s *ReferencePointMOORA) EvaluateData(data domain.DecisionData) ([]int, map[string]any, error) {
	ref, scores := referencePoint(data)
	rank, err := domain.RankScores(scores, domain.LowerIsBetter)
	if err != nil {
		return nil, nil, err
	}
	return rank, map[string]any{"score": scores, "reference_point": ref}, nil
}

// MakeResult implements ports.DecisionMethod.
func (s *ReferencePointMOORA) MakeResult(anames []string, rank []int, extra map[string]any) (*domain.Result, error) {
	return methodResult("ReferencePointMOORA", anames, rank, extra)
}

// String returns the stage representation.
func (s *ReferencePointMOORA) String() string { return "ReferencePointMOORA()" }

// FullMultiplicativeForm ranks alternatives by the sum of log weighted
// values of the MAX criteria minus the same sum over the MIN criteria.
// It needs strictly positive values and weights.
type FullMultiplicativeForm struct {
	*DecisionMakerStage
}

// NewFullMultiplicativeForm creates a FullMultiplicativeForm decision maker.
func NewFullMultiplicativeForm() *FullMultiplicativeForm {
	s := &FullMultiplicativeForm{}
	s.DecisionMakerStage = &DecisionMakerStage{stageName: stageName{name: "fullmultiplicativeform"}, method: s}
	return s
}

// ValidateData implements ports.DecisionMethod.
func (s *FullMultiplicativeForm) ValidateData(data domain.DecisionData) error {
	return requirePositive(data)
}

// EvaluateData implements ports.DecisionMethod.
func (s *FullMultiplicativeForm) EvaluateData(data domain.DecisionData) ([]int, map[string]any, error) {
	scores := fmfScores(data)
	rank, err := domain.RankScores(scores, domain.HigherIsBetter)
	if err != nil {
		return nil, nil, err
	}
	return rank, map[string]any{"score": scores}, nil
}

// MakeResult implements ports.DecisionMethod.
func (s *FullMultiplicativeForm) MakeResult(anames []string, rank []int, extra map[string]any) (*domain.Result, error) {
	return methodResult("FullMultiplicativeForm", anames, rank, extra)
}

// String returns the stage representation.
func (s *FullMultiplicativeForm) String() string { return "FullMultiplicativeForm()" }

// MultiMOORA combines the ratio system, the reference point and the full
// multiplicative form. Alternative a dominates b when a ranks better than
// b in at least two of the three rankings; alternatives are then ranked by
// how many others they dominate. It inherits the strictly positive input
// requirement of the multiplicative form.
type MultiMOORA struct {
	*DecisionMakerStage
}

// NewMultiMOORA creates a MultiMOORA decision maker.
func NewMultiMOORA() *MultiMOORA {
	s := &MultiMOORA{}
	s.DecisionMakerStage = &DecisionMakerStage{stageName: stageName{name: "multimoora"}, method: s}
	return s
}

// ValidateData implements ports.DecisionMethod.
func (s *MultiMOORA) ValidateData(data domain.DecisionData) error {
	return requirePositive(data)
}

// EvaluateData implements ports.DecisionMethod.
func (s *MultiMOORA) EvaluateData(data domain.DecisionData) ([]int, map[string]any, error) {
	ratioRank, err := domain.RankScores(ratioScores(data), domain.HigherIsBetter)
	if err != nil {
		return nil, nil, err
	}
	_, refScores := referencePoint(data)
	refRank, err := domain.RankScores(refScores, domain.LowerIsBetter)
	if err != nil {
		return nil, nil, err
	}
	fmfRank, err := domain.RankScores(fmfScores(data), domain.HigherIsBetter)
	if err != nil {
		return nil, nil, err
	}

	subRanks := [][]int{ratioRank, refRank, fmfRank}
	n := len(ratioRank)
	wins := make([]float64, n)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			if a == b {
				continue
			}
			better := 0
			for _, r := range subRanks {
				if r[a] < r[b] {
					better++
				}
			}
			if better*2 > len(subRanks) {
				wins[a]++
			}
		}
	}

	rank, err := domain.RankScores(wins, domain.HigherIsBetter)
	if err != nil {
		return nil, nil, err
	}
	return rank, map[string]any{
		"ratio_rank":    ratioRank,
		"refpoint_rank": refRank,
		"fmf_rank":      fmfRank,
		"score":         wins,
	}, nil
}

// MakeResult implements ports.DecisionMethod.
func (s *MultiMOORA) MakeResult(anames []string, rank []int, extra map[string]any) (*domain.Result, error) {
	return methodResult("MultiMOORA", anames, rank, extra)
}

// String returns the stage representation.
func (s *MultiMOORA) String() string { return "MultiMOORA()" }

// CreateRatioMOORAFromConfig creates a RatioMOORA from a configuration map.
func CreateRatioMOORAFromConfig(name string, params map[string]any) (ports.Stage, error) {
	if err := noParams(params); err != nil {
		return nil, err
	}
	s := NewRatioMOORA()
	s.setName(name)
	return s, nil
}

// CreateReferencePointMOORAFromConfig creates a ReferencePointMOORA from a
// configuration map.
func CreateReferencePointMOORAFromConfig(name string, params map[string]any) (ports.Stage, error) {
	if err := noParams(params); err != nil {
		return nil, err
	}
	s := NewReferencePointMOORA()
	s.setName(name)
	return s, nil
}

// CreateFullMultiplicativeFormFromConfig creates a FullMultiplicativeForm
// from a configuration map.
func CreateFullMultiplicativeFormFromConfig(name string, params map[string]any) (ports.Stage, error) {
	if err := noParams(params); err != nil {
		return nil, err
	}
	s := NewFullMultiplicativeForm()
	s.setName(name)
	return s, nil
}

// CreateMultiMOORAFromConfig creates a MultiMOORA from a configuration map.
func CreateMultiMOORAFromConfig(name string, params map[string]any) (ports.Stage, error) {
	if err := noParams(params); err != nil {
		return nil, err
	}
	s := NewMultiMOORA()
	s.setName(name)
	return s, nil
}
