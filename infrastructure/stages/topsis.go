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
	_ ports.DecisionMaker = (*TOPSIS)(nil)
	_ ports.DecisionMaker = (*WeightedSumModel)(nil)
)

// Distance metrics supported by TOPSIS.
const (
	MetricEuclidean = "euclidean"
	MetricCityblock = "cityblock"
	MetricChebyshev = "chebyshev"
)

var metricNorms = map[string]float64{
	MetricEuclidean: 2,
	MetricCityblock: 1,
	MetricChebyshev: math.Inf(1),
}

// TOPSISConfig controls TOPSIS.
type TOPSISConfig struct {
	// Metric is the distance used between alternatives and the ideal
	// points: "euclidean", "cityblock" or "chebyshev".
	Metric string `yaml:"metric" json:"metric" validate:"required,oneof=euclidean cityblock chebyshev"`
}

// DefaultTOPSISConfig returns the euclidean configuration.
func DefaultTOPSISConfig() TOPSISConfig {
	return TOPSISConfig{Metric: MetricEuclidean}
}

// TOPSIS ranks alternatives by their relative closeness to the ideal
// solution: d- / (d+ + d-), where d+ and d- are the distances of the
// weighted alternative to the ideal and anti-ideal points. Higher
// similarity is better.
type TOPSIS struct {
	*DecisionMakerStage
	config TOPSISConfig
}

// NewTOPSIS creates a TOPSIS decision maker.
func NewTOPSIS(config TOPSISConfig) (*TOPSIS, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	s := &TOPSIS{config: config}
	s.DecisionMakerStage = &DecisionMakerStage{stageName: stageName{name: "topsis"}, method: s}
	return s, nil
}

// ValidateData implements ports.DecisionMethod. A matrix whose criteria are
// all constant has identical ideal and anti-ideal points and is rejected,
// as is one whose only varying criteria carry zero weight.
func (s *TOPSIS) ValidateData(data domain.DecisionData) error {
	_, cols := data.Matrix.Dims()
	varying := false
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, data.Matrix)
		if floats.Min(col) == floats.Max(col) {
			continue
		}
		if data.Weights[j] != 0 {
			return nil
		}
		varying = true
	}
	if varying {
		return fmt.Errorf("%w: every varying criterion has zero weight, ideal and anti-ideal coincide",
			domain.ErrInvalidWeight)
	}
	return fmt.Errorf("%w: every criterion is constant, ideal and anti-ideal coincide", ErrConstantCriterion)
}

// EvaluateData implements ports.DecisionMethod.
func (s *TOPSIS) EvaluateData(data domain.DecisionData) ([]int, map[string]any, error) {
	wm := weightedMatrix(data)
	rows, cols := wm.Dims()

	ideal := make([]float64, cols)
	anti := make([]float64, cols)
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, wm)
		lo, hi := floats.Min(col), floats.Max(col)
		if data.Objectives[j] == domain.ObjectiveMax {
			ideal[j], anti[j] = hi, lo
		} else {
			ideal[j], anti[j] = lo, hi
		}
	}

	norm := metricNorms[s.config.Metric]
	similarity := make([]float64, rows)
	for i := 0; i < rows; i++ {
		row := mat.Row(nil, i, wm)
		dIdeal := floats.Distance(row, ideal, norm)
		dAnti := floats.Distance(row, anti, norm)
		similarity[i] = dAnti / (dIdeal + dAnti)
	}

	rank, err := domain.RankScores(similarity, domain.HigherIsBetter)
	if err != nil {
		return nil, nil, err
	}
	return rank, map[string]any{
		"ideal":      ideal,
		"anti_ideal": anti,
		"similarity": similarity,
	}, nil
}

// MakeResult implements ports.DecisionMethod.
func (s *TOPSIS) MakeResult(anames []string, rank []int, extra map[string]any) (*domain.Result, error) {
	return methodResult("TOPSIS", anames, rank, extra)
}

// String returns the stage representation.
func (s *TOPSIS) String() string { return fmt.Sprintf("TOPSIS(metric=%s)", s.config.Metric) }

// CreateTOPSISFromConfig creates a TOPSIS from a configuration map.
func CreateTOPSISFromConfig(name string, params map[string]any) (ports.Stage, error) {
	cfg := DefaultTOPSISConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	s, err := NewTOPSIS(cfg)
	if err != nil {
		return nil, err
	}
	s.setName(name)
	return s, nil
}

// WeightedSumModel ranks alternatives by sum(w*x). It only accepts MAX
// criteria with non-negative values; apply MinimizeToMaximize first when
// the matrix has MIN criteria.
type WeightedSumModel struct {
	*DecisionMakerStage
}

// NewWeightedSumModel creates a WeightedSumModel decision maker.
func NewWeightedSumModel() *WeightedSumModel {
	s := &WeightedSumModel{}
	s.DecisionMakerStage = &DecisionMakerStage{stageName: stageName{name: "weightedsummodel"}, method: s}
	return s
}

// ValidateData implements ports.DecisionMethod.
func (s *WeightedSumModel) ValidateData(data domain.DecisionData) error {
	rows, cols := data.Matrix.Dims()
	for j := 0; j < cols; j++ {
		if data.Objectives[j] != domain.ObjectiveMax {
			return criterionError(j, fmt.Errorf("%w: %s", ErrObjectiveNotSupported, data.Objectives[j]))
		}
		for i := 0; i < rows; i++ {
			if v := data.Matrix.At(i, j); v < 0 {
				return criterionError(j, fmt.Errorf("%w: %v at alternative %d", ErrNegativeValue, v, i))
			}
		}
	}
	return nil
}

// EvaluateData implements ports.DecisionMethod.
func (s *WeightedSumModel) EvaluateData(data domain.DecisionData) ([]int, map[string]any, error) {
	scores := ratioScores(data)
	rank, err := domain.RankScores(scores, domain.HigherIsBetter)
	if err != nil {
		return nil, nil, err
	}
	return rank, map[string]any{"score": scores}, nil
}

// MakeResult implements ports.DecisionMethod.
func (s *WeightedSumModel) MakeResult(anames []string, rank []int, extra map[string]any) (*domain.Result, error) {
	return methodResult("WeightedSumModel", anames, rank, extra)
}

// String returns the stage representation.
func (s *WeightedSumModel) String() string { return "WeightedSumModel()" }

// CreateWeightedSumModelFromConfig creates a WeightedSumModel from a
// configuration map.
func CreateWeightedSumModelFromConfig(name string, params map[string]any) (ports.Stage, error) {
	if err := noParams(params); err != nil {
		return nil, err
	}
	s := NewWeightedSumModel()
	s.setName(name)
	return s, nil
}
