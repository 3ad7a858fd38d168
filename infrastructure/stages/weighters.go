package stages

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ahrav/go-criteria/internal/domain"
	"github.com/ahrav/go-criteria/internal/ports"
)

var (
	_ ports.Transformer    = (*EqualWeighter)(nil)
	_ ports.MatrixWeighter = (*EqualWeighter)(nil)
	_ ports.Transformer    = (*StdWeighter)(nil)
	_ ports.Transformer    = (*Critic)(nil)
)

// EqualWeighterConfig controls EqualWeighter.
type EqualWeighterConfig struct {
	// BaseValue is split evenly across the criteria.
	BaseValue float64 `yaml:"base_value" json:"base_value" validate:"gt=0"`
}

// DefaultEqualWeighterConfig returns weights that sum to 1.
func DefaultEqualWeighterConfig() EqualWeighterConfig {
	return EqualWeighterConfig{BaseValue: 1}
}

// EqualWeighter assigns base_value / m to each of the m criteria.
type EqualWeighter struct {
	*WeighterStage
	config EqualWeighterConfig
}

// NewEqualWeighter creates an EqualWeighter.
func NewEqualWeighter(config EqualWeighterConfig) (*EqualWeighter, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	s := &EqualWeighter{config: config}
	s.WeighterStage = &WeighterStage{stageName: stageName{name: "equalweighter"}, impl: s}
	return s, nil
}

// WeightMatrix implements ports.MatrixWeighter.
func (s *EqualWeighter) WeightMatrix(data domain.DecisionData) ([]float64, error) {
	_, cols := data.Matrix.Dims()
	weights := make([]float64, cols)
	for j := range weights {
		weights[j] = s.config.BaseValue / float64(cols)
	}
	return weights, nil
}

// String returns the stage representation.
func (s *EqualWeighter) String() string {
	return fmt.Sprintf("EqualWeighter(base_value=%g)", s.config.BaseValue)
}

// CreateEqualWeighterFromConfig creates an EqualWeighter from a
// configuration map.
func CreateEqualWeighterFromConfig(name string, params map[string]any) (ports.Stage, error) {
	cfg := DefaultEqualWeighterConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	s, err := NewEqualWeighter(cfg)
	if err != nil {
		return nil, err
	}
	s.setName(name)
	return s, nil
}

// StdWeighter weights each criterion by the population standard deviation
// of its values, normalized so the weights sum to 1.
type StdWeighter struct {
	*WeighterStage
}

// NewStdWeighter creates a StdWeighter.
func NewStdWeighter() *StdWeighter {
	s := &StdWeighter{}
	s.WeighterStage = &WeighterStage{stageName: stageName{name: "stdweighter"}, impl: s}
	return s
}

// WeightMatrix implements ports.MatrixWeighter. A matrix whose criteria are
// all constant has no spread to weight by and fails.
func (s *StdWeighter) WeightMatrix(data domain.DecisionData) ([]float64, error) {
	_, cols := data.Matrix.Dims()
	weights := make([]float64, cols)
	for j := range weights {
		_, weights[j] = stat.PopMeanStdDev(mat.Col(nil, j, data.Matrix), nil)
	}
	return normalizeSum(weights)
}

// String returns the stage representation.
func (s *StdWeighter) String() string { return "StdWeighter()" }

// CreateStdWeighterFromConfig creates a StdWeighter from a configuration
// map. The stage takes no parameters.
func CreateStdWeighterFromConfig(name string, params map[string]any) (ports.Stage, error) {
	if err := noParams(params); err != nil {
		return nil, err
	}
	s := NewStdWeighter()
	s.setName(name)
	return s, nil
}

func normalizeSum(weights []float64) ([]float64, error) {
	total := floats.Sum(weights)
	if total == 0 {
		return nil, fmt.Errorf("weights: %w: every criterion is constant", ErrConstantCriterion)
	}
	divideBy(weights, total)
	return weights, nil
}

// Correlation methods supported by Critic.
const (
	CorrelationPearson  = "pearson"
	CorrelationSpearman = "spearman"
)

// CriticConfig controls Critic.
type CriticConfig struct {
	// Correlation is the correlation coefficient between criteria:
	// "pearson" or "spearman".
	Correlation string `yaml:"correlation" json:"correlation" validate:"required,oneof=pearson spearman"`

	// Scale maps every criterion onto [0, 1] between its anti-ideal and
	// ideal value before computing the weights.
	Scale bool `yaml:"scale" json:"scale"`
}

// DefaultCriticConfig returns the Pearson, scaled configuration.
func DefaultCriticConfig() CriticConfig {
	return CriticConfig{Correlation: CorrelationPearson, Scale: true}
}

// Critic implements the CRITIC weighting method (CRiteria Importance
// Through Intercriteria Correlation). The weight of criterion j is
//
//	w_j = std_j * sum_k (1 - corr(j, k))
//
// normalized so the weights sum to 1. A constant criterion has no defined
// correlation and fails with ErrConstantCriterion. A single criterion has
// nothing to conflict with and fails with ErrTooFewCriteria.
type Critic struct {
	*WeighterStage
	config CriticConfig
}

// NewCritic creates a Critic weighter.
func NewCritic(config CriticConfig) (*Critic, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	s := &Critic{config: config}
	s.WeighterStage = &WeighterStage{stageName: stageName{name: "critic"}, impl: s}
	return s, nil
}

// WeightMatrix implements ports.MatrixWeighter.
func (s *Critic) WeightMatrix(data domain.DecisionData) ([]float64, error) {
	_, cols := data.Matrix.Dims()
	if cols == 1 {
		return nil, fmt.Errorf("weights: %w: critic needs at least two criteria, got 1", ErrTooFewCriteria)
	}

	columns := make([][]float64, cols)
	for j := range columns {
		col := mat.Col(nil, j, data.Matrix)
		lo, hi := floats.Min(col), floats.Max(col)
		if lo == hi {
			return nil, criterionError(j, ErrConstantCriterion)
		}
		if s.config.Scale {
			scaleByIdeal(col, data.Objectives[j], lo, hi)
		}
		columns[j] = col
	}

	corrInput := columns
	if s.config.Correlation == CorrelationSpearman {
		corrInput = make([][]float64, cols)
		for j, col := range columns {
			corrInput[j] = domain.AverageRanks(col)
		}
	}

	weights := make([]float64, cols)
	for j := range columns {
		_, std := stat.PopMeanStdDev(columns[j], nil)
		var conflict float64
		for k := range columns {
			conflict += 1 - stat.Correlation(corrInput[j], corrInput[k], nil)
		}
		weights[j] = std * conflict
	}
	return normalizeSum(weights)
}

// scaleByIdeal maps col onto [0, 1] where 1 is the ideal value of the
// criterion and 0 the anti-ideal.
func scaleByIdeal(col []float64, obj domain.Objective, lo, hi float64) {
	ideal, anti := hi, lo
	if obj == domain.ObjectiveMin {
		ideal, anti = lo, hi
	}
	for i, v := range col {
		col[i] = (v - anti) / (ideal - anti)
	}
}

// String returns the stage representation.
func (s *Critic) String() string {
	return fmt.Sprintf("Critic(correlation=%s, scale=%t)", s.config.Correlation, s.config.Scale)
}

// CreateCriticFromConfig creates a Critic from a configuration map.
func CreateCriticFromConfig(name string, params map[string]any) (ports.Stage, error) {
	cfg := DefaultCriticConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	s, err := NewCritic(cfg)
	if err != nil {
		return nil, err
	}
	s.setName(name)
	return s, nil
}
