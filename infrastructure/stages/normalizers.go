package stages

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ahrav/go-criteria/internal/ports"
)

var (
	_ ports.Transformer        = (*SumNormalizer)(nil)
	_ ports.MatrixTransformer  = (*SumNormalizer)(nil)
	_ ports.WeightsTransformer = (*SumNormalizer)(nil)
	_ ports.Transformer        = (*MaxNormalizer)(nil)
	_ ports.Transformer        = (*VectorScaler)(nil)
)

// NormalizerConfig selects what a ratio normalizer rewrites.
type NormalizerConfig struct {
	// Target is the part of the decision matrix to normalize: "matrix",
	// "weights" or "both".
	Target ports.Target `yaml:"target" json:"target" validate:"required"`
}

// DefaultNormalizerConfig returns a NormalizerConfig targeting the matrix.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{Target: ports.TargetMatrix}
}

// divisorFunc returns the value a vector is divided by.
type divisorFunc func(values []float64) float64

// divideColumns divides every column of m by its divisor in place.
func divideColumns(m *mat.Dense, divisor divisorFunc) (*mat.Dense, error) {
	_, cols := m.Dims()
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, m)
		d := divisor(col)
		if d == 0 {
			return nil, criterionError(j, ErrZeroDenominator)
		}
		divideBy(col, d)
		m.SetCol(j, col)
	}
	return m, nil
}

// divideVector divides weights by their divisor.
func divideVector(weights []float64, divisor divisorFunc) ([]float64, error) {
	d := divisor(weights)
	if d == 0 {
		return nil, fmt.Errorf("weights: %w", ErrZeroDenominator)
	}
	divideBy(weights, d)
	return weights, nil
}

func divideBy(values []float64, d float64) {
	for i := range values {
		values[i] /= d
	}
}

func l2Norm(values []float64) float64 { return floats.Norm(values, 2) }

func newNormalizerBase(defaultName string, cfg NormalizerConfig, impl any) (*MatrixAndWeightTransformer, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return NewMatrixAndWeightTransformer(defaultName, cfg.Target, impl)
}

// SumNormalizer divides every value by the total of its criterion, or each
// weight by the total of the weights.
type SumNormalizer struct {
	*MatrixAndWeightTransformer
	config NormalizerConfig
}

// NewSumNormalizer creates a SumNormalizer.
func NewSumNormalizer(config NormalizerConfig) (*SumNormalizer, error) {
	s := &SumNormalizer{config: config}
	base, err := newNormalizerBase("sumnormalizer", config, s)
	if err != nil {
		return nil, err
	}
	s.MatrixAndWeightTransformer = base
	return s, nil
}

// TransformMatrix implements ports.MatrixTransformer.
func (s *SumNormalizer) TransformMatrix(m *mat.Dense) (*mat.Dense, error) {
	return divideColumns(m, floats.Sum)
}

// TransformWeights implements ports.WeightsTransformer.
func (s *SumNormalizer) TransformWeights(w []float64) ([]float64, error) {
	return divideVector(w, floats.Sum)
}

// String returns the stage representation.
func (s *SumNormalizer) String() string { return fmt.Sprintf("SumNormalizer(target=%s)", s.config.Target) }

// CreateSumNormalizerFromConfig creates a SumNormalizer from a
// configuration map.
func CreateSumNormalizerFromConfig(name string, params map[string]any) (ports.Stage, error) {
	cfg := DefaultNormalizerConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	s, err := NewSumNormalizer(cfg)
	if err != nil {
		return nil, err
	}
	s.setName(name)
	return s, nil
}

// MaxNormalizer divides every value by the maximum of its criterion, or
// each weight by the largest weight.
type MaxNormalizer struct {
	*MatrixAndWeightTransformer
	config NormalizerConfig
}

// NewMaxNormalizer creates a MaxNormalizer.
func NewMaxNormalizer(config NormalizerConfig) (*MaxNormalizer, error) {
	s := &MaxNormalizer{config: config}
	base, err := newNormalizerBase("maxnormalizer", config, s)
	if err != nil {
		return nil, err
	}
	s.MatrixAndWeightTransformer = base
	return s, nil
}

// TransformMatrix implements ports.MatrixTransformer.
func (s *MaxNormalizer) TransformMatrix(m *mat.Dense) (*mat.Dense, error) {
	return divideColumns(m, floats.Max)
}

// TransformWeights implements ports.WeightsTransformer.
func (s *MaxNormalizer) TransformWeights(w []float64) ([]float64, error) {
	return divideVector(w, floats.Max)
}

// String returns the stage representation.
func (s *MaxNormalizer) String() string { return fmt.Sprintf("MaxNormalizer(target=%s)", s.config.Target) }

// CreateMaxNormalizerFromConfig creates a MaxNormalizer from a
// configuration map.
func CreateMaxNormalizerFromConfig(name string, params map[string]any) (ports.Stage, error) {
	cfg := DefaultNormalizerConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	s, err := NewMaxNormalizer(cfg)
	if err != nil {
		return nil, err
	}
	s.setName(name)
	return s, nil
}

// VectorScaler divides every value by the euclidean norm of its criterion,
// or the weights by their euclidean norm.
type VectorScaler struct {
	*MatrixAndWeightTransformer
	config NormalizerConfig
}

// NewVectorScaler creates a VectorScaler.
func NewVectorScaler(config NormalizerConfig) (*VectorScaler, error) {
	s := &VectorScaler{config: config}
	base, err := newNormalizerBase("vectorscaler", config, s)
	if err != nil {
		return nil, err
	}
	s.MatrixAndWeightTransformer = base
	return s, nil
}

// TransformMatrix implements ports.MatrixTransformer.
func (s *VectorScaler) TransformMatrix(m *mat.Dense) (*mat.Dense, error) {
	return divideColumns(m, l2Norm)
}

// TransformWeights implements ports.WeightsTransformer.
func (s *VectorScaler) TransformWeights(w []float64) ([]float64, error) {
	return divideVector(w, l2Norm)
}

// String returns the stage representation.
func (s *VectorScaler) String() string { return fmt.Sprintf("VectorScaler(target=%s)", s.config.Target) }

// CreateVectorScalerFromConfig creates a VectorScaler from a configuration
// map.
func CreateVectorScalerFromConfig(name string, params map[string]any) (ports.Stage, error) {
	cfg := DefaultNormalizerConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	s, err := NewVectorScaler(cfg)
	if err != nil {
		return nil, err
	}
	s.setName(name)
	return s, nil
}
