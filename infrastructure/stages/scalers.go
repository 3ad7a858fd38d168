package stages

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ahrav/go-criteria/internal/ports"
)

var (
	_ ports.Transformer = (*StandardScaler)(nil)
	_ ports.Transformer = (*MinMaxScaler)(nil)
)

// StandardScalerConfig controls StandardScaler.
type StandardScalerConfig struct {
	// Target is the part of the decision matrix to scale.
	Target ports.Target `yaml:"target" json:"target" validate:"required"`

	// WithMean centers the values before scaling.
	WithMean bool `yaml:"with_mean" json:"with_mean"`

	// WithStd scales the values to unit variance.
	WithStd bool `yaml:"with_std" json:"with_std"`
}

// DefaultStandardScalerConfig returns a StandardScalerConfig that centers
// and scales the matrix.
func DefaultStandardScalerConfig() StandardScalerConfig {
	return StandardScalerConfig{Target: ports.TargetMatrix, WithMean: true, WithStd: true}
}

// StandardScaler standardizes values as (x - mean) / std using the
// population standard deviation. A zero deviation scales by 1.
//
// Scaling weights produces negative values for every weight below the
// mean, which a decision matrix rejects, so the weights target only
// succeeds with WithMean disabled.
type StandardScaler struct {
	*MatrixAndWeightTransformer
	config StandardScalerConfig
}

// NewStandardScaler creates a StandardScaler.
func NewStandardScaler(config StandardScalerConfig) (*StandardScaler, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	s := &StandardScaler{config: config}
	base, err := NewMatrixAndWeightTransformer("standardscaler", config.Target, s)
	if err != nil {
		return nil, err
	}
	s.MatrixAndWeightTransformer = base
	return s, nil
}

func (s *StandardScaler) standardize(values []float64) {
	mean, std := stat.PopMeanStdDev(values, nil)
	if !s.config.WithMean {
		mean = 0
	}
	if !s.config.WithStd || std == 0 {
		std = 1
	}
	for i, v := range values {
		values[i] = (v - mean) / std
	}
}

// TransformMatrix implements ports.MatrixTransformer.
func (s *StandardScaler) TransformMatrix(m *mat.Dense) (*mat.Dense, error) {
	_, cols := m.Dims()
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, m)
		s.standardize(col)
		m.SetCol(j, col)
	}
	return m, nil
}

// TransformWeights implements ports.WeightsTransformer.
func (s *StandardScaler) TransformWeights(w []float64) ([]float64, error) {
	s.standardize(w)
	return w, nil
}

// String returns the stage representation.
func (s *StandardScaler) String() string {
	return fmt.Sprintf("StandardScaler(target=%s, with_mean=%t, with_std=%t)",
		s.config.Target, s.config.WithMean, s.config.WithStd)
}

// CreateStandardScalerFromConfig creates a StandardScaler from a
// configuration map.
func CreateStandardScalerFromConfig(name string, params map[string]any) (ports.Stage, error) {
	cfg := DefaultStandardScalerConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	s, err := NewStandardScaler(cfg)
	if err != nil {
		return nil, err
	}
	s.setName(name)
	return s, nil
}

// MinMaxScaler maps values onto [0, 1] as (x - min) / (max - min). A zero
// range scales by 1.
type MinMaxScaler struct {
	*MatrixAndWeightTransformer
	config NormalizerConfig
}

// NewMinMaxScaler creates a MinMaxScaler.
func NewMinMaxScaler(config NormalizerConfig) (*MinMaxScaler, error) {
	s := &MinMaxScaler{config: config}
	base, err := newNormalizerBase("minmaxscaler", config, s)
	if err != nil {
		return nil, err
	}
	s.MatrixAndWeightTransformer = base
	return s, nil
}

func minMax(values []float64) {
	lo, hi := floats.Min(values), floats.Max(values)
	span := hi - lo
	if span == 0 {
		span = 1
	}
	for i, v := range values {
		values[i] = (v - lo) / span
	}
}

// TransformMatrix implements ports.MatrixTransformer.
func (s *MinMaxScaler) TransformMatrix(m *mat.Dense) (*mat.Dense, error) {
	_, cols := m.Dims()
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, m)
		minMax(col)
		m.SetCol(j, col)
	}
	return m, nil
}

// TransformWeights implements ports.WeightsTransformer.
func (s *MinMaxScaler) TransformWeights(w []float64) ([]float64, error) {
	minMax(w)
	return w, nil
}

// String returns the stage representation.
func (s *MinMaxScaler) String() string { return fmt.Sprintf("MinMaxScaler(target=%s)", s.config.Target) }

// CreateMinMaxScalerFromConfig creates a MinMaxScaler from a configuration
// map.
func CreateMinMaxScalerFromConfig(name string, params map[string]any) (ports.Stage, error) {
	cfg := DefaultNormalizerConfig()
	if err := decodeParams(params, &cfg); err != nil {
		return nil, err
	}
	s, err := NewMinMaxScaler(cfg)
	if err != nil {
		return nil, err
	}
	s.setName(name)
	return s, nil
}
