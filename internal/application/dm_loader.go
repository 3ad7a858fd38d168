package application

import (
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-criteria/internal/domain"
)

var dmValidator = validator.New()

// LoadDecisionMatrix reads a DecisionMatrixConfig document and builds the
// decision matrix it describes:
//
//	matrix: [[250, 120, 20], [200, 100, 25]]
//	objectives: [min, max, max]
//	weights: [1, 2, 1]
//	alternatives: [A, B]
//	criteria: [cost, quality, speed]
//
// Weights and labels are optional. Decoding is strict, so unknown keys are
// rejected.
func LoadDecisionMatrix(r io.Reader) (*domain.DecisionMatrix, error) {
	var cfg DecisionMatrixConfig
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decision matrix YAML decode failed: %v", domain.ErrInvalidValue, err)
	}
	if err := dmValidator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: decision matrix validation failed: %v", domain.ErrInvalidValue, err)
	}

	var opts []domain.Option
	if cfg.Weights != nil {
		opts = append(opts, domain.WithWeights(cfg.Weights))
	}
	if cfg.Alternatives != nil {
		opts = append(opts, domain.WithAnames(cfg.Alternatives...))
	}
	if cfg.Criteria != nil {
		opts = append(opts, domain.WithCnames(cfg.Criteria...))
	}
	return domain.Mkdm(cfg.Matrix, cfg.Objectives, opts...)
}
