// Package stages provides the framework adapters and the concrete
// transformers, weighters and decision makers that implement the
// ports stage contracts.
package stages

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-criteria/internal/domain"
)

// Common errors returned by stages.
var (
	// ErrZeroDenominator indicates a normalization whose divisor is zero.
	ErrZeroDenominator = fmt.Errorf("%w: zero denominator", domain.ErrInvalidValue)

	// ErrNonPositiveValue indicates a value that must be strictly positive.
	ErrNonPositiveValue = fmt.Errorf("%w: value must be positive", domain.ErrInvalidValue)

	// ErrNegativeValue indicates a value that must not be negative.
	ErrNegativeValue = fmt.Errorf("%w: value must not be negative", domain.ErrInvalidValue)

	// ErrObjectiveNotSupported indicates an objective the method cannot
	// handle.
	ErrObjectiveNotSupported = fmt.Errorf("%w: objective not supported", domain.ErrInvalidValue)

	// ErrConstantCriterion indicates a criterion whose values are all equal
	// when the method needs some spread.
	ErrConstantCriterion = fmt.Errorf("%w: constant criterion", domain.ErrInvalidValue)

	// ErrTooFewCriteria indicates a method that compares criteria against
	// each other was given a single one.
	ErrTooFewCriteria = fmt.Errorf("%w: too few criteria", domain.ErrInvalidValue)

	// ErrEmptyStageName is returned when a stage is given an empty name.
	ErrEmptyStageName = fmt.Errorf("%w: stage name cannot be empty", domain.ErrInvalidType)
)

// CriterionError attaches a criterion to a numeric failure. Numeric kernels
// only know the column index; the adapters fill in the name before the
// error leaves the stage.
type CriterionError struct {
	// Index is the zero-based criterion position.
	Index int

	// Name is the criterion label, when known.
	Name string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for CriterionError.
func (e *CriterionError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("criterion %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("criterion %q: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *CriterionError) Unwrap() error { return e.Err }

func criterionError(index int, err error) error {
	return &CriterionError{Index: index, Err: err}
}

// nameCriterion fills in the criterion label of a CriterionError found in
// err's chain.
func nameCriterion(err error, cnames []string) error {
	var ce *CriterionError
	if errors.As(err, &ce) && ce.Name == "" && ce.Index >= 0 && ce.Index < len(cnames) {
		ce.Name = cnames[ce.Index]
	}
	return err
}

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// decodeParams overlays a parameter map on cfg, which should already hold
// the defaults. Unknown keys are rejected.
func decodeParams(params map[string]any, cfg any) error {
	if len(params) == 0 {
		return nil
	}
	data, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("%w: parse config: %v", domain.ErrInvalidValue, err)
	}
	return nil
}

// noParams rejects any parameter for stages without configuration.
func noParams(params map[string]any) error {
	var none struct{}
	return decodeParams(params, &none)
}

func validateConfig(cfg any) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: configuration validation failed: %v", domain.ErrInvalidValue, err)
	}
	return nil
}
