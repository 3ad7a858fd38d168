package domain

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// DecisionData is the mutable bundle of every field of a DecisionMatrix.
// Stages receive a DecisionData that they own, rewrite the parts they
// target, and hand it back to FromData to obtain a new validated matrix.
// A nil Dtypes slice asks FromData to infer the column types again.
type DecisionData struct {
	Matrix     *mat.Dense
	Objectives []Objective
	Weights    []float64
	Anames     []string
	Cnames     []string
	Dtypes     []DType
}

// DecisionMatrix is the immutable alternatives x criteria container.
// Every accessor returns a copy, so holders of a *DecisionMatrix can share
// it freely without synchronization.
type DecisionMatrix struct {
	matrix     *mat.Dense
	objectives []Objective
	weights    []float64
	anames     []string
	cnames     []string
	dtypes     []DType
}

// Option configures optional Mkdm arguments.
type Option func(*mkdmArgs)

type mkdmArgs struct {
	weights    any
	anames     []string
	cnames     []string
	dtypes     []DType
	hasWeights bool
}

// WithWeights sets the criteria weights. Any numeric slice is accepted; a
// nil or typed-nil value keeps the default of ones.
func WithWeights(weights any) Option {
	return func(a *mkdmArgs) {
		a.weights = weights
		a.hasWeights = true
	}
}

// WithAnames sets the alternative labels.
func WithAnames(anames ...string) Option {
	return func(a *mkdmArgs) { a.anames = slices.Clone(anames) }
}

// WithCnames sets the criterion labels.
func WithCnames(cnames ...string) Option {
	return func(a *mkdmArgs) { a.cnames = slices.Clone(cnames) }
}

// WithDtypes sets the per-criterion column types instead of inferring them.
func WithDtypes(dtypes ...DType) Option {
	return func(a *mkdmArgs) { a.dtypes = slices.Clone(dtypes) }
}

// Mkdm builds a validated DecisionMatrix.
//
// matrix may be a mat.Matrix or any 2-level nested numeric slice such as
// [][]float64, [][]int or [][]any. objectives is a slice of tokens accepted
// by ConstructFromAlias. Missing weights default to ones, missing names to
// A0..A{n-1} and C0..C{m-1}, missing dtypes are inferred per column.
//
// Errors wrap ErrMissingArgument when matrix or objectives is nil, typed
// nils such as a (*mat.Dense)(nil) included, and
// ErrInvalidValue (through a more specific sentinel) for every other
// violation; an *ArgumentError names the offending argument.
func Mkdm(matrix any, objectives any, opts ...Option) (*DecisionMatrix, error) {
	if isNil(matrix) {
		return nil, &ArgumentError{Argument: "matrix", Err: ErrMissingArgument}
	}
	if isNil(objectives) {
		return nil, &ArgumentError{Argument: "objectives", Err: ErrMissingArgument}
	}

	var args mkdmArgs
	for _, opt := range opts {
		opt(&args)
	}

	dense, err := toDense(matrix)
	if err != nil {
		return nil, &ArgumentError{Argument: "matrix", Err: err}
	}
	_, cols := dense.Dims()

	tokens, ok := toAnySlice(objectives)
	if !ok {
		return nil, NewArgumentError("objectives", ErrInvalidType, "%T is not a sequence", objectives)
	}
	objs := make([]Objective, len(tokens))
	for i, token := range tokens {
		obj, err := ConstructFromAlias(token)
		if err != nil {
			return nil, NewArgumentError("objectives", err, "position %d", i)
		}
		objs[i] = obj
	}

	var weights []float64
	if args.hasWeights && !isNil(args.weights) {
		weights, err = toFloatSlice(args.weights)
		if err != nil {
			return nil, &ArgumentError{Argument: "weights", Err: errors.Join(ErrInvalidWeight, err)}
		}
	} else {
		weights = make([]float64, cols)
		for i := range weights {
			weights[i] = 1
		}
	}

	return FromData(DecisionData{
		Matrix:     dense,
		Objectives: objs,
		Weights:    weights,
		Anames:     args.anames,
		Cnames:     args.cnames,
		Dtypes:     args.dtypes,
	})
}

// FromData validates data and wraps it in a new DecisionMatrix. Nil name
// slices receive the default labels and nil Dtypes are inferred. The
// DecisionMatrix takes ownership of a defensive copy of every field.
func FromData(data DecisionData) (*DecisionMatrix, error) {
	if data.Matrix == nil {
		return nil, &ArgumentError{Argument: "matrix", Err: ErrMissingArgument}
	}
	if data.Objectives == nil {
		return nil, &ArgumentError{Argument: "objectives", Err: ErrMissingArgument}
	}

	rows, cols := data.Matrix.Dims()
	if rows == 0 || cols == 0 {
		return nil, &ArgumentError{Argument: "matrix", Err: ErrEmptyMatrix}
	}
	if err := checkFinite(data.Matrix); err != nil {
		return nil, &ArgumentError{Argument: "matrix", Err: err}
	}

	if len(data.Objectives) != cols {
		return nil, NewArgumentError("objectives", ErrShapeMismatch,
			"%d objectives for %d criteria", len(data.Objectives), cols)
	}
	for i, obj := range data.Objectives {
		if !obj.IsValid() {
			return nil, NewArgumentError("objectives", ErrInvalidObjective, "position %d: %v", i, obj)
		}
	}

	weights := data.Weights
	if weights == nil {
		weights = make([]float64, cols)
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != cols {
		return nil, NewArgumentError("weights", ErrShapeMismatch, "%d weights for %d criteria", len(weights), cols)
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, NewArgumentError("weights", ErrInvalidWeight, "position %d: %v", i, w)
		}
	}

	anames, err := labels("anames", "A", data.Anames, rows)
	if err != nil {
		return nil, err
	}
	cnames, err := labels("cnames", "C", data.Cnames, cols)
	if err != nil {
		return nil, err
	}

	dtypes := slices.Clone(data.Dtypes)
	if dtypes == nil {
		dtypes = make([]DType, cols)
		for j := range dtypes {
			dtypes[j] = InferDType(mat.Col(nil, j, data.Matrix))
		}
	}
	if len(dtypes) != cols {
		return nil, NewArgumentError("dtypes", ErrShapeMismatch, "%d dtypes for %d criteria", len(dtypes), cols)
	}
	for j, dt := range dtypes {
		if dt != DTypeInt && dt != DTypeFloat {
			return nil, NewArgumentError("dtypes", ErrInvalidDType, "position %d: %v", j, dt)
		}
		if !dt.Fits(mat.Col(nil, j, data.Matrix)) {
			return nil, NewArgumentError("dtypes", ErrInvalidDType,
				"criterion %q has non-integral values", cnames[j])
		}
	}

	return &DecisionMatrix{
		matrix:     mat.DenseCopyOf(data.Matrix),
		objectives: slices.Clone(data.Objectives),
		weights:    slices.Clone(weights),
		anames:     anames,
		cnames:     cnames,
		dtypes:     dtypes,
	}, nil
}

// labels validates a name axis or fills it with prefix0..prefix{n-1}.
func labels(argument, prefix string, names []string, n int) ([]string, error) {
	if names == nil {
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprintf("%s%d", prefix, i)
		}
		return out, nil
	}
	if len(names) != n {
		return nil, NewArgumentError(argument, ErrShapeMismatch, "%d names for %d entries", len(names), n)
	}
	seen := make(map[string]struct{}, n)
	for _, name := range names {
		if _, dup := seen[name]; dup {
			return nil, NewArgumentError(argument, ErrDuplicateName, "%q", name)
		}
		seen[name] = struct{}{}
	}
	return slices.Clone(names), nil
}

// Shape returns the number of alternatives and criteria.
func (dm *DecisionMatrix) Shape() (alternatives, criteria int) { return dm.matrix.Dims() }

// Matrix returns a copy of the alternatives x criteria values.
func (dm *DecisionMatrix) Matrix() *mat.Dense { return mat.DenseCopyOf(dm.matrix) }

// At returns the value of alternative i on criterion j.
func (dm *DecisionMatrix) At(i, j int) float64 { return dm.matrix.At(i, j) }

// Row returns a copy of the values of alternative i.
func (dm *DecisionMatrix) Row(i int) []float64 { return mat.Row(nil, i, dm.matrix) }

// Column returns a copy of the values of criterion j.
func (dm *DecisionMatrix) Column(j int) []float64 { return mat.Col(nil, j, dm.matrix) }

// RawMatrix returns the values as a freshly allocated [][]float64.
func (dm *DecisionMatrix) RawMatrix() [][]float64 {
	rows, _ := dm.matrix.Dims()
	out := make([][]float64, rows)
	for i := range out {
		out[i] = dm.Row(i)
	}
	return out
}

// Objectives returns a copy of the per-criterion objectives.
func (dm *DecisionMatrix) Objectives() []Objective { return slices.Clone(dm.objectives) }

// ObjectivesValues returns the sign convention (-1 or 1) of each objective.
func (dm *DecisionMatrix) ObjectivesValues() []int {
	out := make([]int, len(dm.objectives))
	for i, o := range dm.objectives {
		out[i] = o.Value()
	}
	return out
}

// Weights returns a copy of the criteria weights.
func (dm *DecisionMatrix) Weights() []float64 { return slices.Clone(dm.weights) }

// Anames returns a copy of the alternative labels.
func (dm *DecisionMatrix) Anames() []string { return slices.Clone(dm.anames) }

// Cnames returns a copy of the criterion labels.
func (dm *DecisionMatrix) Cnames() []string { return slices.Clone(dm.cnames) }

// Dtypes returns a copy of the per-criterion column types.
func (dm *DecisionMatrix) Dtypes() []DType { return slices.Clone(dm.dtypes) }

// Data returns a deep copy of every field, owned by the caller.
func (dm *DecisionMatrix) Data() DecisionData {
	return DecisionData{
		Matrix:     dm.Matrix(),
		Objectives: dm.Objectives(),
		Weights:    dm.Weights(),
		Anames:     dm.Anames(),
		Cnames:     dm.Cnames(),
		Dtypes:     dm.Dtypes(),
	}
}

// Copy returns a deep, independent copy of dm.
func (dm *DecisionMatrix) Copy() *DecisionMatrix {
	return &DecisionMatrix{
		matrix:     mat.DenseCopyOf(dm.matrix),
		objectives: slices.Clone(dm.objectives),
		weights:    slices.Clone(dm.weights),
		anames:     slices.Clone(dm.anames),
		cnames:     slices.Clone(dm.cnames),
		dtypes:     slices.Clone(dm.dtypes),
	}
}

// Equal reports whether dm and other hold the same matrix values,
// objectives, weights, alternative names and criterion names.
// Column dtypes are not compared.
func (dm *DecisionMatrix) Equal(other *DecisionMatrix) bool {
	if dm == nil || other == nil {
		return dm == other
	}
	return mat.Equal(dm.matrix, other.matrix) &&
		slices.Equal(dm.objectives, other.objectives) &&
		slices.Equal(dm.weights, other.weights) &&
		slices.Equal(dm.anames, other.anames) &&
		slices.Equal(dm.cnames, other.cnames)
}

// AllClose is Equal with a tolerance on the matrix values and weights:
// two numbers match when they are within atol or within rtol relative
// difference of each other.
func (dm *DecisionMatrix) AllClose(other *DecisionMatrix, rtol, atol float64) bool {
	if dm == nil || other == nil {
		return dm == other
	}
	if !slices.Equal(dm.objectives, other.objectives) ||
		!slices.Equal(dm.anames, other.anames) ||
		!slices.Equal(dm.cnames, other.cnames) ||
		len(dm.weights) != len(other.weights) {
		return false
	}
	r1, c1 := dm.matrix.Dims()
	r2, c2 := other.matrix.Dims()
	if r1 != r2 || c1 != c2 {
		return false
	}
	for i := 0; i < r1; i++ {
		for j := 0; j < c1; j++ {
			if !scalar.EqualWithinAbsOrRel(dm.matrix.At(i, j), other.matrix.At(i, j), atol, rtol) {
				return false
			}
		}
	}
	for i := range dm.weights {
		if !scalar.EqualWithinAbsOrRel(dm.weights[i], other.weights[i], atol, rtol) {
			return false
		}
	}
	return true
}
