package domain

import (
	"fmt"
	"math"
	"reflect"

	"gonum.org/v1/gonum/mat"
)

// isNil reports whether v is nil or holds a nil pointer, slice, map or
// interface, such as a (*mat.Dense)(nil).
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// toFloat converts a single numeric value to float64.
func toFloat(v any) (float64, error) {
	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		return 0, fmt.Errorf("%w: nil is not a number", ErrInvalidValue)
	case rv.CanInt():
		return float64(rv.Int()), nil
	case rv.CanUint():
		return float64(rv.Uint()), nil
	case rv.CanFloat():
		return rv.Float(), nil
	case rv.Kind() == reflect.Bool:
		return 0, fmt.Errorf("%w: bool %v is not a number", ErrInvalidValue, v)
	}
	return 0, fmt.Errorf("%w: %#v is not a number", ErrInvalidValue, v)
}

// toAnySlice flattens any slice or array into []any. ok is false when v
// is not a slice.
func toAnySlice(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// toFloatSlice converts a numeric slice to a fresh []float64.
func toFloatSlice(v any) ([]float64, error) {
	if fs, ok := v.([]float64); ok {
		out := make([]float64, len(fs))
		copy(out, fs)
		return out, nil
	}
	items, ok := toAnySlice(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a sequence", ErrInvalidValue, v)
	}
	out := make([]float64, len(items))
	for i, item := range items {
		f, err := toFloat(item)
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// rankOf returns the number of nested slice levels of v, inspecting the
// first element at each level. Scalars have rank 0.
func rankOf(v reflect.Value) int {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return 0
	}
	if v.Len() == 0 {
		return 1 + typeRank(v.Type().Elem())
	}
	return 1 + rankOf(v.Index(0))
}

func typeRank(t reflect.Type) int {
	if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
		return 0
	}
	return 1 + typeRank(t.Elem())
}

// toDense converts a matrix-like value into a validated *mat.Dense copy.
// Accepted inputs are mat.Matrix and any 2-level nested numeric slice.
func toDense(v any) (*mat.Dense, error) {
	if m, ok := v.(mat.Matrix); ok {
		r, c := m.Dims()
		if r == 0 || c == 0 {
			return nil, ErrEmptyMatrix
		}
		d := mat.DenseCopyOf(m)
		if err := checkFinite(d); err != nil {
			return nil, err
		}
		return d, nil
	}

	rv := reflect.ValueOf(v)
	if rank := rankOf(rv); rank != 2 {
		return nil, fmt.Errorf("%w: got %d dimension(s)", ErrNotRank2, rank)
	}

	rows, _ := toAnySlice(v)
	if len(rows) == 0 {
		return nil, ErrEmptyMatrix
	}

	var data []float64
	cols := -1
	for i, row := range rows {
		values, err := toFloatSlice(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if cols == -1 {
			cols = len(values)
			data = make([]float64, 0, len(rows)*cols)
		}
		if len(values) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrNotRank2, i, len(values), cols)
		}
		data = append(data, values...)
	}
	if cols == 0 {
		return nil, ErrEmptyMatrix
	}

	d := mat.NewDense(len(rows), cols, data)
	if err := checkFinite(d); err != nil {
		return nil, err
	}
	return d, nil
}

func checkFinite(d *mat.Dense) error {
	r, c := d.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := d.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite value %v at (%d, %d)", ErrInvalidValue, v, i, j)
			}
		}
	}
	return nil
}
