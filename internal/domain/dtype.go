package domain

import (
	"fmt"
	"math"
)

// DType tags the numeric type of a criterion column.
type DType uint8

// Supported column types.
const (
	DTypeFloat DType = iota
	DTypeInt
)

// String returns the canonical type name.
func (d DType) String() string {
	switch d {
	case DTypeInt:
		return "int64"
	case DTypeFloat:
		return "float64"
	default:
		return fmt.Sprintf("DType(%d)", uint8(d))
	}
}

// ParseDType resolves a type name such as "int", "int64", "float" or
// "float64".
func ParseDType(name string) (DType, error) {
	switch name {
	case "int", "int64":
		return DTypeInt, nil
	case "float", "float64":
		return DTypeFloat, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDType, name)
}

// InferDType returns DTypeInt when every value is integral, DTypeFloat
// otherwise.
func InferDType(column []float64) DType {
	for _, v := range column {
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return DTypeFloat
		}
	}
	return DTypeInt
}

// Fits reports whether every value in column can be represented by d.
func (d DType) Fits(column []float64) bool {
	return d != DTypeInt || InferDType(column) == DTypeInt
}
