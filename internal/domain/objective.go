package domain

import (
	"fmt"
	"math"
	"reflect"

	"gonum.org/v1/gonum/floats"
)

// Objective is the optimization direction of a criterion.
// The numeric value doubles as a sign so that "higher is better" arithmetic
// can be applied uniformly: multiplying a MIN column by its value flips it.
type Objective int8

// The two objectives. The zero value is not a valid Objective.
const (
	ObjectiveMin Objective = -1
	ObjectiveMax Objective = 1
)

const (
	minSymbol = "\u25bc"
	maxSymbol = "\u25b2"
)

// Alias sets. Function aliases are matched by code pointer.
var (
	minStringAliases = map[string]struct{}{
		"min": {}, "minimize": {}, "<": {}, "<=": {}, "-": {},
	}
	maxStringAliases = map[string]struct{}{
		"max": {}, "maximize": {}, ">": {}, ">=": {}, "+": {},
	}
	minFuncAliases = []any{math.Min, floats.Min}
	maxFuncAliases = []any{math.Max, floats.Max}
)

// MinAliases returns every token that resolves to ObjectiveMin.
func MinAliases() []any {
	return aliasSet(ObjectiveMin, minStringAliases, minFuncAliases)
}

// MaxAliases returns every token that resolves to ObjectiveMax.
func MaxAliases() []any {
	return aliasSet(ObjectiveMax, maxStringAliases, maxFuncAliases)
}

func aliasSet(obj Objective, strs map[string]struct{}, funcs []any) []any {
	out := []any{obj, int(obj)}
	for s := range strs {
		out = append(out, s)
	}
	return append(out, funcs...)
}

// ConstructFromAlias resolves token to an Objective.
//
// Accepted tokens are an Objective itself, a number equal to -1 or 1, a
// string from the MIN/MAX alias sets ("min", "-", ">=", ...) or one of the
// min/max functions math.Min, math.Max, floats.Min and floats.Max.
// Matching is exact: "MIN" is not an alias.
func ConstructFromAlias(token any) (Objective, error) {
	switch t := token.(type) {
	case Objective:
		if t.IsValid() {
			return t, nil
		}
	case string:
		if _, ok := minStringAliases[t]; ok {
			return ObjectiveMin, nil
		}
		if _, ok := maxStringAliases[t]; ok {
			return ObjectiveMax, nil
		}
	case nil:
	default:
		v := reflect.ValueOf(token)
		switch {
		case v.Kind() == reflect.Func:
			if matchFunc(v, minFuncAliases) {
				return ObjectiveMin, nil
			}
			if matchFunc(v, maxFuncAliases) {
				return ObjectiveMax, nil
			}
		case v.CanInt() || v.CanUint() || v.CanFloat():
			f, err := toFloat(token)
			if err == nil {
				switch f {
				case float64(ObjectiveMin):
					return ObjectiveMin, nil
				case float64(ObjectiveMax):
					return ObjectiveMax, nil
				}
			}
		}
	}
	return 0, fmt.Errorf("%w: %#v", ErrInvalidObjective, token)
}

func matchFunc(v reflect.Value, funcs []any) bool {
	if v.IsNil() {
		return false
	}
	for _, f := range funcs {
		if reflect.ValueOf(f).Pointer() == v.Pointer() {
			return true
		}
	}
	return false
}

// IsValid reports whether o is ObjectiveMin or ObjectiveMax.
func (o Objective) IsValid() bool { return o == ObjectiveMin || o == ObjectiveMax }

// Value returns the sign convention of the objective (-1 or 1).
func (o Objective) Value() int { return int(o) }

// Symbol returns the display symbol: ▼ for MIN and ▲ for MAX.
func (o Objective) Symbol() string {
	switch o {
	case ObjectiveMin:
		return minSymbol
	case ObjectiveMax:
		return maxSymbol
	default:
		return "?"
	}
}

// Invert returns the opposite objective.
func (o Objective) Invert() Objective { return -o }

// String returns the member name, "MIN" or "MAX".
func (o Objective) String() string {
	switch o {
	case ObjectiveMin:
		return "MIN"
	case ObjectiveMax:
		return "MAX"
	default:
		return fmt.Sprintf("Objective(%d)", int8(o))
	}
}
