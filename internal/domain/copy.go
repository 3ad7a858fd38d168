package domain

import (
	"reflect"
	"time"

	"gonum.org/v1/gonum/mat"
)

// deepCopyValue returns a deep copy of value for use in Result extras.
// Slices, maps, pointers and exported struct fields are copied
// recursively; gonum matrices and vectors are cloned through their own
// copy constructors because their storage lives in unexported fields.
// Shared and cyclic references are preserved: a pointer, map or slice
// reached twice is copied once.
func deepCopyValue(value any) any {
	if value == nil {
		return nil
	}
	c := copier{seen: make(map[visit]reflect.Value)}
	return c.copyAny(value)
}

// visit identifies a reference already copied.
type visit struct {
	ptr uintptr
	typ reflect.Type
	n   int
}

type copier struct {
	seen map[visit]reflect.Value
}

func (c *copier) copyAny(value any) any {
	if out, ok := copySpecial(value); ok {
		return out
	}
	return c.copyValue(reflect.ValueOf(value)).Interface()
}

func copySpecial(value any) (any, bool) {
	switch val := value.(type) {
	case time.Time:
		return val, true
	case *mat.Dense:
		if val == nil {
			return val, true
		}
		return mat.DenseCopyOf(val), true
	case *mat.VecDense:
		if val == nil {
			return val, true
		}
		return mat.VecDenseCopyOf(val), true
	case *DecisionMatrix:
		if val == nil {
			return val, true
		}
		return val.Copy(), true
	}
	return nil, false
}

func (c *copier) copyValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		elem := v.Elem()
		if elem.CanInterface() {
			if cp, ok := copySpecial(elem.Interface()); ok {
				out.Set(reflect.ValueOf(cp))
				return out
			}
		}
		out.Set(c.copyValue(elem))
		return out

	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		key := visit{ptr: v.Pointer(), typ: v.Type(), n: v.Len()}
		if v.Len() > 0 {
			if done, ok := c.seen[key]; ok {
				return done
			}
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		if v.Len() > 0 {
			c.seen[key] = out
		}
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(c.copyValue(v.Index(i)))
		}
		return out

	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(c.copyValue(v.Index(i)))
		}
		return out

	case reflect.Map:
		if v.IsNil() {
			return v
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if done, ok := c.seen[key]; ok {
			return done
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		c.seen[key] = out
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), c.copyValue(iter.Value()))
		}
		return out

	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		if v.CanInterface() {
			if cp, ok := copySpecial(v.Interface()); ok {
				return reflect.ValueOf(cp)
			}
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if done, ok := c.seen[key]; ok {
			return done
		}
		out := reflect.New(v.Elem().Type())
		c.seen[key] = out
		out.Elem().Set(c.copyValue(v.Elem()))
		return out

	case reflect.Struct:
		// Unexported fields keep their shallow value.
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if out.Field(i).CanSet() {
				out.Field(i).Set(c.copyValue(v.Field(i)))
			}
		}
		return out

	default:
		return v
	}
}
