package types

import (
	"bytes"
	"math"
	"reflect"
)

// Equal reports whether a and b are structurally equal.
// Objects are equal if they have the same set of fields with equal values,
// regardless of their order. Arrays are compared element by element.
// Numbers are compared by value, regardless of their Go type.
// Cycles are supported: a pair of containers already being compared is
// assumed to be equal.
func Equal(a, b any) bool {
	return equal(a, b, make(map[[2]any]struct{}))
}

func equal(a, b any, seen map[[2]any]struct{}) bool {
	switch x := a.(type) {
	case *Object:
		y, ok := b.(*Object)
		if !ok {
			return false
		}
		if x == nil || y == nil {
			return x == y
		}
		k := [2]any{x, y}
		if _, ok := seen[k]; ok {
			return true
		}
		seen[k] = struct{}{}

		if x.Len() != y.Len() {
			return false
		}
		for _, f := range x.fields {
			v, ok := y.Get(f.name)
			if !ok || !equal(f.value, v, seen) {
				return false
			}
		}
		return true
	case *Array:
		y, ok := b.(*Array)
		if !ok {
			return false
		}
		if x == nil || y == nil {
			return x == y
		}
		k := [2]any{x, y}
		if _, ok := seen[k]; ok {
			return true
		}
		seen[k] = struct{}{}

		if x.Len() != y.Len() {
			return false
		}
		for i := range x.values {
			if !equal(x.values[i], y.values[i], seen) {
				return false
			}
		}
		return true
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case nil:
		return b == nil
	}

	if fa, ok := AsFloat64(a); ok {
		fb, ok := AsFloat64(b)
		return ok && (fa == fb || (math.IsNaN(fa) && math.IsNaN(fb)))
	}

	return reflect.DeepEqual(a, b)
}

// AsFloat64 converts any Go number to a float64.
func AsFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}

	return 0, false
}

// AsInt64 converts any Go integer, or any float with no fractional part,
// to an int64.
func AsInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float32:
		return AsInt64(float64(x))
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	}

	return 0, false
}
