package eql

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// Builtin comparison functions, grounded on the default operand
// comparisons the original engine falls back to (Python's ==, <, in)
// when a rule doesn't supply a custom predicate. Go has no generic
// ordering across interface{}, so numeric and string orderings are
// handled explicitly; anything else is an equality-only comparison.

// EqualValues is the default Eq/Neq comparator: reflect.DeepEqual.
func EqualValues(left, right interface{}) (bool, error) {
	return reflect.DeepEqual(left, right), nil
}

// LessValues orders left < right when both are int, both int64, both
// float64 or both string; anything else is reported as an error.
func LessValues(left, right interface{}) (bool, error) {
	return compareOrdered(left, right, func(c int) bool { return c < 0 })
}

// LessOrEqualValues orders left <= right.
func LessOrEqualValues(left, right interface{}) (bool, error) {
	return compareOrdered(left, right, func(c int) bool { return c <= 0 })
}

// GreaterValues orders left > right.
func GreaterValues(left, right interface{}) (bool, error) {
	return compareOrdered(left, right, func(c int) bool { return c > 0 })
}

// GreaterOrEqualValues orders left >= right.
func GreaterOrEqualValues(left, right interface{}) (bool, error) {
	return compareOrdered(left, right, func(c int) bool { return c >= 0 })
}

func compareOrdered(left, right interface{}, accept func(int) bool) (bool, error) {
	switch l := left.(type) {
	case int:
		r, ok := right.(int)
		if !ok {
			return false, errors.Errorf("cannot order int against %T", right)
		}
		return accept(sign(l - r)), nil
	case int64:
		r, ok := right.(int64)
		if !ok {
			return false, errors.Errorf("cannot order int64 against %T", right)
		}
		return accept(sign64(l - r)), nil
	case float64:
		r, ok := right.(float64)
		if !ok {
			return false, errors.Errorf("cannot order float64 against %T", right)
		}
		switch {
		case l < r:
			return accept(-1), nil
		case l > r:
			return accept(1), nil
		default:
			return accept(0), nil
		}
	case string:
		r, ok := right.(string)
		if !ok {
			return false, errors.Errorf("cannot order string against %T", right)
		}
		switch {
		case l < r:
			return accept(-1), nil
		case l > r:
			return accept(1), nil
		default:
			return accept(0), nil
		}
	default:
		return false, errors.Errorf("%T has no defined order", left)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func sign64(n int64) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// ContainsValue is the default In/NotIn comparator: reports whether
// right contains left. Per the original engine's explicit semantic
// split (spec's Open Question #3, kept explicit rather than
// conflated): a string right operand is substring search
// (strings.Contains); anything else is element membership via
// DefaultAccessor's iteration protocol.
func ContainsValue(left, right interface{}) (bool, error) {
	if rs, ok := right.(string); ok {
		ls, ok := left.(string)
		if !ok {
			return false, errors.Errorf("contains: substring search needs a string left operand, got %T", left)
		}
		return strings.Contains(rs, ls), nil
	}
	found := false
	err := DefaultAccessor.Iter(right, func(elem interface{}) bool {
		if reflect.DeepEqual(left, elem) {
			found = true
			return false
		}
		return true
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// StartsWith is a CompareFunc for the common `s.name.startswith(x)`
// predicate shape from the original engine's worked examples; both
// operands must be strings.
func StartsWith(left, right interface{}) (bool, error) {
	l, ok := left.(string)
	if !ok {
		return false, errors.Errorf("startswith: left operand is %T, not string", left)
	}
	r, ok := right.(string)
	if !ok {
		return false, errors.Errorf("startswith: right operand is %T, not string", right)
	}
	return strings.HasPrefix(l, r), nil
}

// hasType backs the IsType comparator (the HasType built-in from
// Supplemented Features): right must be a string naming a Go type, or
// a reflect.Type value, and the check reports whether left's dynamic
// type matches.
func hasType(left, right interface{}) (bool, error) {
	lt := reflect.TypeOf(left)
	switch r := right.(type) {
	case reflect.Type:
		return lt == r, nil
	case string:
		if lt == nil {
			return r == "nil", nil
		}
		return lt.String() == r || lt.Name() == r, nil
	default:
		return false, errors.Errorf("has_type: right operand must be a string or reflect.Type, got %T", right)
	}
}
