package eql

import (
	"reflect"

	"github.com/pkg/errors"
)

// ValueAccessor is the small duck-typing interface Design Notes §9
// calls for: a minimal reflective surface so domain mappings
// (Attribute/Index/Call/Flatten) can operate on arbitrary Go values
// the way the Python engine leans on getattr/obj[key]/obj(...)/iter.
// The default implementation (reflectAccessor) covers structs, maps,
// slices, and funcs via reflect; callers may supply their own
// EngineOptions.WithAccessor for domain-specific duck typing.
type ValueAccessor interface {
	// GetAttr reads a named field/method-as-value from obj.
	GetAttr(obj interface{}, name string) (interface{}, error)
	// Index reads obj[key] for maps/slices.
	Index(obj interface{}, key interface{}) (interface{}, error)
	// Call invokes obj as a function with args.
	Call(obj interface{}, args ...interface{}) (interface{}, error)
	// IsIterable reports whether obj can be ranged over by Iter.
	IsIterable(obj interface{}) bool
	// Iter yields each element of obj to each, stopping early if each
	// returns false.
	Iter(obj interface{}, each func(interface{}) bool) error
}

// reflectAccessor is the default ValueAccessor, grounded on Go's
// reflect package the way the Python engine leans on getattr/dunder
// protocols for the same duck-typing surface.
type reflectAccessor struct{}

// DefaultAccessor is the zero-configuration ValueAccessor used when
// EngineOptions.WithAccessor is not supplied.
var DefaultAccessor ValueAccessor = reflectAccessor{}

func (reflectAccessor) GetAttr(obj interface{}, name string) (interface{}, error) {
	if obj == nil {
		return nil, errors.Wrapf(ErrInvalidMapping, "get_attr(%s) on nil", name)
	}
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, errors.Wrapf(ErrInvalidMapping, "get_attr(%s) on nil pointer", name)
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		f := v.FieldByName(name)
		if f.IsValid() {
			return f.Interface(), nil
		}
		if m := reflect.ValueOf(obj).MethodByName(name); m.IsValid() {
			return m.Interface(), nil
		}
	case reflect.Map:
		mv := v.MapIndex(reflect.ValueOf(name))
		if mv.IsValid() {
			return mv.Interface(), nil
		}
	}
	return nil, errors.Wrapf(ErrInvalidMapping, "no attribute %q on %T", name, obj)
}

func (reflectAccessor) Index(obj interface{}, key interface{}) (interface{}, error) {
	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		idx, ok := key.(int)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidMapping, "index key %v is not an int for %T", key, obj)
		}
		if idx < 0 || idx >= v.Len() {
			return nil, errors.Wrapf(ErrInvalidMapping, "index %d out of range for %T (len %d)", idx, obj, v.Len())
		}
		return v.Index(idx).Interface(), nil
	case reflect.Map:
		mv := v.MapIndex(reflect.ValueOf(key))
		if !mv.IsValid() {
			return nil, errors.Wrapf(ErrInvalidMapping, "no key %v in map %T", key, obj)
		}
		return mv.Interface(), nil
	default:
		return nil, errors.Wrapf(ErrInvalidMapping, "%T is not indexable", obj)
	}
}

func (reflectAccessor) Call(obj interface{}, args ...interface{}) (interface{}, error) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Func {
		return nil, errors.Wrapf(ErrInvalidMapping, "%T is not callable", obj)
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		in[i] = reflect.ValueOf(a)
	}
	out := v.Call(in)
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

func (reflectAccessor) IsIterable(obj interface{}) bool {
	if obj == nil {
		return false
	}
	switch reflect.ValueOf(obj).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return true
	default:
		return false
	}
}

func (reflectAccessor) Iter(obj interface{}, each func(interface{}) bool) error {
	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if !each(v.Index(i).Interface()) {
				return nil
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if !each(iter.Value().Interface()) {
				return nil
			}
		}
	case reflect.String:
		for _, r := range v.String() {
			if !each(r) {
				return nil
			}
		}
	default:
		return errors.Wrapf(ErrNotIterable, "%T", obj)
	}
	return nil
}
