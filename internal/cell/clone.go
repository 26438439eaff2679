package cell

import "reflect"

// Cloner is implemented by values that know how to copy themselves.
//
// DeepClone must return a value of the receiver's own type sharing no
// mutable storage with the receiver. A result of any other type is
// ignored and the value is copied field by field instead.
type Cloner interface {
	DeepClone() any
}

var clonerType = reflect.TypeFor[Cloner]()

// Copy returns a deep copy of v.
//
// Pointers, slices, map values and interfaces are followed and
// duplicated. Map keys are kept as they are. Pointers shared within v
// stay shared in the copy, and cycles stay cycles. Unexported struct
// fields are copied as they are, since reflection cannot write them:
// types with private mutable state implement Cloner.
func Copy[T any](v T) T {
	var out T
	reflect.ValueOf(&out).Elem().Set(deepCopy(reflect.ValueOf(&v).Elem(), make(map[visit]reflect.Value)))
	return out
}

// visit identifies a pointer already copied, so aliasing and cycles are
// preserved instead of followed forever.
type visit struct {
	ptr uintptr
	typ reflect.Type
}

func deepCopy(v reflect.Value, seen map[visit]reflect.Value) reflect.Value {
	t := v.Type()
	if out, ok := cloneWith(v); ok {
		return out
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		key := visit{ptr: v.Pointer(), typ: t}
		if p, ok := seen[key]; ok {
			return p
		}
		p := reflect.New(t.Elem())
		seen[key] = p
		p.Elem().Set(deepCopy(v.Elem(), seen))
		return p

	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(t).Elem()
		out.Set(deepCopy(v.Elem(), seen))
		return out

	case reflect.Struct:
		out := reflect.New(t).Elem()
		out.Set(v)
		for i := range t.NumField() {
			if !t.Field(i).IsExported() {
				continue
			}
			out.Field(i).Set(deepCopy(v.Field(i), seen))
		}
		return out

	case reflect.Array:
		out := reflect.New(t).Elem()
		for i := range v.Len() {
			out.Index(i).Set(deepCopy(v.Index(i), seen))
		}
		return out

	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(t, v.Len(), v.Len())
		for i := range v.Len() {
			out.Index(i).Set(deepCopy(v.Index(i), seen))
		}
		return out

	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(t, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value(), seen))
		}
		return out

	default:
		return v
	}
}

// cloneWith applies the value's own Cloner, if it has a usable one.
func cloneWith(v reflect.Value) (reflect.Value, bool) {
	if !v.Type().Implements(clonerType) || !v.CanInterface() {
		return reflect.Value{}, false
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return reflect.Value{}, false
		}
	}
	out := reflect.ValueOf(v.Interface().(Cloner).DeepClone())
	if !out.IsValid() || out.Type() != v.Type() {
		return reflect.Value{}, false
	}
	return out, true
}
