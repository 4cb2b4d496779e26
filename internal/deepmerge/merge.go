// Package deepmerge merges and clones dynamic parameter values. Nested
// overrides keep explicit settings from the strong value while filling
// missing keys from the weak one; cloning detaches literal defaults so
// instances never share mutable state.
package deepmerge

import "reflect"

// Merge composes strong over weak. Maps merge key-wise and recursively;
// any other value from strong wins outright. Both inputs are left
// untouched.
func Merge(strong, weak any) any {
	if strong == nil {
		return Clone(weak)
	}
	if weak == nil {
		return Clone(strong)
	}

	strongMap, strongOK := strong.(map[string]any)
	weakMap, weakOK := weak.(map[string]any)
	if !strongOK || !weakOK {
		return Clone(strong)
	}

	merged := make(map[string]any, len(strongMap)+len(weakMap))
	for key, value := range weakMap {
		merged[key] = Clone(value)
	}
	for key, value := range strongMap {
		if existing, ok := merged[key]; ok {
			merged[key] = Merge(value, existing)
			continue
		}
		merged[key] = Clone(value)
	}
	return merged
}

// Clone returns a deep copy of value. Maps, slices, arrays, pointers, and
// structs are copied recursively; scalars pass through.
func Clone(value any) any {
	if value == nil {
		return nil
	}
	cloned := cloneValue(reflect.ValueOf(value))
	if !cloned.IsValid() {
		return nil
	}
	return cloned.Interface()
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneValue(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		return v
	}
}
