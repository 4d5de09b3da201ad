package node

import (
	"fmt"
	"reflect"
)

// truthy reports whether a resolved value selects a section's content.
// Absent values, false, empty slices/arrays/maps, and nil pointers or
// interfaces are falsey; everything else, including "" and 0, is truthy.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return truthy(rv.Elem().Interface())
	}
	return true
}

// stringify renders a resolved value for interpolation. Absent and nil-ish
// values become the empty string rather than "<nil>".
func stringify(v any) string {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}
	if rv.Kind() == reflect.Pointer {
		return stringify(rv.Elem().Interface())
	}
	return fmt.Sprintf("%v", v)
}

// indirect unwraps pointers and interfaces around a value.
func indirect(v any) reflect.Value {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return rv
		}
		rv = rv.Elem()
	}
	return rv
}

// variableLambda recognizes the callable forms an interpolation accepts.
func variableLambda(v any) (func() (string, error), bool) {
	switch fn := v.(type) {
	case func() (string, error):
		return fn, true
	case func() string:
		return func() (string, error) { return fn(), nil }, true
	}
	return nil, false
}

// sectionLambda recognizes the callable forms a section accepts; the
// argument is the section's raw inner source.
func sectionLambda(v any) (func(string) (string, error), bool) {
	switch fn := v.(type) {
	case func(string) (string, error):
		return fn, true
	case func(string) string:
		return func(text string) (string, error) { return fn(text), nil }, true
	}
	return nil, false
}
