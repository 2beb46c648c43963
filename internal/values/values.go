// Package values holds the loose-typing helpers shared by the visibility
// evaluator, the validation compiler and the kind handlers. Form values come
// from JSON, YAML and widget collaborators, so the same logical value may be
// an int, a float64 or a numeric string.
package values

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Lookup resolves a path inside a value map. Exact keys win so flattened
// dotted identifiers ("range.from") keep working; otherwise the path is
// traversed through nested maps.
func Lookup(values map[string]any, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if len(values) == 0 || path == "" {
		return nil, false
	}
	if v, ok := values[path]; ok {
		return v, true
	}

	parts := strings.Split(path, ".")
	var current any = values
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, false
		}
		switch typed := current.(type) {
		case map[string]any:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := typed[part]
			if !ok {
				return nil, false
			}
			current = next
		default:
			return nil, false
		}
	}
	return current, true
}

// IsEmpty reports whether v counts as "no value": nil, a blank string or an
// empty collection. false and 0 are values.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Number coerces numeric kinds and numeric strings to float64.
func Number(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// IsNumeric reports whether value is a Go numeric kind (strings excluded).
func IsNumeric(value any) bool {
	switch value.(type) {
	case float64, float32, int, int64, int32, uint, uint64, uint32:
		return true
	default:
		return false
	}
}

// Length returns the rune length of strings and the item count of
// collections.
func Length(value any) (int, bool) {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v), true
	case []any:
		return len(v), true
	case []string:
		return len(v), true
	case map[string]any:
		return len(v), true
	}
	if value == nil {
		return 0, false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

// Magnitude is what min/max style comparisons act on: the value itself for
// numbers, the length for strings and collections.
func Magnitude(value any) (float64, bool) {
	if IsNumeric(value) {
		return Number(value)
	}
	if n, ok := Length(value); ok {
		return float64(n), true
	}
	return 0, false
}

// String renders value for string comparisons and pattern matching.
func String(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}

// Bool coerces booleans and boolean-ish strings.
func Bool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return parsed, err == nil
	default:
		if n, ok := Number(value); ok {
			return n != 0, true
		}
		return false, false
	}
}

// List converts slices of any element type to []any.
func List(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Equal compares loosely: numbers by value, everything else by string form
// for scalars and deep equality for collections.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if IsNumeric(a) || IsNumeric(b) {
		x, okA := Number(a)
		y, okB := Number(b)
		if okA && okB {
			return x == y
		}
	}
	if ba, ok := a.(bool); ok {
		bb, ok := Bool(b)
		return ok && ba == bb
	}
	if bb, ok := b.(bool); ok {
		ba, ok := Bool(a)
		return ok && ba == bb
	}
	la, okA := List(a)
	lb, okB := List(b)
	if okA || okB {
		if !okA || !okB || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !Equal(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	if ma, ok := a.(map[string]any); ok {
		mb, ok := b.(map[string]any)
		return ok && reflect.DeepEqual(ma, mb)
	}
	return String(a) == String(b)
}

// Contains reports whether list holds an element equal to want.
func Contains(list []any, want any) bool {
	for _, item := range list {
		if Equal(item, want) {
			return true
		}
	}
	return false
}

// Clone deep-copies maps and slices so stored values cannot be mutated by
// callers holding a reference.
func Clone(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = Clone(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = Clone(v)
		}
		return out
	default:
		return typed
	}
}
