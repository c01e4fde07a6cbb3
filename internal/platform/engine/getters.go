package engine

import (
	"strconv"
	"strings"
)

// Result accessors. Bridge replies are loosely typed JSON: vendor records
// omit fields, send explicit nulls, and occasionally render numbers as
// strings. Every accessor tolerates all of these and answers a miss with
// the field's zero value.

// Str returns the string at key; numbers are rendered, anything else is "".
func Str(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Int returns the integer at key, accepting JSON numbers and numeric
// strings; 0 on a miss.
func Int(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// IntPtr returns the integer at key, or nil when the field is absent, null
// or not numeric.
func IntPtr(m map[string]interface{}, key string) *int {
	switch v := m[key].(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		return &v
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}

// Bool returns the boolean at key, accepting "true"/"false" strings;
// false on a miss.
func Bool(m map[string]interface{}, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	default:
		return false
	}
}

// Float returns the float at key, accepting numeric strings; 0 on a miss.
func Float(m map[string]interface{}, key string) float64 {
	f := FloatPtr(m, key)
	if f == nil {
		return 0
	}
	return *f
}

// FloatPtr returns the float at key, or nil when the field is absent, null
// or not numeric. Records use it where zero is a real value.
func FloatPtr(m map[string]interface{}, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// Strings returns the string list at key; non-string members are dropped.
func Strings(m map[string]interface{}, key string) []string {
	items, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Maps returns the object list at key; non-object members are dropped.
func Maps(m map[string]interface{}, key string) []map[string]interface{} {
	items, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if mm, ok := item.(map[string]interface{}); ok {
			out = append(out, mm)
		}
	}
	return out
}

// SubMap returns the object at key, or nil.
func SubMap(m map[string]interface{}, key string) map[string]interface{} {
	mm, _ := m[key].(map[string]interface{})
	return mm
}
