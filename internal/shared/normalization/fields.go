package normalization

import "strings"

// Lookup returns the first key of raw holding a non-nil, non-blank value.
// Callers pass every spelling the upstream has used for a field, e.g.
// "check_in_date", "checkInDate".
func Lookup(raw map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func String(raw map[string]any, keys ...string) string {
	v, _ := Lookup(raw, keys...)
	return AsString(v)
}

func Int(raw map[string]any, keys ...string) int {
	v, _ := Lookup(raw, keys...)
	return AsInt(v)
}

func Int64(raw map[string]any, keys ...string) int64 {
	v, _ := Lookup(raw, keys...)
	return AsInt64(v)
}

func Float(raw map[string]any, keys ...string) float64 {
	v, _ := Lookup(raw, keys...)
	return AsFloat64(v)
}

// Bool returns nil when no key holds a readable boolean.
func Bool(raw map[string]any, keys ...string) *bool {
	v, ok := Lookup(raw, keys...)
	if !ok {
		return nil
	}
	b, ok := AsBool(v)
	if !ok {
		return nil
	}
	return &b
}

func Object(raw map[string]any, keys ...string) map[string]any {
	v, _ := Lookup(raw, keys...)
	return AsMap(v)
}

func Objects(raw map[string]any, keys ...string) []map[string]any {
	v, _ := Lookup(raw, keys...)
	return Flatten(v)
}
