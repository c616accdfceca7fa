package normalization

import (
	"strings"

	"github.com/spf13/cast"
)

// AsString trims the string form of value. Numbers are rendered without a
// trailing ".0" so JSON ids decoded as float64 stay readable.
func AsString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case float64:
		if typed == float64(int64(typed)) {
			return cast.ToString(int64(typed))
		}
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// AsInt coerces numbers and numeric strings into an int. Anything else is 0.
func AsInt(value any) int {
	return int(AsInt64(value))
}

func AsInt64(value any) int64 {
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
		if f, err := cast.ToFloat64E(value); err == nil {
			return int64(f)
		}
	}
	v, err := cast.ToInt64E(value)
	if err != nil {
		return 0
	}
	return v
}

// AsFloat64 coerces numbers and numeric strings into a float64.
func AsFloat64(value any) float64 {
	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
	}
	v, err := cast.ToFloat64E(value)
	if err != nil {
		return 0
	}
	return v
}

// AsBool reports the boolean value and whether value could be read as one.
// Accepts booleans, 0/1 and the usual string spellings.
func AsBool(value any) (bool, bool) {
	if value == nil {
		return false, false
	}
	if s, ok := value.(string); ok {
		value = strings.ToLower(strings.TrimSpace(s))
		if value == "" {
			return false, false
		}
	}
	v, err := cast.ToBoolE(value)
	if err != nil {
		return false, false
	}
	return v, true
}

// AsInterfaceSlice normalizes different collection types into a []any.
func AsInterfaceSlice(value any) []any {
	switch typed := value.(type) {
	case []any:
		return typed
	case []map[string]any:
		items := make([]any, 0, len(typed))
		for _, entry := range typed {
			items = append(items, entry)
		}
		return items
	default:
		return nil
	}
}

// AsMap returns value as a JSON object or nil.
func AsMap(value any) map[string]any {
	typed, _ := value.(map[string]any)
	return typed
}

// MapFromPayload unwraps {"data": {...}} envelopes into the inner object.
func MapFromPayload(value any) map[string]any {
	typed, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	if data, ok := typed["data"].(map[string]any); ok {
		return data
	}
	return typed
}

// Flatten walks nested arrays and returns every object found, in order.
// The listing endpoint groups records by day as an array of arrays.
func Flatten(value any) []map[string]any {
	var out []map[string]any
	var walk func(any)
	walk = func(v any) {
		switch typed := v.(type) {
		case map[string]any:
			out = append(out, typed)
		case []any:
			for _, item := range typed {
				walk(item)
			}
		case []map[string]any:
			out = append(out, typed...)
		}
	}
	walk(value)
	return out
}
