package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// present reports whether a decoded value counts as set: not null, not an
// empty string, not an empty list or object. Zero and false are present.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

// first returns the first present value among keys.
func first(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && present(v) {
			return v, true
		}
	}
	return nil, false
}

func firstString(obj map[string]any, keys ...string) string {
	v, ok := first(obj, keys...)
	if !ok {
		return ""
	}
	return Stringify(v)
}

// Stringify renders a decoded JSON value as text. Numbers keep their literal
// form, objects and lists become compact JSON.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
