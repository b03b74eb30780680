package query

import "strconv"

// ToFloat64 coerces the numeric types JSON decoding and Go callers produce
// into a float64 for comparison. Numeric strings coerce as well, matching
// how query-string input arrives untyped.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ToBool coerces boolean input, accepting the "true"/"false" strings
// query-string transport delivers. The matcher and the storage translator
// share it so presence checks behave identically in both.
func ToBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		switch val {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}
