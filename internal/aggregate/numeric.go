package aggregate

import (
	"fmt"
	"strconv"
)

// coerceNumber converts a row value into a float64 for SUM/AVG/MAX/MIN.
// Values come from shardexec projections, which hand back either a
// float64 (NUMERIC fields) or a string (everything else); a value that
// is neither, or a non-numeric string, is excluded from the reduction
// rather than erroring the whole query (the same "skip, don't fail"
// posture as per-document ingest failures).
func coerceNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// stringify renders a row value as the string form a GROUPBY group key
// uses, so "1" and 1.0 don't land in different groups by accident only
// when they already share a representation — callers keep values in
// whichever type shardexec projected them as.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "\x00"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
