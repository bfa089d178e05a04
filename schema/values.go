package schema

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format of date fields.
const DateLayout = time.DateOnly

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

// isBlank reports values that count as "not filled in".
func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

// ParseNumber converts any numeric representation accepted by number
// fields into a float64.
func ParseNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func isDate(v any) bool {
	switch d := v.(type) {
	case time.Time:
		return !d.IsZero()
	case string:
		_, err := time.Parse(DateLayout, strings.TrimSpace(d))
		return err == nil
	}
	return false
}

// ArtifactRef extracts the artifact reference held by a file field: either
// the bare ref or a descriptor object with a "ref" key.
func ArtifactRef(v any) (string, bool) {
	switch a := v.(type) {
	case string:
		if strings.TrimSpace(a) == "" {
			return "", false
		}
		return a, true
	case map[string]any:
		ref, ok := a["ref"].(string)
		if !ok || strings.TrimSpace(ref) == "" {
			return "", false
		}
		return ref, true
	}
	return "", false
}
