package ruleset

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// normalizeValue folds the shapes different decoders produce into one:
// mappings become map[string]any, sequences []any, integers int and
// other numbers float64.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeValue(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalizeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return normalizeInt(n, float64(n))
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case int64:
		return normalizeInt(t, float64(t))
	case int32:
		return int(t)
	case uint64:
		if t > math.MaxInt64 {
			return float64(t)
		}
		return normalizeInt(int64(t), float64(t))
	case float32:
		return float64(t)
	default:
		return v
	}
}

func normalizeInt(n int64, f float64) any {
	if n < math.MinInt || n > math.MaxInt {
		return f
	}
	return int(n)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		return cloneSlice(t)
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneSlice(s []any) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = cloneValue(v)
	}
	return out
}

// deepMerge writes src into dst. Nested mappings merge key by key; every
// other value in src replaces the one in dst.
func deepMerge(dst, src map[string]any) map[string]any {
	if dst == nil && src != nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		sm, srcIsMap := v.(map[string]any)
		dm, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[k] = deepMerge(dm, sm)
			continue
		}
		dst[k] = cloneValue(v)
	}
	return dst
}

// unionStrings appends to dst every entry of src not already present,
// keeping first-seen order.
func unionStrings(dst, src []string) []string {
	for _, s := range src {
		if !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}
