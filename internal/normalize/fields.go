// Package normalize maps raw per-source JSON payloads onto canonical records.
//
// Every function here is pure: rows in, records out, no I/O. Malformed or
// missing fields become absent values; nothing panics or returns an error.
package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Rows walks path through nested objects of a decoded JSON payload and returns
// the object elements of the array found there. Non-object elements are
// skipped. A missing path yields nil.
func Rows(payload any, path ...string) []map[string]any {
	cur := payload
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[p]
	}
	arr, ok := cur.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// str returns the first non-empty value among keys, rendering numbers
// without a trailing fraction.
func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := asString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// num returns the first value among keys that parses as a finite number.
func num(m map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		if f, ok := asFloat(m[k]); ok {
			return &f
		}
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func year(m map[string]any, keys ...string) int {
	for _, k := range keys {
		s := asString(m[k])
		if len(s) >= 4 {
			if y, err := strconv.Atoi(s[:4]); err == nil && y > 0 {
				return y
			}
		}
	}
	return 0
}

// obj descends through nested objects.
func obj(m map[string]any, path ...string) map[string]any {
	cur := m
	for _, p := range path {
		next, ok := cur[p].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

func stringList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, el := range arr {
		if s := asString(el); s != "" {
			out = append(out, s)
		}
	}
	return out
}
