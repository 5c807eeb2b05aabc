package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Document is an untyped field map as stored in the directory or returned by
// the transaction API. Accessors never fail: a missing or mistyped field
// yields the zero value.
type Document map[string]any

// String returns the field as a trimmed string. Numbers are formatted without
// exponent so numeric ids and country codes survive coercion.
func (d Document) String(key string) string {
	return coerceString(d[key])
}

// Map returns a nested object field, or nil.
func (d Document) Map(key string) Document {
	if m, ok := d[key].(map[string]any); ok {
		return Document(m)
	}
	return nil
}

// Time parses a timestamp field. RFC 3339 strings, plain dates, time.Time
// values, and {seconds, nanoseconds} objects are accepted.
func (d Document) Time(key string) *time.Time {
	switch v := d[key].(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		t := v.UTC()
		return &t
	case string:
		return parseTimeString(v)
	case map[string]any:
		secs, ok := numberValue(v["seconds"])
		if !ok {
			secs, ok = numberValue(v["_seconds"])
		}
		if !ok {
			return nil
		}
		nanos, _ := numberValue(v["nanoseconds"])
		t := time.Unix(int64(secs), int64(nanos)).UTC()
		return &t
	}
	return nil
}

func parseTimeString(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func coerceString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return ""
}

func numberValue(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
