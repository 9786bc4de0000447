package schema

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Coerce converts a decoded JSON object into a Record holding every
// declared field. Missing, null or unconvertible values take the field
// default; a missing required field is filled rather than rejected.
// Keys not declared in the schema are dropped.
func (s Schema) Coerce(obj map[string]any) Record {
	rec := make(Record, len(s.Fields))
	for _, f := range s.Fields {
		v, ok := lookup(obj, f.Name)
		rec[f.Name] = f.Coerce(v, ok)
	}
	return rec
}

// Coerce converts a single value to the field type.
func (f Field) Coerce(v any, present bool) any {
	if present && v != nil {
		if out, ok := convert(f.Type, v); ok {
			return out
		}
	}
	return f.DefaultValue()
}

// DefaultValue returns the typed default, or the zero value of the type.
// Lists are freshly allocated on every call.
func (f Field) DefaultValue() any {
	if f.Default != nil {
		if out, ok := convert(f.Type, f.Default); ok {
			return out
		}
	}
	switch f.Type {
	case TypeStringList:
		return []string{}
	case TypeNumber:
		return float64(0)
	case TypeInteger:
		return int64(0)
	case TypeBoolean:
		return false
	default:
		return ""
	}
}

// lookup finds key exactly, then case-insensitively; among several
// case-insensitive matches the lexically smallest key wins.
func lookup(obj map[string]any, key string) (any, bool) {
	if v, ok := obj[key]; ok {
		return v, true
	}
	var matches []string
	for k := range obj {
		if strings.EqualFold(k, key) {
			matches = append(matches, k)
		}
	}
	if len(matches) == 0 {
		return nil, false
	}
	sort.Strings(matches)
	return obj[matches[0]], true
}

func convert(t FieldType, v any) (any, bool) {
	switch t {
	case TypeString:
		return toString(v)
	case TypeStringList:
		return toStringList(v)
	case TypeNumber:
		f, ok := toFloat(v)
		if !ok {
			return nil, false
		}
		return f, true
	case TypeInteger:
		f, ok := toFloat(v)
		if !ok || f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, false
		}
		// Fractional parts are dropped.
		return int64(f), true
	case TypeBoolean:
		return toBool(v)
	default:
		return nil, false
	}
}

func toString(v any) (any, bool) {
	if s, ok := scalarString(v); ok {
		return s, true
	}
	if list, ok := toStringList(v); ok {
		items := list.([]string)
		if len(items) == 0 {
			return nil, false
		}
		return strings.Join(items, ", "), true
	}
	return nil, false
}

func toStringList(v any) (any, bool) {
	switch val := v.(type) {
	case []string:
		out := make([]string, 0, len(val))
		for _, s := range val {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, true
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := scalarString(item); ok && s != "" {
				out = append(out, s)
			}
		}
		return out, true
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}, true
		}
	}
	return nil, false
}

// scalarString renders strings, numbers and booleans.
func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), true
	case bool:
		return strconv.FormatBool(val), true
	case json.Number:
		return val.String(), true
	}
	if f, ok := numeric(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

// toFloat accepts numbers and numeric strings. NaN and infinities are
// rejected since they cannot be encoded as JSON.
func toFloat(v any) (float64, bool) {
	f, ok := numeric(v)
	if !ok {
		var s string
		switch val := v.(type) {
		case string:
			s = val
		case json.Number:
			s = val.String()
		default:
			return 0, false
		}
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func toBool(v any) (any, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return nil, false
		}
		return b, true
	}
	return nil, false
}
