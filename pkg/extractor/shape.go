package extractor

import (
	"fmt"
	"sort"

	"github.com/jmylchreest/sitebrief/pkg/schema"
)

// shape maps a decoded payload onto s and coerces each record. It returns
// the number of list elements dropped for not being objects.
func shape(payload any, s schema.Schema) ([]schema.Record, int, error) {
	if s.List {
		return shapeList(payload, s)
	}
	obj, err := recordObject(payload, s)
	if err != nil {
		return nil, 0, err
	}
	return []schema.Record{s.Coerce(obj)}, 0, nil
}

// recordObject picks the object a record schema coerces.
func recordObject(payload any, s schema.Schema) (map[string]any, error) {
	switch v := payload.(type) {
	case map[string]any:
		return unwrapSingle(v, s), nil
	case []any:
		for _, elem := range v {
			if obj, ok := elem.(map[string]any); ok {
				return unwrapSingle(obj, s), nil
			}
		}
		return nil, fmt.Errorf("expected an object, got an array with no objects")
	default:
		return nil, fmt.Errorf("expected an object, got %T", payload)
	}
}

// unwrapSingle handles {"profile": {...}} style envelopes: an object that
// carries none of the declared fields and exactly one key holding an object.
func unwrapSingle(obj map[string]any, s schema.Schema) map[string]any {
	if len(obj) != 1 || hasDeclaredField(obj, s) {
		return obj
	}
	for _, v := range obj {
		if inner, ok := v.(map[string]any); ok {
			return inner
		}
	}
	return obj
}

func hasDeclaredField(obj map[string]any, s schema.Schema) bool {
	for _, f := range s.Fields {
		if _, ok := obj[f.Name]; ok {
			return true
		}
	}
	return false
}

// listElements finds the element array for a list schema.
func listElements(payload any, s schema.Schema) ([]any, error) {
	switch v := payload.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if s.ListField != "" {
			if inner, ok := v[s.ListField]; ok {
				arr, ok := inner.([]any)
				if !ok {
					return nil, fmt.Errorf("field %q is %T, not an array", s.ListField, inner)
				}
				return arr, nil
			}
		}

		// Otherwise the first array of objects by key order, so the choice
		// does not depend on map iteration.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if arr, ok := v[k].([]any); ok && containsObject(arr) {
				return arr, nil
			}
		}

		// A lone object is a one-element list.
		return []any{v}, nil
	default:
		return nil, fmt.Errorf("expected an array, got %T", payload)
	}
}

func shapeList(payload any, s schema.Schema) ([]schema.Record, int, error) {
	elems, err := listElements(payload, s)
	if err != nil {
		return nil, 0, err
	}

	records := make([]schema.Record, 0, len(elems))
	dropped := 0
	for _, elem := range elems {
		obj, ok := elem.(map[string]any)
		if !ok {
			dropped++
			continue
		}
		records = append(records, s.Coerce(obj))
	}
	return records, dropped, nil
}

func containsObject(arr []any) bool {
	for _, elem := range arr {
		if _, ok := elem.(map[string]any); ok {
			return true
		}
	}
	return false
}
