package search

import (
	"reflect"
	"strconv"
)

// MergeParameters builds the parameters of a step. Later sets win on key
// collisions, so the call order previous, step, global gives global parameters
// the highest precedence.
func MergeParameters(sets ...map[string]any) map[string]any {
	size := 0
	for _, set := range sets {
		size += len(set)
	}

	merged := make(map[string]any, size)
	for _, set := range sets {
		for key, value := range set {
			merged[key] = value
		}
	}
	return merged
}

// ResultsToParameters turns the results of a step into parameters for the next
// one. Maps contribute their keys, lists contribute their positions as "0", "1",
// and so on. Any other value contributes nothing.
func ResultsToParameters(results any) map[string]any {
	switch v := results.(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	case []any:
		params := make(map[string]any, len(v))
		for i, item := range v {
			params[strconv.Itoa(i)] = item
		}
		return params
	}

	rv := reflect.ValueOf(results)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		params := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			params[iter.Key().String()] = iter.Value().Interface()
		}
		return params
	case reflect.Slice, reflect.Array:
		params := make(map[string]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			params[strconv.Itoa(i)] = rv.Index(i).Interface()
		}
		return params
	default:
		return nil
	}
}
