package graph

import (
	"github.com/google/uuid"
)

// NormalizeParameters returns a copy of parameters the driver can bind: UUIDs
// become strings and typed slices become []any, recursively.
func NormalizeParameters(parameters map[string]any) map[string]any {
	if parameters == nil {
		return map[string]any{}
	}

	normalized := make(map[string]any, len(parameters))
	for key, value := range parameters {
		normalized[key] = normalizeValue(value)
	}
	return normalized
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case uuid.UUID:
		return v.String()
	case *uuid.UUID:
		if v == nil {
			return nil
		}
		return v.String()
	case []uuid.UUID:
		out := make([]any, len(v))
		for i, id := range v {
			out[i] = id.String()
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = NormalizeParameters(item)
		}
		return out
	case map[string]any:
		return NormalizeParameters(v)
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float32:
		return float64(v)
	default:
		return v
	}
}
