package search

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// StepDescriptor is one entry of the steps list of a search request.
type StepDescriptor struct {
	Type       string
	Query      any
	Parameters map[string]any
}

// Request is a parsed search request.
type Request struct {
	Debug      bool
	Parameters map[string]any
	Steps      []StepDescriptor
}

// ErrMalformedBody is returned when the request body is not a JSON object.
var ErrMalformedBody = errors.New("request body must be a JSON object")

// ParseRequest decodes and validates a search request body. JSON numbers are
// normalised to int64 when integral and to float64 otherwise.
func ParseRequest(body io.Reader) (*Request, error) {
	decoder := json.NewDecoder(body)
	decoder.UseNumber()

	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("%w: unexpected data after top-level value", ErrMalformedBody)
	}

	object, ok := NormalizeNumbers(raw).(map[string]any)
	if !ok {
		return nil, ErrMalformedBody
	}

	return requestFromObject(object)
}

// ParseRequestBytes is ParseRequest for an in-memory body.
func ParseRequestBytes(body []byte) (*Request, error) {
	return ParseRequest(bytes.NewReader(body))
}

func requestFromObject(body map[string]any) (*Request, error) {
	req := &Request{
		Parameters: map[string]any{},
	}

	if rawDebug, ok := body["debug"]; ok {
		debug, ok := rawDebug.(bool)
		if !ok {
			return nil, NewBadContentError("debug", "bool", rawDebug)
		}
		req.Debug = debug
	}

	if rawParameters, ok := body["parameters"]; ok {
		parameters, ok := rawParameters.(map[string]any)
		if !ok {
			return nil, NewBadContentError("parameters", "object", rawParameters)
		}
		req.Parameters = parameters
	}

	rawSteps, ok := body["steps"]
	if !ok {
		return nil, NewMissingPropertyError("steps", "array")
	}
	steps, ok := rawSteps.([]any)
	if !ok {
		return nil, NewBadContentError("steps", "array", rawSteps)
	}

	req.Steps = make([]StepDescriptor, 0, len(steps))
	for index, rawStep := range steps {
		descriptor, err := descriptorFromValue(index, rawStep)
		if err != nil {
			return nil, err
		}
		req.Steps = append(req.Steps, descriptor)
	}

	return req, nil
}

func descriptorFromValue(index int, rawStep any) (StepDescriptor, error) {
	step, ok := rawStep.(map[string]any)
	if !ok {
		return StepDescriptor{}, NewBadContentError(fmt.Sprintf("steps[%d]", index), "object", rawStep)
	}

	rawType, ok := step["type"]
	if !ok {
		return StepDescriptor{}, NewMissingPropertyError(fmt.Sprintf("steps[%d].type", index), "string")
	}
	stepType, ok := rawType.(string)
	if !ok {
		return StepDescriptor{}, NewBadContentError(fmt.Sprintf("steps[%d].type", index), "string", rawType)
	}

	var query any
	if rawQuery, ok := step["query"]; ok {
		switch rawQuery.(type) {
		case nil, string, map[string]any:
			query = rawQuery
		default:
			return StepDescriptor{}, NewBadContentError(fmt.Sprintf("steps[%d].query", index), "null | string | object", rawQuery)
		}
	}

	parameters := map[string]any{}
	if rawParameters, ok := step["parameters"]; ok {
		parameters, ok = rawParameters.(map[string]any)
		if !ok {
			return StepDescriptor{}, NewBadContentError(fmt.Sprintf("steps[%d].parameters", index), "object", rawParameters)
		}
	}

	return StepDescriptor{
		Type:       stepType,
		Query:      query,
		Parameters: parameters,
	}, nil
}

// NormalizeNumbers walks a decoded JSON value and replaces every json.Number with
// an int64 when it is integral and fits, or a float64 otherwise.
func NormalizeNumbers(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
				return int64(f)
			}
			return f
		}
		return v.String()
	case map[string]any:
		for key, item := range v {
			v[key] = NormalizeNumbers(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = NormalizeNumbers(item)
		}
		return v
	default:
		return v
	}
}
