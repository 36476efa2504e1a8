package search

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingPrincipal is returned when a step needs the current principal but the
// request context does not carry one.
var ErrMissingPrincipal = errors.New("request context does not carry a principal")

// InvalidInputError is a client-input error. It names the offending field, the
// expected shape and, unless the field is missing, the value that was received.
type InvalidInputError struct {
	Field    string
	Expected string
	Received any
	Missing  bool
}

func (e *InvalidInputError) Error() string {
	if e.Missing {
		return fmt.Sprintf("Endpoint requires that the request contains property '%s' to be set to %s.", e.Field, e.Expected)
	}
	return fmt.Sprintf("Endpoint expects property '%s' to be %s, got '%s'.", e.Field, e.Expected, DescribeValue(e.Received))
}

// NewBadContentError returns an InvalidInputError for a field with the wrong shape.
func NewBadContentError(field, expected string, received any) error {
	return &InvalidInputError{Field: field, Expected: expected, Received: received}
}

// NewMissingPropertyError returns an InvalidInputError for a required field that is absent.
func NewMissingPropertyError(field, expected string) error {
	return &InvalidInputError{Field: field, Expected: expected, Missing: true}
}

// ForbiddenKeywordError is returned when a raw graph query contains a denylisted keyword.
type ForbiddenKeywordError struct {
	Keyword string
}

func (e *ForbiddenKeywordError) Error() string {
	return fmt.Sprintf("Unable to execute potentially unsafe cypher query containing keyword '%s'.", e.Keyword)
}

// DangerousStepError is returned when a dangerous step is requested while the
// pipeline does not allow them.
type DangerousStepError struct {
	Index int
	Type  string
}

func (e *DangerousStepError) Error() string {
	return fmt.Sprintf("Step 'steps[%d]' of type '%s' is not allowed to be executed.", e.Index, e.Type)
}

// ContractError is a server fault: a backend answered with something the step
// cannot interpret. Details are logged but never shown to clients in production.
type ContractError struct {
	Message string
	Details map[string]any
}

func (e *ContractError) Error() string {
	return e.Message
}

// NewContractError returns a ContractError with optional details.
func NewContractError(message string, details map[string]any) error {
	return &ContractError{Message: message, Details: details}
}

// ResourceLimitError is returned when a backend returns more rows than a step accepts.
type ResourceLimitError struct {
	Limit   int
	Message string
}

func (e *ResourceLimitError) Error() string {
	return e.Message
}

// DescribeValue renders a received value for error messages.
func DescribeValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "null"
	case string:
		return value
	case fmt.Stringer:
		return value.String()
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(encoded)
}
