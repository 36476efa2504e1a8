//go:generate mockgen -source step.go -destination ../../internal/mocks/mock_step.go -package mocks Step

package search

import (
	"context"
)

// Step is one stage of a search pipeline. Implementations must not keep per-call
// state: a single instance serves concurrent pipelines.
type Step interface {
	// Identifier is the stable type name used in step descriptors.
	Identifier() string

	// IsDangerous reports whether the step runs caller-supplied backend queries.
	IsDangerous() bool

	// Execute runs the step. The query has already been checked to be nil, a
	// string or a map[string]any; each step narrows it further.
	Execute(ctx context.Context, query any, parameters map[string]any) (*StepResult, error)
}

// StepResult is what a single step produces. Results seed the parameters of the
// next step, Debug is keyed by the identifier of the producing step.
type StepResult struct {
	Results any
	Debug   map[string]any
}

// NewStepResult returns a StepResult whose debug payload is stored under identifier.
func NewStepResult(identifier string, results any, debug map[string]any) *StepResult {
	return &StepResult{
		Results: results,
		Debug: map[string]any{
			identifier: debug,
		},
	}
}
