package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ember-nexus/nexus-search/pkg/logger"
	"github.com/ember-nexus/nexus-search/pkg/telemetry"
)

var tracer = otel.Tracer("pkg/search")

// Response is the outcome of a pipeline run. Debug is only encoded when the
// request asked for it.
type Response struct {
	Result         any
	Debug          []map[string]any
	DebugRequested bool
}

// MarshalJSON encodes the response as {"result": ..., "debug": [...]}.
func (r *Response) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"result": r.Result,
	}
	if r.DebugRequested {
		debug := r.Debug
		if debug == nil {
			debug = []map[string]any{}
		}
		out["debug"] = debug
	}
	return json.Marshal(out)
}

// Pipeline runs the steps of a search request one after another, feeding the
// results of each step into the parameters of the next.
type Pipeline struct {
	registry            *Registry
	logger              logger.Logger
	allowDangerousSteps bool
}

type PipelineOption func(p *Pipeline)

// WithLogger sets the logger used for per-step diagnostics.
func WithLogger(l logger.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithDangerousStepsAllowed controls whether steps reporting IsDangerous may run.
func WithDangerousStepsAllowed(allowed bool) PipelineOption {
	return func(p *Pipeline) {
		p.allowDangerousSteps = allowed
	}
}

// NewPipeline returns a Pipeline resolving step types against registry.
// Dangerous steps are allowed unless configured otherwise.
func NewPipeline(registry *Registry, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		registry:            registry,
		logger:              logger.NewNoopLogger(),
		allowDangerousSteps: true,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Execute runs all steps of req in order and stops at the first failure. The
// error of the failing step is returned unchanged.
func (p *Pipeline) Execute(ctx context.Context, req *Request) (*Response, error) {
	pipelineStepsHistogram.Observe(float64(len(req.Steps)))

	var lastResult any = []any{}
	debug := make([]map[string]any, 0, len(req.Steps))

	for index, descriptor := range req.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parameters := MergeParameters(ResultsToParameters(lastResult), descriptor.Parameters, req.Parameters)

		step, ok := p.registry.Lookup(descriptor.Type)
		if !ok {
			return nil, NewBadContentError(fmt.Sprintf("steps[%d].type", index), "valid type", descriptor.Type)
		}

		if step.IsDangerous() && !p.allowDangerousSteps {
			return nil, &DangerousStepError{Index: index, Type: descriptor.Type}
		}

		result, err := p.executeStep(ctx, index, step, descriptor.Query, parameters)
		if err != nil {
			return nil, err
		}

		lastResult = result.Results
		debug = append(debug, result.Debug)
	}

	return &Response{
		Result:         lastResult,
		Debug:          debug,
		DebugRequested: req.Debug,
	}, nil
}

func (p *Pipeline) executeStep(ctx context.Context, index int, step Step, query any, parameters map[string]any) (*StepResult, error) {
	ctx, span := tracer.Start(ctx, "search.Step", trace.WithAttributes(
		attribute.String("step.type", step.Identifier()),
		attribute.Int("step.index", index),
	))
	defer span.End()

	start := time.Now()

	var result *StepResult
	var err error
	if recovered := panics.Try(func() {
		result, err = step.Execute(ctx, query, parameters)
	}); recovered != nil {
		err = fmt.Errorf("step '%s' panicked: %w", step.Identifier(), recovered.AsError())
	}
	if err == nil && result == nil {
		err = NewContractError(fmt.Sprintf("Step '%s' returned no result.", step.Identifier()), nil)
	}

	duration := time.Since(start)
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailure
		telemetry.TraceError(span, err)
	}
	stepDurationHistogram.WithLabelValues(step.Identifier(), outcome).Observe(float64(duration.Milliseconds()))

	p.logger.DebugWithContext(ctx, "search step executed",
		zap.String("step_type", step.Identifier()),
		zap.Int("step_index", index),
		zap.Int64("duration_ms", duration.Milliseconds()),
		zap.String("outcome", outcome),
	)

	if err != nil {
		return nil, err
	}

	return result, nil
}
