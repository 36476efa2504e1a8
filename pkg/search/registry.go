package search

import (
	"fmt"
	"sort"
)

// Registry maps step identifiers to step instances. It is built once and only
// read afterwards, so it is safe for concurrent use.
type Registry struct {
	steps map[string]Step
}

// NewRegistry returns a Registry holding the given steps. Identifiers must be unique.
func NewRegistry(steps ...Step) (*Registry, error) {
	registry := &Registry{steps: make(map[string]Step, len(steps))}
	for _, step := range steps {
		id := step.Identifier()
		if id == "" {
			return nil, fmt.Errorf("step %T has an empty identifier", step)
		}
		if _, exists := registry.steps[id]; exists {
			return nil, fmt.Errorf("step identifier '%s' is registered more than once", id)
		}
		registry.steps[id] = step
	}

	return registry, nil
}

// MustNewRegistry is like NewRegistry but panics on error.
func MustNewRegistry(steps ...Step) *Registry {
	registry, err := NewRegistry(steps...)
	if err != nil {
		panic(err)
	}
	return registry
}

// Lookup returns the step registered under identifier.
func (r *Registry) Lookup(identifier string) (Step, bool) {
	step, ok := r.steps[identifier]
	return step, ok
}

// Identifiers returns the registered identifiers in sorted order.
func (r *Registry) Identifiers() []string {
	ids := make([]string, 0, len(r.steps))
	for id := range r.steps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
