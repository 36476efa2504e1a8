package steps

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ember-nexus/nexus-search/pkg/search"
	"github.com/ember-nexus/nexus-search/pkg/storage"
)

// ElementHydrationStep loads the elements named by the 'elementIds' parameter
// and returns their raw representation.
type ElementHydrationStep struct {
	elements storage.ElementReader
}

var _ search.Step = (*ElementHydrationStep)(nil)

// NewElementHydrationStep returns an ElementHydrationStep reading from elements.
func NewElementHydrationStep(elements storage.ElementReader) *ElementHydrationStep {
	return &ElementHydrationStep{elements: elements}
}

// Identifier see [search.Step].Identifier.
func (s *ElementHydrationStep) Identifier() string {
	return ElementHydrationIdentifier
}

// IsDangerous see [search.Step].IsDangerous.
func (s *ElementHydrationStep) IsDangerous() bool {
	return false
}

// Execute see [search.Step].Execute. Ids without a stored element are skipped.
func (s *ElementHydrationStep) Execute(ctx context.Context, query any, parameters map[string]any) (*search.StepResult, error) {
	if query != nil {
		return nil, search.NewBadContentError("query", "null", query)
	}

	rawIDs, exists := parameters["elementIds"]
	if !exists {
		return nil, search.NewMissingPropertyError("elementIds", "array of element ids")
	}

	elementIDs, err := parseElementIDs(rawIDs)
	if err != nil {
		return nil, err
	}

	elements := make([]any, 0, len(elementIDs))
	for _, elementID := range elementIDs {
		e, err := s.elements.GetElement(ctx, elementID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		elements = append(elements, e.ToRaw())
	}

	return search.NewStepResult(s.Identifier(), elements, map[string]any{
		"query":      query,
		"parameters": parameters,
	}), nil
}

func parseElementIDs(raw any) ([]uuid.UUID, error) {
	switch v := raw.(type) {
	case []uuid.UUID:
		return v, nil
	case []string:
		ids := make([]uuid.UUID, 0, len(v))
		for _, item := range v {
			id, err := parseElementID(item)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, nil
	case []any:
		ids := make([]uuid.UUID, 0, len(v))
		for _, item := range v {
			id, err := parseElementID(item)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, nil
	default:
		return nil, search.NewBadContentError("elementIds", "array of element ids", raw)
	}
}

func parseElementID(raw any) (uuid.UUID, error) {
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, search.NewBadContentError("elementId", "valid uuid", v)
		}
		return id, nil
	default:
		return uuid.Nil, search.NewBadContentError("elementId", "string", raw)
	}
}
