// Package element contains the domain entity shared by all backends: a node or
// a relation with a stable UUID.
package element

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind distinguishes nodes from relations.
type Kind string

const (
	KindNode     Kind = "node"
	KindRelation Kind = "relation"
)

// Element is a node or relation as stored in the persistence layer.
type Element struct {
	ID   uuid.UUID
	Kind Kind

	// Type is the node label or the relation type.
	Type string

	// Start and End are set for relations only.
	Start uuid.UUID
	End   uuid.UUID

	Properties map[string]any
}

// Validate reports whether the element is internally consistent.
func (e *Element) Validate() error {
	if e.ID == uuid.Nil {
		return fmt.Errorf("element has no id")
	}
	if e.Type == "" {
		return fmt.Errorf("element '%s' has no type", e.ID)
	}

	switch e.Kind {
	case KindNode:
		return nil
	case KindRelation:
		if e.Start == uuid.Nil || e.End == uuid.Nil {
			return fmt.Errorf("relation '%s' requires start and end", e.ID)
		}
		return nil
	default:
		return fmt.Errorf("element '%s' has unknown kind '%s'", e.ID, e.Kind)
	}
}

// ToRaw returns the external representation of the element:
// {"type", "id", "start", "end", "data"}, where start and end are only present
// for relations and data holds the properties without the id.
func (e *Element) ToRaw() map[string]any {
	data := make(map[string]any, len(e.Properties))
	for key, value := range e.Properties {
		if key == "id" {
			continue
		}
		data[key] = value
	}

	raw := map[string]any{
		"type": e.Type,
		"id":   e.ID.String(),
		"data": data,
	}

	if e.Kind == KindRelation {
		raw["start"] = e.Start.String()
		raw["end"] = e.End.String()
	}

	return raw
}
