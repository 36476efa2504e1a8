//go:generate mockgen -source graph.go -destination ../../internal/mocks/mock_graph.go -package mocks Reader

// Package graph contains the client contract of the graph backend and a Neo4j
// implementation of it.
package graph

import (
	"context"
	"errors"
)

// ErrNotAPath is returned by Record.Path when the column holds another type.
var ErrNotAPath = errors.New("value is not a path")

// Reader executes read-only statements against the graph backend.
type Reader interface {
	// ReadTransaction runs query with the given parameters inside a read
	// transaction and returns every row.
	ReadTransaction(ctx context.Context, query string, parameters map[string]any) ([]Record, error)

	// VerifyConnectivity reports whether the backend can be reached.
	VerifyConnectivity(ctx context.Context) error
}

// Record is one row of a result. Values are scalars, lists, maps or one of
// Node, Relationship and Path.
type Record map[string]any

// Node is a graph node.
type Node struct {
	ElementID  string         `json:"elementId"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// Relationship is a graph edge.
type Relationship struct {
	ElementID      string         `json:"elementId"`
	StartElementID string         `json:"startElementId"`
	EndElementID   string         `json:"endElementId"`
	Type           string         `json:"type"`
	Properties     map[string]any `json:"properties"`
}

// Path alternates nodes and relationships: Nodes has exactly one element more
// than Relationships.
type Path struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// Property returns the named node property.
func (n Node) Property(name string) any {
	return n.Properties[name]
}

// Property returns the named relationship property.
func (r Relationship) Property(name string) any {
	return r.Properties[name]
}

// Has reports whether the record contains column.
func (r Record) Has(column string) bool {
	_, ok := r[column]
	return ok
}

// Path returns the value of column as a Path.
func (r Record) Path(column string) (Path, error) {
	switch v := r[column].(type) {
	case Path:
		return v, nil
	case *Path:
		if v != nil {
			return *v, nil
		}
	}
	return Path{}, ErrNotAPath
}

// IdentifierList flattens the path into [n0.id, r0.id, n1.id, ..., nN.id] using
// the "id" property of every element.
func (p Path) IdentifierList() []any {
	if len(p.Nodes) == 0 {
		return []any{}
	}

	list := make([]any, 0, len(p.Nodes)+len(p.Relationships))
	for i := 0; i < len(p.Nodes)-1; i++ {
		list = append(list, p.Nodes[i].Property("id"))
		if i < len(p.Relationships) {
			list = append(list, p.Relationships[i].Property("id"))
		}
	}
	list = append(list, p.Nodes[len(p.Nodes)-1].Property("id"))

	return list
}
