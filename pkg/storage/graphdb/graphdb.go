// Package graphdb implements the element datastore on top of the graph backend,
// where every element carries its UUID in the "id" property.
package graphdb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ember-nexus/nexus-search/pkg/element"
	"github.com/ember-nexus/nexus-search/pkg/graph"
	"github.com/ember-nexus/nexus-search/pkg/storage"
)

const (
	nodeQuery     = "MATCH (n {id: $id}) RETURN n LIMIT 1"
	relationQuery = "MATCH (start)-[r {id: $id}]->(end) RETURN r, start.id AS start, end.id AS end LIMIT 1"
)

var tracer = otel.Tracer("pkg/storage/graphdb")

func startTrace(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "graphdb."+name)
}

// Datastore reads elements from the graph backend.
type Datastore struct {
	reader graph.Reader
}

var _ storage.ElementDatastore = (*Datastore)(nil)

// New returns a Datastore using reader.
func New(reader graph.Reader) *Datastore {
	return &Datastore{reader: reader}
}

// GetElement see [storage.ElementReader].GetElement. Nodes are looked up first.
func (d *Datastore) GetElement(ctx context.Context, id uuid.UUID) (*element.Element, error) {
	ctx, span := startTrace(ctx, "GetElement")
	defer span.End()

	params := map[string]any{"id": id}

	rows, err := d.reader.ReadTransaction(ctx, nodeQuery, params)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return nodeToElement(id, rows[0])
	}

	rows, err = d.reader.ReadTransaction(ctx, relationQuery, params)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return relationshipToElement(id, rows[0])
	}

	return nil, storage.ErrNotFound
}

// IsReady see [storage.ElementDatastore].IsReady.
func (d *Datastore) IsReady(ctx context.Context) (storage.ReadinessStatus, error) {
	if err := d.reader.VerifyConnectivity(ctx); err != nil {
		return storage.ReadinessStatus{Message: err.Error()}, err
	}
	return storage.ReadinessStatus{IsReady: true}, nil
}

// Close see [storage.ElementDatastore].Close. The graph reader is owned by the caller.
func (d *Datastore) Close() {}

func nodeToElement(id uuid.UUID, row graph.Record) (*element.Element, error) {
	node, ok := row["n"].(graph.Node)
	if !ok {
		return nil, fmt.Errorf("element '%s': expected column 'n' to be a node, got %T", id, row["n"])
	}

	elementType := ""
	if len(node.Labels) > 0 {
		elementType = node.Labels[0]
	}

	return &element.Element{
		ID:         id,
		Kind:       element.KindNode,
		Type:       elementType,
		Properties: node.Properties,
	}, nil
}

func relationshipToElement(id uuid.UUID, row graph.Record) (*element.Element, error) {
	relationship, ok := row["r"].(graph.Relationship)
	if !ok {
		return nil, fmt.Errorf("element '%s': expected column 'r' to be a relationship, got %T", id, row["r"])
	}

	start, err := parseColumnUUID(row, "start")
	if err != nil {
		return nil, fmt.Errorf("element '%s': %w", id, err)
	}
	end, err := parseColumnUUID(row, "end")
	if err != nil {
		return nil, fmt.Errorf("element '%s': %w", id, err)
	}

	return &element.Element{
		ID:         id,
		Kind:       element.KindRelation,
		Type:       relationship.Type,
		Start:      start,
		End:        end,
		Properties: relationship.Properties,
	}, nil
}

func parseColumnUUID(row graph.Record, column string) (uuid.UUID, error) {
	raw, ok := row[column].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("expected column '%s' to be a string, got %T", column, row[column])
	}
	return uuid.Parse(raw)
}
