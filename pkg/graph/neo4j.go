package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ember-nexus/nexus-search/pkg/logger"
	"github.com/ember-nexus/nexus-search/pkg/telemetry"
)

var tracer = otel.Tracer("pkg/graph")

func startTrace(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "neo4j."+name)
}

// Neo4jConfig holds the connection settings of a Neo4jReader.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string

	MaxConnectionPoolSize        int
	ConnectionAcquisitionTimeout time.Duration
	FetchSize                    int

	Logger logger.Logger
}

// Neo4jReader is a Reader backed by the official Neo4j driver.
type Neo4jReader struct {
	driver   neo4j.DriverWithContext
	database string
	logger   logger.Logger
}

var _ Reader = (*Neo4jReader)(nil)

// NewNeo4jReader creates the driver. It does not contact the server; call
// VerifyConnectivity for that.
func NewNeo4jReader(cfg Neo4jConfig) (*Neo4jReader, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4j.Config) {
			if cfg.MaxConnectionPoolSize > 0 {
				c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
			}
			if cfg.ConnectionAcquisitionTimeout > 0 {
				c.ConnectionAcquisitionTimeout = cfg.ConnectionAcquisitionTimeout
			}
			if cfg.FetchSize != 0 {
				c.FetchSize = cfg.FetchSize
			}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("initialize neo4j driver: %w", err)
	}

	l := cfg.Logger
	if l == nil {
		l = logger.NewNoopLogger()
	}

	return &Neo4jReader{
		driver:   driver,
		database: cfg.Database,
		logger:   l,
	}, nil
}

// ReadTransaction see [Reader].ReadTransaction.
func (r *Neo4jReader) ReadTransaction(ctx context.Context, query string, parameters map[string]any) ([]Record, error) {
	ctx, span := startTrace(ctx, "ReadTransaction")
	defer span.End()

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: r.database,
	})
	defer func() {
		if err := session.Close(ctx); err != nil {
			r.logger.WarnWithContext(ctx, "failed to close neo4j session", zap.Error(err))
		}
	}()

	rows, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]Record, error) {
		result, err := tx.Run(ctx, query, NormalizeParameters(parameters))
		if err != nil {
			return nil, err
		}

		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}

		rows := make([]Record, 0, len(records))
		for _, record := range records {
			rows = append(rows, convertRecord(record))
		}
		return rows, nil
	})
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, fmt.Errorf("graph read transaction: %w", err)
	}

	span.SetAttributes(attribute.Int("rows", len(rows)))

	return rows, nil
}

// VerifyConnectivity see [Reader].VerifyConnectivity.
func (r *Neo4jReader) VerifyConnectivity(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

// Close releases all pooled connections.
func (r *Neo4jReader) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

func convertRecord(record *neo4j.Record) Record {
	row := make(Record, len(record.Keys))
	for i, key := range record.Keys {
		row[key] = convertValue(record.Values[i])
	}
	return row
}

func convertValue(value any) any {
	switch v := value.(type) {
	case neo4j.Node:
		return convertNode(v)
	case neo4j.Relationship:
		return convertRelationship(v)
	case neo4j.Path:
		path := Path{
			Nodes:         make([]Node, 0, len(v.Nodes)),
			Relationships: make([]Relationship, 0, len(v.Relationships)),
		}
		for _, node := range v.Nodes {
			path.Nodes = append(path.Nodes, convertNode(node))
		}
		for _, relationship := range v.Relationships {
			path.Relationships = append(path.Relationships, convertRelationship(relationship))
		}
		return path
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = convertValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = convertValue(item)
		}
		return out
	default:
		return v
	}
}

func convertNode(node neo4j.Node) Node {
	return Node{
		ElementID:  node.ElementId,
		Labels:     node.Labels,
		Properties: node.Props,
	}
}

func convertRelationship(relationship neo4j.Relationship) Relationship {
	return Relationship{
		ElementID:      relationship.ElementId,
		StartElementID: relationship.StartElementId,
		EndElementID:   relationship.EndElementId,
		Type:           relationship.Type,
		Properties:     relationship.Props,
	}
}
