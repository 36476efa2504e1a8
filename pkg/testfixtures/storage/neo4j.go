package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/require"

	"github.com/ember-nexus/nexus-search/pkg/element"
	"github.com/ember-nexus/nexus-search/pkg/graph"
	"github.com/ember-nexus/nexus-search/pkg/storage/graphdb"
)

const (
	neo4jImage    = "neo4j:5"
	neo4jPassword = "nexus-search-secret"
)

type neo4jTestContainer struct {
	addr     string
	username string
	password string
}

// NewNeo4jTestContainer returns an implementation of the DatastoreTestContainer interface
// for Neo4j, the backend of the graph datastore engine.
func NewNeo4jTestContainer() *neo4jTestContainer {
	return &neo4jTestContainer{}
}

// GetDatabaseSchemaVersion always returns 0, the graph is schemaless.
func (n *neo4jTestContainer) GetDatabaseSchemaVersion() int64 {
	return 0
}

// RunNeo4jTestContainer runs a Neo4j container and waits until it accepts bolt
// connections.
func (n *neo4jTestContainer) RunNeo4jTestContainer(t testing.TB) DatastoreTestContainer {
	addr := runContainer(t, containerSpec{
		name:  "neo4j",
		image: neo4jImage,
		env: []string{
			"NEO4J_AUTH=neo4j/" + neo4jPassword,
		},
		port: "7687/tcp",
	})

	n.addr = addr
	n.username = "neo4j"
	n.password = neo4jPassword

	reader := MustNewGraphReader(t, n)

	backoffPolicy := backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(90 * time.Second))
	err := backoff.Retry(func() error {
		return reader.VerifyConnectivity(context.Background())
	}, backoffPolicy)
	require.NoError(t, err, "failed to connect to neo4j container")

	return n
}

// GetConnectionURI returns the bolt uri of the running neo4j test container.
// Credentials are passed separately to the driver.
func (n *neo4jTestContainer) GetConnectionURI(_ bool) string {
	return "bolt://" + n.addr
}

func (n *neo4jTestContainer) GetUsername() string {
	return n.username
}

func (n *neo4jTestContainer) GetPassword() string {
	return n.password
}

// MustNewGraphReader returns a graph reader connected to container. The reader
// is closed when the test finishes.
func MustNewGraphReader(t testing.TB, container DatastoreTestContainer) *graph.Neo4jReader {
	t.Helper()

	reader, err := graph.NewNeo4jReader(graph.Neo4jConfig{
		URI:      container.GetConnectionURI(false),
		Username: container.GetUsername(),
		Password: container.GetPassword(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = reader.Close(context.Background())
	})

	return reader
}

// graphTestDatastore is the graph datastore plus a write path for seeding test data.
type graphTestDatastore struct {
	*graphdb.Datastore

	driver neo4j.DriverWithContext
}

func newGraphTestDatastore(t testing.TB, container DatastoreTestContainer) *graphTestDatastore {
	driver, err := neo4j.NewDriverWithContext(
		container.GetConnectionURI(false),
		neo4j.BasicAuth(container.GetUsername(), container.GetPassword(), ""),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = driver.Close(context.Background())
	})

	return &graphTestDatastore{
		Datastore: graphdb.New(MustNewGraphReader(t, container)),
		driver:    driver,
	}
}

// Put creates e as a node or, for relations, connects the existing start and end nodes.
func (g *graphTestDatastore) Put(ctx context.Context, e *element.Element) error {
	if err := e.Validate(); err != nil {
		return err
	}

	properties := make(map[string]any, len(e.Properties)+1)
	for key, value := range e.Properties {
		properties[key] = value
	}
	properties["id"] = e.ID

	params := graph.NormalizeParameters(map[string]any{
		"properties": properties,
		"start":      e.Start,
		"end":        e.End,
	})

	var query string
	switch e.Kind {
	case element.KindNode:
		query = fmt.Sprintf("CREATE (n:`%s`) SET n = $properties", e.Type)
	default:
		query = fmt.Sprintf("MATCH (s {id: $start}), (e {id: $end}) CREATE (s)-[r:`%s`]->(e) SET r = $properties", e.Type)
	}

	_, err := neo4j.ExecuteQuery(ctx, g.driver, query, params, neo4j.EagerResultTransformer)
	return err
}
