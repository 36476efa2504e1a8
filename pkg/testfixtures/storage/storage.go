// Package storage runs throwaway datastore backends for integration tests.
package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ember-nexus/nexus-search/pkg/element"
	"github.com/ember-nexus/nexus-search/pkg/storage"
	"github.com/ember-nexus/nexus-search/pkg/storage/memory"
	"github.com/ember-nexus/nexus-search/pkg/storage/mysql"
	"github.com/ember-nexus/nexus-search/pkg/storage/postgres"
	"github.com/ember-nexus/nexus-search/pkg/storage/sqlcommon"
	"github.com/ember-nexus/nexus-search/pkg/storage/sqlite"
)

// DatastoreTestContainer represents a runnable container for testing specific datastore engines.
type DatastoreTestContainer interface {

	// GetConnectionURI returns a connection string to the datastore instance running inside
	// the container.
	GetConnectionURI(includeCredentials bool) string

	// GetDatabaseSchemaVersion returns the last migration applied (e.g. 1) when the container was created
	GetDatabaseSchemaVersion() int64

	GetUsername() string
	GetPassword() string
}

// WritableDatastore is an element datastore which can be seeded with elements.
type WritableDatastore interface {
	storage.ElementDatastore

	Put(ctx context.Context, e *element.Element) error
}

type memoryTestContainer struct{}

func (m memoryTestContainer) GetConnectionURI(includeCredentials bool) string {
	return ""
}

func (m memoryTestContainer) GetUsername() string {
	return ""
}

func (m memoryTestContainer) GetPassword() string {
	return ""
}

func (m memoryTestContainer) GetDatabaseSchemaVersion() int64 {
	return 0
}

// RunDatastoreTestContainer constructs and runs a specifc DatastoreTestContainer for the provided
// datastore engine. If applicable, it also runs all existing database migrations.
// The resources used by the test engine will be cleaned up after the test has finished.
func RunDatastoreTestContainer(t testing.TB, engine string) DatastoreTestContainer {
	switch engine {
	case "mysql":
		return NewMySQLTestContainer().RunMySQLTestContainer(t)
	case "postgres":
		return NewPostgresTestContainer().RunPostgresTestContainer(t)
	case "sqlite":
		return NewSqliteTestContainer().RunSqliteTestDatabase(t)
	case "graph":
		return NewNeo4jTestContainer().RunNeo4jTestContainer(t)
	case "memory":
		return memoryTestContainer{}
	default:
		t.Fatalf("'%s' engine is not supported by RunDatastoreTestContainer", engine)
		return nil
	}
}

// MustBootstrapDatastore runs the backend of engine and returns a datastore
// connected to it. The datastore is closed when the test finishes.
func MustBootstrapDatastore(t testing.TB, engine string) WritableDatastore {
	testDatastore := RunDatastoreTestContainer(t, engine)

	uri := testDatastore.GetConnectionURI(true)

	var ds WritableDatastore
	var err error

	switch engine {
	case "memory":
		ds = memory.New()
	case "postgres":
		ds, err = postgres.New(uri, sqlcommon.NewConfig())
	case "mysql":
		ds, err = mysql.New(uri, sqlcommon.NewConfig())
	case "sqlite":
		ds, err = sqlite.New(uri, sqlcommon.NewConfig())
	case "graph":
		ds = newGraphTestDatastore(t, testDatastore)
	default:
		t.Fatalf("'%s' is not a supported datastore engine", engine)
	}
	require.NoError(t, err)

	t.Cleanup(ds.Close)

	return ds
}
