package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver.
	"github.com/stretchr/testify/require"

	"github.com/ember-nexus/nexus-search/pkg/storage"
	"github.com/ember-nexus/nexus-search/pkg/storage/postgres"
)

const (
	postgresImage = "postgres:17"
)

type postgresTestContainer struct {
	addr     string
	version  int64
	username string
	password string
}

// NewPostgresTestContainer returns an implementation of the DatastoreTestContainer interface
// for Postgres.
func NewPostgresTestContainer() *postgresTestContainer {
	return &postgresTestContainer{}
}

func (p *postgresTestContainer) GetDatabaseSchemaVersion() int64 {
	return p.version
}

// RunPostgresTestContainer runs a Postgres container, connects to it, and returns a
// bootstrapped implementation of the DatastoreTestContainer interface wired up for the
// Postgres datastore engine.
func (p *postgresTestContainer) RunPostgresTestContainer(t testing.TB) DatastoreTestContainer {
	addr := runContainer(t, containerSpec{
		name:  "postgres",
		image: postgresImage,
		env: []string{
			"POSTGRES_DB=defaultdb",
			"POSTGRES_PASSWORD=secret",
		},
		port: "5432/tcp",
	})

	p.addr = addr
	p.username = "postgres"
	p.password = "secret"

	uri := p.GetConnectionURI(true)
	require.NoError(t, waitForDatabase(t, "pgx", uri), "failed to connect to postgres container")

	p.version = migrateToLatest(t, postgres.NewPostgresMigrationProvider(), uri)

	return p
}

// GetConnectionURI returns the postgres connection uri for the running postgres test container.
func (p *postgresTestContainer) GetConnectionURI(includeCredentials bool) string {
	creds := ""
	if includeCredentials {
		creds = fmt.Sprintf("%s:%s@", p.username, p.password)
	}

	return fmt.Sprintf(
		"postgres://%s%s/%s?sslmode=disable",
		creds,
		p.addr,
		"defaultdb",
	)
}

func (p *postgresTestContainer) GetUsername() string {
	return p.username
}

func (p *postgresTestContainer) GetPassword() string {
	return p.password
}

// migrateToLatest applies every embedded migration through provider and
// returns the resulting schema version.
func migrateToLatest(t testing.TB, provider storage.MigrationProvider, uri string) int64 {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := storage.MigrationConfig{
		Engine:  provider.GetSupportedEngine(),
		URI:     uri,
		Timeout: time.Minute,
	}

	require.NoError(t, provider.RunMigrations(ctx, cfg))

	version, err := provider.GetCurrentVersion(ctx, cfg)
	require.NoError(t, err)

	return version
}
