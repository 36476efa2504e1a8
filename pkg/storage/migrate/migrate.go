// Package migrate runs the schema migrations of the relational element datastores.
package migrate

import (
	"context"
	"sync"

	"github.com/ember-nexus/nexus-search/pkg/storage"
	"github.com/ember-nexus/nexus-search/pkg/storage/mysql"
	"github.com/ember-nexus/nexus-search/pkg/storage/postgres"
	"github.com/ember-nexus/nexus-search/pkg/storage/sqlite"
)

// MigrationConfig contains the configuration needed for running migrations.
type MigrationConfig = storage.MigrationConfig

var (
	defaultRegistry *storage.MigratorRegistry
	registryOnce    sync.Once
)

// GetDefaultRegistry returns the registry holding the built-in providers.
func GetDefaultRegistry() *storage.MigratorRegistry {
	registryOnce.Do(func() {
		defaultRegistry = storage.NewMigratorRegistry(
			postgres.NewPostgresMigrationProvider(),
			mysql.NewMySQLMigrationProvider(),
			sqlite.NewSQLiteMigrationProvider(),
		)
	})
	return defaultRegistry
}

// RunMigrations runs the migrations for the given config using the default registry.
func RunMigrations(ctx context.Context, cfg MigrationConfig) error {
	return GetDefaultRegistry().Run(ctx, cfg)
}
