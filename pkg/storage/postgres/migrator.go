package postgres

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/ember-nexus/nexus-search/assets"
	"github.com/ember-nexus/nexus-search/pkg/storage"
	"github.com/ember-nexus/nexus-search/pkg/storage/sqlcommon"
)

// PostgresMigrationProvider implements MigrationProvider for PostgreSQL.
type PostgresMigrationProvider struct{}

// NewPostgresMigrationProvider creates a new PostgreSQL migration provider.
func NewPostgresMigrationProvider() *PostgresMigrationProvider {
	return &PostgresMigrationProvider{}
}

// GetSupportedEngine returns the database engine this provider supports.
func (p *PostgresMigrationProvider) GetSupportedEngine() string {
	return "postgres"
}

// RunMigrations executes PostgreSQL database migrations.
func (p *PostgresMigrationProvider) RunMigrations(ctx context.Context, config storage.MigrationConfig) error {
	uri, err := PrepareURI(config.URI, config.Username, config.Password)
	if err != nil {
		return fmt.Errorf("invalid postgres database uri: %w", err)
	}

	db, err := goose.OpenDBWithDriver("pgx", uri)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	defer db.Close()

	provider, err := sqlcommon.NewMigrationProvider(ctx, goose.DialectPostgres, db, assets.PostgresMigrationDir, config)
	if err != nil {
		return err
	}

	return sqlcommon.ExecuteMigrations(ctx, p.GetSupportedEngine(), provider, config)
}

// GetCurrentVersion returns the current migration version.
func (p *PostgresMigrationProvider) GetCurrentVersion(ctx context.Context, config storage.MigrationConfig) (int64, error) {
	uri, err := PrepareURI(config.URI, config.Username, config.Password)
	if err != nil {
		return 0, fmt.Errorf("invalid postgres database uri: %w", err)
	}

	db, err := goose.OpenDBWithDriver("pgx", uri)
	if err != nil {
		return 0, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	defer db.Close()

	return sqlcommon.CurrentVersion(ctx, goose.DialectPostgres, db, assets.PostgresMigrationDir)
}
