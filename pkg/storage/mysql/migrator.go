package mysql

import (
	"context"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"

	"github.com/ember-nexus/nexus-search/assets"
	"github.com/ember-nexus/nexus-search/pkg/storage"
	"github.com/ember-nexus/nexus-search/pkg/storage/sqlcommon"
)

// MySQLMigrationProvider implements MigrationProvider for MySQL.
type MySQLMigrationProvider struct{}

// NewMySQLMigrationProvider creates a new MySQL migration provider.
func NewMySQLMigrationProvider() *MySQLMigrationProvider {
	return &MySQLMigrationProvider{}
}

// GetSupportedEngine returns the database engine this provider supports.
func (m *MySQLMigrationProvider) GetSupportedEngine() string {
	return "mysql"
}

// RunMigrations executes MySQL database migrations.
func (m *MySQLMigrationProvider) RunMigrations(ctx context.Context, config storage.MigrationConfig) error {
	uri, err := m.prepareURI(config)
	if err != nil {
		return err
	}

	db, err := goose.OpenDBWithDriver("mysql", uri)
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}
	defer db.Close()

	provider, err := sqlcommon.NewMigrationProvider(ctx, goose.DialectMySQL, db, assets.MySQLMigrationDir, config)
	if err != nil {
		return err
	}

	return sqlcommon.ExecuteMigrations(ctx, m.GetSupportedEngine(), provider, config)
}

// GetCurrentVersion returns the current migration version.
func (m *MySQLMigrationProvider) GetCurrentVersion(ctx context.Context, config storage.MigrationConfig) (int64, error) {
	uri, err := m.prepareURI(config)
	if err != nil {
		return 0, err
	}

	db, err := goose.OpenDBWithDriver("mysql", uri)
	if err != nil {
		return 0, fmt.Errorf("failed to open mysql connection: %w", err)
	}
	defer db.Close()

	return sqlcommon.CurrentVersion(ctx, goose.DialectMySQL, db, assets.MySQLMigrationDir)
}

// prepareURI ensures the DSN parses time columns and applies credential overrides.
func (m *MySQLMigrationProvider) prepareURI(config storage.MigrationConfig) (string, error) {
	dsn, err := mysql.ParseDSN(config.URI)
	if err != nil {
		return "", fmt.Errorf("invalid mysql database uri: %v", err)
	}

	if config.Username != "" {
		dsn.User = config.Username
	}
	if config.Password != "" {
		dsn.Passwd = config.Password
	}
	dsn.ParseTime = true

	return dsn.FormatDSN(), nil
}
