package sqlcommon

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"

	"github.com/cenkalti/backoff/v4"
	"github.com/pressly/goose/v3"

	"github.com/ember-nexus/nexus-search/assets"
	"github.com/ember-nexus/nexus-search/pkg/storage"
)

// NewMigrationProvider waits for db to answer pings within the configured
// timeout and returns a goose provider over the embedded migrations in dir.
func NewMigrationProvider(ctx context.Context, dialect goose.Dialect, db *sql.DB, dir string, config storage.MigrationConfig) (*goose.Provider, error) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = config.Timeout
	err := backoff.Retry(func() error {
		return db.PingContext(ctx)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s connection: %w", dialect, err)
	}

	return newGooseProvider(dialect, db, dir, config.Verbose)
}

func newGooseProvider(dialect goose.Dialect, db *sql.DB, dir string, verbose bool) (*goose.Provider, error) {
	migrationsFS, err := fs.Sub(assets.EmbedMigrations, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s migrations: %w", dialect, err)
	}

	provider, err := goose.NewProvider(dialect, db, migrationsFS, goose.WithVerbose(verbose))
	if err != nil {
		return nil, fmt.Errorf("failed to create goose provider: %w", err)
	}
	return provider, nil
}

// CurrentVersion returns the schema revision of db.
func CurrentVersion(ctx context.Context, dialect goose.Dialect, db *sql.DB, dir string) (int64, error) {
	provider, err := newGooseProvider(dialect, db, dir, false)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}

// ExecuteMigrations migrates up to the latest revision when TargetVersion is 0,
// otherwise up or down to TargetVersion.
func ExecuteMigrations(ctx context.Context, engine string, provider *goose.Provider, config storage.MigrationConfig) error {
	currentVersion, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get %s db version: %w", engine, err)
	}

	log.Printf("%s current version %d", engine, currentVersion)

	if config.TargetVersion == 0 {
		log.Printf("running all %s migrations", engine)
		if _, err := provider.Up(ctx); err != nil {
			return fmt.Errorf("failed to run %s migrations: %w", engine, err)
		}
		log.Printf("%s migration done", engine)
		return nil
	}

	log.Printf("migrating %s to %d", engine, config.TargetVersion)
	targetInt64Version := int64(config.TargetVersion)

	switch {
	case targetInt64Version < currentVersion:
		if _, err := provider.DownTo(ctx, targetInt64Version); err != nil {
			return fmt.Errorf("failed to run %s migrations down to %v: %w", engine, targetInt64Version, err)
		}
	case targetInt64Version > currentVersion:
		if _, err := provider.UpTo(ctx, targetInt64Version); err != nil {
			return fmt.Errorf("failed to run %s migrations up to %v: %w", engine, targetInt64Version, err)
		}
	default:
		log.Printf("%s nothing to do", engine)
		return nil
	}

	log.Printf("%s migration done", engine)
	return nil
}
