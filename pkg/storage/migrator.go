package storage

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// MigrationProvider runs the schema migrations of one database engine.
type MigrationProvider interface {
	// RunMigrations executes database migrations with the provided configuration
	RunMigrations(ctx context.Context, config MigrationConfig) error

	// GetCurrentVersion returns the current migration version of the database
	GetCurrentVersion(ctx context.Context, config MigrationConfig) (int64, error)

	// GetSupportedEngine returns the database engine this provider supports
	GetSupportedEngine() string
}

// MigrationConfig contains the configuration needed for running migrations.
type MigrationConfig struct {
	Engine        string
	URI           string
	TargetVersion uint
	Timeout       time.Duration
	Verbose       bool
	Username      string
	Password      string
}

// MigratorRegistry manages migration providers for different database engines.
type MigratorRegistry struct {
	providers map[string]MigrationProvider
}

// NewMigratorRegistry creates a registry holding the given providers, keyed by
// their supported engine.
func NewMigratorRegistry(providers ...MigrationProvider) *MigratorRegistry {
	registry := &MigratorRegistry{
		providers: make(map[string]MigrationProvider, len(providers)),
	}
	for _, provider := range providers {
		registry.RegisterProvider(provider)
	}
	return registry
}

// RegisterProvider registers provider for its supported engine.
func (r *MigratorRegistry) RegisterProvider(provider MigrationProvider) {
	r.providers[provider.GetSupportedEngine()] = provider
}

// GetProvider returns the migration provider for the specified engine.
func (r *MigratorRegistry) GetProvider(engine string) (MigrationProvider, bool) {
	provider, exists := r.providers[engine]
	return provider, exists
}

// GetSupportedEngines returns the registered engines in sorted order.
func (r *MigratorRegistry) GetSupportedEngines() []string {
	engines := make([]string, 0, len(r.providers))
	for engine := range r.providers {
		engines = append(engines, engine)
	}
	sort.Strings(engines)
	return engines
}

// Run executes the migrations of cfg.Engine. Engines without a schema
// ('memory', 'graph') are a no-op.
func (r *MigratorRegistry) Run(ctx context.Context, cfg MigrationConfig) error {
	switch cfg.Engine {
	case "":
		return fmt.Errorf("missing datastore engine type")
	case "memory", "graph":
		return nil
	}

	provider, exists := r.GetProvider(cfg.Engine)
	if !exists {
		return fmt.Errorf("unknown datastore engine type: %s", cfg.Engine)
	}

	return provider.RunMigrations(ctx, cfg)
}
