package assets

import "embed"

const (
	PostgresMigrationDir = "migrations/postgres"
	MySQLMigrationDir    = "migrations/mysql"
	SqliteMigrationDir   = "migrations/sqlite"
)

// EmbedMigrations within the nexus-search binary.
//
//go:embed migrations/*
var EmbedMigrations embed.FS
