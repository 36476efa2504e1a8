package mysql

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/ember-nexus/nexus-search/pkg/storage"
)

func TestPrepareDSN(t *testing.T) {
	got, err := PrepareDSN("root:secret@tcp(localhost:3306)/nexus", "", "")
	require.NoError(t, err)
	require.Equal(t, "root:secret@tcp(localhost:3306)/nexus", got)

	got, err = PrepareDSN("root:secret@tcp(localhost:3306)/nexus", "reader", "other")
	require.NoError(t, err)

	parsed, err := mysql.ParseDSN(got)
	require.NoError(t, err)
	require.Equal(t, "reader", parsed.User)
	require.Equal(t, "other", parsed.Passwd)
	require.Equal(t, "nexus", parsed.DBName)
}

func TestHandleSQLError(t *testing.T) {
	err := HandleSQLError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	require.ErrorIs(t, err, storage.ErrCollision)

	err = HandleSQLError(&mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"})
	require.ErrorContains(t, err, "sql error")
}

func TestMigrationProviderPrepareURI(t *testing.T) {
	provider := NewMySQLMigrationProvider()
	require.Equal(t, "mysql", provider.GetSupportedEngine())

	uri, err := provider.prepareURI(storage.MigrationConfig{URI: "root@tcp(localhost:3306)/nexus", Password: "pw"})
	require.NoError(t, err)

	parsed, err := mysql.ParseDSN(uri)
	require.NoError(t, err)
	require.True(t, parsed.ParseTime)
	require.Equal(t, "pw", parsed.Passwd)
}
