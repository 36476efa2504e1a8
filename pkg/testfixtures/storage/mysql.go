package storage

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	nexusmysql "github.com/ember-nexus/nexus-search/pkg/storage/mysql"
)

const (
	mySQLImage = "mysql:8"
)

type mySQLTestContainer struct {
	addr     string
	username string
	password string
	version  int64
}

// NewMySQLTestContainer returns an implementation of the DatastoreTestContainer interface
// for MySQL.
func NewMySQLTestContainer() *mySQLTestContainer {
	return &mySQLTestContainer{}
}

func (m *mySQLTestContainer) GetDatabaseSchemaVersion() int64 {
	return m.version
}

// RunMySQLTestContainer runs a MySQL container, connects to it, and returns a
// bootstrapped implementation of the DatastoreTestContainer interface wired up for the
// MySQL datastore engine.
func (m *mySQLTestContainer) RunMySQLTestContainer(t testing.TB) DatastoreTestContainer {
	addr := runContainer(t, containerSpec{
		name:  "mysql",
		image: mySQLImage,
		env: []string{
			"MYSQL_DATABASE=defaultdb",
			"MYSQL_ROOT_PASSWORD=secret",
		},
		cmd:  []string{"--log-error-verbosity=1"},
		port: "3306/tcp",
	})

	m.addr = addr
	m.username = "root"
	m.password = "secret"

	uri := m.GetConnectionURI(true)
	require.NoError(t, waitForDatabase(t, "mysql", uri), "failed to connect to mysql container")

	m.version = migrateToLatest(t, nexusmysql.NewMySQLMigrationProvider(), uri)

	return m
}

// GetConnectionURI returns the mysql connection uri for the running mysql test container.
func (m *mySQLTestContainer) GetConnectionURI(includeCredentials bool) string {
	cfg := mysql.NewConfig()
	if includeCredentials {
		cfg.User = m.username
		cfg.Passwd = m.password
	}
	cfg.Net = "tcp"
	cfg.Addr = m.addr
	cfg.DBName = "defaultdb"
	cfg.ParseTime = true

	return cfg.FormatDSN()
}

func (m *mySQLTestContainer) GetUsername() string {
	return m.username
}

func (m *mySQLTestContainer) GetPassword() string {
	return m.password
}
