// Package sqlcommon contains the parts of the relational element datastores
// shared by the sqlite, postgres and mysql engines.
package sqlcommon

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"go.opentelemetry.io/otel"

	"github.com/ember-nexus/nexus-search/internal/build"
	"github.com/ember-nexus/nexus-search/pkg/element"
	"github.com/ember-nexus/nexus-search/pkg/logger"
	"github.com/ember-nexus/nexus-search/pkg/storage"
)

var tracer = otel.Tracer("pkg/storage/sqlcommon")

// ElementTable is the name of the table holding every element.
const ElementTable = "element"

// Config defines the configuration parameters
// for setting up and managing a sql connection.
type Config struct {
	Username string
	Password string
	Logger   logger.Logger

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	ExportMetrics bool
}

// DatastoreOption defines a function type
// used for configuring a Config object.
type DatastoreOption func(*Config)

// WithUsername returns a DatastoreOption that sets the username in the Config.
func WithUsername(username string) DatastoreOption {
	return func(config *Config) {
		config.Username = username
	}
}

// WithPassword returns a DatastoreOption that sets the password in the Config.
func WithPassword(password string) DatastoreOption {
	return func(config *Config) {
		config.Password = password
	}
}

// WithLogger returns a DatastoreOption that sets the Logger in the Config.
func WithLogger(l logger.Logger) DatastoreOption {
	return func(cfg *Config) {
		cfg.Logger = l
	}
}

// WithMaxOpenConns returns a DatastoreOption that sets the
// maximum number of open connections in the Config.
func WithMaxOpenConns(c int) DatastoreOption {
	return func(cfg *Config) {
		cfg.MaxOpenConns = c
	}
}

// WithMaxIdleConns returns a DatastoreOption that sets the
// maximum number of idle connections in the Config.
func WithMaxIdleConns(c int) DatastoreOption {
	return func(cfg *Config) {
		cfg.MaxIdleConns = c
	}
}

// WithConnMaxIdleTime returns a DatastoreOption that sets
// the maximum idle time for a connection in the Config.
func WithConnMaxIdleTime(d time.Duration) DatastoreOption {
	return func(cfg *Config) {
		cfg.ConnMaxIdleTime = d
	}
}

// WithConnMaxLifetime returns a DatastoreOption that sets
// the maximum lifetime for a connection in the Config.
func WithConnMaxLifetime(d time.Duration) DatastoreOption {
	return func(cfg *Config) {
		cfg.ConnMaxLifetime = d
	}
}

// WithMetrics returns a DatastoreOption that
// enables the export of metrics in the Config.
func WithMetrics() DatastoreOption {
	return func(cfg *Config) {
		cfg.ExportMetrics = true
	}
}

// NewConfig creates a new Config instance with default values
// and applies any provided DatastoreOption modifications.
func NewConfig(opts ...DatastoreOption) *Config {
	cfg := &Config{}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoopLogger()
	}

	return cfg
}

// ConfigurePool applies the connection pool settings of cfg to db.
func ConfigurePool(db *sql.DB, cfg *Config) {
	if cfg.MaxOpenConns != 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns != 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime != 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime != 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

type errorHandlerFn func(error, ...interface{}) error

// DBInfo bundles a connection with its statement builder and error mapping.
type DBInfo struct {
	db           *sql.DB
	stbl         sq.StatementBuilderType
	HandleSQLErr errorHandlerFn
}

// NewDBInfo constructs a [DBInfo] object.
func NewDBInfo(db *sql.DB, stbl sq.StatementBuilderType, errorHandler errorHandlerFn) *DBInfo {
	return &DBInfo{
		db:           db,
		stbl:         stbl,
		HandleSQLErr: errorHandler,
	}
}

// ReadElement loads the element with the given id.
func ReadElement(ctx context.Context, dbInfo *DBInfo, id uuid.UUID) (*element.Element, error) {
	ctx, span := tracer.Start(ctx, "sqlcommon.ReadElement")
	defer span.End()

	var (
		rawID, kind, elementType string
		startID, endID           sql.NullString
		properties               []byte
	)

	err := dbInfo.stbl.
		Select("id", "kind", "type", "start_id", "end_id", "properties").
		From(ElementTable).
		Where(sq.Eq{"id": id.String()}).
		QueryRowContext(ctx).
		Scan(&rawID, &kind, &elementType, &startID, &endID, &properties)
	if err != nil {
		return nil, dbInfo.HandleSQLErr(err)
	}

	e := &element.Element{
		ID:   id,
		Kind: element.Kind(kind),
		Type: elementType,
	}

	if len(properties) > 0 {
		if err := json.Unmarshal(properties, &e.Properties); err != nil {
			return nil, fmt.Errorf("decode properties of element '%s': %w", id, err)
		}
	}

	if e.Kind == element.KindRelation {
		if e.Start, err = parseNullUUID(startID); err != nil {
			return nil, fmt.Errorf("decode start of element '%s': %w", id, err)
		}
		if e.End, err = parseNullUUID(endID); err != nil {
			return nil, fmt.Errorf("decode end of element '%s': %w", id, err)
		}
	}

	return e, nil
}

// WriteElement inserts e. It fails with storage.ErrCollision if the id is taken.
func WriteElement(ctx context.Context, dbInfo *DBInfo, e *element.Element) error {
	ctx, span := tracer.Start(ctx, "sqlcommon.WriteElement")
	defer span.End()

	if err := e.Validate(); err != nil {
		return err
	}

	properties := e.Properties
	if properties == nil {
		properties = map[string]any{}
	}
	encoded, err := json.Marshal(properties)
	if err != nil {
		return fmt.Errorf("encode properties of element '%s': %w", e.ID, err)
	}

	var startID, endID any
	if e.Kind == element.KindRelation {
		startID = e.Start.String()
		endID = e.End.String()
	}

	_, err = dbInfo.stbl.
		Insert(ElementTable).
		Columns("id", "kind", "type", "start_id", "end_id", "properties").
		Values(e.ID.String(), string(e.Kind), e.Type, startID, endID, string(encoded)).
		ExecContext(ctx)
	if err != nil {
		return dbInfo.HandleSQLErr(err)
	}

	return nil
}

func parseNullUUID(value sql.NullString) (uuid.UUID, error) {
	if !value.Valid {
		return uuid.Nil, fmt.Errorf("missing value")
	}
	return uuid.Parse(value.String)
}

// IsReady returns true if the connection to the datastore is successful
// and the datastore has the latest migration applied.
func IsReady(ctx context.Context, db *sql.DB) (storage.ReadinessStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	// do ping first to ensure we have better error message
	// if error is due to connection issue.
	if pingErr := db.PingContext(ctx); pingErr != nil {
		return storage.ReadinessStatus{}, pingErr
	}

	revision, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return storage.ReadinessStatus{}, err
	}

	if revision < build.MinimumSupportedDatastoreSchemaRevision {
		return storage.ReadinessStatus{
			Message: "datastore requires migrations: at revision '" +
				strconv.FormatInt(revision, 10) +
				"', but requires '" +
				strconv.FormatInt(build.MinimumSupportedDatastoreSchemaRevision, 10) +
				"'. Run 'nexus-search migrate'.",
			IsReady: false,
		}, nil
	}
	return storage.ReadinessStatus{
		IsReady: true,
	}, nil
}
