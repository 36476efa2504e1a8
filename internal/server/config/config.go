// Package config contains all knobs and defaults used to configure features of
// nexus-search when running as a standalone server.
package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultRequestTimeout      = 10 * time.Second
	DefaultMaxRequestBodyBytes = 1 << 20

	DefaultPageSize    = 25
	DefaultMinPageSize = 5
	DefaultMaxPageSize = 100
	DefaultMaxPaths    = 100

	// DefaultAnonymousUserID is the user requests without a subject run as.
	DefaultAnonymousUserID = "2d376349-c5e2-42c8-8ce0-d6f525256cf7"

	DefaultGroupCacheSize = 10000
	DefaultGroupCacheTTL  = 60 * time.Second

	DefaultGraphMaxConnectionPoolSize = 100
	DefaultGraphConnectionTimeout     = 5 * time.Second

	DefaultBreakerMaxFailures = 5
	DefaultBreakerInterval    = 60 * time.Second
	DefaultBreakerTimeout     = 30 * time.Second
)

var (
	environments = []string{"dev", "test", "prod"}
	engines      = []string{"graph", "memory", "postgres", "mysql", "sqlite"}
	authnMethods = []string{"none", "preshared", "oidc"}
	logLevels    = []string{"none", "debug", "info", "warn", "error", "panic", "fatal"}
)

// SearchConfig defines the limits of the search steps.
type SearchConfig struct {
	// AllowDangerousSteps enables steps that run caller supplied graph queries.
	AllowDangerousSteps bool

	DefaultPageSize int
	MinPageSize     int
	MaxPageSize     int

	// MaxPaths is the number of paths a cypherPath step may return.
	MaxPaths int

	// AnonymousUserID is the principal of requests whose credentials carry no subject.
	AnonymousUserID string

	GroupCacheSize int
	GroupCacheTTL  time.Duration
}

// GraphConfig defines the connection to the Neo4j graph backend.
type GraphConfig struct {
	URI                   string
	Username              string
	Password              string
	MaxConnectionPoolSize int
	ConnectionTimeout     time.Duration
}

// BreakerConfig defines the circuit breaker around index searches.
type BreakerConfig struct {
	MaxFailures uint32
	Interval    time.Duration
	Timeout     time.Duration
}

// ElasticsearchConfig defines the connection to the search index.
type ElasticsearchConfig struct {
	Addresses  []string
	Username   string
	Password   string
	APIKey     string
	MaxRetries int
	Breaker    BreakerConfig
}

type DatastoreMetricsConfig struct {
	// Enabled enables export of the Datastore metrics.
	Enabled bool
}

// DatastoreConfig defines where elements are hydrated from.
type DatastoreConfig struct {
	// Engine is the datastore engine to use (e.g. 'graph', 'memory', 'postgres', 'mysql', 'sqlite')
	Engine   string
	URI      string
	Username string
	Password string

	// MaxOpenConns is the maximum number of open connections to the database.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of connections to the datastore in the idle connection
	// pool.
	MaxIdleConns int

	// ConnMaxIdleTime is the maximum amount of time a connection to the datastore may be idle.
	ConnMaxIdleTime time.Duration

	// ConnMaxLifetime is the maximum amount of time a connection to the datastore may be reused.
	ConnMaxLifetime time.Duration

	// Metrics is configuration for the Datastore metrics.
	Metrics DatastoreMetricsConfig
}

// GRPCConfig defines the gRPC server hosting the health service.
type GRPCConfig struct {
	Addr string
	TLS  *TLSConfig
}

// HTTPConfig defines the HTTP server hosting the search endpoint.
type HTTPConfig struct {
	Addr string
	TLS  *TLSConfig

	CORSAllowedOrigins []string
	CORSAllowedHeaders []string
}

// TLSConfig defines configuration specific to Transport Layer Security (TLS) settings.
type TLSConfig struct {
	Enabled  bool
	CertPath string `mapstructure:"cert"`
	KeyPath  string `mapstructure:"key"`
}

// AuthnConfig defines authentication specific settings.
type AuthnConfig struct {

	// Method is the authentication method that should be enforced (e.g. 'none', 'preshared',
	// 'oidc')
	Method                   string
	*AuthnOIDCConfig         `mapstructure:"oidc"`
	*AuthnPresharedKeyConfig `mapstructure:"preshared"`
}

// AuthnOIDCConfig defines configurations for the 'oidc' method of authentication.
type AuthnOIDCConfig struct {
	Issuer        string
	IssuerAliases []string
	Audience      string

	// UserIDClaim names the token claim holding the UUID of the user element.
	UserIDClaim string
}

// AuthnPresharedKeyConfig defines configurations for the 'preshared' method of authentication.
type AuthnPresharedKeyConfig struct {
	// Keys define the preshared keys to verify authn tokens against.
	Keys []string
}

// LogConfig defines log specific settings. For production we recommend using
// the 'json' log format.
type LogConfig struct {
	// Format is the log format to use in the log output (e.g. 'text' or 'json')
	Format string

	// Level is the log level to use in the log output (e.g. 'none', 'debug', or 'info')
	Level string

	// Format of the timestamp in the log output (e.g. 'Unix'(default) or 'ISO8601')
	TimestampFormat string
}

type TraceConfig struct {
	Enabled     bool
	OTLP        OTLPTraceConfig `mapstructure:"otlp"`
	SampleRatio float64
	ServiceName string
}

type OTLPTraceConfig struct {
	Endpoint string
	TLS      OTLPTraceTLSConfig
}

type OTLPTraceTLSConfig struct {
	Enabled bool
}

// ProfilerConfig defines server configurations specific to pprof profiling.
type ProfilerConfig struct {
	Enabled bool
	Addr    string
}

// MetricConfig defines configurations for serving metrics.
type MetricConfig struct {
	Enabled bool
	Addr    string
}

type Config struct {
	// Environment is one of 'dev', 'test' or 'prod'. Internal error details are
	// hidden from clients in 'prod'.
	Environment string

	// RequestTimeout bounds the execution of one search request.
	RequestTimeout time.Duration

	// MaxRequestBodyBytes bounds the size of a search request body.
	MaxRequestBodyBytes int64

	Search        SearchConfig
	Graph         GraphConfig
	Elasticsearch ElasticsearchConfig
	Datastore     DatastoreConfig
	GRPC          GRPCConfig
	HTTP          HTTPConfig
	Authn         AuthnConfig
	Log           LogConfig
	Trace         TraceConfig
	Profiler      ProfilerConfig
	Metrics       MetricConfig
}

func (cfg *Config) Verify() error {
	if !slices.Contains(environments, cfg.Environment) {
		return fmt.Errorf("config 'environment' must be one of ['dev', 'test', 'prod']")
	}

	if cfg.RequestTimeout <= 0 {
		return errors.New("config 'requestTimeout' must be a positive duration")
	}

	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("config 'log.format' must be one of ['text', 'json']")
	}

	if !slices.Contains(logLevels, cfg.Log.Level) {
		return fmt.Errorf(
			"config 'log.level' must be one of ['none', 'debug', 'info', 'warn', 'error', 'panic', 'fatal']",
		)
	}

	if cfg.Log.TimestampFormat != "Unix" && cfg.Log.TimestampFormat != "ISO8601" {
		return fmt.Errorf("config 'log.TimestampFormat' must be one of ['Unix', 'ISO8601']")
	}

	if cfg.HTTP.TLS.Enabled {
		if cfg.HTTP.TLS.CertPath == "" || cfg.HTTP.TLS.KeyPath == "" {
			return errors.New("'http.tls.cert' and 'http.tls.key' configs must be set")
		}
	}

	if cfg.GRPC.TLS.Enabled {
		if cfg.GRPC.TLS.CertPath == "" || cfg.GRPC.TLS.KeyPath == "" {
			return errors.New("'grpc.tls.cert' and 'grpc.tls.key' configs must be set")
		}
	}

	if cfg.Search.MinPageSize <= 0 ||
		cfg.Search.MinPageSize > cfg.Search.DefaultPageSize ||
		cfg.Search.DefaultPageSize > cfg.Search.MaxPageSize {
		return fmt.Errorf(
			"config 'search' page sizes must satisfy 0 < minPageSize (%d) <= defaultPageSize (%d) <= maxPageSize (%d)",
			cfg.Search.MinPageSize, cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize,
		)
	}

	if cfg.Search.MaxPaths < 1 {
		return errors.New("config 'search.maxPaths' must be at least 1")
	}

	if _, err := uuid.Parse(cfg.Search.AnonymousUserID); err != nil {
		return fmt.Errorf("config 'search.anonymousUserId' must be a UUID: %w", err)
	}

	if !slices.Contains(engines, cfg.Datastore.Engine) {
		return fmt.Errorf("config 'datastore.engine' must be one of ['graph', 'memory', 'postgres', 'mysql', 'sqlite']")
	}

	if !slices.Contains(authnMethods, cfg.Authn.Method) {
		return fmt.Errorf("config 'authn.method' must be one of ['none', 'preshared', 'oidc']")
	}

	if cfg.Authn.Method == "oidc" && (cfg.Authn.AuthnOIDCConfig == nil || cfg.Authn.Issuer == "" || cfg.Authn.Audience == "") {
		return errors.New("'authn.oidc.issuer' and 'authn.oidc.audience' configs must be set")
	}

	return nil
}

// DefaultConfig is the nexus-search server default configurations.
func DefaultConfig() *Config {
	return &Config{
		Environment:         "prod",
		RequestTimeout:      DefaultRequestTimeout,
		MaxRequestBodyBytes: DefaultMaxRequestBodyBytes,
		Search: SearchConfig{
			AllowDangerousSteps: true,
			DefaultPageSize:     DefaultPageSize,
			MinPageSize:         DefaultMinPageSize,
			MaxPageSize:         DefaultMaxPageSize,
			MaxPaths:            DefaultMaxPaths,
			AnonymousUserID:     DefaultAnonymousUserID,
			GroupCacheSize:      DefaultGroupCacheSize,
			GroupCacheTTL:       DefaultGroupCacheTTL,
		},
		Graph: GraphConfig{
			URI:                   "neo4j://localhost:7687",
			MaxConnectionPoolSize: DefaultGraphMaxConnectionPoolSize,
			ConnectionTimeout:     DefaultGraphConnectionTimeout,
		},
		Elasticsearch: ElasticsearchConfig{
			Addresses:  []string{"http://localhost:9200"},
			MaxRetries: 3,
			Breaker: BreakerConfig{
				MaxFailures: DefaultBreakerMaxFailures,
				Interval:    DefaultBreakerInterval,
				Timeout:     DefaultBreakerTimeout,
			},
		},
		Datastore: DatastoreConfig{
			Engine:       "graph",
			MaxIdleConns: 10,
			MaxOpenConns: 30,
		},
		GRPC: GRPCConfig{
			Addr: "0.0.0.0:8081",
			TLS:  &TLSConfig{Enabled: false},
		},
		HTTP: HTTPConfig{
			Addr:               "0.0.0.0:8080",
			TLS:                &TLSConfig{Enabled: false},
			CORSAllowedOrigins: []string{"*"},
			CORSAllowedHeaders: []string{"*"},
		},
		Authn: AuthnConfig{
			Method:                  "none",
			AuthnPresharedKeyConfig: &AuthnPresharedKeyConfig{},
			AuthnOIDCConfig:         &AuthnOIDCConfig{UserIDClaim: "sub"},
		},
		Log: LogConfig{
			Format:          "text",
			Level:           "info",
			TimestampFormat: "Unix",
		},
		Trace: TraceConfig{
			Enabled: false,
			OTLP: OTLPTraceConfig{
				Endpoint: "0.0.0.0:4317",
				TLS: OTLPTraceTLSConfig{
					Enabled: false,
				},
			},
			SampleRatio: 0.2,
			ServiceName: "nexus-search",
		},
		Profiler: ProfilerConfig{
			Enabled: false,
			Addr:    ":3001",
		},
		Metrics: MetricConfig{
			Enabled: true,
			Addr:    "0.0.0.0:2112",
		},
	}
}

// MustDefaultConfig returns default server config with metrics turned off.
func MustDefaultConfig() *Config {
	config := DefaultConfig()

	config.Metrics.Enabled = false

	return config
}

// MustDefaultConfigWithRandomPorts returns default server config but with random ports for the grpc and http addresses
// and with metrics turned off.
// This function may panic if somehow a random port cannot be chosen.
func MustDefaultConfigWithRandomPorts() *Config {
	config := MustDefaultConfig()

	httpPort, httpPortReleaser := TCPRandomPort()
	defer httpPortReleaser()
	grpcPort, grpcPortReleaser := TCPRandomPort()
	defer grpcPortReleaser()

	config.GRPC.Addr = fmt.Sprintf("0.0.0.0:%d", grpcPort)
	config.HTTP.Addr = fmt.Sprintf("0.0.0.0:%d", httpPort)

	return config
}

// TCPRandomPort tries to find a random TCP Port. If it can't find one, it panics. Else, it returns the port and a function that releases the port.
// It is the responsibility of the caller to call the release function right before trying to listen on the given port.
func TCPRandomPort() (int, func()) {
	l, err := net.Listen("tcp", "")
	if err != nil {
		panic(err)
	}
	return l.Addr().(*net.TCPAddr).Port, func() {
		l.Close()
	}
}
