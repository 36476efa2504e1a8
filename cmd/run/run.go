// Package run contains the command to run a nexus-search server.
package run

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	goruntime "runtime"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	grpcauth "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	healthv1pb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"sigs.k8s.io/controller-runtime/pkg/certwatcher"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ember-nexus/nexus-search/internal/authn"
	"github.com/ember-nexus/nexus-search/internal/authn/oidc"
	"github.com/ember-nexus/nexus-search/internal/authn/presharedkey"
	"github.com/ember-nexus/nexus-search/internal/build"
	authnmw "github.com/ember-nexus/nexus-search/internal/middleware/authn"
	serverconfig "github.com/ember-nexus/nexus-search/internal/server/config"
	"github.com/ember-nexus/nexus-search/pkg/access"
	"github.com/ember-nexus/nexus-search/pkg/graph"
	"github.com/ember-nexus/nexus-search/pkg/index"
	"github.com/ember-nexus/nexus-search/pkg/logger"
	"github.com/ember-nexus/nexus-search/pkg/middleware"
	"github.com/ember-nexus/nexus-search/pkg/middleware/logging"
	"github.com/ember-nexus/nexus-search/pkg/middleware/recovery"
	"github.com/ember-nexus/nexus-search/pkg/middleware/requestid"
	"github.com/ember-nexus/nexus-search/pkg/search/steps"
	"github.com/ember-nexus/nexus-search/pkg/server"
	"github.com/ember-nexus/nexus-search/pkg/server/health"
	"github.com/ember-nexus/nexus-search/pkg/storage"
	"github.com/ember-nexus/nexus-search/pkg/storage/graphdb"
	"github.com/ember-nexus/nexus-search/pkg/storage/memory"
	"github.com/ember-nexus/nexus-search/pkg/storage/mysql"
	"github.com/ember-nexus/nexus-search/pkg/storage/postgres"
	"github.com/ember-nexus/nexus-search/pkg/storage/sqlcommon"
	"github.com/ember-nexus/nexus-search/pkg/storage/sqlite"
	"github.com/ember-nexus/nexus-search/pkg/telemetry"
)

// HealthServiceName is the service name reported by the gRPC health service.
const HealthServiceName = "nexus-search"

func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the nexus-search server",
		Long:  "Run the nexus-search server.",
		Run:   run,
		Args:  cobra.NoArgs,
	}

	defaultConfig := serverconfig.DefaultConfig()
	flags := cmd.Flags()

	flags.String("environment", defaultConfig.Environment, "the environment the server runs in (e.g. 'dev', 'test' or 'prod'). Internal error details are hidden in 'prod'")

	flags.Duration("request-timeout", defaultConfig.RequestTimeout, "the maximum duration of one search request")

	flags.Int64("max-request-body-bytes", defaultConfig.MaxRequestBodyBytes, "the maximum size of a search request body")

	flags.Bool("search-allow-dangerous-steps", defaultConfig.Search.AllowDangerousSteps, "allow steps that run caller supplied graph queries")

	flags.Int("search-default-page-size", defaultConfig.Search.DefaultPageSize, "the page size of index searches that do not set one")

	flags.Int("search-min-page-size", defaultConfig.Search.MinPageSize, "the smallest page size an index search may request")

	flags.Int("search-max-page-size", defaultConfig.Search.MaxPageSize, "the largest page size an index search may request")

	flags.Int("search-max-paths", defaultConfig.Search.MaxPaths, "the maximum number of paths a cypherPath step may return")

	flags.String("search-anonymous-user-id", defaultConfig.Search.AnonymousUserID, "the user id requests without a subject run as")

	flags.Int("search-group-cache-size", defaultConfig.Search.GroupCacheSize, "the number of users whose group memberships are cached")

	flags.Duration("search-group-cache-ttl", defaultConfig.Search.GroupCacheTTL, "how long the group memberships of a user are cached")

	flags.String("graph-uri", defaultConfig.Graph.URI, "the bolt or neo4j uri of the graph database")

	flags.String("graph-username", defaultConfig.Graph.Username, "the username of the graph database")

	flags.String("graph-password", defaultConfig.Graph.Password, "the password of the graph database")

	flags.Int("graph-max-connection-pool-size", defaultConfig.Graph.MaxConnectionPoolSize, "the maximum number of connections to the graph database")

	flags.Duration("graph-connection-timeout", defaultConfig.Graph.ConnectionTimeout, "how long to wait for a connection from the graph database pool")

	flags.StringSlice("elasticsearch-addresses", defaultConfig.Elasticsearch.Addresses, "the addresses of the Elasticsearch nodes")

	flags.String("elasticsearch-username", defaultConfig.Elasticsearch.Username, "the username of the Elasticsearch cluster")

	flags.String("elasticsearch-password", defaultConfig.Elasticsearch.Password, "the password of the Elasticsearch cluster")

	flags.String("elasticsearch-api-key", defaultConfig.Elasticsearch.APIKey, "the API key of the Elasticsearch cluster")

	flags.Int("elasticsearch-max-retries", defaultConfig.Elasticsearch.MaxRetries, "the number of times a failed Elasticsearch request is retried")

	flags.Uint32("elasticsearch-breaker-max-failures", defaultConfig.Elasticsearch.Breaker.MaxFailures, "the number of consecutive Elasticsearch failures that open the circuit breaker")

	flags.Duration("elasticsearch-breaker-interval", defaultConfig.Elasticsearch.Breaker.Interval, "the period after which the failure count of a closed circuit breaker is cleared")

	flags.Duration("elasticsearch-breaker-timeout", defaultConfig.Elasticsearch.Breaker.Timeout, "how long the circuit breaker stays open")

	flags.String("datastore-engine", defaultConfig.Datastore.Engine, "the datastore engine elements are hydrated from (e.g. 'graph', 'memory', 'postgres', 'mysql' or 'sqlite')")

	flags.String("datastore-uri", defaultConfig.Datastore.URI, "the connection uri to use to connect to the datastore (for the 'postgres', 'mysql' and 'sqlite' engines)")

	flags.String("datastore-username", "", "the connection username to use to connect to the datastore (overwrites any username provided in the connection uri)")

	flags.String("datastore-password", "", "the connection password to use to connect to the datastore (overwrites any password provided in the connection uri)")

	flags.Int("datastore-max-open-conns", defaultConfig.Datastore.MaxOpenConns, "the maximum number of open connections to the datastore")

	flags.Int("datastore-max-idle-conns", defaultConfig.Datastore.MaxIdleConns, "the maximum number of connections to the datastore in the idle connection pool")

	flags.Duration("datastore-conn-max-idle-time", defaultConfig.Datastore.ConnMaxIdleTime, "the maximum amount of time a connection to the datastore may be idle")

	flags.Duration("datastore-conn-max-lifetime", defaultConfig.Datastore.ConnMaxLifetime, "the maximum amount of time a connection to the datastore may be reused")

	flags.Bool("datastore-metrics-enabled", defaultConfig.Datastore.Metrics.Enabled, "enable/disable sql metrics")

	flags.String("grpc-addr", defaultConfig.GRPC.Addr, "the host:port address to serve the grpc health service on")

	flags.Bool("grpc-tls-enabled", defaultConfig.GRPC.TLS.Enabled, "enable/disable transport layer security (TLS)")

	flags.String("grpc-tls-cert", defaultConfig.GRPC.TLS.CertPath, "the (absolute) file path of the certificate to use for the TLS connection")

	flags.String("grpc-tls-key", defaultConfig.GRPC.TLS.KeyPath, "the (absolute) file path of the TLS key that should be used for the TLS connection")

	cmd.MarkFlagsRequiredTogether("grpc-tls-enabled", "grpc-tls-cert", "grpc-tls-key")

	flags.String("http-addr", defaultConfig.HTTP.Addr, "the host:port address to serve the HTTP server on")

	flags.Bool("http-tls-enabled", defaultConfig.HTTP.TLS.Enabled, "enable/disable transport layer security (TLS)")

	flags.String("http-tls-cert", defaultConfig.HTTP.TLS.CertPath, "the (absolute) file path of the certificate to use for the TLS connection")

	flags.String("http-tls-key", defaultConfig.HTTP.TLS.KeyPath, "the (absolute) file path of the TLS key that should be used for the TLS connection")

	cmd.MarkFlagsRequiredTogether("http-tls-enabled", "http-tls-cert", "http-tls-key")

	flags.StringSlice("http-cors-allowed-origins", defaultConfig.HTTP.CORSAllowedOrigins, "specifies the CORS allowed origins")

	flags.StringSlice("http-cors-allowed-headers", defaultConfig.HTTP.CORSAllowedHeaders, "specifies the CORS allowed headers")

	flags.String("authn-method", defaultConfig.Authn.Method, "the authentication method to use")

	flags.StringSlice("authn-preshared-keys", defaultConfig.Authn.Keys, "one or more preshared keys to use for authentication")

	flags.String("authn-oidc-audience", defaultConfig.Authn.Audience, "the OIDC audience of the tokens being signed by the authorization server")

	flags.String("authn-oidc-issuer", defaultConfig.Authn.Issuer, "the OIDC issuer (authorization server) signing the tokens")

	flags.StringSlice("authn-oidc-issuer-aliases", defaultConfig.Authn.IssuerAliases, "the OIDC issuer DNS aliases that will be accepted as valid when verifying the `iss` field of the JWTs.")

	flags.String("authn-oidc-user-id-claim", defaultConfig.Authn.UserIDClaim, "the token claim holding the UUID of the user a search runs as")

	flags.String("log-format", defaultConfig.Log.Format, "the log format to output logs in")

	flags.String("log-level", defaultConfig.Log.Level, "the log level to use")

	flags.String("log-timestamp-format", defaultConfig.Log.TimestampFormat, "the timestamp format to use for log messages")

	flags.Bool("trace-enabled", defaultConfig.Trace.Enabled, "enable tracing")

	flags.String("trace-otlp-endpoint", defaultConfig.Trace.OTLP.Endpoint, "the endpoint of the trace collector")

	flags.Bool("trace-otlp-tls-enabled", defaultConfig.Trace.OTLP.TLS.Enabled, "use TLS connection for trace collector")

	flags.Float64("trace-sample-ratio", defaultConfig.Trace.SampleRatio, "the fraction of traces to sample. 1 means all, 0 means none.")

	flags.String("trace-service-name", defaultConfig.Trace.ServiceName, "the service name included in sampled traces.")

	flags.Bool("profiler-enabled", defaultConfig.Profiler.Enabled, "enable/disable pprof profiling")

	flags.String("profiler-addr", defaultConfig.Profiler.Addr, "the host:port address to serve the pprof profiler server on")

	flags.Bool("metrics-enabled", defaultConfig.Metrics.Enabled, "enable/disable prometheus metrics on the '/metrics' endpoint")

	flags.String("metrics-addr", defaultConfig.Metrics.Addr, "the host:port address to serve the prometheus metrics server on")

	// NOTE: if you add a new flag here, update the function below, too

	cmd.PreRun = bindRunFlagsFunc(flags)

	return cmd
}

// ReadConfig returns the nexus-search server configuration based on the values provided in the server's 'config.yaml' file.
// The 'config.yaml' file is loaded from '/etc/nexus-search', '$HOME/.nexus-search', or the current working directory. If no configuration
// file is present, the default values are returned.
func ReadConfig() (*serverconfig.Config, error) {
	config := serverconfig.DefaultConfig()

	viper.SetTypeByDefaultValue(true)
	err := viper.ReadInConfig()
	if err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to load server config: %w", err)
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal server config: %w", err)
	}

	return config, nil
}

func run(_ *cobra.Command, _ []string) {
	config, err := ReadConfig()
	if err != nil {
		panic(err)
	}

	if err := config.Verify(); err != nil {
		panic(err)
	}

	logger := logger.MustNewLogger(config.Log.Format, config.Log.Level, config.Log.TimestampFormat)
	serverCtx := &ServerContext{Logger: logger}
	if err := serverCtx.Run(context.Background(), config); err != nil {
		panic(err)
	}
}

type ServerContext struct {
	Logger logger.Logger
}

// telemetryConfig returns the function that must be called to shut down tracing.
// The context provided to this function should be error-free, or shut down will be incomplete.
func (s *ServerContext) telemetryConfig(config *serverconfig.Config) func() error {
	if config.Trace.Enabled {
		s.Logger.Info(fmt.Sprintf("🕵 tracing enabled: sampling ratio is %v and sending traces to '%s', tls: %t", config.Trace.SampleRatio, config.Trace.OTLP.Endpoint, config.Trace.OTLP.TLS.Enabled))

		options := []telemetry.TracerOption{
			telemetry.WithOTLPEndpoint(
				config.Trace.OTLP.Endpoint,
			),
			telemetry.WithAttributes(
				semconv.ServiceNameKey.String(config.Trace.ServiceName),
				semconv.ServiceVersionKey.String(build.Version),
			),
			telemetry.WithSamplingRatio(config.Trace.SampleRatio),
		}

		if !config.Trace.OTLP.TLS.Enabled {
			options = append(options, telemetry.WithOTLPInsecure())
		}

		tp := telemetry.MustNewTracerProvider(options...)
		return func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
			defer cancel()
			return errors.Join(tp.ForceFlush(ctx), tp.Shutdown(ctx))
		}
	}
	otel.SetTracerProvider(noop.NewTracerProvider())
	return func() error {
		return nil
	}
}

func (s *ServerContext) graphConfig(config *serverconfig.Config) (*graph.Neo4jReader, error) {
	reader, err := graph.NewNeo4jReader(graph.Neo4jConfig{
		URI:                          config.Graph.URI,
		Username:                     config.Graph.Username,
		Password:                     config.Graph.Password,
		MaxConnectionPoolSize:        config.Graph.MaxConnectionPoolSize,
		ConnectionAcquisitionTimeout: config.Graph.ConnectionTimeout,
		Logger:                       s.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize graph reader: %w", err)
	}

	s.Logger.Info(fmt.Sprintf("using graph database at '%s'", config.Graph.URI))

	return reader, nil
}

func (s *ServerContext) indexConfig(config *serverconfig.Config) (*index.ElasticsearchSearcher, error) {
	searcher, err := index.NewElasticsearchSearcher(index.ElasticsearchConfig{
		Addresses:  config.Elasticsearch.Addresses,
		Username:   config.Elasticsearch.Username,
		Password:   config.Elasticsearch.Password,
		APIKey:     config.Elasticsearch.APIKey,
		MaxRetries: config.Elasticsearch.MaxRetries,
		Breaker: index.BreakerConfig{
			MaxFailures: config.Elasticsearch.Breaker.MaxFailures,
			Interval:    config.Elasticsearch.Breaker.Interval,
			Timeout:     config.Elasticsearch.Breaker.Timeout,
		},
		Logger: s.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize search index: %w", err)
	}

	s.Logger.Info(fmt.Sprintf("using search index at %v", config.Elasticsearch.Addresses))

	return searcher, nil
}

func (s *ServerContext) datastoreConfig(config *serverconfig.Config, reader graph.Reader) (storage.ElementDatastore, error) {
	datastoreOptions := []sqlcommon.DatastoreOption{
		sqlcommon.WithUsername(config.Datastore.Username),
		sqlcommon.WithPassword(config.Datastore.Password),
		sqlcommon.WithLogger(s.Logger),
		sqlcommon.WithMaxOpenConns(config.Datastore.MaxOpenConns),
		sqlcommon.WithMaxIdleConns(config.Datastore.MaxIdleConns),
		sqlcommon.WithConnMaxIdleTime(config.Datastore.ConnMaxIdleTime),
		sqlcommon.WithConnMaxLifetime(config.Datastore.ConnMaxLifetime),
	}

	if config.Datastore.Metrics.Enabled {
		datastoreOptions = append(datastoreOptions, sqlcommon.WithMetrics())
	}

	dsCfg := sqlcommon.NewConfig(datastoreOptions...)

	var datastore storage.ElementDatastore
	var err error
	switch config.Datastore.Engine {
	case "graph":
		datastore = graphdb.New(reader)
	case "memory":
		datastore = memory.New()
	case "mysql":
		datastore, err = mysql.New(config.Datastore.URI, dsCfg)
		if err != nil {
			return nil, fmt.Errorf("initialize mysql datastore: %w", err)
		}
	case "postgres":
		datastore, err = postgres.New(config.Datastore.URI, dsCfg)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres datastore: %w", err)
		}
	case "sqlite":
		datastore, err = sqlite.New(config.Datastore.URI, dsCfg)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite datastore: %w", err)
		}
	default:
		return nil, fmt.Errorf("storage engine '%s' is unsupported", config.Datastore.Engine)
	}

	s.Logger.Info(fmt.Sprintf("using '%v' storage engine", config.Datastore.Engine))

	return datastore, nil
}

func (s *ServerContext) authenticatorConfig(config *serverconfig.Config) (authn.Authenticator, error) {
	var authenticator authn.Authenticator
	var err error

	switch config.Authn.Method {
	case "none":
		s.Logger.Warn("authentication is disabled")
		authenticator = authn.AnonymousAuthenticator{}
	case "preshared":
		s.Logger.Info("using 'preshared' authentication")
		authenticator, err = presharedkey.NewPresharedKeyAuthenticator(config.Authn.Keys)
	case "oidc":
		s.Logger.Info("using 'oidc' authentication")
		authenticator, err = oidc.NewRemoteOidcAuthenticator(
			config.Authn.Issuer,
			config.Authn.Audience,
			oidc.WithIssuerAliases(config.Authn.IssuerAliases...),
			oidc.WithUserIDClaim(config.Authn.UserIDClaim),
		)
	default:
		return nil, fmt.Errorf("unsupported authentication method '%v'", config.Authn.Method)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize authenticator: %w", err)
	}
	return authenticator, nil
}

func (s *ServerContext) buildServerOpts(ctx context.Context, config *serverconfig.Config, authenticator authn.Authenticator) ([]grpc.ServerOption, error) {
	serverOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			[]grpc.UnaryServerInterceptor{
				grpc_recovery.UnaryServerInterceptor( // panic middleware must be 1st in chain
					grpc_recovery.WithRecoveryHandlerContext(
						recovery.PanicRecoveryHandler(s.Logger),
					),
				),
				requestid.NewUnaryInterceptor(),
				middleware.NewTimeoutHandler(config.RequestTimeout, s.Logger).NewUnaryTimeoutInterceptor(),
				logging.NewLoggingInterceptor(s.Logger),
				grpcauth.UnaryServerInterceptor(authnmw.AuthFunc(authenticator)),
			}...,
		),
		grpc.ChainStreamInterceptor(
			[]grpc.StreamServerInterceptor{
				grpc_recovery.StreamServerInterceptor(
					grpc_recovery.WithRecoveryHandlerContext(
						recovery.PanicRecoveryHandler(s.Logger),
					),
				),
				requestid.NewStreamingInterceptor(),
				grpcauth.StreamServerInterceptor(authnmw.AuthFunc(authenticator)),
			}...,
		),
	}

	if config.Trace.Enabled {
		serverOpts = append(serverOpts, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	}

	if config.GRPC.TLS.Enabled {
		grpcGetCertificate, err := watchAndLoadCertificateWithCertWatcher(ctx, config.GRPC.TLS.CertPath, config.GRPC.TLS.KeyPath, s.Logger)
		if err != nil {
			return nil, err
		}
		creds := credentials.NewTLS(&tls.Config{
			GetCertificate: grpcGetCertificate,
		})

		serverOpts = append(serverOpts, grpc.Creds(creds))

		s.Logger.Info("gRPC TLS is enabled, serving connections using the provided certificate")
	} else {
		s.Logger.Warn("gRPC TLS is disabled, serving connections using insecure plaintext")
	}
	return serverOpts, nil
}

// httpHandler assembles the middleware chain in front of the search server.
// The health endpoint is served without authentication.
func (s *ServerContext) httpHandler(config *serverconfig.Config, svr *server.Server, authenticator authn.Authenticator) (http.Handler, error) {
	anonymousUserID, err := uuid.Parse(config.Search.AnonymousUserID)
	if err != nil {
		return nil, fmt.Errorf("invalid anonymous user id: %w", err)
	}

	routes := svr.Handler()
	mux := http.NewServeMux()
	mux.Handle(server.HealthzPath, routes)
	mux.Handle("/", authnmw.NewHTTPMiddleware(authenticator, anonymousUserID)(routes))

	handler := middleware.NewTimeoutHandler(config.RequestTimeout, s.Logger).NewHTTPMiddleware(mux)
	handler = logging.NewHTTPMiddleware(s.Logger)(handler)
	handler = requestid.NewHTTPMiddleware(handler)

	if config.Trace.Enabled {
		handler = otelhttp.NewHandler(handler, "nexus-search")
	}

	handler = cors.New(cors.Options{
		AllowedOrigins:   config.HTTP.CORSAllowedOrigins,
		AllowCredentials: true,
		AllowedHeaders:   config.HTTP.CORSAllowedHeaders,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodHead},
	}).Handler(handler)

	return recovery.HTTPPanicRecoveryHandler(handler, s.Logger), nil
}

func (s *ServerContext) runHTTPServer(ctx context.Context, config *serverconfig.Config, handler http.Handler) (*http.Server, error) {
	httpServer := &http.Server{
		Addr:    config.HTTP.Addr,
		Handler: handler,
	}

	listener, err := net.Listen("tcp", config.HTTP.Addr)
	if err != nil {
		return nil, err
	}

	if config.HTTP.TLS.Enabled {
		httpGetCertificate, err := watchAndLoadCertificateWithCertWatcher(ctx, config.HTTP.TLS.CertPath, config.HTTP.TLS.KeyPath, s.Logger)
		if err != nil {
			listener.Close()
			return nil, err
		}
		listener = tls.NewListener(listener, &tls.Config{
			GetCertificate: httpGetCertificate,
		})

		s.Logger.Info("HTTP TLS is enabled, serving connections using the provided certificate")
	} else {
		s.Logger.Warn("HTTP TLS is disabled, serving connections using insecure plaintext")
	}

	go func() {
		s.Logger.Info(fmt.Sprintf("🚀 starting HTTP server on '%s'...", listener.Addr().String()))
		if err := httpServer.Serve(listener); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				s.Logger.Fatal("HTTP server closed with unexpected error", zap.Error(err))
			}
		}
		s.Logger.Info("HTTP server shut down.")
	}()
	return httpServer, nil
}

// Run returns an error if the server was unable to start successfully.
// If it started and terminated successfully, it returns a nil error.
func (s *ServerContext) Run(ctx context.Context, config *serverconfig.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracerProviderCloser := s.telemetryConfig(config)

	graphReader, err := s.graphConfig(config)
	if err != nil {
		return err
	}
	defer func() {
		if err := graphReader.Close(context.Background()); err != nil {
			s.Logger.Warn("failed to close the graph reader", zap.Error(err))
		}
	}()

	searcher, err := s.indexConfig(config)
	if err != nil {
		return err
	}

	groups, err := access.NewCachedGroupResolver(
		access.NewGraphGroupResolver(graphReader),
		access.WithCacheSize(int64(config.Search.GroupCacheSize)),
		access.WithCacheTTL(config.Search.GroupCacheTTL),
	)
	if err != nil {
		return fmt.Errorf("initialize group cache: %w", err)
	}
	defer groups.Close()

	datastore, err := s.datastoreConfig(config, graphReader)
	if err != nil {
		return err
	}
	defer datastore.Close()

	registry, err := steps.NewRegistry(steps.Dependencies{
		Graph:    graphReader,
		Index:    searcher,
		Groups:   groups,
		Elements: datastore,
		Paging: steps.PagingConfig{
			DefaultPageSize: config.Search.DefaultPageSize,
			MinPageSize:     config.Search.MinPageSize,
			MaxPageSize:     config.Search.MaxPageSize,
		},
		MaxPathCount: config.Search.MaxPaths,
	})
	if err != nil {
		return fmt.Errorf("initialize search steps: %w", err)
	}

	authenticator, err := s.authenticatorConfig(config)
	if err != nil {
		return err
	}
	defer authenticator.Close()

	serverOpts, err := s.buildServerOpts(ctx, config, authenticator)
	if err != nil {
		return err
	}

	var profilerServer *http.Server
	if config.Profiler.Enabled {
		mux := http.NewServeMux()
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

		profilerServer = &http.Server{Addr: config.Profiler.Addr, Handler: mux}

		go func() {
			s.Logger.Info(fmt.Sprintf("🔬 starting pprof profiler on '%s'", config.Profiler.Addr))

			if err := profilerServer.ListenAndServe(); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					s.Logger.Fatal("failed to start pprof profiler", zap.Error(err))
				}
			}
			s.Logger.Info("profiler shut down.")
		}()
	}

	var metricsServer *http.Server
	if config.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		metricsServer = &http.Server{Addr: config.Metrics.Addr, Handler: mux}

		go func() {
			s.Logger.Info(fmt.Sprintf("📈 starting prometheus metrics server on '%s'", config.Metrics.Addr))
			if err := metricsServer.ListenAndServe(); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					s.Logger.Fatal("failed to start prometheus metrics server", zap.Error(err))
				}
			}
			s.Logger.Info("metrics server shut down.")
		}()
	}

	svr := server.New(&server.Dependencies{
		Registry:  registry,
		Graph:     graphReader,
		Datastore: datastore,
		Logger:    s.Logger,
	}, &server.Config{
		Environment:         config.Environment,
		AllowDangerousSteps: config.Search.AllowDangerousSteps,
		MaxRequestBodyBytes: config.MaxRequestBodyBytes,
	})

	s.Logger.Info(
		"starting nexus-search service...",
		zap.String("version", build.Version),
		zap.String("date", build.Date),
		zap.String("commit", build.Commit),
		zap.String("go-version", goruntime.Version()),
		zap.Strings("steps", registry.Identifiers()),
		zap.String("environment", config.Environment),
	)

	// nosemgrep: grpc-server-insecure-connection
	grpcServer := grpc.NewServer(serverOpts...)
	healthServer := &health.Checker{TargetService: svr, TargetServiceName: HealthServiceName}
	healthv1pb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", config.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	go func() {
		s.Logger.Info(fmt.Sprintf("🚀 starting gRPC server on '%s'...", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			if !errors.Is(err, grpc.ErrServerStopped) {
				s.Logger.Fatal("failed to start gRPC server", zap.Error(err))
			}
		}
		s.Logger.Info("gRPC server shut down.")
	}()

	handler, err := s.httpHandler(config, svr, authenticator)
	if err != nil {
		return err
	}

	httpServer, err := s.runHTTPServer(ctx, config, handler)
	if err != nil {
		return err
	}

	// wait for cancellation signal
	<-ctx.Done()
	s.Logger.Info("attempting to shutdown gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		s.Logger.Info("failed to shutdown the http server", zap.Error(err))
	}

	if profilerServer != nil {
		if err := profilerServer.Shutdown(ctx); err != nil {
			s.Logger.Info("failed to shutdown the profiler", zap.Error(err))
		}
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			s.Logger.Info("failed to shutdown the prometheus metrics server", zap.Error(err))
		}
	}

	grpcServer.GracefulStop()

	if err := tracerProviderCloser(); err != nil {
		s.Logger.Error("failed to shutdown tracing", zap.Error(err))
	}

	s.Logger.Info("server exited. goodbye 👋")

	return nil
}

func watchAndLoadCertificateWithCertWatcher(ctx context.Context, certPath, keyPath string, logger logger.Logger) (func(*tls.ClientHelloInfo) (*tls.Certificate, error), error) {
	log.SetLogger(logr.New(nil))
	// Create a certificate watcher
	watcher, err := certwatcher.New(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create certwatcher: %w", err)
	}

	// Load the initial certificate
	if err := watcher.ReadCertificate(); err != nil {
		return nil, fmt.Errorf("failed to load initial certificate: %w", err)
	}
	logger.Info("Initial TLS certificate loaded.", zap.String("certPath", certPath), zap.String("keyPath", keyPath))

	// Start watching for certificate changes
	go func() {
		logger.Info("Starting certificate watcher...", zap.String("certPath", certPath), zap.String("keyPath", keyPath))
		if err := watcher.Start(ctx); err != nil {
			logger.Error("Certwatcher encountered an error", zap.Error(err))
		}
	}()

	// Return a function that retrieves the updated certificate
	getCertificate := func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
		return watcher.GetCertificate(nil)
	}

	return getCertificate, nil
}
