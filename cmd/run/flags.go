package run

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ember-nexus/nexus-search/cmd/util"
)

// bindRunFlagsFunc binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindRunFlagsFunc(flags *pflag.FlagSet) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, _ []string) {
		util.MustBindPFlag("environment", flags.Lookup("environment"))
		util.MustBindEnv("environment", "NEXUS_SEARCH_ENVIRONMENT")

		util.MustBindPFlag("requestTimeout", flags.Lookup("request-timeout"))
		util.MustBindEnv("requestTimeout", "NEXUS_SEARCH_REQUEST_TIMEOUT", "NEXUS_SEARCH_REQUESTTIMEOUT")

		util.MustBindPFlag("maxRequestBodyBytes", flags.Lookup("max-request-body-bytes"))
		util.MustBindEnv("maxRequestBodyBytes", "NEXUS_SEARCH_MAX_REQUEST_BODY_BYTES", "NEXUS_SEARCH_MAXREQUESTBODYBYTES")

		util.MustBindPFlag("search.allowDangerousSteps", flags.Lookup("search-allow-dangerous-steps"))
		util.MustBindEnv("search.allowDangerousSteps", "NEXUS_SEARCH_SEARCH_ALLOW_DANGEROUS_STEPS")

		util.MustBindPFlag("search.defaultPageSize", flags.Lookup("search-default-page-size"))
		util.MustBindEnv("search.defaultPageSize", "NEXUS_SEARCH_SEARCH_DEFAULT_PAGE_SIZE")

		util.MustBindPFlag("search.minPageSize", flags.Lookup("search-min-page-size"))
		util.MustBindEnv("search.minPageSize", "NEXUS_SEARCH_SEARCH_MIN_PAGE_SIZE")

		util.MustBindPFlag("search.maxPageSize", flags.Lookup("search-max-page-size"))
		util.MustBindEnv("search.maxPageSize", "NEXUS_SEARCH_SEARCH_MAX_PAGE_SIZE")

		util.MustBindPFlag("search.maxPaths", flags.Lookup("search-max-paths"))
		util.MustBindEnv("search.maxPaths", "NEXUS_SEARCH_SEARCH_MAX_PATHS")

		util.MustBindPFlag("search.anonymousUserId", flags.Lookup("search-anonymous-user-id"))
		util.MustBindEnv("search.anonymousUserId", "NEXUS_SEARCH_SEARCH_ANONYMOUS_USER_ID")

		util.MustBindPFlag("search.groupCacheSize", flags.Lookup("search-group-cache-size"))
		util.MustBindEnv("search.groupCacheSize", "NEXUS_SEARCH_SEARCH_GROUP_CACHE_SIZE")

		util.MustBindPFlag("search.groupCacheTTL", flags.Lookup("search-group-cache-ttl"))
		util.MustBindEnv("search.groupCacheTTL", "NEXUS_SEARCH_SEARCH_GROUP_CACHE_TTL")

		util.MustBindPFlag("graph.uri", flags.Lookup("graph-uri"))
		util.MustBindEnv("graph.uri", "NEXUS_SEARCH_GRAPH_URI")

		util.MustBindPFlag("graph.username", flags.Lookup("graph-username"))
		util.MustBindEnv("graph.username", "NEXUS_SEARCH_GRAPH_USERNAME")

		util.MustBindPFlag("graph.password", flags.Lookup("graph-password"))
		util.MustBindEnv("graph.password", "NEXUS_SEARCH_GRAPH_PASSWORD")

		util.MustBindPFlag("graph.maxConnectionPoolSize", flags.Lookup("graph-max-connection-pool-size"))
		util.MustBindEnv("graph.maxConnectionPoolSize", "NEXUS_SEARCH_GRAPH_MAX_CONNECTION_POOL_SIZE")

		util.MustBindPFlag("graph.connectionTimeout", flags.Lookup("graph-connection-timeout"))
		util.MustBindEnv("graph.connectionTimeout", "NEXUS_SEARCH_GRAPH_CONNECTION_TIMEOUT")

		util.MustBindPFlag("elasticsearch.addresses", flags.Lookup("elasticsearch-addresses"))
		util.MustBindEnv("elasticsearch.addresses", "NEXUS_SEARCH_ELASTICSEARCH_ADDRESSES")

		util.MustBindPFlag("elasticsearch.username", flags.Lookup("elasticsearch-username"))
		util.MustBindEnv("elasticsearch.username", "NEXUS_SEARCH_ELASTICSEARCH_USERNAME")

		util.MustBindPFlag("elasticsearch.password", flags.Lookup("elasticsearch-password"))
		util.MustBindEnv("elasticsearch.password", "NEXUS_SEARCH_ELASTICSEARCH_PASSWORD")

		util.MustBindPFlag("elasticsearch.apiKey", flags.Lookup("elasticsearch-api-key"))
		util.MustBindEnv("elasticsearch.apiKey", "NEXUS_SEARCH_ELASTICSEARCH_API_KEY")

		util.MustBindPFlag("elasticsearch.maxRetries", flags.Lookup("elasticsearch-max-retries"))
		util.MustBindEnv("elasticsearch.maxRetries", "NEXUS_SEARCH_ELASTICSEARCH_MAX_RETRIES")

		util.MustBindPFlag("elasticsearch.breaker.maxFailures", flags.Lookup("elasticsearch-breaker-max-failures"))
		util.MustBindEnv("elasticsearch.breaker.maxFailures", "NEXUS_SEARCH_ELASTICSEARCH_BREAKER_MAX_FAILURES")

		util.MustBindPFlag("elasticsearch.breaker.interval", flags.Lookup("elasticsearch-breaker-interval"))
		util.MustBindEnv("elasticsearch.breaker.interval", "NEXUS_SEARCH_ELASTICSEARCH_BREAKER_INTERVAL")

		util.MustBindPFlag("elasticsearch.breaker.timeout", flags.Lookup("elasticsearch-breaker-timeout"))
		util.MustBindEnv("elasticsearch.breaker.timeout", "NEXUS_SEARCH_ELASTICSEARCH_BREAKER_TIMEOUT")

		util.MustBindPFlag("datastore.engine", flags.Lookup("datastore-engine"))
		util.MustBindEnv("datastore.engine", "NEXUS_SEARCH_DATASTORE_ENGINE")

		util.MustBindPFlag("datastore.uri", flags.Lookup("datastore-uri"))
		util.MustBindEnv("datastore.uri", "NEXUS_SEARCH_DATASTORE_URI")

		util.MustBindPFlag("datastore.username", flags.Lookup("datastore-username"))
		util.MustBindEnv("datastore.username", "NEXUS_SEARCH_DATASTORE_USERNAME")

		util.MustBindPFlag("datastore.password", flags.Lookup("datastore-password"))
		util.MustBindEnv("datastore.password", "NEXUS_SEARCH_DATASTORE_PASSWORD")

		util.MustBindPFlag("datastore.maxOpenConns", flags.Lookup("datastore-max-open-conns"))
		util.MustBindEnv("datastore.maxOpenConns", "NEXUS_SEARCH_DATASTORE_MAX_OPEN_CONNS", "NEXUS_SEARCH_DATASTORE_MAXOPENCONNS")

		util.MustBindPFlag("datastore.maxIdleConns", flags.Lookup("datastore-max-idle-conns"))
		util.MustBindEnv("datastore.maxIdleConns", "NEXUS_SEARCH_DATASTORE_MAX_IDLE_CONNS", "NEXUS_SEARCH_DATASTORE_MAXIDLECONNS")

		util.MustBindPFlag("datastore.connMaxIdleTime", flags.Lookup("datastore-conn-max-idle-time"))
		util.MustBindEnv("datastore.connMaxIdleTime", "NEXUS_SEARCH_DATASTORE_CONN_MAX_IDLE_TIME", "NEXUS_SEARCH_DATASTORE_CONNMAXIDLETIME")

		util.MustBindPFlag("datastore.connMaxLifetime", flags.Lookup("datastore-conn-max-lifetime"))
		util.MustBindEnv("datastore.connMaxLifetime", "NEXUS_SEARCH_DATASTORE_CONN_MAX_LIFETIME", "NEXUS_SEARCH_DATASTORE_CONNMAXLIFETIME")

		util.MustBindPFlag("datastore.metrics.enabled", flags.Lookup("datastore-metrics-enabled"))
		util.MustBindEnv("datastore.metrics.enabled", "NEXUS_SEARCH_DATASTORE_METRICS_ENABLED")

		util.MustBindPFlag("grpc.addr", flags.Lookup("grpc-addr"))
		util.MustBindEnv("grpc.addr", "NEXUS_SEARCH_GRPC_ADDR")

		util.MustBindPFlag("grpc.tls.enabled", flags.Lookup("grpc-tls-enabled"))
		util.MustBindEnv("grpc.tls.enabled", "NEXUS_SEARCH_GRPC_TLS_ENABLED")

		util.MustBindPFlag("grpc.tls.cert", flags.Lookup("grpc-tls-cert"))
		util.MustBindEnv("grpc.tls.cert", "NEXUS_SEARCH_GRPC_TLS_CERT")

		util.MustBindPFlag("grpc.tls.key", flags.Lookup("grpc-tls-key"))
		util.MustBindEnv("grpc.tls.key", "NEXUS_SEARCH_GRPC_TLS_KEY")

		util.MustBindPFlag("http.addr", flags.Lookup("http-addr"))
		util.MustBindEnv("http.addr", "NEXUS_SEARCH_HTTP_ADDR")

		util.MustBindPFlag("http.tls.enabled", flags.Lookup("http-tls-enabled"))
		util.MustBindEnv("http.tls.enabled", "NEXUS_SEARCH_HTTP_TLS_ENABLED")

		util.MustBindPFlag("http.tls.cert", flags.Lookup("http-tls-cert"))
		util.MustBindEnv("http.tls.cert", "NEXUS_SEARCH_HTTP_TLS_CERT")

		util.MustBindPFlag("http.tls.key", flags.Lookup("http-tls-key"))
		util.MustBindEnv("http.tls.key", "NEXUS_SEARCH_HTTP_TLS_KEY")

		util.MustBindPFlag("http.corsAllowedOrigins", flags.Lookup("http-cors-allowed-origins"))
		util.MustBindEnv("http.corsAllowedOrigins", "NEXUS_SEARCH_HTTP_CORS_ALLOWED_ORIGINS", "NEXUS_SEARCH_HTTP_CORSALLOWEDORIGINS")

		util.MustBindPFlag("http.corsAllowedHeaders", flags.Lookup("http-cors-allowed-headers"))
		util.MustBindEnv("http.corsAllowedHeaders", "NEXUS_SEARCH_HTTP_CORS_ALLOWED_HEADERS", "NEXUS_SEARCH_HTTP_CORSALLOWEDHEADERS")

		util.MustBindPFlag("authn.method", flags.Lookup("authn-method"))
		util.MustBindEnv("authn.method", "NEXUS_SEARCH_AUTHN_METHOD")

		util.MustBindPFlag("authn.preshared.keys", flags.Lookup("authn-preshared-keys"))
		util.MustBindEnv("authn.preshared.keys", "NEXUS_SEARCH_AUTHN_PRESHARED_KEYS")

		util.MustBindPFlag("authn.oidc.audience", flags.Lookup("authn-oidc-audience"))
		util.MustBindEnv("authn.oidc.audience", "NEXUS_SEARCH_AUTHN_OIDC_AUDIENCE")

		util.MustBindPFlag("authn.oidc.issuer", flags.Lookup("authn-oidc-issuer"))
		util.MustBindEnv("authn.oidc.issuer", "NEXUS_SEARCH_AUTHN_OIDC_ISSUER")

		util.MustBindPFlag("authn.oidc.issuerAliases", flags.Lookup("authn-oidc-issuer-aliases"))
		util.MustBindEnv("authn.oidc.issuerAliases", "NEXUS_SEARCH_AUTHN_OIDC_ISSUER_ALIASES")

		util.MustBindPFlag("authn.oidc.userIdClaim", flags.Lookup("authn-oidc-user-id-claim"))
		util.MustBindEnv("authn.oidc.userIdClaim", "NEXUS_SEARCH_AUTHN_OIDC_USER_ID_CLAIM")

		util.MustBindPFlag("log.format", flags.Lookup("log-format"))
		util.MustBindEnv("log.format", "NEXUS_SEARCH_LOG_FORMAT")

		util.MustBindPFlag("log.level", flags.Lookup("log-level"))
		util.MustBindEnv("log.level", "NEXUS_SEARCH_LOG_LEVEL")

		util.MustBindPFlag("log.timestampFormat", flags.Lookup("log-timestamp-format"))
		util.MustBindEnv("log.timestampFormat", "NEXUS_SEARCH_LOG_TIMESTAMP_FORMAT")

		util.MustBindPFlag("trace.enabled", flags.Lookup("trace-enabled"))
		util.MustBindEnv("trace.enabled", "NEXUS_SEARCH_TRACE_ENABLED")

		util.MustBindPFlag("trace.otlp.endpoint", flags.Lookup("trace-otlp-endpoint"))
		util.MustBindEnv("trace.otlp.endpoint", "NEXUS_SEARCH_TRACE_OTLP_ENDPOINT")

		util.MustBindPFlag("trace.otlp.tls.enabled", flags.Lookup("trace-otlp-tls-enabled"))
		util.MustBindEnv("trace.otlp.tls.enabled", "NEXUS_SEARCH_TRACE_OTLP_TLS_ENABLED")

		util.MustBindPFlag("trace.sampleRatio", flags.Lookup("trace-sample-ratio"))
		util.MustBindEnv("trace.sampleRatio", "NEXUS_SEARCH_TRACE_SAMPLE_RATIO")

		util.MustBindPFlag("trace.serviceName", flags.Lookup("trace-service-name"))
		util.MustBindEnv("trace.serviceName", "NEXUS_SEARCH_TRACE_SERVICE_NAME")

		util.MustBindPFlag("profiler.enabled", flags.Lookup("profiler-enabled"))
		util.MustBindEnv("profiler.enabled", "NEXUS_SEARCH_PROFILER_ENABLED")

		util.MustBindPFlag("profiler.addr", flags.Lookup("profiler-addr"))
		util.MustBindEnv("profiler.addr", "NEXUS_SEARCH_PROFILER_ADDR")

		util.MustBindPFlag("metrics.enabled", flags.Lookup("metrics-enabled"))
		util.MustBindEnv("metrics.enabled", "NEXUS_SEARCH_METRICS_ENABLED")

		util.MustBindPFlag("metrics.addr", flags.Lookup("metrics-addr"))
		util.MustBindEnv("metrics.addr", "NEXUS_SEARCH_METRICS_ADDR")
	}
}
