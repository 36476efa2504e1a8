package requestid

import (
	"context"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/ember-nexus/nexus-search/pkg/logger"
)

const (
	requestIDKey      = "request_id"
	requestIDTraceKey = "request_id"

	// RequestIDHeader defines the HTTP header that is set in each HTTP response
	// for a given request. The value of the header is unique per request.
	RequestIDHeader = "X-Request-Id"
)

type ctxKey struct{}

// InitID returns the ID to be used to identify the request.
// If trace is enabled, returns trace ID; otherwise returns a new ULID.
func InitID(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.TraceID().IsValid() {
		return spanCtx.TraceID().String()
	}
	return ulid.Make().String()
}

// FromContext returns the request id stored by one of the middlewares.
func FromContext(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(ctxKey{}).(string)
	return requestID, ok
}

// NewHTTPMiddleware assigns a request id to every request, returns it in the
// X-Request-Id header and adds it to the log fields of the request context.
// It must come after the tracing middleware.
func NewHTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := withRequestID(r.Context())
		requestID, _ := FromContext(ctx)

		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// NewUnaryInterceptor creates a grpc.UnaryServerInterceptor which must
// come after the trace interceptor and before the logging interceptor.
func NewUnaryInterceptor() grpc.UnaryServerInterceptor {
	return interceptors.UnaryServerInterceptor(reportable())
}

// NewStreamingInterceptor creates a grpc.StreamServerInterceptor which must
// come after the trace interceptor and before the logging interceptor.
func NewStreamingInterceptor() grpc.StreamServerInterceptor {
	return interceptors.StreamServerInterceptor(reportable())
}

func reportable() interceptors.CommonReportableFunc {
	return func(ctx context.Context, c interceptors.CallMeta) (interceptors.Reporter, context.Context) {
		ctx = withRequestID(ctx)
		requestID, _ := FromContext(ctx)

		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID))

		return interceptors.NoopReporter{}, ctx
	}
}

func withRequestID(ctx context.Context) context.Context {
	requestID := InitID(ctx)

	trace.SpanFromContext(ctx).SetAttributes(attribute.String(requestIDTraceKey, requestID))

	ctx = context.WithValue(ctx, ctxKey{}, requestID)
	return logger.ContextWithFields(ctx, zap.String(requestIDKey, requestID))
}
