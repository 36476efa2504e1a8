package logging

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/ember-nexus/nexus-search/pkg/logger"
	serverErrors "github.com/ember-nexus/nexus-search/pkg/server/errors"
)

const (
	grpcServiceKey     = "grpc_service"
	grpcMethodKey      = "grpc_method"
	grpcTypeKey        = "grpc_type"
	grpcCodeKey        = "grpc_code"
	httpMethodKey      = "http_method"
	httpPathKey        = "http_path"
	httpStatusKey      = "http_status"
	traceIDKey         = "trace_id"
	internalErrorKey   = "internal_error"
	grpcReqCompleteKey = "grpc_req_complete"
	httpReqCompleteKey = "http_req_complete"
	userAgentKey       = "user_agent"
	queryDurationKey   = "query_duration_ms"

	userAgentHeader string = "user-agent"
)

type errorHolder struct {
	err error
}

type errorHolderKey struct{}

// SetError records the error a handler answered with, so that the request log
// entry carries its internal detail. It is a no-op outside the HTTP middleware.
func SetError(ctx context.Context, err error) {
	if holder, ok := ctx.Value(errorHolderKey{}).(*errorHolder); ok {
		holder.err = err
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// NewHTTPMiddleware logs one entry per HTTP request. Requests that failed with an
// internal error are logged at error level together with the hidden detail.
func NewHTTPMiddleware(l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			holder := &errorHolder{}
			ctx := context.WithValue(r.Context(), errorHolderKey{}, holder)
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r.WithContext(ctx))

			fields := []zap.Field{
				zap.String(httpMethodKey, r.Method),
				zap.String(httpPathKey, r.URL.Path),
				zap.Int(httpStatusKey, recorder.status),
				zap.String(queryDurationKey, strconv.FormatInt(time.Since(start).Milliseconds(), 10)),
			}
			if userAgent := r.UserAgent(); userAgent != "" {
				fields = append(fields, zap.String(userAgentKey, userAgent))
			}
			fields = append(fields, traceFields(ctx)...)

			report(ctx, l, holder.err, httpReqCompleteKey, fields)
		})
	}
}

// NewLoggingInterceptor creates a new logging interceptor for gRPC unary server requests.
func NewLoggingInterceptor(logger logger.Logger) grpc.UnaryServerInterceptor {
	return interceptors.UnaryServerInterceptor(reportable(logger))
}

type reporter struct {
	ctx    context.Context
	logger logger.Logger
	fields []zap.Field
}

// PostCall is invoked after all PostMsgSend operations.
func (r *reporter) PostCall(err error, rpcDuration time.Duration) {
	r.fields = append(r.fields,
		zap.String(queryDurationKey, strconv.FormatInt(rpcDuration.Milliseconds(), 10)),
		zap.String(grpcCodeKey, status.Code(err).String()),
	)

	report(r.ctx, r.logger, err, grpcReqCompleteKey, r.fields)
}

// PostMsgSend is invoked once after a unary response.
func (r *reporter) PostMsgSend(any, error, time.Duration) {}

// PostMsgReceive is invoked after receiving a message.
func (r *reporter) PostMsgReceive(any, error, time.Duration) {}

func reportable(l logger.Logger) interceptors.CommonReportableFunc {
	return func(ctx context.Context, c interceptors.CallMeta) (interceptors.Reporter, context.Context) {
		fields := []zap.Field{
			zap.String(grpcServiceKey, c.Service),
			zap.String(grpcMethodKey, c.Method),
			zap.String(grpcTypeKey, string(c.Typ)),
		}
		fields = append(fields, traceFields(ctx)...)

		if headers, ok := metadata.FromIncomingContext(ctx); ok {
			if header := headers.Get(userAgentHeader); len(header) > 0 {
				fields = append(fields, zap.String(userAgentKey, header[0]))
			}
		}

		return &reporter{
			ctx:    ctx,
			logger: l,
			fields: fields,
		}, ctx
	}
}

func report(ctx context.Context, l logger.Logger, err error, msg string, fields []zap.Field) {
	if err == nil {
		l.InfoWithContext(ctx, msg, fields...)
		return
	}

	var internalError serverErrors.InternalError
	if errors.As(err, &internalError) {
		if internal := internalError.Unwrap(); internal != nil {
			fields = append(fields, zap.String(internalErrorKey, internal.Error()))
		}
		l.ErrorWithContext(ctx, err.Error(), fields...)
		return
	}

	fields = append(fields, zap.Error(err))
	l.InfoWithContext(ctx, msg, fields...)
}

func traceFields(ctx context.Context) []zap.Field {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.HasTraceID() {
		return []zap.Field{zap.String(traceIDKey, spanCtx.TraceID().String())}
	}
	return nil
}
