package middleware

import (
	"context"
	"net/http"
	"time"

	"google.golang.org/grpc"

	"github.com/ember-nexus/nexus-search/pkg/logger"
)

// TimeoutHandler sets the timeout in each request.
type TimeoutHandler struct {
	timeout time.Duration
	logger  logger.Logger
}

// NewTimeoutHandler returns new TimeoutHandler that timeouts request if it
// exceeds the timeout value.
func NewTimeoutHandler(timeout time.Duration, logger logger.Logger) *TimeoutHandler {
	return &TimeoutHandler{
		timeout: timeout,
		logger:  logger,
	}
}

// NewHTTPMiddleware bounds the context of every HTTP request by the timeout.
// Handlers observe the expiry through their context and report it themselves.
func (h *TimeoutHandler) NewHTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		next.ServeHTTP(w, r.WithContext(ctx))

		if ctx.Err() == context.DeadlineExceeded {
			h.logger.WarnWithContext(ctx, "request exceeded its timeout")
		}
	})
}

// NewUnaryTimeoutInterceptor configures the timeout of unary gRPC calls.
func (h *TimeoutHandler) NewUnaryTimeoutInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, h.timeout)
		defer cancel()
		return handler(ctx, req)
	}
}
