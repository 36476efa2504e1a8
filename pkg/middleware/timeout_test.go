package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/ember-nexus/nexus-search/pkg/logger"
)

func TestTimeoutHTTPMiddleware(t *testing.T) {
	log, logs := logger.NewObserverLogger("warn")
	timeoutHandler := NewTimeoutHandler(5*time.Millisecond, log)

	t.Run("deadline_is_set", func(t *testing.T) {
		handler := timeoutHandler.NewHTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deadline, ok := r.Context().Deadline()
			require.True(t, ok)
			require.WithinDuration(t, time.Now().Add(5*time.Millisecond), deadline, 5*time.Millisecond)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/search", nil))
		require.Equal(t, 0, logs.Len())
	})

	t.Run("slow_handler_observes_expiry", func(t *testing.T) {
		handler := timeoutHandler.NewHTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			require.ErrorIs(t, r.Context().Err(), context.DeadlineExceeded)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/search", nil))
		require.Equal(t, 1, logs.FilterMessage("request exceeded its timeout").Len())
	})
}

func TestNewUnaryTimeoutInterceptor(t *testing.T) {
	timeoutInterceptor := NewTimeoutHandler(5*time.Millisecond, logger.NewNoopLogger())

	handler := func(ctx context.Context, req any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := timeoutInterceptor.NewUnaryTimeoutInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{}, handler)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
