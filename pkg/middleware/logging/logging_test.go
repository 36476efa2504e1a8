package logging

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthv1pb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/ember-nexus/nexus-search/pkg/logger"
	"github.com/ember-nexus/nexus-search/pkg/middleware/requestid"
	serverErrors "github.com/ember-nexus/nexus-search/pkg/server/errors"
)

func TestHTTPMiddleware(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		log, logs := logger.NewObserverLogger("info")
		handler := requestid.NewHTTPMiddleware(NewHTTPMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))

		req := httptest.NewRequest(http.MethodPost, "/search", nil)
		req.Header.Set("User-Agent", "search-client/1.0")
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)

		entries := logs.FilterMessage(httpReqCompleteKey).All()
		require.Len(t, entries, 1)

		fields := entries[0].ContextMap()
		require.Equal(t, "POST", fields[httpMethodKey])
		require.Equal(t, "/search", fields[httpPathKey])
		require.EqualValues(t, http.StatusOK, fields[httpStatusKey])
		require.Equal(t, "search-client/1.0", fields[userAgentKey])
		require.Equal(t, resp.Header().Get(requestid.RequestIDHeader), fields["request_id"])
	})

	t.Run("client_error", func(t *testing.T) {
		log, logs := logger.NewObserverLogger("info")
		handler := NewHTTPMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			SetError(r.Context(), status.Error(codes.InvalidArgument, "bad page"))
			w.WriteHeader(http.StatusBadRequest)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/search", nil))

		entries := logs.FilterMessage(httpReqCompleteKey).All()
		require.Len(t, entries, 1)
		require.EqualValues(t, http.StatusBadRequest, entries[0].ContextMap()[httpStatusKey])
		require.Contains(t, entries[0].ContextMap()["error"], "bad page")
	})

	t.Run("internal_error", func(t *testing.T) {
		log, logs := logger.NewObserverLogger("info")
		handler := NewHTTPMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			SetError(r.Context(), serverErrors.NewInternalError("", errors.New("neo4j: connection reset")))
			w.WriteHeader(http.StatusInternalServerError)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/search", nil))

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		require.Equal(t, "error", entry.Level.String())
		require.Equal(t, "neo4j: connection reset", entry.ContextMap()[internalErrorKey])
	})
}

func TestSetErrorOutsideMiddleware(t *testing.T) {
	require.NotPanics(t, func() {
		SetError(context.Background(), errors.New("ignored"))
	})
}

func TestNewLoggingInterceptor(t *testing.T) {
	log, logs := logger.NewObserverLogger("info")

	listner := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(requestid.NewUnaryInterceptor(), NewLoggingInterceptor(log)))
	t.Cleanup(srv.Stop)

	healthv1pb.RegisterHealthServer(srv, &healthServer{})

	go func() {
		_ = srv.Serve(listner)
	}()

	dialer := func(context.Context, string) (net.Conn, error) {
		return listner.Dial()
	}
	conn, err := grpc.NewClient("passthrough://buffcon",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
	})

	_, err = healthv1pb.NewHealthClient(conn).Check(context.Background(), &healthv1pb.HealthCheckRequest{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return logs.FilterMessage(grpcReqCompleteKey).Len() == 1
	}, time.Second, 10*time.Millisecond)

	fields := logs.FilterMessage(grpcReqCompleteKey).All()[0].ContextMap()
	require.Equal(t, "grpc.health.v1.Health", fields[grpcServiceKey])
	require.Equal(t, "Check", fields[grpcMethodKey])
	require.Equal(t, "OK", fields[grpcCodeKey])
	require.NotEmpty(t, fields["request_id"])
}

type healthServer struct {
	healthv1pb.UnimplementedHealthServer
}

func (healthServer) Check(context.Context, *healthv1pb.HealthCheckRequest) (*healthv1pb.HealthCheckResponse, error) {
	return &healthv1pb.HealthCheckResponse{Status: healthv1pb.HealthCheckResponse_SERVING}, nil
}
