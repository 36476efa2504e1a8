package health

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthv1pb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type readiness struct {
	ready bool
	err   error
}

func (r readiness) IsReady(context.Context) (bool, error) {
	return r.ready, r.err
}

// toggle becomes ready after the given number of calls.
type toggle struct {
	calls      atomic.Int32
	readyAfter int32
}

func (r *toggle) IsReady(context.Context) (bool, error) {
	return r.calls.Add(1) > r.readyAfter, nil
}

type watchStream struct {
	grpc.ServerStream

	ctx context.Context

	mu   sync.Mutex
	sent []healthv1pb.HealthCheckResponse_ServingStatus
}

func (s *watchStream) Context() context.Context {
	return s.ctx
}

func (s *watchStream) Send(resp *healthv1pb.HealthCheckResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, resp.GetStatus())
	return nil
}

func (s *watchStream) statuses() []healthv1pb.HealthCheckResponse_ServingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]healthv1pb.HealthCheckResponse_ServingStatus(nil), s.sent...)
}

func TestChecker(t *testing.T) {
	tests := map[string]struct {
		target  readiness
		service string
		status  healthv1pb.HealthCheckResponse_ServingStatus
		err     bool
	}{
		`serving`: {
			target: readiness{ready: true},
			status: healthv1pb.HealthCheckResponse_SERVING,
		},
		`serving_named_service`: {
			target:  readiness{ready: true},
			service: "nexus-search",
			status:  healthv1pb.HealthCheckResponse_SERVING,
		},
		`not_ready`: {
			target: readiness{ready: false},
			status: healthv1pb.HealthCheckResponse_NOT_SERVING,
		},
		`readiness_error`: {
			target: readiness{err: errors.New("graph unreachable")},
			status: healthv1pb.HealthCheckResponse_NOT_SERVING,
			err:    true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			checker := &Checker{TargetService: test.target, TargetServiceName: "nexus-search"}
			resp, err := checker.Check(context.Background(), &healthv1pb.HealthCheckRequest{Service: test.service})
			if test.err {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, test.status, resp.GetStatus())
		})
	}

	t.Run("unknown_service", func(t *testing.T) {
		checker := &Checker{TargetService: readiness{ready: true}, TargetServiceName: "nexus-search"}
		_, err := checker.Check(context.Background(), &healthv1pb.HealthCheckRequest{Service: "other"})
		require.Equal(t, codes.NotFound, status.Code(err))
	})
}

func TestCheckerWatch(t *testing.T) {
	t.Run("streams_status_changes", func(t *testing.T) {
		checker := &Checker{
			TargetService:     &toggle{readyAfter: 2},
			TargetServiceName: "nexus-search",
			WatchInterval:     time.Millisecond,
		}

		ctx, cancel := context.WithCancel(context.Background())
		stream := &watchStream{ctx: ctx}

		done := make(chan error, 1)
		go func() {
			done <- checker.Watch(&healthv1pb.HealthCheckRequest{}, stream)
		}()

		require.Eventually(t, func() bool {
			return len(stream.statuses()) == 2
		}, time.Second, time.Millisecond)
		cancel()

		require.Equal(t, codes.Canceled, status.Code(<-done))
		require.Equal(t, []healthv1pb.HealthCheckResponse_ServingStatus{
			healthv1pb.HealthCheckResponse_NOT_SERVING,
			healthv1pb.HealthCheckResponse_SERVING,
		}, stream.statuses())
	})

	t.Run("unknown_service", func(t *testing.T) {
		checker := &Checker{TargetService: readiness{ready: true}, TargetServiceName: "nexus-search"}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		stream := &watchStream{ctx: ctx}

		err := checker.Watch(&healthv1pb.HealthCheckRequest{Service: "other"}, stream)
		require.Equal(t, codes.Canceled, status.Code(err))
		require.Equal(t, []healthv1pb.HealthCheckResponse_ServingStatus{
			healthv1pb.HealthCheckResponse_SERVICE_UNKNOWN,
		}, stream.statuses())
	})
}
