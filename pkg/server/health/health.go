// Package health serves the gRPC health protocol for a nexus-search server.
// Readiness covers both backends a search depends on.
package health

import (
	"context"
	"time"

	grpcauth "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"google.golang.org/grpc/codes"
	healthv1pb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// DefaultWatchInterval is how often Watch re-evaluates readiness.
const DefaultWatchInterval = 5 * time.Second

// TargetService defines an interface that services can implement for server health checks.
type TargetService interface {
	IsReady(ctx context.Context) (bool, error)
}

type Checker struct {
	healthv1pb.UnimplementedHealthServer
	TargetService
	TargetServiceName string

	// WatchInterval overrides DefaultWatchInterval.
	WatchInterval time.Duration
}

var _ grpcauth.ServiceAuthFuncOverride = (*Checker)(nil)

// AuthFuncOverride bypasses the authn middleware so probes need no credentials.
func (o *Checker) AuthFuncOverride(ctx context.Context, _ string) (context.Context, error) {
	return ctx, nil
}

// Check reports SERVING when the target service is ready. The empty service
// name refers to the server as a whole.
func (o *Checker) Check(ctx context.Context, req *healthv1pb.HealthCheckRequest) (*healthv1pb.HealthCheckResponse, error) {
	if !o.knows(req.GetService()) {
		return nil, status.Errorf(codes.NotFound, "service '%s' is not registered with the Health server", req.GetService())
	}

	servingStatus, err := o.servingStatus(ctx)
	return &healthv1pb.HealthCheckResponse{Status: servingStatus}, err
}

// Watch streams the serving status whenever it changes, starting with the
// current one. Unknown services are reported as SERVICE_UNKNOWN.
func (o *Checker) Watch(req *healthv1pb.HealthCheckRequest, stream healthv1pb.Health_WatchServer) error {
	ctx := stream.Context()

	if !o.knows(req.GetService()) {
		if err := stream.Send(&healthv1pb.HealthCheckResponse{Status: healthv1pb.HealthCheckResponse_SERVICE_UNKNOWN}); err != nil {
			return err
		}
		<-ctx.Done()
		return status.FromContextError(ctx.Err()).Err()
	}

	interval := o.WatchInterval
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := healthv1pb.HealthCheckResponse_UNKNOWN
	for {
		// Readiness errors are reported as NOT_SERVING, the stream stays open.
		current, _ := o.servingStatus(ctx)
		if current != last {
			if err := stream.Send(&healthv1pb.HealthCheckResponse{Status: current}); err != nil {
				return err
			}
			last = current
		}

		select {
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		case <-ticker.C:
		}
	}
}

func (o *Checker) knows(service string) bool {
	return service == "" || service == o.TargetServiceName
}

func (o *Checker) servingStatus(ctx context.Context) (healthv1pb.HealthCheckResponse_ServingStatus, error) {
	ready, err := o.IsReady(ctx)
	if err != nil || !ready {
		return healthv1pb.HealthCheckResponse_NOT_SERVING, err
	}
	return healthv1pb.HealthCheckResponse_SERVING, nil
}
