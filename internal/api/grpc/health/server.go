package health

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/alarm-portal/internal/logger"
	"github.com/oshokin/alarm-portal/internal/metrics"
)

// ServiceName is the health service name of the event pipeline.
const ServiceName = "alarm_portal"

// Server serves grpc.health.v1.Health.
type Server struct {
	// grpcServer hosts the health service.
	grpcServer *grpc.Server
	// health keeps per-service statuses.
	health *grpchealth.Server
}

// NewServer creates a health server reporting the pipeline as not serving.
func NewServer() *Server {
	hs := grpchealth.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	return &Server{
		grpcServer: grpcServer,
		health:     hs,
	}
}

// SetConnected updates the pipeline status and the source connectivity gauge.
// It matches source.StatusHook.
func (s *Server) SetConnected(connected bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	gauge := 0.0

	if connected {
		status = healthpb.HealthCheckResponse_SERVING
		gauge = 1
	}

	s.health.SetServingStatus(ServiceName, status)
	metrics.SourceConnected.Set(gauge)
}

// Serve blocks until ctx is cancelled or the server fails.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		close(done)
	}()

	logger.InfoKV(ctx, "Health endpoint listening", "address", lis.Addr().String())

	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC health: %w", err)
	}

	<-done

	return nil
}
