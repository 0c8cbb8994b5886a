package health

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// TestServer_ReportsSourceConnectivity toggles the pipeline status.
func TestServer_ReportsSourceConnectivity(t *testing.T) {
	t.Parallel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Serve(ctx, lis)
	}()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	defer func() {
		_ = conn.Close()
	}()

	client := healthpb.NewHealthClient(conn)

	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		callCtx, callCancel := context.WithTimeout(ctx, 5*time.Second)
		defer callCancel()

		resp, checkErr := client.Check(callCtx, &healthpb.HealthCheckRequest{Service: service})
		require.NoError(t, checkErr)

		return resp.GetStatus()
	}

	require.Equal(t, healthpb.HealthCheckResponse_SERVING, check(""))
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(ServiceName))

	srv.SetConnected(true)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, check(ServiceName))

	srv.SetConnected(false)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(ServiceName))

	cancel()
	require.NoError(t, <-errCh)
}
