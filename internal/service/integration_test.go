package service

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"

	pipelinev1 "tikapipe/gen/go/tikapipe/pipeline/v1"
	"tikapipe/internal/dispatch"
	"tikapipe/internal/pool"
	"tikapipe/internal/registry"
	"tikapipe/pkg/client"
	"tikapipe/pkg/config"
)

// TestTikaService_RoundTripOverRealListener dials the service the way an
// operator tool would, through pkg/client.NewGRPCClient's retrying dialer,
// rather than calling the TikaService methods directly in-process.
func TestTikaService_RoundTripOverRealListener(t *testing.T) {
	reg := registry.New(config.RegistryConfig{
		IdleExpiration: time.Minute,
		SweepInterval:  time.Minute,
		KnownPlugins:   []string{"FileSystemFetcher"},
	}, nil)
	t.Cleanup(reg.Close)

	p := pool.New(config.WorkerConfig{Command: "/nonexistent/parse-worker"}, config.PoolConfig{Size: 1, BorrowTimeout: time.Second})
	d := dispatch.New(reg, p, config.DispatchConfig{DefaultTimeout: time.Second})
	svc := New(reg, d, 1, config.StreamConfig{InFlightMultiplier: 1}, nil)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	grpcServer := grpc.NewServer()
	pipelinev1.RegisterTikaServer(grpcServer, svc)
	go grpcServer.Serve(lis)
	t.Cleanup(grpcServer.Stop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := client.NewGRPCClient(ctx, client.ClientConfig{
		Address:      lis.Addr().String(),
		Timeout:      2 * time.Second,
		MaxRetries:   2,
		RetryBackoff: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewGRPCClient: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	tc := pipelinev1.NewTikaClient(conn)

	if _, err := tc.SaveFetcher(ctx, &pipelinev1.SaveFetcherRequest{
		FetcherId:         "f1",
		FetcherClass:      "FileSystemFetcher",
		FetcherConfigJson: `{"basePath":"/tmp"}`,
	}); err != nil {
		t.Fatalf("SaveFetcher over the wire: %v", err)
	}

	got, err := tc.GetFetcher(ctx, &pipelinev1.GetFetcherRequest{FetcherId: "f1"})
	if err != nil {
		t.Fatalf("GetFetcher over the wire: %v", err)
	}
	if got.FetcherClass != "FileSystemFetcher" {
		t.Errorf("expected FileSystemFetcher, got %s", got.FetcherClass)
	}
}
