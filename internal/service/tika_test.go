package service

import (
	"context"
	"testing"
	"time"

	pipelinev1 "tikapipe/gen/go/tikapipe/pipeline/v1"
	"tikapipe/internal/dispatch"
	"tikapipe/internal/pool"
	"tikapipe/internal/registry"
	"tikapipe/pkg/config"
)

func newTestService(t *testing.T) *TikaService {
	t.Helper()
	reg := registry.New(config.RegistryConfig{
		IdleExpiration: time.Second,
		SweepInterval:  time.Second,
		KnownPlugins:   []string{"FileSystemFetcher"},
	}, nil)
	t.Cleanup(reg.Close)

	p := pool.New(config.WorkerConfig{Command: "/nonexistent/parse-worker"}, config.PoolConfig{Size: 1, BorrowTimeout: time.Second})
	d := dispatch.New(reg, p, config.DispatchConfig{DefaultTimeout: time.Second})
	return New(reg, d, 1, config.StreamConfig{InFlightMultiplier: 1}, nil)
}

func TestTikaService_SaveGetDeleteRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SaveFetcher(ctx, &pipelinev1.SaveFetcherRequest{
		FetcherId:         "f1",
		FetcherClass:      "FileSystemFetcher",
		FetcherConfigJson: `{"basePath":"/tmp"}`,
	}); err != nil {
		t.Fatalf("SaveFetcher: %v", err)
	}

	got, err := svc.GetFetcher(ctx, &pipelinev1.GetFetcherRequest{FetcherId: "f1"})
	if err != nil {
		t.Fatalf("GetFetcher: %v", err)
	}
	if got.FetcherClass != "FileSystemFetcher" {
		t.Errorf("expected FileSystemFetcher, got %s", got.FetcherClass)
	}

	list, err := svc.ListFetchers(ctx, &pipelinev1.Empty{})
	if err != nil {
		t.Fatalf("ListFetchers: %v", err)
	}
	if len(list.Fetchers) != 1 {
		t.Errorf("expected 1 fetcher, got %d", len(list.Fetchers))
	}

	del, err := svc.DeleteFetcher(ctx, &pipelinev1.DeleteFetcherRequest{FetcherId: "f1"})
	if err != nil {
		t.Fatalf("DeleteFetcher: %v", err)
	}
	// delete_enabled defaults false in this test config, so it reports
	// an unsupported no-op rather than an error (§9).
	if del.Success {
		t.Error("expected delete to be a no-op with delete_enabled=false")
	}
}

func TestTikaService_GetFetcherNotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GetFetcher(context.Background(), &pipelinev1.GetFetcherRequest{FetcherId: "missing"})
	if err == nil {
		t.Fatal("expected an error for an unknown fetcherId")
	}
}

func TestTikaService_FetchAndParseUnknownFetcher(t *testing.T) {
	svc := newTestService(t)
	reply, err := svc.FetchAndParse(context.Background(), &pipelinev1.FetchAndParseRequest{
		FetcherId: "missing",
		FetchKey:  "k1",
	})
	if err != nil {
		t.Fatalf("expected a reply, not an RPC error: %v", err)
	}
	if reply.Status != "FETCH_EXCEPTION" {
		t.Errorf("expected FETCH_EXCEPTION, got %s", reply.Status)
	}
}

func TestTikaService_ShutdownRejectsNewRequests(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := svc.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	_, err := svc.GetFetcher(context.Background(), &pipelinev1.GetFetcherRequest{FetcherId: "f1"})
	if err == nil {
		t.Error("expected requests to be rejected after shutdown")
	}
}
