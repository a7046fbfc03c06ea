package dispatch

import (
	"context"
	"testing"
	"time"

	"tikapipe/internal/pool"
	"tikapipe/internal/registry"
	"tikapipe/internal/worker"
	"tikapipe/pkg/config"
)

func TestDispatch_UnknownFetcherYieldsFetchException(t *testing.T) {
	reg := registry.New(config.RegistryConfig{
		IdleExpiration: time.Second,
		SweepInterval:  time.Second,
		KnownPlugins:   []string{"FileSystemFetcher"},
	}, nil)
	defer reg.Close()

	p := pool.New(config.WorkerConfig{}, config.PoolConfig{Size: 1})
	d := New(reg, p, config.DispatchConfig{DefaultTimeout: time.Second})

	reply := d.Dispatch(context.Background(), Request{
		FetcherID: "does-not-exist",
		FetchKey:  "some-key",
	})

	if reply.Status != worker.StatusFetchException {
		t.Errorf("expected FETCH_EXCEPTION, got %s", reply.Status)
	}
	if reply.ErrorMessage == "" {
		t.Error("expected a non-empty error message")
	}
	if reply.FetchKey != "some-key" {
		t.Errorf("expected fetchKey to be echoed back, got %s", reply.FetchKey)
	}
}

func TestDispatch_WorkerStartFailureYieldsClientUnavailable(t *testing.T) {
	reg := registry.New(config.RegistryConfig{
		IdleExpiration: time.Second,
		SweepInterval:  time.Second,
		KnownPlugins:   []string{"FileSystemFetcher"},
	}, nil)
	defer reg.Close()

	if _, err := reg.Save(context.Background(), "f1", "FileSystemFetcher", "{}"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// A pool pointed at a non-existent binary cannot ever produce a
	// usable worker, so Borrow fails and Dispatch must still produce
	// exactly one reply rather than propagate the error.
	p := pool.New(config.WorkerConfig{Command: "/nonexistent/parse-worker"}, config.PoolConfig{Size: 1})
	d := New(reg, p, config.DispatchConfig{DefaultTimeout: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	reply := d.Dispatch(ctx, Request{FetcherID: "f1", FetchKey: "k1"})
	if reply.Status != worker.StatusClientUnavailable {
		t.Errorf("expected CLIENT_UNAVAILABLE, got %s", reply.Status)
	}
}

func TestDispatch_EffectiveTimeoutRespectsCallerDeadline(t *testing.T) {
	d := New(nil, nil, config.DispatchConfig{DefaultTimeout: 30 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	got := d.effectiveTimeout(ctx)
	if got <= 0 || got > 50*time.Millisecond {
		t.Errorf("expected effective timeout bounded by caller deadline, got %v", got)
	}
}
