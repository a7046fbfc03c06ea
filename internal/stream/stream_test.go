package stream

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	pipelinev1 "tikapipe/gen/go/tikapipe/pipeline/v1"
	"tikapipe/internal/dispatch"
	"tikapipe/internal/pool"
	"tikapipe/internal/registry"
	"tikapipe/pkg/config"
)

// fakeStream is an in-memory serverStream backed by request/reply slices,
// used to drive the coordinator without a real gRPC transport.
type fakeStream struct {
	mu       sync.Mutex
	requests []*pipelinev1.FetchAndParseRequest
	idx      int
	sent     []*pipelinev1.FetchAndParseReply
	sendErr  error
}

func (f *fakeStream) Recv() (*pipelinev1.FetchAndParseRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.idx >= len(f.requests) {
		return nil, io.EOF
	}
	req := f.requests[f.idx]
	f.idx++
	return req, nil
}

func (f *fakeStream) Send(r *pipelinev1.FetchAndParseReply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, r)
	return nil
}

func newTestDispatcher(t *testing.T) (*dispatch.Dispatcher, *registry.Registry) {
	t.Helper()
	reg := registry.New(config.RegistryConfig{
		IdleExpiration: time.Second,
		SweepInterval:  time.Second,
		KnownPlugins:   []string{"FileSystemFetcher"},
	}, nil)
	if _, err := reg.Save(context.Background(), "f1", "FileSystemFetcher", "{}"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	p := pool.New(config.WorkerConfig{Command: "/nonexistent/parse-worker"}, config.PoolConfig{Size: 2, BorrowTimeout: time.Second})
	d := dispatch.New(reg, p, config.DispatchConfig{DefaultTimeout: time.Second})
	return d, reg
}

func TestCoordinator_EmitsOneReplyPerRequest(t *testing.T) {
	d, reg := newTestDispatcher(t)
	defer reg.Close()

	fs := &fakeStream{requests: []*pipelinev1.FetchAndParseRequest{
		{FetcherId: "f1", FetchKey: "k1"},
		{FetcherId: "f1", FetchKey: "k2"},
		{FetcherId: "does-not-exist", FetchKey: "k3"},
	}}

	c := New(d, 2, config.StreamConfig{InFlightMultiplier: 1})
	if err := c.Run(context.Background(), fs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fs.sent) != 3 {
		t.Fatalf("expected 3 replies, got %d", len(fs.sent))
	}
	keys := map[string]bool{}
	for _, r := range fs.sent {
		keys[r.FetchKey] = true
	}
	for _, k := range []string{"k1", "k2", "k3"} {
		if !keys[k] {
			t.Errorf("missing reply for fetchKey %s", k)
		}
	}
}

func TestCoordinator_TransportErrorTerminatesStream(t *testing.T) {
	d, reg := newTestDispatcher(t)
	defer reg.Close()

	fs := &fakeStream{
		requests: []*pipelinev1.FetchAndParseRequest{{FetcherId: "f1", FetchKey: "k1"}},
		sendErr:  errors.New("broken pipe"),
	}

	c := New(d, 1, config.StreamConfig{InFlightMultiplier: 1})
	err := c.Run(context.Background(), fs)
	if err == nil {
		t.Fatal("expected a transport error to terminate the stream")
	}
}

func TestCoordinator_ZeroRequestsClosesCleanly(t *testing.T) {
	d, reg := newTestDispatcher(t)
	defer reg.Close()

	fs := &fakeStream{}
	c := New(d, 2, config.StreamConfig{InFlightMultiplier: 1})
	if err := c.Run(context.Background(), fs); err != nil {
		t.Fatalf("unexpected error on empty stream: %v", err)
	}
	if len(fs.sent) != 0 {
		t.Errorf("expected no replies, got %d", len(fs.sent))
	}
}
