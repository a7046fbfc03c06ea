package pool

import (
	"context"
	"testing"
	"time"

	"tikapipe/pkg/config"
)

// testPoolConfig returns a pool configuration with short backoff and
// grace periods for tests. No real parse subprocess binary is available
// here, so these tests exercise the pool's sizing, error and shutdown
// paths without ever starting a working subprocess.
func testPoolConfig(size int) config.PoolConfig {
	return config.PoolConfig{
		Size:                     size,
		MaxRestartAttempts:       3,
		RestartBackoffInitial:    10 * time.Millisecond,
		RestartBackoffMax:        100 * time.Millisecond,
		RestartBackoffMultiplier: 2.0,
		BorrowTimeout:            time.Second,
		ShutdownGrace:            200 * time.Millisecond,
	}
}

func TestPool_SizeConfigured(t *testing.T) {
	p := New(config.WorkerConfig{}, testPoolConfig(4))
	if p.Size() != 4 {
		t.Errorf("expected size 4, got %d", p.Size())
	}
}

func TestPool_BorrowFailsWhenBinaryMissing(t *testing.T) {
	// Lazy worker creation tries to start the configured subprocess
	// binary on first Borrow; a missing binary must surface as an error
	// rather than block forever.
	p := New(config.WorkerConfig{Command: "/nonexistent/parse-worker"}, testPoolConfig(1))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Borrow(ctx)
	if err == nil {
		t.Error("expected an error borrowing against a non-existent subprocess binary")
	}
}

func TestPool_ShutdownIsIdempotent(t *testing.T) {
	p := New(config.WorkerConfig{}, testPoolConfig(2))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	p.Shutdown(ctx)
	p.Shutdown(ctx) // must not panic or double-close channels
}
