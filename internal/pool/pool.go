// Package pool implements the bounded worker pool (C3): lazy worker
// creation up to N, FIFO-fair borrow/return via a hand-off channel, and
// graceful shutdown draining, per §4.3.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tikapipe/pkg/apperror"
	"tikapipe/pkg/config"
	"tikapipe/pkg/logger"
	"tikapipe/pkg/metrics"

	"tikapipe/internal/worker"
)

// Pool maintains up to N workers and hands them out FIFO.
type Pool struct {
	workerCfg config.WorkerConfig
	poolCfg   config.PoolConfig

	mu      sync.Mutex
	workers []*worker.Worker
	idle    chan *worker.Worker // FIFO hand-off of currently-idle workers
	nextID  int

	shuttingDown bool
	closed       chan struct{}
}

// New creates an empty pool; workers are started lazily on first Borrow.
func New(workerCfg config.WorkerConfig, poolCfg config.PoolConfig) *Pool {
	size := poolCfg.Size
	if size <= 0 {
		size = 4
	}
	poolCfg.Size = size
	return &Pool{
		workerCfg: workerCfg,
		poolCfg:   poolCfg,
		idle:      make(chan *worker.Worker, size),
		closed:    make(chan struct{}),
	}
}

// Borrow returns an idle worker, starting a new one lazily if the pool
// has not yet reached its configured size, or blocking FIFO-fair until
// one is returned or ctx is cancelled (§4.3 policy).
func (p *Pool) Borrow(ctx context.Context) (*worker.Worker, error) {
	start := time.Now()
	defer func() {
		if m := metrics.Get(); m != nil {
			m.PoolBorrowWait.Observe(time.Since(start).Seconds())
		}
	}()

	p.mu.Lock()
	if p.shuttingDown {
		p.mu.Unlock()
		return nil, apperror.ErrPoolShutdown
	}
	if len(p.workers) < p.poolCfg.Size {
		w, err := p.startWorker()
		p.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("pool: start worker: %w", err)
		}
		p.reportGauges()
		return w, nil
	}
	p.mu.Unlock()

	select {
	case w, ok := <-p.idle:
		if !ok {
			return nil, apperror.ErrPoolShutdown
		}
		p.reportGauges()
		return w, nil
	case <-ctx.Done():
		return nil, apperror.New(apperror.CodeUnavailable, "borrow cancelled: "+ctx.Err().Error())
	case <-p.closed:
		return nil, apperror.ErrPoolShutdown
	}
}

// Return gives a worker back to the pool. A DEAD worker is discarded and
// the slot count decremented so a future Borrow can start a replacement.
func (p *Pool) Return(w *worker.Worker) {
	defer p.reportGauges()

	if w.IsDead() {
		p.mu.Lock()
		p.removeLocked(w)
		p.mu.Unlock()
		return
	}

	p.mu.Lock()
	shuttingDown := p.shuttingDown
	p.mu.Unlock()

	if shuttingDown {
		w.Shutdown()
		p.mu.Lock()
		p.removeLocked(w)
		p.mu.Unlock()
		return
	}

	select {
	case p.idle <- w:
	default:
		// Idle channel is sized to pool capacity, so this should not
		// happen under correct borrow/return discipline; don't block
		// the caller if it does.
		logger.Log.Warn("pool: idle channel unexpectedly full on return")
	}
}

func (p *Pool) startWorker() (*worker.Worker, error) {
	p.nextID++
	id := fmt.Sprintf("worker-%d", p.nextID)
	w, err := worker.New(id, p.workerCfg, p.poolCfg)
	if err != nil {
		return nil, err
	}
	p.workers = append(p.workers, w)
	return w, nil
}

func (p *Pool) removeLocked(dead *worker.Worker) {
	for i, w := range p.workers {
		if w == dead {
			p.workers = append(p.workers[:i], p.workers[i+1:]...)
			return
		}
	}
}

func (p *Pool) reportGauges() {
	m := metrics.Get()
	if m == nil {
		return
	}
	p.mu.Lock()
	counts := map[worker.State]int{}
	for _, w := range p.workers {
		counts[w.State()]++
	}
	p.mu.Unlock()

	m.SetPoolWorkers("idle", counts[worker.StateIdle])
	m.SetPoolWorkers("busy", counts[worker.StateBusy])
	m.SetPoolWorkers("restarting", counts[worker.StateRestarting])
	m.SetPoolWorkers("dead", counts[worker.StateDead])
}

// Shutdown drains idle workers, cancels outstanding borrows, then kills
// remaining busy workers' subprocesses after the configured grace (§4.3).
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.shuttingDown {
		p.mu.Unlock()
		return
	}
	p.shuttingDown = true
	workers := append([]*worker.Worker(nil), p.workers...)
	p.mu.Unlock()

	close(p.closed)

	grace := p.poolCfg.ShutdownGrace
	if grace <= 0 {
		grace = 5 * time.Second
	}

	drain := time.After(grace)
drainLoop:
	for {
		select {
		case w := <-p.idle:
			w.Shutdown()
		case <-drain:
			break drainLoop
		default:
			if allIdleDrained(workers) && !anyBusy(workers) {
				break drainLoop
			}
			time.Sleep(10 * time.Millisecond)
		}
	}

	for _, w := range workers {
		if w.State() != worker.StateDead {
			w.Shutdown()
		}
	}

	logger.Log.Info("worker pool shut down", "workers", len(workers))
}

func allIdleDrained(workers []*worker.Worker) bool {
	for _, w := range workers {
		if w.State() == worker.StateIdle {
			return false
		}
	}
	return true
}

func anyBusy(workers []*worker.Worker) bool {
	for _, w := range workers {
		if w.State() == worker.StateBusy {
			return true
		}
	}
	return false
}

// Size returns the configured maximum pool size.
func (p *Pool) Size() int {
	return p.poolCfg.Size
}

// StateCounts returns the current worker count per lifecycle state, for
// the snapshot exporter (C19).
func (p *Pool) StateCounts() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	counts := map[string]int{"idle": 0, "busy": 0, "restarting": 0, "dead": 0}
	for _, w := range p.workers {
		counts[w.State().String()]++
	}
	return counts
}
