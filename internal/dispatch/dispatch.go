// Package dispatch implements the request dispatcher (C4): the flow that
// drives one fetch-and-parse call from registry lookup through a borrowed
// worker to a single reply, per §4.4.
package dispatch

import (
	"context"
	"time"

	"tikapipe/internal/pool"
	"tikapipe/internal/registry"
	"tikapipe/internal/worker"
	"tikapipe/pkg/apperror"
	"tikapipe/pkg/config"
	"tikapipe/pkg/metrics"
	"tikapipe/pkg/telemetry"
)

// Request is one fetch-and-parse call, unary or one item of a stream.
type Request struct {
	FetcherID string
	FetchKey  string
	Metadata  map[string]string
	RequestID string
}

// Reply mirrors gen/go/tikapipe/pipeline/v1.FetchAndParseReply.
type Reply struct {
	FetchKey     string
	Status       string
	FieldsMap    map[string]string
	ErrorMessage string
}

// Dispatcher wires C1 (registry) and C3 (pool) into the per-request flow.
type Dispatcher struct {
	registry *registry.Registry
	pool     *pool.Pool
	cfg      config.DispatchConfig
}

// New constructs a Dispatcher.
func New(reg *registry.Registry, p *pool.Pool, cfg config.DispatchConfig) *Dispatcher {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 30 * time.Second
	}
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = 1 * time.Second
	}
	return &Dispatcher{registry: reg, pool: p, cfg: cfg}
}

// Dispatch runs the §4.4 flow for a single request: look up the fetcher
// (refreshing its TTL), borrow a worker, run the request, return the
// worker, and produce exactly one reply.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Reply {
	ctx, span := telemetry.StartSpan(ctx, "dispatch.Dispatch")
	defer span.End()
	telemetry.SetAttributes(ctx, telemetry.FetchAttributes(req.FetcherID, req.FetchKey, req.RequestID)...)

	fetcherCfg, err := d.registry.Lookup(ctx, req.FetcherID)
	if err != nil {
		return d.recordAndReturn(Reply{
			FetchKey:     req.FetchKey,
			Status:       worker.StatusFetchException,
			ErrorMessage: err.Error(),
		})
	}

	timeout := d.effectiveTimeout(ctx)

	w, err := d.pool.Borrow(ctx)
	if err != nil {
		status := worker.StatusClientUnavailable
		if apperror.Is(err, apperror.CodePoolShuttingDown) || apperror.Is(err, apperror.CodeUnavailable) {
			status = worker.StatusClientUnavailable
		}
		return d.recordAndReturn(Reply{
			FetchKey:     req.FetchKey,
			Status:       status,
			ErrorMessage: err.Error(),
		})
	}
	defer d.pool.Return(w)

	workerReq := worker.Request{
		FetcherConfig: worker.FetcherConfigWire{
			FetcherID:  fetcherCfg.FetcherID,
			PluginID:   fetcherCfg.PluginID,
			ConfigJSON: fetcherCfg.ConfigJSON,
		},
		FetchKey: req.FetchKey,
		Metadata: req.Metadata,
	}

	reply, err := w.RunOnce(ctx, workerReq, timeout, d.cfg.KillGrace)
	if err != nil {
		return d.recordAndReturn(Reply{
			FetchKey:     req.FetchKey,
			Status:       worker.StatusClientUnavailable,
			ErrorMessage: err.Error(),
		})
	}

	return d.recordAndReturn(Reply{
		FetchKey:     req.FetchKey,
		Status:       reply.Status,
		FieldsMap:    reply.Fields,
		ErrorMessage: reply.ErrorMessage,
	})
}

// effectiveTimeout composes the caller's deadline with the configured
// per-request ceiling and returns the smaller of the two (§4.4 Timeout).
func (d *Dispatcher) effectiveTimeout(ctx context.Context) time.Duration {
	ceiling := d.cfg.DefaultTimeout
	deadline, ok := ctx.Deadline()
	if !ok {
		return ceiling
	}
	remaining := time.Until(deadline)
	if remaining < ceiling {
		return remaining
	}
	return ceiling
}

func (d *Dispatcher) recordAndReturn(r Reply) Reply {
	if m := metrics.Get(); m != nil {
		m.RecordDispatchReply(r.Status)
	}
	return r
}
