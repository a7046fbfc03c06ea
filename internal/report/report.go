// Package report implements the registry snapshot exporter (C19): a
// background ticker plus an on-demand hook that render an XLSX listing of
// every live fetcher and a one-page PDF pipeline health summary, per
// §4.17. Both exports are best-effort — failures are logged at warn and
// never reach the gRPC surface, mirroring the failure isolation of
// pkg/server.Run's metrics/swagger goroutines.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tikapipe/internal/registry"
	"tikapipe/pkg/config"
	"tikapipe/pkg/logger"
)

// Snapshot is a point-in-time view of the pipeline's operational state,
// assembled from C1's List() and C3's worker-state counters.
type Snapshot struct {
	TakenAt           time.Time
	Fetchers          []registry.FetcherInfo
	PoolSize          int
	WorkerStateCounts map[string]int
	ReplyStatusCounts map[string]int64
}

// poolStats is the subset of *pool.Pool the exporter needs; declared as an
// interface so report does not import internal/pool directly.
type poolStats interface {
	Size() int
	StateCounts() map[string]int
}

// Exporter periodically renders a Snapshot to report.export_dir.
type Exporter struct {
	registry *registry.Registry
	pool     poolStats
	cfg      config.ReportConfig

	replyStatusCounts func() map[string]int64

	stopCh chan struct{}
	done   chan struct{}
}

// New constructs an Exporter. replyStatusCounts may be nil when no
// in-memory tally is available, in which case the PDF's reply-status
// section is omitted.
func New(reg *registry.Registry, pool poolStats, cfg config.ReportConfig, replyStatusCounts func() map[string]int64) *Exporter {
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = 5 * time.Minute
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "./var/tikapipe/reports"
	}
	return &Exporter{
		registry:          reg,
		pool:              pool,
		cfg:               cfg,
		replyStatusCounts: replyStatusCounts,
		stopCh:            make(chan struct{}),
		done:              make(chan struct{}),
	}
}

// Start launches the background ticker. Call Stop to release it.
func (e *Exporter) Start(ctx context.Context) {
	go func() {
		defer close(e.done)

		ticker := time.NewTicker(e.cfg.SnapshotInterval)
		defer ticker.Stop()

		for {
			select {
			case <-e.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.ExportNow(ctx)
			}
		}
	}()
}

// Stop signals the background ticker to exit and waits for it.
func (e *Exporter) Stop() {
	close(e.stopCh)
	<-e.done
}

// ExportNow builds a Snapshot and renders both artifacts immediately.
// Used by the background ticker and directly by tests.
func (e *Exporter) ExportNow(ctx context.Context) {
	snap := e.snapshot(ctx)

	if err := os.MkdirAll(e.cfg.ExportDir, 0o755); err != nil {
		logger.Log.Warn("report: failed to create export dir", "dir", e.cfg.ExportDir, "error", err)
		return
	}

	if err := e.writeWorkbook(snap); err != nil {
		logger.Log.Warn("report: failed to write registry workbook", "error", err)
	}
	if err := e.writeHealthPDF(snap); err != nil {
		logger.Log.Warn("report: failed to write health PDF", "error", err)
	}
}

func (e *Exporter) snapshot(ctx context.Context) Snapshot {
	snap := Snapshot{
		TakenAt:  time.Now(),
		Fetchers: e.registry.List(ctx),
	}
	if e.pool != nil {
		snap.PoolSize = e.pool.Size()
		snap.WorkerStateCounts = e.pool.StateCounts()
	}
	if e.replyStatusCounts != nil {
		snap.ReplyStatusCounts = e.replyStatusCounts()
	}
	return snap
}

func (e *Exporter) workbookPath(snap Snapshot) string {
	return filepath.Join(e.cfg.ExportDir, fmt.Sprintf("fetchers-%s.xlsx", snap.TakenAt.Format("20060102-150405")))
}

func (e *Exporter) pdfPath(snap Snapshot) string {
	return filepath.Join(e.cfg.ExportDir, fmt.Sprintf("pipeline-health-%s.pdf", snap.TakenAt.Format("20060102-150405")))
}
