// Package registry implements the fetcher registry (C1): a thread-safe
// fetcherId -> FetcherConfig map with idle-TTL expiration, modeled after
// the sweeper/refresh-on-read pattern in pkg/cache's in-memory cache.
package registry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"tikapipe/pkg/apperror"
	"tikapipe/pkg/cache"
	"tikapipe/pkg/config"
	"tikapipe/pkg/logger"
	"tikapipe/pkg/metrics"
	"tikapipe/pkg/telemetry"
)

// FetcherConfig is the immutable record identified by FetcherId (§3).
type FetcherConfig struct {
	FetcherID  string
	PluginID   string
	ConfigJSON string
}

// entry is a FetcherConfig plus the bookkeeping timestamps from §3's
// RegistryEntry. lastAccessedAt is refreshed under the write lock on the
// read path, exactly mirroring pkg/cache.MemoryCache's Get, which upgrades
// to its write lock to update accessedAt rather than mutating it under a
// read lock.
type entry struct {
	config         FetcherConfig
	createdAt      time.Time
	lastAccessedAt time.Time
}

func (e *entry) isExpired(idleTTL time.Duration) bool {
	return time.Since(e.lastAccessedAt) > idleTTL
}

// FetcherInfo is the introspection-only view returned by Get/List: it
// decodes configJson's top-level keys into paramsMap (§4.1).
type FetcherInfo struct {
	FetcherID      string
	FetcherClass   string
	ParamsMap      map[string]string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Registry holds fetcher configs with idle-TTL eviction.
type Registry struct {
	mu    sync.RWMutex
	items map[string]*entry

	idleTTL      time.Duration
	sweepPeriod  time.Duration
	deleteEnabled bool
	knownPlugins map[string]bool

	distCache cache.Cache // optional C20 mirror; nil when disabled

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New constructs a Registry from the registry section of the service
// configuration and starts its background sweeper.
func New(cfg config.RegistryConfig, distCache cache.Cache) *Registry {
	idleTTL := cfg.IdleExpiration
	if idleTTL <= 0 {
		idleTTL = 2 * time.Second
	}
	sweepPeriod := cfg.SweepInterval
	if sweepPeriod <= 0 {
		sweepPeriod = 1 * time.Second
	}

	known := make(map[string]bool, len(cfg.KnownPlugins))
	for _, p := range cfg.KnownPlugins {
		known[p] = true
	}

	r := &Registry{
		items:         make(map[string]*entry),
		idleTTL:       idleTTL,
		sweepPeriod:   sweepPeriod,
		deleteEnabled: cfg.DeleteEnabled,
		knownPlugins:  known,
		distCache:     distCache,
		stopCh:        make(chan struct{}),
	}

	r.wg.Add(1)
	go r.sweepLoop()

	return r
}

// Save inserts or atomically replaces the entry for fetcherId (§4.1),
// reporting whether the id was newly created so callers (SaveFetcher's
// audit entry, §4.12) can distinguish create from update.
func (r *Registry) Save(ctx context.Context, fetcherID, pluginID, configJSON string) (created bool, err error) {
	ctx, span := telemetry.StartSpan(ctx, "registry.Save")
	defer span.End()
	telemetry.SetAttributes(ctx, telemetry.FetcherAttributes(fetcherID, pluginID)...)

	if fetcherID == "" {
		return false, apperror.ErrEmptyFetcherID
	}
	if len(r.knownPlugins) > 0 && !r.knownPlugins[pluginID] {
		return false, apperror.New(apperror.CodeUnknownPlugin, "unknown plugin family: "+pluginID)
	}

	now := time.Now()

	r.mu.Lock()
	existing, ok := r.items[fetcherID]
	e := &entry{
		config:         FetcherConfig{FetcherID: fetcherID, PluginID: pluginID, ConfigJSON: configJSON},
		lastAccessedAt: now,
	}
	if ok {
		e.createdAt = existing.createdAt
	} else {
		e.createdAt = now
	}
	r.items[fetcherID] = e
	size := len(r.items)
	r.mu.Unlock()

	if m := metrics.Get(); m != nil {
		m.SetRegistrySize(size)
	}

	if r.distCache != nil {
		if b, err := json.Marshal(e.config); err == nil {
			if err := r.distCache.Set(ctx, fetcherID, b, r.idleTTL); err != nil {
				logger.Log.Warn("registry: failed to mirror fetcher in distributed cache", "fetcher_id", fetcherID, "error", err)
			}
		}
	}

	return !ok, nil
}

// Get looks up fetcherId, refreshing its lastAccessedAt under the write
// lock (see lookup) after re-checking expiry, so a concurrent sweep cannot
// evict the entry this call has just proven live (§4.1 TTL policy).
func (r *Registry) Get(ctx context.Context, fetcherID string) (FetcherInfo, error) {
	ctx, span := telemetry.StartSpan(ctx, "registry.Get")
	defer span.End()

	snapshot, ok := r.lookup(fetcherID)
	if !ok {
		telemetry.SetAttributes(ctx, telemetry.FetcherAttributes(fetcherID, "")...)
		return FetcherInfo{}, apperror.ErrFetcherNotFound
	}

	return toInfo(snapshot), nil
}

// Lookup returns the raw FetcherConfig for internal pipeline use (C4/C5),
// refreshing lastAccessedAt exactly like Get. Unlike Get, it returns the
// untouched configJson rather than the decoded paramsMap view, since the
// worker protocol (§6.3) expects the original document.
func (r *Registry) Lookup(ctx context.Context, fetcherID string) (FetcherConfig, error) {
	_, span := telemetry.StartSpan(ctx, "registry.Lookup")
	defer span.End()

	snapshot, ok := r.lookup(fetcherID)
	if !ok {
		return FetcherConfig{}, apperror.ErrFetcherNotFound
	}
	return snapshot.config, nil
}

// lookup is the shared read-then-refresh critical section used by both Get
// and Lookup. The existence/expiry check takes the read lock, mirroring
// pkg/cache.MemoryCache.Get; the lastAccessedAt refresh is then done under
// the write lock in a second critical section, exactly like MemoryCache.Get
// upgrades to c.mu.Lock() to update accessedAt (pkg/cache/memory.go) — a
// bare RLock write here would race with concurrent lookups of the same
// fetcherId and with the sweeper's isExpired reads (§4.1, §8.6).
func (r *Registry) lookup(fetcherID string) (entry, bool) {
	r.mu.RLock()
	e, ok := r.items[fetcherID]
	if ok && e.isExpired(r.idleTTL) {
		ok = false
	}
	r.mu.RUnlock()

	if !ok {
		return entry{}, false
	}

	r.mu.Lock()
	e, ok = r.items[fetcherID]
	if ok && e.isExpired(r.idleTTL) {
		ok = false
	}
	if ok {
		e.lastAccessedAt = time.Now()
	}
	var snapshot entry
	if ok {
		snapshot = *e
	}
	r.mu.Unlock()

	if !ok {
		return entry{}, false
	}
	return snapshot, true
}

// Delete removes fetcherId if present. When deleteEnabled is false the
// deployment treats delete as an unsupported no-op (§9 "Delete semantics"):
// it always reports success=false without touching the map.
func (r *Registry) Delete(ctx context.Context, fetcherID string) bool {
	ctx, span := telemetry.StartSpan(ctx, "registry.Delete")
	defer span.End()

	if !r.deleteEnabled {
		return false
	}

	r.mu.Lock()
	_, ok := r.items[fetcherID]
	delete(r.items, fetcherID)
	r.mu.Unlock()

	if ok && r.distCache != nil {
		if err := r.distCache.Delete(ctx, fetcherID); err != nil {
			logger.Log.Warn("registry: failed to evict fetcher from distributed cache", "fetcher_id", fetcherID, "error", err)
		}
	}

	return ok
}

// List returns a point-in-time snapshot of all live entries.
func (r *Registry) List(ctx context.Context) []FetcherInfo {
	ctx, span := telemetry.StartSpan(ctx, "registry.List")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]FetcherInfo, 0, len(r.items))
	for _, e := range r.items {
		if e.isExpired(r.idleTTL) {
			continue
		}
		out = append(out, toInfo(*e))
	}
	telemetry.SetAttributes(ctx, attribute.Int(telemetry.AttrRegistrySize, len(out)))
	return out
}

// Close stops the background sweeper and releases its goroutine.
func (r *Registry) Close() {
	close(r.stopCh)
	r.wg.Wait()
}

func (r *Registry) sweepLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.sweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Registry) sweep() {
	r.mu.Lock()
	var expired int
	for id, e := range r.items {
		if e.isExpired(r.idleTTL) {
			delete(r.items, id)
			expired++
		}
	}
	size := len(r.items)
	r.mu.Unlock()

	if expired > 0 {
		logger.Log.Debug("registry: sweep evicted entries", "count", expired)
	}
	if m := metrics.Get(); m != nil {
		m.RecordSweep(size, expired)
	}
}

func toInfo(e entry) FetcherInfo {
	return FetcherInfo{
		FetcherID:      e.config.FetcherID,
		FetcherClass:   e.config.PluginID,
		ParamsMap:      decodeParams(e.config.ConfigJSON),
		CreatedAt:      e.createdAt,
		LastAccessedAt: e.lastAccessedAt,
	}
}

// decodeParams flattens the top-level keys of an opaque configJson
// document into a string->string view for introspection (§4.1 Get).
// Non-string values are re-encoded as JSON text rather than dropped.
func decodeParams(configJSON string) map[string]string {
	params := make(map[string]string)
	if configJSON == "" {
		return params
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(configJSON), &raw); err != nil {
		return params
	}

	for k, v := range raw {
		switch val := v.(type) {
		case string:
			params[k] = val
		default:
			if b, err := json.Marshal(val); err == nil {
				params[k] = string(b)
			}
		}
	}
	return params
}
