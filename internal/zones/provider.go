// Package zones provides the zone configuration bounded context: the zone
// table snapshots the scoring engine reads, the TTL cache in front of the
// database, and the admin CRUD surface.
package zones

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"iei_backend/internal/engine"
	"iei_backend/platform/logger"
)

// DefaultTTL is the cache lifetime used when none is configured.
const DefaultTTL = 300 * time.Second

// TableProvider hands out immutable zone table snapshots. Scoring reads one
// snapshot per request and never sees a half-updated table.
type TableProvider interface {
	Snapshot(ctx context.Context) (engine.Table, error)
	Invalidate()
}

// DefaultZones is the built-in zone table used when the database is not the
// source of truth, and as the fail-safe floor before the first successful
// database load.
func DefaultZones() map[string]engine.ZoneInfo {
	return map[string]engine.ZoneInfo{
		"castelldefels": {BasePerM2: 3350, Demand: engine.DemandAlta},
		"gava":          {BasePerM2: 3100, Demand: engine.DemandMedia},
		"sitges":        {BasePerM2: 4100, Demand: engine.DemandAlta},
	}
}

// StaticProvider serves a fixed table. Used when USE_DB_ZONES is off and in
// tests.
type StaticProvider struct {
	table engine.Table
}

// NewStaticProvider builds a provider over the given zone map; a nil map
// means the built-in defaults.
func NewStaticProvider(zones map[string]engine.ZoneInfo) *StaticProvider {
	if zones == nil {
		zones = DefaultZones()
	}
	return &StaticProvider{table: engine.NewTable(zones)}
}

func (p *StaticProvider) Snapshot(context.Context) (engine.Table, error) { return p.table, nil }
func (p *StaticProvider) Invalidate()                                    {}

// TableLoader loads the active zone table from the source of truth.
type TableLoader interface {
	ActiveZoneTable(ctx context.Context) (map[string]engine.ZoneInfo, error)
}

type cachedTable struct {
	table     engine.Table
	expiresAt time.Time
}

// CachingProvider caches the loaded zone table for a TTL. Reads off the fast
// path are lock-free; a mutex serializes reloads so only one caller hits the
// database when the snapshot expires. A failed or empty reload retains the
// previous snapshot instead of wiping the table mid-flight.
type CachingProvider struct {
	loader TableLoader
	ttl    time.Duration
	log    *logger.Logger

	mu      sync.Mutex
	current atomic.Pointer[cachedTable]
}

// NewCachingProvider builds a caching provider over the loader. The cache
// starts with the built-in defaults already expired, so the first Snapshot
// triggers a load but always has a floor to retain.
func NewCachingProvider(loader TableLoader, ttl time.Duration, log *logger.Logger) *CachingProvider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	p := &CachingProvider{loader: loader, ttl: ttl, log: log}
	p.current.Store(&cachedTable{table: engine.NewTable(DefaultZones())})
	return p
}

// Snapshot returns the current zone table, reloading it when expired.
func (p *CachingProvider) Snapshot(ctx context.Context) (engine.Table, error) {
	if c := p.current.Load(); c != nil && time.Now().Before(c.expiresAt) {
		return c.table, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another goroutine may have refreshed while we waited on the lock.
	if c := p.current.Load(); c != nil && time.Now().Before(c.expiresAt) {
		return c.table, nil
	}

	zones, err := p.loader.ActiveZoneTable(ctx)
	if err != nil || len(zones) == 0 {
		prev := p.current.Load()
		if err != nil {
			p.log.DatabaseError("zones.active_zone_table", err)
		}
		// Serve the previous table for another TTL rather than going dark.
		p.current.Store(&cachedTable{table: prev.table, expiresAt: time.Now().Add(p.ttl)})
		p.log.ZoneCacheRefresh(prev.table.Len(), true)
		return prev.table, nil
	}

	table := engine.NewTable(zones)
	p.current.Store(&cachedTable{table: table, expiresAt: time.Now().Add(p.ttl)})
	p.log.ZoneCacheRefresh(table.Len(), false)
	return table, nil
}

// Invalidate expires the snapshot; the next Snapshot reloads. The stale
// table stays readable until the reload completes. Taking the reload lock
// orders the expiry after any refresh in flight, so a zone mutation is never
// masked by a concurrent reload storing its pre-mutation table.
func (p *CachingProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c := p.current.Load(); c != nil {
		p.current.Store(&cachedTable{table: c.table})
	}
}

var (
	_ TableProvider = (*StaticProvider)(nil)
	_ TableProvider = (*CachingProvider)(nil)
)
