package zones

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"iei_backend/internal/engine"
	"iei_backend/platform/logger"
)

type fakeLoader struct {
	mu    sync.Mutex
	calls int
	zones map[string]engine.ZoneInfo
	err   error
}

func (f *fakeLoader) ActiveZoneTable(context.Context) (map[string]engine.ZoneInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.zones, nil
}

func (f *fakeLoader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testLogger() *logger.Logger { return logger.New("test") }

func dbZones() map[string]engine.ZoneInfo {
	return map[string]engine.ZoneInfo{
		"castelldefels": {BasePerM2: 3500, Demand: engine.DemandAlta},
		"viladecans":    {BasePerM2: 2900, Demand: engine.DemandBaja},
	}
}

func TestStaticProvider_Defaults(t *testing.T) {
	p := NewStaticProvider(nil)
	table, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	info, ok := table.Lookup("castelldefels")
	if !ok || info.BasePerM2 != 3350 || info.Demand != engine.DemandAlta {
		t.Fatalf("castelldefels = %+v ok=%v", info, ok)
	}
	if table.Len() != 3 {
		t.Fatalf("default table has %d zones, want 3", table.Len())
	}
}

func TestCachingProvider_LoadsOnceWithinTTL(t *testing.T) {
	loader := &fakeLoader{zones: dbZones()}
	p := NewCachingProvider(loader, time.Minute, testLogger())

	for i := 0; i < 5; i++ {
		table, err := p.Snapshot(context.Background())
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if _, ok := table.Lookup("viladecans"); !ok {
			t.Fatal("loaded table missing viladecans")
		}
	}
	if got := loader.callCount(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestCachingProvider_ReloadsAfterTTL(t *testing.T) {
	loader := &fakeLoader{zones: dbZones()}
	p := NewCachingProvider(loader, 5*time.Millisecond, testLogger())

	if _, err := p.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := p.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got := loader.callCount(); got != 2 {
		t.Fatalf("loader called %d times, want 2", got)
	}
}

func TestCachingProvider_InvalidateForcesReload(t *testing.T) {
	loader := &fakeLoader{zones: dbZones()}
	p := NewCachingProvider(loader, time.Minute, testLogger())

	if _, err := p.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	loader.mu.Lock()
	loader.zones = map[string]engine.ZoneInfo{
		"castelldefels": {BasePerM2: 9999, Demand: engine.DemandAlta},
	}
	loader.mu.Unlock()

	p.Invalidate()

	table, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot after invalidate: %v", err)
	}
	info, ok := table.Lookup("castelldefels")
	if !ok || info.BasePerM2 != 9999 {
		t.Fatalf("invalidate did not pick up new table: %+v ok=%v", info, ok)
	}
	if got := loader.callCount(); got != 2 {
		t.Fatalf("loader called %d times, want 2", got)
	}
}

// gatedLoader blocks inside each load until released, so a test can hold a
// refresh in flight while other calls race it.
type gatedLoader struct {
	mu      sync.Mutex
	calls   int
	results []map[string]engine.ZoneInfo
	entered chan struct{}
	release chan struct{}
}

func (l *gatedLoader) ActiveZoneTable(context.Context) (map[string]engine.ZoneInfo, error) {
	l.entered <- struct{}{}
	<-l.release
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.calls
	l.calls++
	if idx >= len(l.results) {
		idx = len(l.results) - 1
	}
	return l.results[idx], nil
}

func (l *gatedLoader) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func TestCachingProvider_InvalidateDuringRefreshNotLost(t *testing.T) {
	loader := &gatedLoader{
		results: []map[string]engine.ZoneInfo{
			{"gava": {BasePerM2: 3100, Demand: engine.DemandMedia}},
			{"gava": {BasePerM2: 3400, Demand: engine.DemandAlta}},
		},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	p := NewCachingProvider(loader, time.Minute, testLogger())

	refreshed := make(chan struct{})
	go func() {
		defer close(refreshed)
		if _, err := p.Snapshot(context.Background()); err != nil {
			t.Errorf("Snapshot: %v", err)
		}
	}()
	<-loader.entered

	// The refresh in flight read the pre-mutation table; a zone mutation now
	// invalidates. The expiry must land after that refresh stores.
	invalidated := make(chan struct{})
	go func() {
		defer close(invalidated)
		p.Invalidate()
	}()

	loader.release <- struct{}{}
	<-refreshed
	<-invalidated

	go func() { <-loader.entered; loader.release <- struct{}{} }()
	table, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot after invalidate: %v", err)
	}
	info, ok := table.Lookup("gava")
	if !ok || info.BasePerM2 != 3400 {
		t.Fatalf("mutation invisible after mid-refresh invalidate: %+v ok=%v", info, ok)
	}
	if got := loader.callCount(); got != 2 {
		t.Fatalf("loader called %d times, want 2", got)
	}
}

func TestCachingProvider_FailedReloadRetainsPrevious(t *testing.T) {
	loader := &fakeLoader{zones: dbZones()}
	p := NewCachingProvider(loader, time.Minute, testLogger())

	if _, err := p.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	loader.mu.Lock()
	loader.err = errors.New("connection refused")
	loader.mu.Unlock()
	p.Invalidate()

	table, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot should not surface reload failure, got %v", err)
	}
	if _, ok := table.Lookup("viladecans"); !ok {
		t.Fatal("previous table was not retained after failed reload")
	}
}

func TestCachingProvider_EmptyReloadRetainsPrevious(t *testing.T) {
	loader := &fakeLoader{zones: dbZones()}
	p := NewCachingProvider(loader, time.Minute, testLogger())

	if _, err := p.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	loader.mu.Lock()
	loader.zones = map[string]engine.ZoneInfo{}
	loader.mu.Unlock()
	p.Invalidate()

	table, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("table has %d zones after empty reload, want 2 retained", table.Len())
	}
}

func TestCachingProvider_FirstLoadFailureServesDefaults(t *testing.T) {
	loader := &fakeLoader{err: errors.New("database down")}
	p := NewCachingProvider(loader, time.Minute, testLogger())

	table, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if _, ok := table.Lookup("sitges"); !ok {
		t.Fatal("built-in defaults not served when first load fails")
	}
}

func TestCachingProvider_ConcurrentSnapshotsLoadOnce(t *testing.T) {
	loader := &fakeLoader{zones: dbZones()}
	p := NewCachingProvider(loader, time.Minute, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Snapshot(context.Background()); err != nil {
				t.Errorf("Snapshot: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := loader.callCount(); got != 1 {
		t.Fatalf("loader called %d times under concurrency, want 1", got)
	}
}
