package cache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mpklu/pinyinMate-sub004/internal/services"
)

func newTestEngine(t *testing.T, opts Options) *Engine[string] {
	t.Helper()
	if opts.MaxSize == 0 {
		opts.MaxSize = 10
	}
	if opts.DefaultTTL == 0 {
		opts.DefaultTTL = time.Minute
	}
	engine, err := NewEngine[string]("test", opts)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func TestEngineSetGet(t *testing.T) {
	engine := newTestEngine(t, Options{})
	engine.Set("greetings-101", "cached lesson", 0)

	value, ok := engine.Get("greetings-101")
	if !ok {
		t.Fatal("expected hit")
	}
	if value != "cached lesson" {
		t.Fatalf("unexpected value: %q", value)
	}
}

func TestEngineGetUnknownKeyMisses(t *testing.T) {
	engine := newTestEngine(t, Options{})
	if _, ok := engine.Get("absent"); ok {
		t.Fatal("expected miss")
	}
	status := engine.Status()
	if status.Misses != 1 || status.Hits != 0 {
		t.Fatalf("unexpected counters: %+v", status)
	}
}

func TestEngineEntriesExpireOnRead(t *testing.T) {
	engine := newTestEngine(t, Options{})
	base := time.Now()
	engine.now = func() time.Time { return base }

	engine.Set("stale", "value", time.Minute)

	engine.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := engine.Get("stale"); ok {
		t.Fatal("expected expired entry to read as absent")
	}
	// The entry still occupies the cache until the sweep removes it.
	if got := engine.Status().TotalItems; got != 1 {
		t.Fatalf("expected stale entry resident, got %d items", got)
	}
	if pruned := engine.PruneExpired(); pruned != 1 {
		t.Fatalf("expected 1 pruned entry, got %d", pruned)
	}
	if got := engine.Status().TotalItems; got != 0 {
		t.Fatalf("expected empty cache after prune, got %d items", got)
	}
}

func TestEngineLRUEvictionOrder(t *testing.T) {
	engine := newTestEngine(t, Options{MaxSize: 2})
	engine.Set("a", "1", 0)
	engine.Set("b", "2", 0)
	if _, ok := engine.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}

	engine.Set("c", "3", 0)

	if _, ok := engine.Get("b"); ok {
		t.Fatal("expected least recently accessed entry b to be evicted")
	}
	for _, key := range []string{"a", "c"} {
		if _, ok := engine.Get(key); !ok {
			t.Fatalf("expected %s to survive eviction", key)
		}
	}
	if got := engine.Status().Evictions; got != 1 {
		t.Fatalf("expected 1 eviction, got %d", got)
	}
}

func TestEngineOverwriteDoesNotEvict(t *testing.T) {
	engine := newTestEngine(t, Options{MaxSize: 1})
	engine.Set("a", "1", 0)
	engine.Set("a", "2", 0)

	value, ok := engine.Get("a")
	if !ok || value != "2" {
		t.Fatalf("expected updated value, got %q ok=%v", value, ok)
	}
	if got := engine.Status().Evictions; got != 0 {
		t.Fatalf("expected no evictions, got %d", got)
	}
}

func TestEngineGetOrLoadSingleFlight(t *testing.T) {
	engine := newTestEngine(t, Options{})

	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "loaded", nil
	}

	const workers = 20
	results := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.GetOrLoad(context.Background(), "shared", loader)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one loader call, got %d", got)
	}
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: unexpected error: %v", i, errs[i])
		}
		if results[i] != "loaded" {
			t.Fatalf("worker %d: unexpected value %q", i, results[i])
		}
	}
}

func TestEngineGetOrLoadFailureNotCached(t *testing.T) {
	engine := newTestEngine(t, Options{})
	boom := errors.New("manifest unreachable")

	var calls int
	_, err := engine.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) {
		calls++
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}

	value, err := engine.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) {
		calls++
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if value != "recovered" || calls != 2 {
		t.Fatalf("expected fresh load after failure, got %q calls=%d", value, calls)
	}
}

func TestEngineInvalidate(t *testing.T) {
	engine := newTestEngine(t, Options{})
	engine.Set("k", "v", 0)
	engine.Invalidate("k")
	if _, ok := engine.Get("k"); ok {
		t.Fatal("expected invalidated key to miss")
	}
}

func TestEngineInvalidatePrefix(t *testing.T) {
	engine := newTestEngine(t, Options{})
	engine.Set("greetings|aaaa", "1", 0)
	engine.Set("greetings|bbbb", "2", 0)
	engine.Set("numbers|aaaa", "3", 0)

	if removed := engine.InvalidatePrefix("greetings|"); removed != 2 {
		t.Fatalf("expected 2 removals, got %d", removed)
	}
	if _, ok := engine.Get("numbers|aaaa"); !ok {
		t.Fatal("expected unrelated key to survive")
	}
}

func TestEngineClearResetsStatus(t *testing.T) {
	engine := newTestEngine(t, Options{})
	engine.Set("k", "v", 0)
	engine.Get("k")
	engine.Get("absent")

	engine.Clear()

	status := engine.Status()
	if status.TotalItems != 0 || status.Hits != 0 || status.Misses != 0 || status.SizeBytes != 0 {
		t.Fatalf("expected zeroed status, got %+v", status)
	}
}

func TestEngineStatus(t *testing.T) {
	engine := newTestEngine(t, Options{})
	engine.Set("k", "v", 0)
	engine.Get("k")
	engine.Get("absent")

	status := engine.Status()
	if status.TotalItems != 1 {
		t.Errorf("expected 1 item, got %d", status.TotalItems)
	}
	if status.HitRate != 0.5 {
		t.Errorf("expected hit rate 0.5, got %v", status.HitRate)
	}
	if status.SizeBytes <= 0 {
		t.Errorf("expected positive size estimate, got %d", status.SizeBytes)
	}
}

func TestEngineRejectsInvalidOptions(t *testing.T) {
	for name, opts := range map[string]Options{
		"zero max size":    {MaxSize: 0, DefaultTTL: time.Minute},
		"zero ttl":         {MaxSize: 10, DefaultTTL: 0},
		"negative cleanup": {MaxSize: 10, DefaultTTL: time.Minute, CleanupInterval: -time.Second},
	} {
		if _, err := NewEngine[string]("test", opts); err == nil {
			t.Errorf("%s: expected error", name)
		} else if !errors.Is(err, services.ErrConfiguration) {
			t.Errorf("%s: expected configuration error, got %v", name, err)
		}
	}
	if _, err := NewEngine[string]("", Options{MaxSize: 10, DefaultTTL: time.Minute}); err == nil {
		t.Error("empty name: expected error")
	}
}

func TestEnginePersistenceRoundTrip(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "cache.db"), false, nil)
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	opts := Options{MaxSize: 10, DefaultTTL: time.Hour, Store: store}
	first, err := NewEngine[string]("lessons", opts)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	first.Set("greetings-101", "persisted", 0)
	first.Close()

	second, err := NewEngine[string]("lessons", opts)
	if err != nil {
		t.Fatalf("NewEngine after restart failed: %v", err)
	}
	defer second.Close()

	value, ok := second.Get("greetings-101")
	if !ok || value != "persisted" {
		t.Fatalf("expected hydrated entry, got %q ok=%v", value, ok)
	}
}

func TestEnginePersistedInvalidationSurvivesRestart(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "cache.db"), false, nil)
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	opts := Options{MaxSize: 10, DefaultTTL: time.Hour, Store: store}
	first, err := NewEngine[string]("lessons", opts)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	first.Set("k", "v", 0)
	first.Invalidate("k")
	first.Close()

	second, err := NewEngine[string]("lessons", opts)
	if err != nil {
		t.Fatalf("NewEngine after restart failed: %v", err)
	}
	defer second.Close()

	if _, ok := second.Get("k"); ok {
		t.Fatal("expected invalidated entry to stay gone after restart")
	}
}

func TestEngineCompressedPersistenceRoundTrip(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "cache.db"), true, nil)
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	opts := Options{MaxSize: 10, DefaultTTL: time.Hour, Store: store}
	first, err := NewEngine[string]("prepared", opts)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	first.Set("greetings-101|abc123", "你好世界 content with repetition repetition repetition", 0)
	first.Close()

	second, err := NewEngine[string]("prepared", opts)
	if err != nil {
		t.Fatalf("NewEngine after restart failed: %v", err)
	}
	defer second.Close()

	value, ok := second.Get("greetings-101|abc123")
	if !ok {
		t.Fatal("expected hydrated entry")
	}
	if value != "你好世界 content with repetition repetition repetition" {
		t.Fatalf("unexpected value after compression round trip: %q", value)
	}
}
