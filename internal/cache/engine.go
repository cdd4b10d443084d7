package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mpklu/pinyinMate-sub004/internal/logging"
	"github.com/mpklu/pinyinMate-sub004/internal/services"
)

// Options configures an engine. Store is optional; when set, entries are
// written through on Set and hydrated on construction.
type Options struct {
	MaxSize         int
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	Store           *Store
	Logger          *slog.Logger
}

// Status is a point-in-time snapshot of engine health. TotalItems counts
// every resident entry including stale ones the janitor has not swept yet.
type Status struct {
	TotalItems int     `json:"totalItems"`
	HitRate    float64 `json:"hitRate"`
	SizeBytes  int64   `json:"sizeBytes"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	Evictions  int64   `json:"evictions"`
	Expired    int64   `json:"expired"`
}

type entry[V any] struct {
	key            string
	value          V
	size           int64
	createdAt      time.Time
	expiresAt      time.Time
	lastAccessedAt time.Time
}

// Engine is a TTL and LRU bounded cache safe for concurrent use. The zero
// value is not usable; construct with NewEngine.
type Engine[V any] struct {
	name   string
	logger *slog.Logger

	mu        sync.Mutex
	entries   map[string]*list.Element
	order     *list.List // front = most recently accessed
	sizeBytes int64
	hits      int64
	misses    int64
	evictions int64
	expired   int64

	maxSize    int
	defaultTTL time.Duration
	store      *Store
	group      singleflight.Group

	now func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewEngine builds an engine named for logging and store namespacing. The
// janitor goroutine starts when CleanupInterval is positive; stop it with
// Close. A configured store is hydrated before the engine is returned.
func NewEngine[V any](name string, opts Options) (*Engine[V], error) {
	if strings.TrimSpace(name) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "cache", "configure", "engine name must not be empty", nil)
	}
	if opts.MaxSize <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "cache", "configure",
			fmt.Sprintf("max size must be positive, got %d", opts.MaxSize), nil)
	}
	if opts.DefaultTTL <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "cache", "configure",
			fmt.Sprintf("default TTL must be positive, got %s", opts.DefaultTTL), nil)
	}
	if opts.CleanupInterval < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "cache", "configure",
			fmt.Sprintf("cleanup interval must not be negative, got %s", opts.CleanupInterval), nil)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "cache")

	engine := &Engine[V]{
		name:       name,
		logger:     logger,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxSize:    opts.MaxSize,
		defaultTTL: opts.DefaultTTL,
		store:      opts.Store,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	if engine.store != nil {
		if err := engine.hydrate(); err != nil {
			return nil, err
		}
	}
	if opts.CleanupInterval > 0 {
		go engine.runJanitor(opts.CleanupInterval)
	}
	return engine, nil
}

// Close stops the janitor. It does not close the store, which may serve
// other engines.
func (e *Engine[V]) Close() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// Get returns the cached value for key. Entries past their TTL read as
// absent even while they still occupy the cache.
func (e *Engine[V]) Get(key string) (V, bool) {
	return e.lookup(key, true)
}

func (e *Engine[V]) lookup(key string, recordMetrics bool) (V, bool) {
	var zero V
	now := e.now()

	e.mu.Lock()
	defer e.mu.Unlock()

	element, ok := e.entries[key]
	if !ok {
		if recordMetrics {
			e.misses++
		}
		return zero, false
	}
	ent := element.Value.(*entry[V])
	if now.After(ent.expiresAt) {
		if recordMetrics {
			e.misses++
		}
		return zero, false
	}

	ent.lastAccessedAt = now
	e.order.MoveToFront(element)
	if recordMetrics {
		e.hits++
	}
	return ent.value, true
}

// GetOrLoad returns the cached value for key, invoking loader to fill an
// absent or stale entry. Concurrent calls for the same key share one loader
// invocation; a loader failure reaches every waiter and leaves the key
// absent so the next call retries.
func (e *Engine[V]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (V, error)) (V, error) {
	if value, ok := e.Get(key); ok {
		return value, nil
	}

	result, err, _ := e.group.Do(key, func() (any, error) {
		// Re-check: a previous flight may have filled the key between the
		// miss above and this flight starting.
		if value, ok := e.lookup(key, false); ok {
			return value, nil
		}
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		e.Set(key, value, 0)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

// Set stores value under key. A non-positive ttl falls back to the engine's
// default. Inserting beyond capacity evicts the least recently accessed
// entries first.
func (e *Engine[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = e.defaultTTL
	}
	now := e.now()

	payload, err := json.Marshal(value)
	if err != nil {
		// Size accounting and persistence both need the encoded form; a
		// value that cannot encode is still served from memory.
		e.logger.Warn("cache value not encodable",
			logging.String(logging.FieldEventType, "cache_encode_failed"),
			logging.String("cache_name", e.name),
			logging.String("cache_key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "entry will not be persisted"),
			logging.String(logging.FieldImpact, "entry is lost on restart"))
		payload = nil
	}

	ent := &entry[V]{
		key:            key,
		value:          value,
		size:           int64(len(payload)),
		createdAt:      now,
		expiresAt:      now.Add(ttl),
		lastAccessedAt: now,
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if element, ok := e.entries[key]; ok {
		old := element.Value.(*entry[V])
		e.sizeBytes -= old.size
		element.Value = ent
		e.order.MoveToFront(element)
	} else {
		e.entries[key] = e.order.PushFront(ent)
	}
	e.sizeBytes += ent.size
	e.evictOverCapacityLocked()

	// Write-through happens under the lock so the store never sees two Sets
	// for one key land in reverse order.
	if e.store != nil && payload != nil {
		if err := e.store.Put(context.Background(), e.name, key, payload, ent.createdAt, ent.expiresAt); err != nil {
			e.logger.Warn("cache write-through failed",
				logging.String(logging.FieldEventType, "cache_persist_failed"),
				logging.String("cache_name", e.name),
				logging.String("cache_key", key),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check cache database permissions and disk space"),
				logging.String(logging.FieldImpact, "entry is lost on restart"))
		}
	}
}

// Invalidate removes key from the cache and the store.
func (e *Engine[V]) Invalidate(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.removeLocked(key)
	e.deleteStoredLocked(key)
}

// InvalidatePrefix removes every key with the given prefix. Prepared
// artifacts key as "<lessonID>|<optionsHash>", so refreshing a lesson
// invalidates all of its artifacts in one call.
func (e *Engine[V]) InvalidatePrefix(prefix string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	var doomed []string
	for key := range e.entries {
		if strings.HasPrefix(key, prefix) {
			doomed = append(doomed, key)
		}
	}
	for _, key := range doomed {
		e.removeLocked(key)
		e.deleteStoredLocked(key)
	}
	return len(doomed)
}

// Clear drops every entry and resets counters.
func (e *Engine[V]) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.entries = make(map[string]*list.Element)
	e.order.Init()
	e.sizeBytes = 0
	e.hits = 0
	e.misses = 0
	e.evictions = 0
	e.expired = 0

	if e.store != nil {
		if err := e.store.DeleteNamespace(context.Background(), e.name); err != nil {
			e.logger.Warn("cache clear not persisted",
				logging.String(logging.FieldEventType, "cache_persist_failed"),
				logging.String("cache_name", e.name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check cache database permissions"),
				logging.String(logging.FieldImpact, "stale entries may reappear after restart"))
		}
	}
}

// Status reports current occupancy and lookup statistics.
func (e *Engine[V]) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := Status{
		TotalItems: len(e.entries),
		SizeBytes:  e.sizeBytes,
		Hits:       e.hits,
		Misses:     e.misses,
		Evictions:  e.evictions,
		Expired:    e.expired,
	}
	if lookups := e.hits + e.misses; lookups > 0 {
		status.HitRate = float64(e.hits) / float64(lookups)
	}
	return status
}

// PruneExpired removes every entry whose TTL has elapsed, in memory and in
// the store, and returns how many were removed from memory.
func (e *Engine[V]) PruneExpired() int {
	now := e.now()

	e.mu.Lock()
	defer e.mu.Unlock()

	var doomed []string
	for key, element := range e.entries {
		if now.After(element.Value.(*entry[V]).expiresAt) {
			doomed = append(doomed, key)
		}
	}
	for _, key := range doomed {
		e.removeLocked(key)
	}
	e.expired += int64(len(doomed))

	if e.store != nil {
		if _, err := e.store.DeleteExpired(context.Background(), e.name, now); err != nil {
			e.logger.Warn("expired cache rows not removed",
				logging.String(logging.FieldEventType, "cache_persist_failed"),
				logging.String("cache_name", e.name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check cache database permissions"),
				logging.String(logging.FieldImpact, "database grows until the next successful sweep"))
		}
	}

	if len(doomed) > 0 {
		e.logger.Debug("pruned expired cache entries",
			logging.String("cache_name", e.name),
			logging.Int("expired_count", len(doomed)))
	}
	return len(doomed)
}

func (e *Engine[V]) runJanitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.PruneExpired()
		}
	}
}

// removeLocked drops one key; the caller holds e.mu.
func (e *Engine[V]) removeLocked(key string) {
	element, ok := e.entries[key]
	if !ok {
		return
	}
	ent := element.Value.(*entry[V])
	e.sizeBytes -= ent.size
	e.order.Remove(element)
	delete(e.entries, key)
}

// deleteStoredLocked removes one key from the store; the caller holds e.mu.
func (e *Engine[V]) deleteStoredLocked(key string) {
	if e.store == nil {
		return
	}
	if err := e.store.Delete(context.Background(), e.name, key); err != nil {
		e.logger.Warn("cache invalidation not persisted",
			logging.String(logging.FieldEventType, "cache_persist_failed"),
			logging.String("cache_name", e.name),
			logging.String("cache_key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check cache database permissions"),
			logging.String(logging.FieldImpact, "stale entry may reappear after restart"))
	}
}

// evictOverCapacityLocked evicts least recently accessed entries until the
// cache fits; the caller holds e.mu.
func (e *Engine[V]) evictOverCapacityLocked() {
	for len(e.entries) > e.maxSize {
		oldest := e.order.Back()
		if oldest == nil {
			return
		}
		ent := oldest.Value.(*entry[V])
		e.removeLocked(ent.key)
		e.evictions++
		e.logger.Debug("evicted cache entry",
			logging.String("cache_name", e.name),
			logging.String("cache_key", ent.key))
	}
}

// hydrate fills the engine from the store, newest entries first.
func (e *Engine[V]) hydrate() error {
	entries, err := e.store.Load(context.Background(), e.name, e.now(), e.maxSize)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "cache", "hydrate",
			fmt.Sprintf("load persisted entries for %q", e.name), err)
	}

	loaded := 0
	// Load returns newest first; appending to the back keeps the newest
	// entry at the front of the recency order.
	for _, stored := range entries {
		var value V
		if err := json.Unmarshal(stored.Payload, &value); err != nil {
			e.logger.Warn("discarding undecodable cache entry",
				logging.String(logging.FieldEventType, "cache_entry_unreadable"),
				logging.String("cache_name", e.name),
				logging.String("cache_key", stored.Key),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "entry will be reloaded from source"),
				logging.String(logging.FieldImpact, "one cached value lost"))
			continue
		}
		ent := &entry[V]{
			key:            stored.Key,
			value:          value,
			size:           int64(len(stored.Payload)),
			createdAt:      stored.CreatedAt,
			expiresAt:      stored.ExpiresAt,
			lastAccessedAt: stored.CreatedAt,
		}
		e.entries[stored.Key] = e.order.PushBack(ent)
		e.sizeBytes += ent.size
		loaded++
	}

	if loaded > 0 {
		e.logger.Debug("hydrated cache from store",
			logging.String("cache_name", e.name),
			logging.Int("entry_count", loaded))
	}
	return nil
}
