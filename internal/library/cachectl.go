package library

import (
	"log/slog"

	"github.com/mpklu/pinyinMate-sub004/internal/cache"
	"github.com/mpklu/pinyinMate-sub004/internal/config"
	"github.com/mpklu/pinyinMate-sub004/internal/logging"
	"github.com/mpklu/pinyinMate-sub004/internal/pipeline"
	"github.com/mpklu/pinyinMate-sub004/internal/services"
)

// CacheStatus reports occupancy and lookup statistics for the prepared
// lesson cache.
func (s *Service) CacheStatus() cache.Status {
	return s.preparedEngine().Status()
}

// CacheConfig returns the cache configuration currently in effect, which may
// differ from the loaded file after SetCacheConfig.
func (s *Service) CacheConfig() config.Cache {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cacheCfg
}

// SetCacheConfig validates the replacement configuration, builds a fresh
// engine and store from it, and swaps them in. Cached artifacts do not carry
// over; with persistence enabled the new engine rehydrates from disk.
// Malformed configuration is rejected before the running engine is touched.
func (s *Service) SetCacheConfig(cacheCfg config.Cache) error {
	engine, store, err := buildCacheEngine(cacheCfg, s.cacheLog)
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	oldEngine, oldStore := s.prepared, s.store
	s.prepared, s.store = engine, store
	s.cacheCfg = cacheCfg
	s.cacheMu.Unlock()

	if oldEngine != nil {
		oldEngine.Close()
	}
	if oldStore != nil && oldStore != store {
		if err := oldStore.Close(); err != nil {
			s.logger.Warn("previous cache store close failed",
				logging.String(logging.FieldEventType, "cache_close_failed"),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check for in-flight cache writes"),
				logging.String(logging.FieldImpact, "a stale database handle lingers until process exit"))
		}
	}

	s.logger.Info("cache configuration replaced",
		logging.Int("max_size", cacheCfg.MaxSize),
		logging.Duration("default_ttl", cacheCfg.TTL()),
		logging.Duration("cleanup_interval", cacheCfg.SweepInterval()),
		logging.Bool("persist_to_disk", cacheCfg.PersistToDisk),
		logging.Bool("compression", cacheCfg.Compression))
	return nil
}

// ClearCache drops every prepared artifact, in memory and on disk.
func (s *Service) ClearCache() {
	engine := s.preparedEngine()
	status := engine.Status()
	engine.Clear()
	s.logger.Info("prepared lesson cache cleared",
		logging.Int("entry_count", status.TotalItems))
}

func (s *Service) preparedEngine() *cache.Engine[pipeline.PreparedLesson] {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.prepared
}

// buildCacheEngine validates the section and assembles the engine with its
// optional write-through store. On engine failure the store is closed before
// returning.
func buildCacheEngine(cacheCfg config.Cache, logger *slog.Logger) (*cache.Engine[pipeline.PreparedLesson], *cache.Store, error) {
	if err := cacheCfg.Validate(); err != nil {
		return nil, nil, services.Wrap(services.ErrConfiguration, "library", "configure cache", "invalid cache configuration", err)
	}

	var store *cache.Store
	if cacheCfg.PersistToDisk {
		var err error
		store, err = cache.OpenStore(cacheCfg.Path, cacheCfg.Compression, logger)
		if err != nil {
			return nil, nil, services.Wrap(services.ErrConfiguration, "library", "configure cache", "open cache store", err)
		}
	}

	engine, err := cache.NewEngine[pipeline.PreparedLesson]("prepared", cache.Options{
		MaxSize:         cacheCfg.MaxSize,
		DefaultTTL:      cacheCfg.TTL(),
		CleanupInterval: cacheCfg.SweepInterval(),
		Store:           store,
		Logger:          logger,
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, nil, err
	}
	return engine, store, nil
}
