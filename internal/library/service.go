package library

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/mpklu/pinyinMate-sub004/internal/cache"
	"github.com/mpklu/pinyinMate-sub004/internal/catalog"
	"github.com/mpklu/pinyinMate-sub004/internal/config"
	"github.com/mpklu/pinyinMate-sub004/internal/logging"
	"github.com/mpklu/pinyinMate-sub004/internal/notifications"
	"github.com/mpklu/pinyinMate-sub004/internal/pipeline"
	"github.com/mpklu/pinyinMate-sub004/internal/services"
	"github.com/mpklu/pinyinMate-sub004/internal/sources"
	"github.com/mpklu/pinyinMate-sub004/internal/syncer"
)

// Service is the library facade. Construct with New; all methods are safe for
// concurrent use.
type Service struct {
	cfg      *config.Config
	logger   *slog.Logger
	cacheLog *slog.Logger

	registry    *sources.Registry
	index       *catalog.Index
	pipeline    *pipeline.Pipeline
	coordinator *syncer.Coordinator
	notifier    notifications.Service

	cacheMu  sync.RWMutex
	cacheCfg config.Cache
	prepared *cache.Engine[pipeline.PreparedLesson]
	store    *cache.Store

	closeOnce sync.Once
}

// New assembles the facade from configuration. The prepared-lesson cache is
// built eagerly so configuration problems surface at startup rather than on
// the first prepare call.
func New(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "library", "configure", "configuration must not be nil", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	registry := sources.New(sources.FromConfig(cfg.Sources), componentLogger(logger, cfg, "sources"))
	notifier := notifications.NewService(cfg)
	cacheLog := componentLogger(logger, cfg, "cache")

	svc := &Service{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(componentLogger(logger, cfg, "library"), "library"),
		cacheLog:    cacheLog,
		registry:    registry,
		index:       catalog.NewIndex(registry, componentLogger(logger, cfg, "catalog")),
		pipeline:    pipeline.New(cfg, componentLogger(logger, cfg, "pipeline")),
		coordinator: syncer.New(cfg, registry, nil, notifier, componentLogger(logger, cfg, "syncer")),
		notifier:    notifier,
	}

	engine, store, err := buildCacheEngine(cfg.Cache, cacheLog)
	if err != nil {
		return nil, err
	}
	svc.cacheCfg = cfg.Cache
	svc.prepared = engine
	svc.store = store
	return svc, nil
}

// Initialize loads every enabled local source into the catalog. Remote
// sources join the catalog when they first sync.
func (s *Service) Initialize(ctx context.Context) error {
	return s.registry.Initialize(ctx)
}

// Notifier exposes the notification service so entry points can publish
// their own events through the same gating and dedup rules.
func (s *Service) Notifier() notifications.Service {
	return s.notifier
}

// CatalogSize returns the number of lessons in the merged catalog.
func (s *Service) CatalogSize() int {
	return s.registry.CatalogSize()
}

// Close releases the cache engine and its store. Safe to call more than once.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.cacheMu.RLock()
		engine, store := s.prepared, s.store
		s.cacheMu.RUnlock()

		if engine != nil {
			engine.Close()
		}
		if store != nil {
			if err := store.Close(); err != nil {
				s.logger.Warn("cache store close failed",
					logging.String(logging.FieldEventType, "cache_close_failed"),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check for in-flight cache writes"),
					logging.String(logging.FieldImpact, "none; the database reopens on next start"))
			}
		}
	})
}

// componentLogger applies any configured per-component level override to the
// base logger. Component constructors add their own component tag.
func componentLogger(base *slog.Logger, cfg *config.Config, component string) *slog.Logger {
	if base == nil || cfg == nil {
		return base
	}
	if override := overrideLevel(cfg.Logging.ComponentOverrides, component); override != "" {
		return logging.WithLevelOverride(base, parseComponentLevel(override))
	}
	return base
}

func overrideLevel(overrides map[string]string, component string) string {
	if len(overrides) == 0 {
		return ""
	}
	component = strings.ToLower(strings.TrimSpace(component))
	if component == "" {
		return ""
	}
	for key, value := range overrides {
		if strings.ToLower(strings.TrimSpace(key)) == component {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func parseComponentLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
