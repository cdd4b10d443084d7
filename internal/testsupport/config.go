package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/mpklu/pinyinMate-sub004/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Sources start empty, cache persistence is off, and notifications are
// unconfigured so tests opt in to each explicitly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Sources = nil
	cfgVal.Cache.PersistToDisk = false
	cfgVal.Cache.Path = filepath.Join(base, "cache", "lessons.db")
	cfgVal.Sync.SourceTimeout = 5
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLocalSource registers an enabled local source rooted at dir.
func WithLocalSource(id string, priority int, dir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sources = append(b.cfg.Sources, config.Source{
			ID:       id,
			Name:     id,
			Type:     "local",
			Enabled:  true,
			Priority: priority,
			Path:     dir,
		})
	}
}

// WithRemoteSource registers an enabled remote source pointing at url.
func WithRemoteSource(id string, priority int, url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sources = append(b.cfg.Sources, config.Source{
			ID:       id,
			Name:     id,
			Type:     "remote",
			Enabled:  true,
			Priority: priority,
			URL:      url,
		})
	}
}

// WithPersistentCache turns on the sqlite write-through store, backed by the
// test's temp directory.
func WithPersistentCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.PersistToDisk = true
	}
}

// WithCacheLimits overrides cache sizing for eviction and TTL tests.
func WithCacheLimits(maxSize, ttlSeconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.MaxSize = maxSize
		b.cfg.Cache.DefaultTTL = ttlSeconds
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
