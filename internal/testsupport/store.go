package testsupport

import (
	"testing"

	"github.com/mpklu/pinyinMate-sub004/internal/cache"
	"github.com/mpklu/pinyinMate-sub004/internal/config"
)

// MustOpenStore opens the cache store configured on cfg and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *cache.Store {
	t.Helper()

	store, err := cache.OpenStore(cfg.Cache.Path, cfg.Cache.Compression, nil)
	if err != nil {
		t.Fatalf("cache.OpenStore: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
