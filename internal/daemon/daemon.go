package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/mpklu/pinyinMate-sub004/internal/cache"
	"github.com/mpklu/pinyinMate-sub004/internal/config"
	"github.com/mpklu/pinyinMate-sub004/internal/library"
	"github.com/mpklu/pinyinMate-sub004/internal/logging"
	"github.com/mpklu/pinyinMate-sub004/internal/notifications"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	library *library.Service

	lockPath string
	lock     *flock.Flock

	hub     *logging.StreamHub
	archive *logging.EventArchive

	api *apiServer

	running   atomic.Bool
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	syncMu   sync.Mutex
	lastSync SyncSnapshot
}

// SyncSnapshot records the outcome of the most recent scheduled sync.
type SyncSnapshot struct {
	At       time.Time
	Synced   int
	Failures int
	Lessons  int
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	CatalogSize  int
	Libraries    int
	SyncInterval time.Duration
	LastSync     SyncSnapshot
	Cache        cache.Status
	CacheDBPath  string
	LockFilePath string
	APIAddress   string
}

// New constructs a daemon around an initialized library service.
func New(cfg *config.Config, svc *library.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("daemon requires config and library service")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "pmated.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		library:  svc,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// AttachLogStream wires the in-memory log hub and on-disk archive served by
// the logs endpoint.
func (d *Daemon) AttachLogStream(hub *logging.StreamHub, archive *logging.EventArchive) {
	d.hub = hub
	d.archive = archive
}

// LogStream returns the hub backing live log tailing, if any.
func (d *Daemon) LogStream() *logging.StreamHub { return d.hub }

// LogArchive returns the persisted event archive, if any.
func (d *Daemon) LogArchive() *logging.EventArchive { return d.archive }

// Start acquires the daemon lock, loads the catalog, and launches the API
// server and sync scheduler.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("ensure lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another pinyinmate daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.library.Initialize(d.ctx); err != nil {
		d.teardown()
		return fmt.Errorf("initialize library: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.teardown()
		return err
	}

	interval := d.cfg.SyncInterval()
	if interval > 0 {
		d.wg.Add(1)
		go d.runScheduler(d.ctx, interval)
	}

	d.startedAt = time.Now().UTC()
	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("catalog_size", d.library.CatalogSize()),
		logging.String("api", d.api.address()),
		logging.Duration("sync_interval", interval))
	return nil
}

// Stop halts the scheduler and API server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and releases the library service.
func (d *Daemon) Close() error {
	d.Stop()
	if d.library != nil {
		d.library.Close()
	}
	return nil
}

// teardown rolls back a partially completed Start.
func (d *Daemon) teardown() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.ctx = nil
	_ = d.lock.Unlock()
}

// TestNotification sends a test push through the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg.Notifications.NtfyTopic == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.library.Notifier().Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LockPath returns the path of the single-instance lock file.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    d.startedAt,
		CatalogSize:  d.library.CatalogSize(),
		Libraries:    len(d.library.AvailableLibraries()),
		SyncInterval: d.cfg.SyncInterval(),
		LastSync:     d.lastSyncSnapshot(),
		Cache:        d.library.CacheStatus(),
		LockFilePath: d.lockPath,
		APIAddress:   d.api.address(),
	}
	if d.cfg.Cache.PersistToDisk {
		status.CacheDBPath = d.cfg.Cache.Path
	}
	return status
}
