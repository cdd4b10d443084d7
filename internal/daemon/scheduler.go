package daemon

import (
	"context"
	"time"

	"github.com/mpklu/pinyinMate-sub004/internal/logging"
)

// runScheduler drives periodic full syncs until the daemon context ends. The
// sync coordinator owns per-run logging and notifications; the scheduler only
// records the latest outcome for status reporting.
func (d *Daemon) runScheduler(ctx context.Context, interval time.Duration) {
	defer d.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info("sync scheduler started", logging.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("sync scheduler stopped")
			return
		case <-ticker.C:
			d.runScheduledSync(ctx)
		}
	}
}

func (d *Daemon) runScheduledSync(ctx context.Context) {
	started := time.Now()
	results := d.library.SyncAll(ctx)
	if len(results) == 0 {
		return
	}

	snapshot := SyncSnapshot{At: started.UTC()}
	for _, result := range results {
		if result.Success {
			snapshot.Synced++
			snapshot.Lessons += result.Lessons
		} else {
			snapshot.Failures++
		}
	}
	d.setLastSync(snapshot)

	if snapshot.Failures > 0 {
		logging.WarnWithContext(d.logger, "scheduled sync had failures", "scheduled_sync_partial",
			logging.Int("failed", snapshot.Failures),
			logging.Int("succeeded", snapshot.Synced),
			logging.String(logging.FieldErrorHint, "check per-source sync errors in the log"),
			logging.String(logging.FieldImpact, "failed sources keep their previous lesson sets"))
	}
}

func (d *Daemon) setLastSync(snapshot SyncSnapshot) {
	d.syncMu.Lock()
	d.lastSync = snapshot
	d.syncMu.Unlock()
}

func (d *Daemon) lastSyncSnapshot() SyncSnapshot {
	d.syncMu.Lock()
	defer d.syncMu.Unlock()
	return d.lastSync
}
