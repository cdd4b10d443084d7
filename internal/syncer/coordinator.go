package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mpklu/pinyinMate-sub004/internal/config"
	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/logging"
	"github.com/mpklu/pinyinMate-sub004/internal/manifest"
	"github.com/mpklu/pinyinMate-sub004/internal/notifications"
	"github.com/mpklu/pinyinMate-sub004/internal/schema"
	"github.com/mpklu/pinyinMate-sub004/internal/services"
	"github.com/mpklu/pinyinMate-sub004/internal/sources"
)

const defaultFetchConcurrency = 4

// Coordinator syncs remote sources into the registry. Safe for concurrent
// use; concurrent syncs of different sources are independent.
type Coordinator struct {
	registry *sources.Registry
	client   *manifest.Client
	notifier notifications.Service
	logger   *slog.Logger

	sourceTimeout    time.Duration
	concurrency      int
	fetchConcurrency int
}

// New builds a coordinator from the sync configuration. A nil notifier
// disables notifications; a nil client gets a default manifest client.
func New(cfg *config.Config, registry *sources.Registry, client *manifest.Client, notifier notifications.Service, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if client == nil {
		client = manifest.New(manifest.Config{})
	}
	fetchConcurrency := cfg.Sync.FetchConcurrency
	if fetchConcurrency <= 0 {
		fetchConcurrency = defaultFetchConcurrency
	}
	return &Coordinator{
		registry:         registry,
		client:           client,
		notifier:         notifier,
		logger:           logging.NewComponentLogger(logger, "syncer"),
		sourceTimeout:    cfg.SourceTimeout(),
		concurrency:      cfg.Sync.Concurrency,
		fetchConcurrency: fetchConcurrency,
	}
}

// SyncSource refreshes one remote source and reports the outcome. It never
// returns an error: an unknown, non-remote, or disabled source yields a
// failed result, as does a manifest that cannot be fetched or decoded. The
// registry keeps the previous lesson set on failure.
func (c *Coordinator) SyncSource(ctx context.Context, sourceID string) lesson.SyncResult {
	started := time.Now()
	result := lesson.SyncResult{SourceID: sourceID, Timestamp: started.UTC()}

	ctx = services.WithSourceID(ctx, sourceID)
	logger := logging.WithContext(ctx, c.logger)

	src, ok := c.registry.SourceByID(sourceID)
	switch {
	case !ok:
		return c.failResult(result, started, fmt.Sprintf("unknown source %q", sourceID))
	case src.Type != lesson.SourceRemote:
		return c.failResult(result, started, fmt.Sprintf("source %q is %s, not remote", sourceID, src.Type))
	case !src.Enabled:
		return c.failResult(result, started, fmt.Sprintf("source %q is disabled", sourceID))
	}

	syncCtx := ctx
	if c.sourceTimeout > 0 {
		var cancel context.CancelFunc
		syncCtx, cancel = context.WithTimeout(ctx, c.sourceTimeout)
		defer cancel()
	}

	lessons, warnings, err := c.fetchSource(syncCtx, logger, src)
	result.Warnings = warnings
	if err == nil {
		err = c.registry.ReplaceLessons(src.ID, lessons)
	}
	result.Duration = time.Since(started)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		logging.ErrorWithContext(logger, "source sync failed", "sync_failed",
			logging.Error(err),
			logging.Duration("elapsed", result.Duration),
			logging.String(logging.FieldErrorHint, "check the source URL and network reachability"),
			logging.String(logging.FieldImpact, "catalog keeps the previous lesson set for this source"))
		c.notify(ctx, notifications.EventSyncFailed, notifications.Payload{
			"sourceId": src.ID,
			"reason":   err.Error(),
		})
		return result
	}

	result.Success = true
	result.Lessons = len(lessons)
	logger.Info("source sync complete",
		logging.Int("lessons", result.Lessons),
		logging.Int("warnings", len(result.Warnings)),
		logging.Duration("elapsed", result.Duration))
	c.notify(ctx, notifications.EventSyncCompleted, notifications.Payload{
		"sourceId": src.ID,
		"lessons":  strconv.Itoa(result.Lessons),
		"duration": result.Duration.Round(time.Millisecond).String(),
	})
	return result
}

// SyncAll refreshes every enabled remote source concurrently and returns one
// result per attempted source. It never fails globally; individual failures
// are aggregated in their results.
func (c *Coordinator) SyncAll(ctx context.Context) []lesson.SyncResult {
	started := time.Now()
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	logger := logging.WithContext(ctx, c.logger)

	var targets []string
	for _, src := range c.registry.Sources() {
		if src.Type == lesson.SourceRemote && src.Enabled {
			targets = append(targets, src.ID)
		}
	}
	if len(targets) == 0 {
		logger.Debug("no enabled remote sources to sync")
		return nil
	}

	logger.Info("sync run started",
		logging.Int("sources", len(targets)),
		logging.Int("concurrency", c.concurrency))

	results := make([]lesson.SyncResult, len(targets))
	group := new(errgroup.Group)
	if c.concurrency > 0 {
		group.SetLimit(c.concurrency)
	}
	for i, id := range targets {
		i, id := i, id
		group.Go(func() error {
			results[i] = c.SyncSource(ctx, id)
			return nil
		})
	}
	_ = group.Wait()

	var succeeded, failed, lessons int
	for _, res := range results {
		if res.Success {
			succeeded++
			lessons += res.Lessons
		} else {
			failed++
		}
	}
	elapsed := time.Since(started)
	logger.Info("sync run complete",
		logging.Int("succeeded", succeeded),
		logging.Int("failed", failed),
		logging.Int("lessons", lessons),
		logging.Duration("elapsed", elapsed))
	c.notify(ctx, notifications.EventSyncSummary, notifications.Payload{
		"succeeded": strconv.Itoa(succeeded),
		"failed":    strconv.Itoa(failed),
		"lessons":   strconv.Itoa(lessons),
		"duration":  elapsed.Round(time.Millisecond).String(),
	})
	return results
}

// fetchSource pulls one source's manifest and materializes its lessons.
// A manifest that cannot be fetched or decoded is fatal for the sync; a
// lesson that cannot be fetched, decoded, or validated becomes a warning and
// is skipped, unless the whole sync's context already expired.
func (c *Coordinator) fetchSource(ctx context.Context, logger *slog.Logger, src lesson.Source) ([]lesson.Lesson, []string, error) {
	man, err := c.client.FetchManifest(ctx, src.Config.URL)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("manifest fetched",
		logging.String("manifest_name", man.Name),
		logging.Int("entries", len(man.Entries)))

	type outcome struct {
		lesson  lesson.Lesson
		ok      bool
		warning string
	}
	outcomes := make([]outcome, len(man.Entries))

	var (
		progressMu sync.Mutex
		completed  int
	)
	sampler := logging.NewProgressSampler(10)
	total := len(man.Entries)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.fetchConcurrency)
	for i, entry := range man.Entries {
		i, entry := i, entry
		group.Go(func() error {
			data := entry.Document
			if !entry.Inline() {
				body, err := c.client.FetchLesson(groupCtx, entry.URL)
				if err != nil {
					// Deadline expiry fails the sync; an individually broken
					// lesson only costs that lesson.
					if groupCtx.Err() != nil {
						return err
					}
					outcomes[i] = outcome{warning: fmt.Sprintf("lesson %s: %v", entryLabel(entry, i), err)}
					c.trackProgress(logger, src.ID, sampler, &progressMu, &completed, total)
					return nil
				}
				data = body
			}

			lsn, res := schema.MigrateLegacy(data)
			if !res.Valid {
				outcomes[i] = outcome{warning: fmt.Sprintf("lesson %s: %s", entryLabel(entry, i), strings.Join(res.ErrorStrings(), "; "))}
			} else {
				if len(res.Warnings) > 0 {
					logger.Debug("lesson accepted with warnings",
						logging.String(logging.FieldLessonID, lsn.ID),
						logging.String("warnings", strings.Join(res.WarningStrings(), "; ")))
				}
				outcomes[i] = outcome{lesson: lsn, ok: true}
			}
			c.trackProgress(logger, src.ID, sampler, &progressMu, &completed, total)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	lessons := make([]lesson.Lesson, 0, len(outcomes))
	var warnings []string
	for _, out := range outcomes {
		switch {
		case out.ok:
			lessons = append(lessons, out.lesson)
		case out.warning != "":
			warnings = append(warnings, out.warning)
		}
	}
	return lessons, warnings, nil
}

func (c *Coordinator) trackProgress(logger *slog.Logger, sourceID string, sampler *logging.ProgressSampler, mu *sync.Mutex, completed *int, total int) {
	mu.Lock()
	defer mu.Unlock()
	*completed++
	percent := float64(*completed) / float64(total) * 100
	if sampler.ShouldLog(percent, "fetch", "") {
		logger.Debug("fetching lessons",
			logging.String(logging.FieldProgressStage, "fetch"),
			logging.Float64(logging.FieldProgressPercent, percent),
			logging.String(logging.FieldProgressMessage, fmt.Sprintf("%d/%d lessons", *completed, total)))
	}
}

func (c *Coordinator) failResult(result lesson.SyncResult, started time.Time, reason string) lesson.SyncResult {
	result.Errors = append(result.Errors, reason)
	result.Duration = time.Since(started)
	c.logger.Warn("sync request rejected",
		logging.String(logging.FieldSourceID, result.SourceID),
		logging.String(logging.FieldEventType, "sync_rejected"),
		logging.String(logging.FieldErrorHint, reason),
		logging.String(logging.FieldImpact, "no sync was attempted for this source"))
	return result
}

// notify publishes an event, downgrading delivery problems to a warning so
// they can never affect a sync outcome.
func (c *Coordinator) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Publish(ctx, event, payload); err != nil {
		c.logger.Warn("notification delivery failed",
			logging.String(logging.FieldEventType, "notify_failed"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the ntfy topic configuration"),
			logging.String(logging.FieldImpact, "sync completed; only the notification was lost"))
	}
}

func entryLabel(entry manifest.Entry, index int) string {
	if entry.ID != "" {
		return entry.ID
	}
	if entry.URL != "" {
		return entry.URL
	}
	return fmt.Sprintf("#%d", index+1)
}
