package library

import (
	"context"
	"fmt"
	"time"

	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/logging"
)

// AddRemoteSource registers a remote source. Its lessons join the catalog on
// the next sync.
func (s *Service) AddRemoteSource(src lesson.Source) error {
	return s.registry.AddRemoteSource(src)
}

// SyncSource syncs one remote source and invalidates prepared artifacts for
// every lesson the source owned before or owns after, covering additions,
// removals, and collision-winner changes.
func (s *Service) SyncSource(ctx context.Context, sourceID string) lesson.SyncResult {
	affected := s.ownedLessonIDs(sourceID, nil)
	result := s.coordinator.SyncSource(ctx, sourceID)
	if result.Success {
		s.ownedLessonIDs(sourceID, affected)
		s.dropPrepared(affected, sourceID)
	}
	return result
}

// SyncAll syncs every enabled remote source and returns one result per
// source. Artifacts are invalidated only for sources that synced.
func (s *Service) SyncAll(ctx context.Context) []lesson.SyncResult {
	before := make(map[string]map[string]struct{})
	for _, src := range s.registry.Sources() {
		if src.Type == lesson.SourceRemote && src.Enabled {
			before[src.ID] = s.ownedLessonIDs(src.ID, nil)
		}
	}

	results := s.coordinator.SyncAll(ctx)

	affected := make(map[string]struct{})
	for _, result := range results {
		if !result.Success {
			continue
		}
		for id := range before[result.SourceID] {
			affected[id] = struct{}{}
		}
		s.ownedLessonIDs(result.SourceID, affected)
	}
	s.dropPrepared(affected, "")
	return results
}

// RefreshLibrary reloads one library from its origin: local sources re-read
// their directory, remote sources sync. Outcomes are reported as a
// SyncResult either way so callers render refreshes uniformly.
func (s *Service) RefreshLibrary(ctx context.Context, libraryID string) lesson.SyncResult {
	src, ok := s.registry.SourceByID(libraryID)
	if !ok {
		return lesson.SyncResult{
			SourceID:  libraryID,
			Timestamp: time.Now().UTC(),
			Errors:    []string{fmt.Sprintf("unknown library %q", libraryID)},
		}
	}
	if src.Type == lesson.SourceRemote {
		return s.SyncSource(ctx, libraryID)
	}

	start := time.Now()
	affected := s.ownedLessonIDs(libraryID, nil)
	count, err := s.registry.LoadLocalSource(ctx, libraryID)
	result := lesson.SyncResult{
		SourceID:  libraryID,
		Timestamp: start.UTC(),
		Duration:  time.Since(start),
	}
	if err != nil {
		result.Errors = []string{err.Error()}
		logging.WarnWithContext(s.logger, "library refresh failed", "refresh_failed",
			logging.String(logging.FieldSourceID, libraryID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the source directory and lesson files"),
			logging.String(logging.FieldImpact, "catalog keeps the previous lesson set for this library"))
		return result
	}

	result.Success = true
	result.Lessons = count
	s.ownedLessonIDs(libraryID, affected)
	s.dropPrepared(affected, libraryID)
	s.logger.Info("library refreshed",
		logging.String(logging.FieldSourceID, libraryID),
		logging.Int("lessons", count),
		logging.Duration("elapsed", result.Duration))
	return result
}

// ownedLessonIDs adds the IDs of every lesson the library currently owns to
// the set, allocating it when nil.
func (s *Service) ownedLessonIDs(libraryID string, into map[string]struct{}) map[string]struct{} {
	if into == nil {
		into = make(map[string]struct{})
	}
	for _, lsn := range s.registry.Lessons(libraryID) {
		into[lsn.ID] = struct{}{}
	}
	return into
}

// dropPrepared invalidates every cached artifact for the lesson IDs in the
// set. sourceID is only for the log line and may be empty.
func (s *Service) dropPrepared(ids map[string]struct{}, sourceID string) {
	if len(ids) == 0 {
		return
	}
	engine := s.preparedEngine()
	dropped := 0
	for id := range ids {
		dropped += engine.InvalidatePrefix(id + "|")
	}
	if dropped == 0 {
		return
	}
	attrs := []logging.Attr{
		logging.Int("artifact_count", dropped),
		logging.Int("lesson_count", len(ids)),
	}
	if sourceID != "" {
		attrs = append(attrs, logging.String(logging.FieldSourceID, sourceID))
	}
	s.logger.Debug("invalidated prepared artifacts", logging.Args(attrs...)...)
}
