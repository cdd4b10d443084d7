package api

import (
	"time"

	"github.com/mpklu/pinyinMate-sub004/internal/cache"
	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/logging"
)

// FromSource converts a configured source to its API representation.
func FromSource(src lesson.Source) LibrarySummary {
	return LibrarySummary{
		ID:           src.ID,
		Name:         src.Name,
		Type:         string(src.Type),
		Enabled:      src.Enabled,
		Priority:     src.Priority,
		LessonCount:  src.Config.LessonCount,
		LastSyncedAt: formatTime(src.Config.LastSyncedAt),
		Path:         src.Config.Path,
		URL:          src.Config.URL,
	}
}

// FromSources converts a slice of sources into API DTOs.
func FromSources(srcs []lesson.Source) []LibrarySummary {
	if len(srcs) == 0 {
		return nil
	}
	out := make([]LibrarySummary, 0, len(srcs))
	for _, src := range srcs {
		out = append(out, FromSource(src))
	}
	return out
}

// FromLesson converts a lesson to its catalog-listing representation.
func FromLesson(lsn lesson.Lesson) LessonSummary {
	return LessonSummary{
		ID:             lsn.ID,
		Title:          lsn.Title,
		Difficulty:     string(lsn.Metadata.Difficulty),
		Tags:           lsn.Metadata.Tags,
		CharacterCount: lsn.Metadata.CharacterCount,
		EstimatedTime:  lsn.Metadata.EstimatedTime,
		Source:         lsn.Metadata.Source,
		UpdatedAt:      formatTime(lsn.Metadata.UpdatedAt),
	}
}

// FromLessons converts a slice of lessons into API DTOs.
func FromLessons(lessons []lesson.Lesson) []LessonSummary {
	if len(lessons) == 0 {
		return nil
	}
	out := make([]LessonSummary, 0, len(lessons))
	for _, lsn := range lessons {
		out = append(out, FromLesson(lsn))
	}
	return out
}

// FromLessonDetail converts a lesson to its full document representation.
func FromLessonDetail(lsn lesson.Lesson) LessonDetail {
	detail := LessonDetail{
		LessonSummary: FromLesson(lsn),
		Description:   lsn.Description,
		Content:       lsn.Content,
	}
	if len(lsn.Metadata.Vocabulary) > 0 {
		detail.Vocabulary = make([]VocabularyEntry, 0, len(lsn.Metadata.Vocabulary))
		for _, entry := range lsn.Metadata.Vocabulary {
			detail.Vocabulary = append(detail.Vocabulary, VocabularyEntry{
				Word:       entry.Word,
				Definition: entry.Definition,
			})
		}
	}
	return detail
}

// FromSyncResult converts a sync outcome to its API representation.
func FromSyncResult(result lesson.SyncResult) SyncOutcome {
	return SyncOutcome{
		SourceID:   result.SourceID,
		Success:    result.Success,
		Timestamp:  formatTime(result.Timestamp),
		DurationMS: result.Duration.Milliseconds(),
		Lessons:    result.Lessons,
		Errors:     result.Errors,
		Warnings:   result.Warnings,
	}
}

// FromSyncResults converts a slice of sync outcomes into API DTOs.
func FromSyncResults(results []lesson.SyncResult) []SyncOutcome {
	if len(results) == 0 {
		return nil
	}
	out := make([]SyncOutcome, 0, len(results))
	for _, result := range results {
		out = append(out, FromSyncResult(result))
	}
	return out
}

// FromCacheStatus converts cache engine counters to the API payload.
func FromCacheStatus(status cache.Status) CacheStatus {
	return CacheStatus{
		TotalItems: status.TotalItems,
		HitRate:    status.HitRate,
		SizeBytes:  status.SizeBytes,
		Hits:       status.Hits,
		Misses:     status.Misses,
		Evictions:  status.Evictions,
		Expired:    status.Expired,
	}
}

// FromLogEvents converts streamed log records into API DTOs.
func FromLogEvents(events []logging.LogEvent) []LogEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]LogEvent, 0, len(events))
	for _, evt := range events {
		details := make([]DetailField, 0, len(evt.Details))
		for _, detail := range evt.Details {
			details = append(details, DetailField{Label: detail.Label, Value: detail.Value})
		}
		out = append(out, LogEvent{
			Sequence:      evt.Sequence,
			Timestamp:     formatTime(evt.Timestamp),
			Level:         evt.Level,
			Message:       evt.Message,
			Component:     evt.Component,
			Stage:         evt.Stage,
			LessonID:      evt.LessonID,
			SourceID:      evt.SourceID,
			CorrelationID: evt.CorrelationID,
			Fields:        evt.Fields,
			Details:       details,
		})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
