// Package api defines wire-format types and converters for the daemon's HTTP
// API. It translates internal lesson, source, and cache models into
// transport-friendly DTOs that the CLI and other consumers can render without
// coupling to internal types.
//
// # Key Types
//
// LibrarySummary: transport representation of a configured source with its
// last sync state and lesson count.
//
// LessonSummary / LessonDetail: catalog listings and the full document view
// with vocabulary.
//
// SyncOutcome: one source's sync attempt with duration and per-lesson
// warnings.
//
// DaemonStatus: daemon runtime state including scheduler and cache snapshots.
//
// LogEvent/LogStreamResponse: structured log payloads for live tailing.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Internal enums (lesson.Difficulty,
// lesson.SourceType) are exposed as lowercase strings. Timestamps use RFC3339
// with milliseconds and zero times are omitted. Prepared artifacts pass
// through unchanged: pipeline.PreparedLesson is already a stable JSON shape
// and re-mapping it would only invite drift.
package api
