package api

import (
	"github.com/mpklu/pinyinMate-sub004/internal/pipeline"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// LibrarySummary describes a configured lesson source in a transport-friendly
// format.
type LibrarySummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Enabled      bool   `json:"enabled"`
	Priority     int    `json:"priority"`
	LessonCount  int    `json:"lessonCount"`
	LastSyncedAt string `json:"lastSyncedAt,omitempty"`
	Path         string `json:"path,omitempty"`
	URL          string `json:"url,omitempty"`
}

// LessonSummary carries the catalog-listing view of a lesson.
type LessonSummary struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Difficulty     string   `json:"difficulty"`
	Tags           []string `json:"tags,omitempty"`
	CharacterCount int      `json:"characterCount"`
	EstimatedTime  int      `json:"estimatedTime"`
	Source         string   `json:"source"`
	UpdatedAt      string   `json:"updatedAt,omitempty"`
}

// VocabularyEntry pairs a word with its definition.
type VocabularyEntry struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
}

// LessonDetail is the full document view of a lesson.
type LessonDetail struct {
	LessonSummary
	Description string            `json:"description,omitempty"`
	Content     string            `json:"content"`
	Vocabulary  []VocabularyEntry `json:"vocabulary,omitempty"`
}

// SyncOutcome reports one source's sync attempt.
type SyncOutcome struct {
	SourceID   string   `json:"sourceId"`
	Success    bool     `json:"success"`
	Timestamp  string   `json:"timestamp,omitempty"`
	DurationMS int64    `json:"durationMs"`
	Lessons    int      `json:"lessons"`
	Errors     []string `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// CacheStatus mirrors the cache engine's counters.
type CacheStatus struct {
	TotalItems int     `json:"totalItems"`
	HitRate    float64 `json:"hitRate"`
	SizeBytes  int64   `json:"sizeBytes"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	Evictions  int64   `json:"evictions"`
	Expired    int64   `json:"expired"`
}

// SchedulerStatus describes the daemon's periodic sync loop.
type SchedulerStatus struct {
	Interval     string `json:"interval,omitempty"`
	LastSyncAt   string `json:"lastSyncAt,omitempty"`
	LastSynced   int    `json:"lastSynced"`
	LastFailures int    `json:"lastFailures"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool            `json:"running"`
	PID          int             `json:"pid"`
	StartedAt    string          `json:"startedAt,omitempty"`
	CatalogSize  int             `json:"catalogSize"`
	Libraries    int             `json:"libraries"`
	Scheduler    SchedulerStatus `json:"scheduler"`
	Cache        CacheStatus     `json:"cache"`
	CacheDBPath  string          `json:"cacheDbPath,omitempty"`
	LockFilePath string          `json:"lockFilePath"`
}

// LibraryListResponse wraps the configured sources.
type LibraryListResponse struct {
	Libraries []LibrarySummary `json:"libraries"`
}

// LibraryResponse wraps a single configured source.
type LibraryResponse struct {
	Library LibrarySummary `json:"library"`
}

// LessonListResponse wraps a collection of lesson summaries.
type LessonListResponse struct {
	Lessons []LessonSummary `json:"lessons"`
}

// LessonResponse wraps a single lesson document.
type LessonResponse struct {
	Lesson LessonDetail `json:"lesson"`
}

// SearchResponse wraps search results together with the query that produced
// them.
type SearchResponse struct {
	Query   string          `json:"query"`
	Lessons []LessonSummary `json:"lessons"`
}

// PrepareResponse wraps a prepared lesson artifact.
type PrepareResponse struct {
	Artifact pipeline.PreparedLesson `json:"artifact"`
}

// SyncResponse wraps the outcomes of a sync request.
type SyncResponse struct {
	Results []SyncOutcome `json:"results"`
}

// CacheStatusResponse wraps the cache counters.
type CacheStatusResponse struct {
	Cache CacheStatus `json:"cache"`
}

// LogEvent is the transport form of a structured log record.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     string            `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	Stage         string            `json:"stage,omitempty"`
	LessonID      string            `json:"lessonId,omitempty"`
	SourceID      string            `json:"sourceId,omitempty"`
	CorrelationID string            `json:"correlationId,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
	Details       []DetailField     `json:"details,omitempty"`
}

// DetailField mirrors the console handler's info bullet lines.
type DetailField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// LogStreamResponse carries a page of log events plus the cursor for the next
// fetch.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}
