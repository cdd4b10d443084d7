package lesson

import (
	"strings"
	"time"
)

// SourceType distinguishes locally loaded libraries from remote manifests.
type SourceType string

const (
	SourceLocal  SourceType = "local"
	SourceRemote SourceType = "remote"
)

// Valid reports whether the source type is known.
func (t SourceType) Valid() bool {
	return t == SourceLocal || t == SourceRemote
}

// SourceConfig holds per-source connection details. Path applies to local
// sources, URL to remote ones; the remaining fields describe the last known
// state of a remote manifest.
type SourceConfig struct {
	Path         string    `json:"path,omitempty"`
	URL          string    `json:"url,omitempty"`
	Features     []string  `json:"features,omitempty"`
	LastSyncedAt time.Time `json:"lastSyncedAt,omitzero"`
	LessonCount  int       `json:"lessonCount,omitempty"`
}

// Source describes one configured origin of lessons. Priority breaks lesson ID
// collisions across sources; higher wins.
type Source struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     SourceType   `json:"type"`
	Enabled  bool         `json:"enabled"`
	Priority int          `json:"priority"`
	Config   SourceConfig `json:"config"`
}

// Clone returns a copy safe to hand to callers.
func (s Source) Clone() Source {
	out := s
	if s.Config.Features != nil {
		out.Config.Features = append([]string(nil), s.Config.Features...)
	}
	return out
}

// Validate reports the first structural problem with the source definition.
func (s Source) Validate() error {
	id := strings.TrimSpace(s.ID)
	switch {
	case id == "":
		return &SourceError{Field: "id", Message: "must not be empty"}
	case !s.Type.Valid():
		return &SourceError{Field: "type", Message: "must be local or remote"}
	case s.Type == SourceLocal && strings.TrimSpace(s.Config.Path) == "":
		return &SourceError{Field: "config.path", Message: "required for local sources"}
	case s.Type == SourceRemote && strings.TrimSpace(s.Config.URL) == "":
		return &SourceError{Field: "config.url", Message: "required for remote sources"}
	}
	return nil
}

// SourceError describes an invalid field on a source definition.
type SourceError struct {
	Field   string
	Message string
}

func (e *SourceError) Error() string {
	return "source " + e.Field + ": " + e.Message
}

// SyncResult records the outcome of one sync attempt for one source. Values
// are immutable once returned by the coordinator.
type SyncResult struct {
	SourceID  string        `json:"sourceId"`
	Success   bool          `json:"success"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Lessons   int           `json:"lessons"`
	Errors    []string      `json:"errors,omitempty"`
	Warnings  []string      `json:"warnings,omitempty"`
}
