package sources

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mpklu/pinyinMate-sub004/internal/config"
	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/logging"
	"github.com/mpklu/pinyinMate-sub004/internal/services"
)

// Registry owns the canonical lesson sets for every configured source and the
// merged catalog derived from them. All methods are safe for concurrent use;
// mutations to one source never block reads or mutations of another.
type Registry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	sources map[string]*sourceState
	// order holds source IDs sorted by priority descending, then ID ascending.
	order []string

	// catalog is the published merged view. Readers load it lock-free;
	// rebuilds swap a fresh snapshot under the registry write lock.
	catalog atomic.Pointer[snapshot]

	generation uint64
}

// sourceState pairs one source definition with its current lesson set. The
// per-source mutex scopes mutation so unrelated sources replace concurrently.
type sourceState struct {
	mu      sync.RWMutex
	source  lesson.Source
	lessons map[string]lesson.Lesson
}

// New builds a registry over the given source definitions. No lesson loading
// happens here; call Initialize to read local sources from disk.
func New(srcs []lesson.Source, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Registry{
		logger:  logging.NewComponentLogger(logger, "sources"),
		sources: make(map[string]*sourceState, len(srcs)),
	}
	for _, src := range srcs {
		src = src.Clone()
		src.ID = strings.TrimSpace(src.ID)
		if src.ID == "" {
			continue
		}
		if _, exists := r.sources[src.ID]; exists {
			continue
		}
		if strings.TrimSpace(src.Name) == "" {
			src.Name = src.ID
		}
		r.sources[src.ID] = &sourceState{source: src, lessons: make(map[string]lesson.Lesson)}
		r.order = append(r.order, src.ID)
	}
	r.mu.Lock()
	r.sortOrderLocked()
	r.rebuildLocked()
	r.mu.Unlock()
	return r
}

// FromConfig converts configured source entries into source definitions.
func FromConfig(srcs []config.Source) []lesson.Source {
	out := make([]lesson.Source, 0, len(srcs))
	for _, src := range srcs {
		out = append(out, lesson.Source{
			ID:       src.ID,
			Name:     src.Name,
			Type:     lesson.SourceType(src.Type),
			Enabled:  src.Enabled,
			Priority: src.Priority,
			Config: lesson.SourceConfig{
				Path:     src.Path,
				URL:      src.URL,
				Features: append([]string(nil), src.Features...),
			},
		})
	}
	return out
}

// Initialize loads every enabled local source from disk. A local source whose
// directory cannot be read fails initialization; individual invalid lesson
// files are skipped with a logged warning. Remote sources are registered as-is
// and stay empty until the sync coordinator populates them.
func (r *Registry) Initialize(ctx context.Context) error {
	started := time.Now()
	var localSources, remoteSources, loaded int
	for _, src := range r.Sources() {
		if !src.Enabled {
			continue
		}
		switch src.Type {
		case lesson.SourceLocal:
			count, err := r.LoadLocalSource(ctx, src.ID)
			if err != nil {
				return err
			}
			localSources++
			loaded += count
		case lesson.SourceRemote:
			remoteSources++
		}
	}
	r.logger.Info("library sources initialized",
		logging.Int("local_sources", localSources),
		logging.Int("remote_sources", remoteSources),
		logging.Int("lessons", loaded),
		logging.Duration("elapsed", time.Since(started)))
	return nil
}

// Sources returns every registered source ordered by priority descending,
// then ID ascending. Returned values are copies.
func (r *Registry) Sources() []lesson.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]lesson.Source, 0, len(r.order))
	for _, id := range r.order {
		st := r.sources[id]
		st.mu.RLock()
		out = append(out, st.source.Clone())
		st.mu.RUnlock()
	}
	return out
}

// SourceByID returns a copy of the named source, reporting whether it exists.
func (r *Registry) SourceByID(id string) (lesson.Source, bool) {
	r.mu.RLock()
	st, ok := r.sources[strings.TrimSpace(id)]
	r.mu.RUnlock()
	if !ok {
		return lesson.Source{}, false
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.source.Clone(), true
}

// AddRemoteSource registers a new remote source with an empty lesson set. The
// definition is validated; IDs must be unique across the registry.
func (r *Registry) AddRemoteSource(src lesson.Source) error {
	src = src.Clone()
	src.ID = strings.TrimSpace(src.ID)
	if strings.TrimSpace(src.Name) == "" {
		src.Name = src.ID
	}
	if src.Type == "" {
		src.Type = lesson.SourceRemote
	}
	src.Config.Features = normalizeFeatures(src.Config.Features)
	if err := src.Validate(); err != nil {
		return services.Wrap(services.ErrValidation, "sources", "add", "invalid source definition", err)
	}
	if src.Type != lesson.SourceRemote {
		return services.Wrap(services.ErrValidation, "sources", "add",
			fmt.Sprintf("source %q must have type remote", src.ID), nil)
	}

	r.mu.Lock()
	if _, exists := r.sources[src.ID]; exists {
		r.mu.Unlock()
		return services.Wrap(services.ErrValidation, "sources", "add",
			fmt.Sprintf("source %q is already registered", src.ID), nil)
	}
	r.sources[src.ID] = &sourceState{source: src, lessons: make(map[string]lesson.Lesson)}
	r.order = append(r.order, src.ID)
	r.sortOrderLocked()
	r.rebuildLocked()
	r.mu.Unlock()

	r.logger.Info("registered remote source",
		logging.String(logging.FieldSourceID, src.ID),
		logging.Int("priority", src.Priority),
		logging.Bool("enabled", src.Enabled))
	return nil
}

// ReplaceLessons swaps the named source's lesson set wholesale. Readers see
// either the previous set or the full new one, never a mix. Each stored
// lesson is tagged with the owning source ID.
func (r *Registry) ReplaceLessons(sourceID string, lessons []lesson.Lesson) error {
	r.mu.RLock()
	st, ok := r.sources[sourceID]
	r.mu.RUnlock()
	if !ok {
		return services.Wrap(services.ErrNotFound, "sources", "replace",
			fmt.Sprintf("unknown source %q", sourceID), nil)
	}

	next := make(map[string]lesson.Lesson, len(lessons))
	for _, lsn := range lessons {
		stored := lsn.Clone()
		stored.Metadata.Source = sourceID
		if _, dup := next[stored.ID]; dup {
			logging.WarnWithContext(r.logger, "duplicate lesson id within source", "lesson_duplicate",
				logging.String(logging.FieldSourceID, sourceID),
				logging.String(logging.FieldLessonID, stored.ID),
				logging.String(logging.FieldErrorHint, "remove the duplicate entry from the source"),
				logging.String(logging.FieldImpact, "the later copy replaces the earlier one"))
		}
		next[stored.ID] = stored
	}

	st.mu.Lock()
	st.lessons = next
	st.source.Config.LessonCount = len(next)
	st.source.Config.LastSyncedAt = time.Now().UTC()
	st.mu.Unlock()

	r.rebuild()
	r.logger.Debug("replaced source lessons",
		logging.String(logging.FieldSourceID, sourceID),
		logging.Int("lessons", len(next)))
	return nil
}

// sortOrderLocked re-sorts the ID order after registration changes. Caller
// holds the registry write lock.
func (r *Registry) sortOrderLocked() {
	sort.Slice(r.order, func(i, j int) bool {
		a, b := r.sources[r.order[i]].source, r.sources[r.order[j]].source
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.ID < b.ID
	})
}

func normalizeFeatures(features []string) []string {
	out := make([]string, 0, len(features))
	seen := make(map[string]struct{}, len(features))
	for _, feature := range features {
		feature = strings.ToLower(strings.TrimSpace(feature))
		if feature == "" {
			continue
		}
		if _, dup := seen[feature]; dup {
			continue
		}
		seen[feature] = struct{}{}
		out = append(out, feature)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
