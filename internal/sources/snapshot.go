package sources

import (
	"sort"

	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/logging"
)

// snapshot is one immutable merged view of the catalog. A new snapshot is
// published after every mutation; readers never see a partially merged state.
type snapshot struct {
	generation uint64
	// merged holds the winning lessons ordered by source priority descending,
	// then lesson ID ascending.
	merged   []lesson.Lesson
	byID     map[string]lesson.Lesson
	bySource map[string][]lesson.Lesson
}

// mergeCandidate tracks where a lesson came from while collisions resolve.
type mergeCandidate struct {
	lesson   lesson.Lesson
	sourceID string
	priority int
}

// higherPrecedence reports whether a outranks b for the same lesson ID, and
// the reason used for decision logging. Ties on priority fall to the most
// recent update; a final tie goes to the lexicographically smaller source ID
// so merges stay deterministic.
func higherPrecedence(a, b mergeCandidate) (bool, string) {
	if a.priority != b.priority {
		return a.priority > b.priority, "higher_priority"
	}
	if !a.lesson.Metadata.UpdatedAt.Equal(b.lesson.Metadata.UpdatedAt) {
		return a.lesson.Metadata.UpdatedAt.After(b.lesson.Metadata.UpdatedAt), "newer_updated_at"
	}
	return a.sourceID < b.sourceID, "source_id_order"
}

func (r *Registry) rebuild() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rebuildLocked()
}

// rebuildLocked recomputes the merged catalog and publishes it. Caller holds
// the registry write lock, which serializes rebuilds so a later replacement
// can never be overwritten by a rebuild that started earlier.
func (r *Registry) rebuildLocked() {
	winners := make(map[string]mergeCandidate)
	for _, id := range r.order {
		st := r.sources[id]
		st.mu.RLock()
		src := st.source
		if !src.Enabled {
			st.mu.RUnlock()
			continue
		}
		for _, lsn := range st.lessons {
			cand := mergeCandidate{lesson: lsn, sourceID: src.ID, priority: src.Priority}
			cur, taken := winners[lsn.ID]
			if !taken {
				winners[lsn.ID] = cand
				continue
			}
			wins, reason := higherPrecedence(cand, cur)
			winner, shadowed := cur, cand
			if wins {
				winner, shadowed = cand, cur
				winners[lsn.ID] = cand
			}
			attrs := append(logging.DecisionAttrs("lesson_collision", winner.sourceID, reason),
				logging.String(logging.FieldLessonID, lsn.ID),
				logging.String("shadowed_source", shadowed.sourceID))
			r.logger.Debug("lesson id collision resolved", logging.Args(attrs...)...)
		}
		st.mu.RUnlock()
	}

	ordered := make([]mergeCandidate, 0, len(winners))
	for _, cand := range winners {
		ordered = append(ordered, cand)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].priority != ordered[j].priority {
			return ordered[i].priority > ordered[j].priority
		}
		return ordered[i].lesson.ID < ordered[j].lesson.ID
	})

	next := &snapshot{
		merged:   make([]lesson.Lesson, 0, len(ordered)),
		byID:     make(map[string]lesson.Lesson, len(ordered)),
		bySource: make(map[string][]lesson.Lesson),
	}
	for _, cand := range ordered {
		next.merged = append(next.merged, cand.lesson)
		next.byID[cand.lesson.ID] = cand.lesson
		next.bySource[cand.sourceID] = append(next.bySource[cand.sourceID], cand.lesson)
	}
	r.generation++
	next.generation = r.generation
	r.catalog.Store(next)
}

// Lessons returns the merged catalog, or only the lessons whose winning
// source is libraryID when one is given. Results are copies in catalog order.
func (r *Registry) Lessons(libraryID string) []lesson.Lesson {
	snap := r.catalog.Load()
	src := snap.merged
	if libraryID != "" {
		src = snap.bySource[libraryID]
	}
	out := make([]lesson.Lesson, 0, len(src))
	for _, lsn := range src {
		out = append(out, lsn.Clone())
	}
	return out
}

// LessonByID returns a copy of the catalog lesson with the given ID,
// reporting whether it exists.
func (r *Registry) LessonByID(id string) (lesson.Lesson, bool) {
	snap := r.catalog.Load()
	lsn, ok := snap.byID[id]
	if !ok {
		return lesson.Lesson{}, false
	}
	return lsn.Clone(), true
}

// CatalogSize returns the number of lessons in the merged catalog.
func (r *Registry) CatalogSize() int {
	return len(r.catalog.Load().merged)
}

// Generation identifies the current merged snapshot. It increases on every
// catalog rebuild, letting an index detect staleness with one load.
func (r *Registry) Generation() uint64 {
	return r.catalog.Load().generation
}
