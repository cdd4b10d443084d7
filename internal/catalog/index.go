package catalog

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/logging"
	"github.com/mpklu/pinyinMate-sub004/internal/textutil"
)

// Provider supplies the merged catalog and a generation counter that changes
// whenever the catalog does. The source registry satisfies this.
type Provider interface {
	Lessons(libraryID string) []lesson.Lesson
	Generation() uint64
}

// Filters narrows a search. Fields combine with AND; values within one field
// combine with OR. A nil HasVocabulary leaves vocabulary out of the decision.
type Filters struct {
	Categories    []string            `json:"categories,omitempty"`
	Difficulties  []lesson.Difficulty `json:"difficulties,omitempty"`
	HasVocabulary *bool               `json:"hasVocabulary,omitempty"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return len(f.Categories) == 0 && len(f.Difficulties) == 0 && f.HasVocabulary == nil
}

// Index answers catalog searches. Safe for concurrent use.
type Index struct {
	provider Provider
	logger   *slog.Logger

	mu    sync.Mutex
	built atomic.Pointer[builtIndex]
}

// builtIndex is one immutable prepared view of the catalog with search text
// precomputed per lesson. Entries keep the catalog's order: source priority
// descending, then lesson ID ascending.
type builtIndex struct {
	generation uint64
	entries    []indexEntry
}

type indexEntry struct {
	lesson     lesson.Lesson
	searchText string
	tags       map[string]struct{}
}

// NewIndex builds an index over the given provider.
func NewIndex(provider Provider, logger *slog.Logger) *Index {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Index{
		provider: provider,
		logger:   logging.NewComponentLogger(logger, "catalog"),
	}
}

// Search returns every catalog lesson matching the query and filters. An
// empty query with zero filters returns the full catalog. Matching is
// substring over case-folded title, description, and content; CJK text
// matches on the raw codepoint sequence. Results are copies in catalog order.
func (x *Index) Search(query string, filters Filters) []lesson.Lesson {
	built := x.current()
	needle := textutil.NormalizeForSearch(strings.TrimSpace(query))

	out := make([]lesson.Lesson, 0, len(built.entries))
	for _, entry := range built.entries {
		if needle != "" && !strings.Contains(entry.searchText, needle) {
			continue
		}
		if !matchesFilters(entry, filters) {
			continue
		}
		out = append(out, entry.lesson.Clone())
	}
	return out
}

// LessonsByCategory returns every lesson tagged with the given category.
func (x *Index) LessonsByCategory(category string) []lesson.Lesson {
	return x.Search("", Filters{Categories: []string{category}})
}

// current returns the prepared view for the provider's present generation,
// rebuilding it if the catalog changed since the last search.
func (x *Index) current() *builtIndex {
	generation := x.provider.Generation()
	if built := x.built.Load(); built != nil && built.generation == generation {
		return built
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	generation = x.provider.Generation()
	if built := x.built.Load(); built != nil && built.generation == generation {
		return built
	}

	started := time.Now()
	// Generation is read before the lessons: if the catalog moves in between,
	// the mismatch forces another rebuild on the next search instead of
	// pinning a stale view.
	lessons := x.provider.Lessons("")
	built := &builtIndex{
		generation: generation,
		entries:    make([]indexEntry, 0, len(lessons)),
	}
	for _, lsn := range lessons {
		built.entries = append(built.entries, indexEntry{
			lesson:     lsn,
			searchText: searchText(lsn),
			tags:       tagSet(lsn.Metadata.Tags),
		})
	}
	x.built.Store(built)
	x.logger.Debug("search index rebuilt",
		logging.Int("lessons", len(built.entries)),
		logging.Uint64("generation", generation),
		logging.Duration("elapsed", time.Since(started)))
	return built
}

func searchText(lsn lesson.Lesson) string {
	return textutil.NormalizeForSearch(lsn.Title) + "\n" +
		textutil.NormalizeForSearch(lsn.Description) + "\n" +
		textutil.NormalizeForSearch(lsn.Content)
}

func tagSet(tags []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		out[tag] = struct{}{}
	}
	return out
}

func matchesFilters(entry indexEntry, filters Filters) bool {
	if len(filters.Categories) > 0 && !matchesAnyCategory(entry.tags, filters.Categories) {
		return false
	}
	if len(filters.Difficulties) > 0 && !matchesAnyDifficulty(entry.lesson.Metadata.Difficulty, filters.Difficulties) {
		return false
	}
	if filters.HasVocabulary != nil && entry.lesson.HasVocabulary() != *filters.HasVocabulary {
		return false
	}
	return true
}

func matchesAnyCategory(tags map[string]struct{}, categories []string) bool {
	for _, category := range categories {
		category = strings.ToLower(strings.TrimSpace(category))
		if category == "" {
			continue
		}
		if _, ok := tags[category]; ok {
			return true
		}
	}
	return false
}

func matchesAnyDifficulty(got lesson.Difficulty, wanted []lesson.Difficulty) bool {
	for _, difficulty := range wanted {
		if got == difficulty {
			return true
		}
	}
	return false
}
