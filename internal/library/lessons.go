package library

import (
	"github.com/mpklu/pinyinMate-sub004/internal/catalog"
	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
)

// AvailableLibraries returns every configured source in priority order.
func (s *Service) AvailableLibraries() []lesson.Source {
	return s.registry.Sources()
}

// LibraryByID returns the source with the given ID, reporting absence with
// ok=false rather than an error.
func (s *Service) LibraryByID(libraryID string) (lesson.Source, bool) {
	return s.registry.SourceByID(libraryID)
}

// Lessons returns the merged catalog, or only the lessons owned by libraryID
// when it is non-empty. An unknown library yields an empty slice.
func (s *Service) Lessons(libraryID string) []lesson.Lesson {
	return s.registry.Lessons(libraryID)
}

// LessonByID returns the catalog lesson with the given ID, reporting absence
// with ok=false rather than an error.
func (s *Service) LessonByID(lessonID string) (lesson.Lesson, bool) {
	return s.registry.LessonByID(lessonID)
}

// SearchLessons returns catalog lessons matching the query and filters, in
// catalog order. An empty query with zero filters returns the whole catalog.
func (s *Service) SearchLessons(query string, filters catalog.Filters) []lesson.Lesson {
	return s.index.Search(query, filters)
}

// LessonsByCategory returns catalog lessons tagged with the category.
func (s *Service) LessonsByCategory(category string) []lesson.Lesson {
	return s.index.LessonsByCategory(category)
}
