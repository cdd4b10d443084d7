package daemon

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/mpklu/pinyinMate-sub004/internal/api"
	"github.com/mpklu/pinyinMate-sub004/internal/catalog"
	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/pipeline"
	"github.com/mpklu/pinyinMate-sub004/internal/services"
)

func (s *apiServer) handleLibraries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, api.LibraryListResponse{
		Libraries: api.FromSources(s.library.AvailableLibraries()),
	})
}

func (s *apiServer) handleLessons(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	libraryID := strings.TrimSpace(r.URL.Query().Get("library"))
	if libraryID != "" {
		if _, ok := s.library.LibraryByID(libraryID); !ok {
			s.writeError(w, http.StatusNotFound, "library not found")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, api.LessonListResponse{
		Lessons: api.FromLessons(s.library.Lessons(libraryID)),
	})
}

// handleLessonSubtree serves /api/lessons/{id} and /api/lessons/{id}/prepare.
func (s *apiServer) handleLessonSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/lessons/")
	if rest == "" {
		s.writeError(w, http.StatusNotFound, "lesson not found")
		return
	}
	if id, ok := strings.CutSuffix(rest, "/prepare"); ok {
		s.handlePrepare(w, r, id)
		return
	}
	if strings.Contains(rest, "/") {
		s.writeError(w, http.StatusNotFound, "lesson not found")
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	lsn, ok := s.library.LessonByID(rest)
	if !ok {
		s.writeError(w, http.StatusNotFound, "lesson not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.LessonResponse{Lesson: api.FromLessonDetail(lsn)})
}

func (s *apiServer) handlePrepare(w http.ResponseWriter, r *http.Request, lessonID string) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if lessonID == "" || strings.Contains(lessonID, "/") {
		s.writeError(w, http.StatusNotFound, "lesson not found")
		return
	}

	// Absent or partial option payloads fall back to the stage defaults.
	opts := pipeline.DefaultOptions()
	if r.Body != nil {
		err := json.NewDecoder(r.Body).Decode(&opts)
		if err != nil && !errors.Is(err, io.EOF) {
			s.writeError(w, http.StatusBadRequest, "invalid options payload")
			return
		}
	}

	artifact, err := s.library.PrepareLesson(r.Context(), lessonID, opts)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.PrepareResponse{Artifact: artifact})
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	filters := catalog.Filters{}
	for _, value := range query["category"] {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			filters.Categories = append(filters.Categories, trimmed)
		}
	}
	for _, value := range query["difficulty"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		difficulty := lesson.Difficulty(strings.ToLower(trimmed))
		if !difficulty.Valid() {
			s.writeError(w, http.StatusBadRequest, "invalid difficulty "+strconv.Quote(trimmed))
			return
		}
		filters.Difficulties = append(filters.Difficulties, difficulty)
	}
	if raw := strings.TrimSpace(query.Get("vocabulary")); raw != "" {
		hasVocab, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid vocabulary filter")
			return
		}
		filters.HasVocabulary = &hasVocab
	}

	q := query.Get("q")
	s.writeJSON(w, http.StatusOK, api.SearchResponse{
		Query:   q,
		Lessons: api.FromLessons(s.library.SearchLessons(q, filters)),
	})
}

func (s *apiServer) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if sourceID := strings.TrimSpace(r.URL.Query().Get("source")); sourceID != "" {
		result := s.library.RefreshLibrary(r.Context(), sourceID)
		s.writeJSON(w, http.StatusOK, api.SyncResponse{
			Results: api.FromSyncResults([]lesson.SyncResult{result}),
		})
		return
	}
	results := s.library.SyncAll(r.Context())
	s.writeJSON(w, http.StatusOK, api.SyncResponse{Results: api.FromSyncResults(results)})
}

func (s *apiServer) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var src lesson.Source
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid source payload")
		return
	}
	if err := s.library.AddRemoteSource(src); err != nil {
		s.writeServiceError(w, err)
		return
	}
	stored, ok := s.library.LibraryByID(strings.TrimSpace(src.ID))
	if !ok {
		stored = src
	}
	s.writeJSON(w, http.StatusCreated, api.LibraryResponse{Library: api.FromSource(stored)})
}

func (s *apiServer) handleCache(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, api.CacheStatusResponse{
			Cache: api.FromCacheStatus(s.library.CacheStatus()),
		})
	case http.MethodDelete:
		s.library.ClearCache()
		s.writeJSON(w, http.StatusOK, api.CacheStatusResponse{
			Cache: api.FromCacheStatus(s.library.CacheStatus()),
		})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// writeServiceError maps the error taxonomy onto HTTP statuses.
func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrConfiguration):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrTimeout):
		s.writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
