package library

import (
	"context"
	"fmt"

	"github.com/mpklu/pinyinMate-sub004/internal/pipeline"
	"github.com/mpklu/pinyinMate-sub004/internal/services"
)

// PrepareLesson derives the study artifact for a catalog lesson. With
// CacheResult set, the artifact is served from the prepared cache under
// (lessonID, options hash); concurrent calls for the same key share one
// pipeline run. An unknown lesson ID is an error because there is nothing to
// prepare.
func (s *Service) PrepareLesson(ctx context.Context, lessonID string, opts pipeline.Options) (pipeline.PreparedLesson, error) {
	lsn, ok := s.registry.LessonByID(lessonID)
	if !ok {
		return pipeline.PreparedLesson{}, services.Wrap(services.ErrNotFound, "library", "prepare lesson",
			fmt.Sprintf("lesson %q is not in the catalog", lessonID), nil)
	}

	ctx = services.WithLessonID(ctx, lessonID)
	if !opts.CacheResult {
		return s.pipeline.Prepare(ctx, lsn, opts)
	}

	return s.preparedEngine().GetOrLoad(ctx, preparedKey(lessonID, opts), func(ctx context.Context) (pipeline.PreparedLesson, error) {
		return s.pipeline.Prepare(ctx, lsn, opts)
	})
}

// preparedKey builds the cache key for one lesson and option set. The lesson
// ID prefix is what InvalidatePrefix matches on when a refresh drops a
// lesson's artifacts.
func preparedKey(lessonID string, opts pipeline.Options) string {
	return lessonID + "|" + opts.Hash()
}
