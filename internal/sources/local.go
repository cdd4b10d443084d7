package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/logging"
	"github.com/mpklu/pinyinMate-sub004/internal/schema"
	"github.com/mpklu/pinyinMate-sub004/internal/services"
)

// LoadLocalSource reads the named local source's directory and replaces its
// lesson set with the decoded contents. It returns the number of lessons
// accepted. An unreadable directory is an error; unreadable or invalid lesson
// files are skipped with a warning so one bad file cannot block a library.
func (r *Registry) LoadLocalSource(ctx context.Context, sourceID string) (int, error) {
	src, ok := r.SourceByID(sourceID)
	if !ok {
		return 0, services.Wrap(services.ErrNotFound, "sources", "load",
			fmt.Sprintf("unknown source %q", sourceID), nil)
	}
	if src.Type != lesson.SourceLocal {
		return 0, services.Wrap(services.ErrValidation, "sources", "load",
			fmt.Sprintf("source %q is %s, not local", sourceID, src.Type), nil)
	}

	lessons, err := r.readLessonDir(ctx, src)
	if err != nil {
		return 0, err
	}
	if err := r.ReplaceLessons(sourceID, lessons); err != nil {
		return 0, err
	}
	return len(lessons), nil
}

func (r *Registry) readLessonDir(ctx context.Context, src lesson.Source) ([]lesson.Lesson, error) {
	dir := src.Config.Path
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "sources", "load",
			fmt.Sprintf("local source %q: reading %s", src.ID, dir), err)
	}

	lessons := make([]lesson.Lesson, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, services.Wrap(services.ErrTimeout, "sources", "load",
				fmt.Sprintf("local source %q load interrupted", src.ID), err)
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logging.WarnWithContext(r.logger, "skipping unreadable lesson file", "lesson_file_unreadable",
				logging.String(logging.FieldSourceID, src.ID),
				logging.String("file", entry.Name()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix the file permissions or remove the file"),
				logging.String(logging.FieldImpact, "lesson is not available in the catalog"))
			continue
		}

		lsn, res := schema.MigrateLegacy(data)
		if !res.Valid {
			logging.WarnWithContext(r.logger, "skipping invalid lesson file", "lesson_invalid",
				logging.String(logging.FieldSourceID, src.ID),
				logging.String("file", entry.Name()),
				logging.String(logging.FieldErrorHint, strings.Join(res.ErrorStrings(), "; ")),
				logging.String(logging.FieldImpact, "lesson is not available in the catalog"))
			continue
		}
		if len(res.Warnings) > 0 {
			r.logger.Debug("lesson accepted with warnings",
				logging.String(logging.FieldSourceID, src.ID),
				logging.String("file", entry.Name()),
				logging.String("warnings", strings.Join(res.WarningStrings(), "; ")))
		}
		lessons = append(lessons, lsn)
	}
	return lessons, nil
}
