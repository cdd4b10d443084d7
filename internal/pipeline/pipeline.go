package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mpklu/pinyinMate-sub004/internal/config"
	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/logging"
	"github.com/mpklu/pinyinMate-sub004/internal/services"
)

// Pipeline derives study-ready artifacts from validated lessons.
type Pipeline struct {
	logger    *slog.Logger
	mode      string
	annotator annotator
	quiz      quizBuilder
}

// New builds a Pipeline from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	mode := strings.TrimSpace(cfg.Pipeline.SegmentationMode)
	if mode == "" {
		mode = "sentence"
	}
	return &Pipeline{
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		mode:      mode,
		annotator: newAnnotator(cfg.Pipeline.ToneMarks),
		quiz: quizBuilder{
			questionLimit:   cfg.Pipeline.QuizQuestionLimit,
			distractorCount: cfg.Pipeline.DistractorCount,
		},
	}
}

// Prepare runs the stages selected by opts against lsn and assembles the
// artifact. The lesson is never mutated. The only failure mode is context
// cancellation; degenerate lessons prepare successfully with empty outputs.
func (p *Pipeline) Prepare(ctx context.Context, lsn lesson.Lesson, opts Options) (PreparedLesson, error) {
	start := time.Now()
	logger := logging.WithContext(ctx, p.logger)

	prepared := PreparedLesson{
		LessonID:   lsn.ID,
		Title:      lsn.Title,
		Options:    opts,
		PreparedAt: start.UTC(),
	}

	segments := buildSegments(lsn.Content, p.mode, opts.SegmentText)
	if err := ctx.Err(); err != nil {
		return PreparedLesson{}, services.Wrap(services.ErrTimeout, "pipeline", "prepare", "lesson preparation canceled", err)
	}

	if opts.IncludePinyin {
		lines := make([]string, 0, len(segments))
		for i := range segments {
			segments[i].Pinyin = p.annotator.Annotate(segments[i].Text)
			if segments[i].Pinyin != "" {
				lines = append(lines, segments[i].Pinyin)
			}
		}
		prepared.PinyinContent = strings.Join(lines, "\n")
	}

	entries := dedupeVocabulary(lsn.Metadata.Vocabulary)
	mapVocabulary(segments, entries)

	if opts.IncludeFlashcards {
		var annotate func(string) string
		if opts.IncludePinyin {
			annotate = p.annotator.Annotate
		}
		prepared.Flashcards = buildFlashcards(entries, annotate)
	}
	if opts.IncludeQuizzes {
		prepared.QuizQuestions = p.quiz.Build(lsn.ID, entries, segments)
	}

	mode := p.mode
	if !opts.SegmentText {
		mode = segmentModeNone
	}
	prepared.SegmentedContent = SegmentedContent{Mode: mode, Segments: segments}

	logger.Debug("lesson prepared",
		logging.String(logging.FieldLessonID, lsn.ID),
		logging.Int("segments", len(segments)),
		logging.Int("flashcards", len(prepared.Flashcards)),
		logging.Int("quiz_questions", len(prepared.QuizQuestions)),
		logging.Bool("pinyin", opts.IncludePinyin),
		logging.Duration("elapsed", time.Since(start)),
	)
	return prepared, nil
}
