package pipeline_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/mpklu/pinyinMate-sub004/internal/config"
	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/pipeline"
)

type quizShape struct {
	Type    pipeline.QuestionType
	Prompt  string
	Choices []string
	Answer  string
}

func quizShapes(questions []pipeline.QuizQuestion) []quizShape {
	shapes := make([]quizShape, 0, len(questions))
	for _, q := range questions {
		shapes = append(shapes, quizShape{Type: q.Type, Prompt: q.Prompt, Choices: q.Choices, Answer: q.Answer})
	}
	return shapes
}

func studyLesson() lesson.Lesson {
	return vocabLesson("study-1", "你好！谢谢你，朋友。再见。",
		entry("你好", "hello"),
		entry("谢谢", "thanks"),
		entry("再见", "goodbye"),
		entry("朋友", "friend"),
	)
}

func TestQuizDeterministicAcrossRuns(t *testing.T) {
	first, err := newPipeline(t, nil).Prepare(context.Background(), studyLesson(), pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	second, err := newPipeline(t, nil).Prepare(context.Background(), studyLesson(), pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	if len(first.QuizQuestions) == 0 {
		t.Fatal("expected quiz questions")
	}
	if !reflect.DeepEqual(quizShapes(first.QuizQuestions), quizShapes(second.QuizQuestions)) {
		t.Fatalf("quiz content diverged:\n%+v\n%+v", quizShapes(first.QuizQuestions), quizShapes(second.QuizQuestions))
	}
	if first.QuizQuestions[0].ID == second.QuizQuestions[0].ID {
		t.Fatal("question IDs should be regenerated per run")
	}
}

func TestQuizRespectsConfiguredLimits(t *testing.T) {
	p := newPipeline(t, func(cfg *config.Config) {
		cfg.Pipeline.QuizQuestionLimit = 3
		cfg.Pipeline.DistractorCount = 2
	})
	lsn := vocabLesson("limits", "",
		entry("一", "one"),
		entry("二", "two"),
		entry("三", "three"),
		entry("四", "four"),
		entry("五", "five"),
	)

	prepared, err := p.Prepare(context.Background(), lsn, pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(prepared.QuizQuestions) != 3 {
		t.Fatalf("quiz questions = %d, want 3", len(prepared.QuizQuestions))
	}

	definitions := map[string]struct{}{"one": {}, "two": {}, "three": {}, "four": {}, "five": {}}
	for _, q := range prepared.QuizQuestions {
		if q.Type != pipeline.QuestionMultipleChoice {
			t.Fatalf("question type = %q", q.Type)
		}
		if len(q.Choices) != 3 {
			t.Fatalf("choices = %v, want 2 distractors plus the answer", q.Choices)
		}
		if _, known := definitions[q.Answer]; !known {
			t.Fatalf("answer %q is not a vocabulary definition", q.Answer)
		}
		seen := make(map[string]struct{}, len(q.Choices))
		foundAnswer := false
		for _, choice := range q.Choices {
			if _, dup := seen[choice]; dup {
				t.Fatalf("duplicate choice in %v", q.Choices)
			}
			seen[choice] = struct{}{}
			if choice == q.Answer {
				foundAnswer = true
			}
		}
		if !foundAnswer {
			t.Fatalf("choices %v missing answer %q", q.Choices, q.Answer)
		}
	}
}

func TestQuizMixesChoiceAndBlankQuestions(t *testing.T) {
	prepared, err := newPipeline(t, nil).Prepare(context.Background(),
		vocabLesson("mix", "你好！谢谢。", entry("你好", "hello"), entry("谢谢", "thanks")),
		pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	var choice, blank int
	var blankPrompts []string
	for _, q := range prepared.QuizQuestions {
		switch q.Type {
		case pipeline.QuestionMultipleChoice:
			choice++
		case pipeline.QuestionFillInBlank:
			blank++
			blankPrompts = append(blankPrompts, q.Prompt)
		default:
			t.Fatalf("unexpected question type %q", q.Type)
		}
	}
	if choice != 2 || blank != 2 {
		t.Fatalf("choice=%d blank=%d, want 2 of each", choice, blank)
	}
	if want := []string{"____！", "____。"}; !reflect.DeepEqual(blankPrompts, want) {
		t.Fatalf("blank prompts = %v, want %v", blankPrompts, want)
	}
}
