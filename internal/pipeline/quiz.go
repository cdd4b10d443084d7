package pipeline

import (
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/google/uuid"

	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
)

const blankMarker = "____"

// quizBuilder derives quiz items from vocabulary and mapped segments. All
// selection is driven by a PRNG seeded from the lesson ID, so preparing the
// same lesson repeatedly yields the same questions in the same order.
type quizBuilder struct {
	questionLimit   int
	distractorCount int
}

func (q quizBuilder) Build(lessonID string, entries []lesson.VocabularyEntry, segments []Segment) []QuizQuestion {
	if len(entries) == 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(int64(seedFor(lessonID))))
	questions := q.multipleChoice(rng, entries)
	questions = append(questions, q.fillInBlank(segments)...)
	if q.questionLimit > 0 && len(questions) > q.questionLimit {
		questions = questions[:q.questionLimit]
	}
	return questions
}

func seedFor(lessonID string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(lessonID))
	return h.Sum64()
}

// multipleChoice asks for the meaning of each word, mixing the real definition
// with distractor definitions drawn from the other entries. Words without at
// least one distinct distractor are skipped rather than emitted as one-option
// questions.
func (q quizBuilder) multipleChoice(rng *rand.Rand, entries []lesson.VocabularyEntry) []QuizQuestion {
	var questions []QuizQuestion
	for i, entry := range entries {
		if entry.Definition == "" {
			continue
		}
		choices := pickDistractors(rng, entries, i, q.distractorCount)
		if len(choices) == 0 {
			continue
		}
		choices = append(choices, entry.Definition)
		rng.Shuffle(len(choices), func(a, b int) { choices[a], choices[b] = choices[b], choices[a] })
		questions = append(questions, QuizQuestion{
			ID:      uuid.NewString(),
			Type:    QuestionMultipleChoice,
			Prompt:  fmt.Sprintf("What does %q mean?", entry.Word),
			Choices: choices,
			Answer:  entry.Definition,
		})
	}
	return questions
}

func pickDistractors(rng *rand.Rand, entries []lesson.VocabularyEntry, exclude, want int) []string {
	pool := make([]string, 0, len(entries))
	seen := map[string]struct{}{entries[exclude].Definition: {}}
	for i, entry := range entries {
		if i == exclude || entry.Definition == "" {
			continue
		}
		if _, dup := seen[entry.Definition]; dup {
			continue
		}
		seen[entry.Definition] = struct{}{}
		pool = append(pool, entry.Definition)
	}
	rng.Shuffle(len(pool), func(a, b int) { pool[a], pool[b] = pool[b], pool[a] })
	if want > 0 && len(pool) > want {
		pool = pool[:want]
	}
	return pool
}

// fillInBlank blanks the first vocabulary occurrence in each segment that has
// one, with the removed word as the answer.
func (q quizBuilder) fillInBlank(segments []Segment) []QuizQuestion {
	var questions []QuizQuestion
	for _, seg := range segments {
		if len(seg.Vocabulary) == 0 {
			continue
		}
		ref := seg.Vocabulary[0]
		runes := []rune(seg.Text)
		if ref.Start < 0 || ref.End > len(runes) || ref.Start >= ref.End {
			continue
		}
		questions = append(questions, QuizQuestion{
			ID:     uuid.NewString(),
			Type:   QuestionFillInBlank,
			Prompt: string(runes[:ref.Start]) + blankMarker + string(runes[ref.End:]),
			Answer: ref.Word,
		})
	}
	return questions
}
