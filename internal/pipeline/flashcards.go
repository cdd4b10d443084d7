package pipeline

import (
	"github.com/google/uuid"

	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
)

// buildFlashcards emits one card per vocabulary entry, word on the front and
// definition on the back. annotate may be nil when pinyin is disabled.
func buildFlashcards(entries []lesson.VocabularyEntry, annotate func(string) string) []Flashcard {
	if len(entries) == 0 {
		return nil
	}
	cards := make([]Flashcard, 0, len(entries))
	for _, entry := range entries {
		card := Flashcard{
			ID:    uuid.NewString(),
			Front: entry.Word,
			Back:  entry.Definition,
		}
		if annotate != nil {
			card.Pinyin = annotate(entry.Word)
		}
		cards = append(cards, card)
	}
	return cards
}
