package lesson

import (
	"strings"
	"time"
)

// Difficulty classifies how advanced a lesson is.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid reports whether the difficulty is one of the known levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	default:
		return false
	}
}

// Difficulties lists every valid difficulty in ascending order.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}
}

// VocabularyEntry pairs a word with its definition. Phonetic annotation and
// part-of-speech are derived at use time by the pipeline and are never stored;
// documents carrying them are a legacy shape the validator strips.
type VocabularyEntry struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
}

// Metadata carries the descriptive and study-planning fields of a lesson.
type Metadata struct {
	Difficulty     Difficulty        `json:"difficulty"`
	Tags           []string          `json:"tags"`
	CharacterCount int               `json:"characterCount"`
	Source         string            `json:"source"`
	Book           *string           `json:"book"`
	Vocabulary     []VocabularyEntry `json:"vocabulary"`
	EstimatedTime  int               `json:"estimatedTime"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Lesson is a validated lesson document. Instances are treated as immutable
// once produced by the schema package; a new version replaces by ID.
type Lesson struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Metadata    Metadata `json:"metadata"`
}

// Clone returns a deep copy so callers can hold or decorate a lesson without
// aliasing the canonical value owned by the source registry.
func (l Lesson) Clone() Lesson {
	out := l
	if l.Metadata.Tags != nil {
		out.Metadata.Tags = append([]string(nil), l.Metadata.Tags...)
	}
	if l.Metadata.Vocabulary != nil {
		out.Metadata.Vocabulary = append([]VocabularyEntry(nil), l.Metadata.Vocabulary...)
	}
	if l.Metadata.Book != nil {
		book := *l.Metadata.Book
		out.Metadata.Book = &book
	}
	return out
}

// HasVocabulary reports whether the lesson carries at least one vocabulary entry.
func (l Lesson) HasVocabulary() bool {
	return len(l.Metadata.Vocabulary) > 0
}

// HasTag reports whether the lesson carries the given tag, ignoring case and
// surrounding whitespace.
func (l Lesson) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return false
	}
	for _, candidate := range l.Metadata.Tags {
		if strings.ToLower(strings.TrimSpace(candidate)) == tag {
			return true
		}
	}
	return false
}
