package pipeline

import "time"

// QuestionType distinguishes the quiz item shapes the pipeline emits.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionFillInBlank    QuestionType = "fill_in_blank"
)

// VocabularyRef marks one occurrence of a vocabulary word inside a segment.
// Start and End are rune offsets within the segment text, End exclusive, so
// highlights line up regardless of byte width.
type VocabularyRef struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// Segment is one unit of segmented lesson content.
type Segment struct {
	Index      int             `json:"index"`
	Text       string          `json:"text"`
	Pinyin     string          `json:"pinyin,omitempty"`
	Vocabulary []VocabularyRef `json:"vocabulary,omitempty"`
}

// SegmentedContent carries the ordered segments plus the strategy that
// produced them. Mode is "none" when segmentation was disabled and the whole
// content became a single segment.
type SegmentedContent struct {
	Mode     string    `json:"mode"`
	Segments []Segment `json:"segments"`
}

// Flashcard is a study card derived from one vocabulary entry. Cards are
// reversible: either side can serve as the prompt.
type Flashcard struct {
	ID     string `json:"id"`
	Front  string `json:"front"`
	Back   string `json:"back"`
	Pinyin string `json:"pinyin,omitempty"`
}

// QuizQuestion is a generated quiz item. Multiple-choice questions carry
// candidate answers in Choices; fill-in-blank questions leave it empty.
type QuizQuestion struct {
	ID      string       `json:"id"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"prompt"`
	Choices []string     `json:"choices,omitempty"`
	Answer  string       `json:"answer"`
}

// PreparedLesson is the study-ready artifact assembled from one lesson.
type PreparedLesson struct {
	LessonID         string           `json:"lessonId"`
	Title            string           `json:"title"`
	Options          Options          `json:"options"`
	SegmentedContent SegmentedContent `json:"segmentedContent"`
	PinyinContent    string           `json:"pinyinContent,omitempty"`
	Flashcards       []Flashcard      `json:"flashcards,omitempty"`
	QuizQuestions    []QuizQuestion   `json:"quizQuestions,omitempty"`
	PreparedAt       time.Time        `json:"preparedAt"`
}
