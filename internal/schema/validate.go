package schema

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/textutil"
)

const (
	maxTitleChars       = 100
	maxDescriptionChars = 500
	maxContentChars     = 10000
	maxWordChars        = 50
	maxDefinitionChars  = 200
	minEstimatedTime    = 1
	maxEstimatedTime    = 300

	// characterCountTolerance bounds how far the declared character count may
	// drift from the Han codepoint count of the content before a warning.
	characterCountTolerance = 5
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// timestampLayouts are the accepted canonical renderings of a lesson
// timestamp. A value must reproduce itself through one of these after
// parsing, which rejects inputs that parse but do not round-trip.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
}

// Validate checks one JSON lesson document against the schema and reports
// every field violation found, never just the first.
func Validate(data []byte) ValidationResult {
	_, res := Decode(data)
	return res
}

// Decode validates a JSON lesson document and builds the typed lesson from
// it. The returned lesson is meaningful only when the result is valid;
// callers skipping invalid documents should consult the result first.
func Decode(data []byte) (lesson.Lesson, ValidationResult) {
	var res ValidationResult
	doc, ok := decodeDocument(data, &res)
	if !ok {
		return lesson.Lesson{}, res.finalize()
	}
	built := validateDocument(doc, &res)
	return built, res.finalize()
}

// validateDocument applies the value-level rules to a decoded document and
// assembles the canonical lesson. Fields that already failed to decode are
// skipped so each field reports at most one error.
func validateDocument(doc Document, res *ValidationResult) lesson.Lesson {
	out := lesson.Lesson{
		ID:          doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		Content:     doc.Content,
	}

	checkID(doc.ID, res)
	checkRequiredString(doc.Title, "title", maxTitleChars, res)
	checkRequiredString(doc.Description, "description", maxDescriptionChars, res)
	checkRequiredString(doc.Content, "content", maxContentChars, res)

	if doc.Metadata == nil {
		if !res.hasError("metadata") {
			res.addError("metadata", "is required", nil)
		}
		return out
	}
	md := *doc.Metadata

	checkDifficulty(md.Difficulty, res)
	checkTags(md.Tags, res)
	checkCharacterCount(md.CharacterCount, res)
	checkRequiredString(md.Source, "metadata.source", 0, res)
	checkEstimatedTime(md.EstimatedTime, res)

	if md.Vocabulary == nil {
		if !res.hasError("metadata.vocabulary") {
			res.addError("metadata.vocabulary", "is required", nil)
		}
	} else {
		for i, entry := range md.Vocabulary {
			checkVocabularyEntry(entry, i, res)
		}
	}

	createdAt := checkTimestamp(md.CreatedAt, "metadata.createdAt", res)
	updatedAt := checkTimestamp(md.UpdatedAt, "metadata.updatedAt", res)

	if doc.Content != "" && md.CharacterCount != nil && !res.hasError("metadata.characterCount") {
		han := textutil.CountHan(doc.Content)
		if diff := han - *md.CharacterCount; diff > characterCountTolerance || diff < -characterCountTolerance {
			res.addWarning("metadata.characterCount",
				fmt.Sprintf("declares %d characters but content contains %d Han characters", *md.CharacterCount, han))
		}
	}

	out.Metadata = lesson.Metadata{
		Difficulty:     lesson.Difficulty(md.Difficulty),
		Tags:           append([]string(nil), md.Tags...),
		CharacterCount: intOrZero(md.CharacterCount),
		Source:         md.Source,
		Book:           copyStringPtr(md.Book),
		Vocabulary:     convertVocabulary(md.Vocabulary),
		EstimatedTime:  intOrZero(md.EstimatedTime),
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
	return out
}

func checkID(id string, res *ValidationResult) {
	if res.hasError("id") {
		return
	}
	if id == "" {
		res.addError("id", "is required", nil)
		return
	}
	if !idPattern.MatchString(id) {
		res.addError("id", "must contain only letters, digits, underscores, and hyphens", id)
	}
}

func checkRequiredString(value, field string, maxChars int, res *ValidationResult) {
	if res.hasError(field) {
		return
	}
	if strings.TrimSpace(value) == "" {
		res.addError(field, "must not be empty", nil)
		return
	}
	if maxChars > 0 {
		if n := utf8.RuneCountInString(value); n > maxChars {
			res.addError(field, fmt.Sprintf("must be at most %d characters, got %d", maxChars, n), previewString(value))
		}
	}
}

func checkDifficulty(value string, res *ValidationResult) {
	const field = "metadata.difficulty"
	if res.hasError(field) {
		return
	}
	if value == "" {
		res.addError(field, "is required", nil)
		return
	}
	if !lesson.Difficulty(value).Valid() {
		res.addError(field, "must be one of beginner, intermediate, advanced", value)
	}
}

func checkTags(tags []string, res *ValidationResult) {
	const field = "metadata.tags"
	if res.hasError(field) {
		return
	}
	switch {
	case tags == nil:
		res.addError(field, "is required", nil)
	case len(tags) == 0:
		res.addError(field, "must not be empty", nil)
	}
}

func checkCharacterCount(count *int, res *ValidationResult) {
	const field = "metadata.characterCount"
	if res.hasError(field) {
		return
	}
	if count == nil {
		res.addError(field, "is required", nil)
		return
	}
	if *count <= 0 {
		res.addError(field, "must be positive", *count)
	}
}

func checkEstimatedTime(minutes *int, res *ValidationResult) {
	const field = "metadata.estimatedTime"
	if res.hasError(field) {
		return
	}
	if minutes == nil {
		res.addError(field, "is required", nil)
		return
	}
	if *minutes < minEstimatedTime || *minutes > maxEstimatedTime {
		res.addError(field, fmt.Sprintf("must be between %d and %d minutes", minEstimatedTime, maxEstimatedTime), *minutes)
	}
}

func checkVocabularyEntry(entry DocumentVocabulary, index int, res *ValidationResult) {
	prefix := fmt.Sprintf("metadata.vocabulary[%d]", index)
	if res.hasError(prefix) {
		return
	}
	checkRequiredString(entry.Word, prefix+".word", maxWordChars, res)
	checkRequiredString(entry.Definition, prefix+".definition", maxDefinitionChars, res)
	if entry.Pinyin != nil {
		res.addWarning(prefix+".pinyin", "deprecated field is ignored")
	}
	if entry.PartOfSpeech != nil {
		res.addWarning(prefix+".partOfSpeech", "deprecated field is ignored")
	}
}

func checkTimestamp(value, field string, res *ValidationResult) time.Time {
	if res.hasError(field) {
		return time.Time{}
	}
	if value == "" {
		res.addError(field, "is required", nil)
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		res.addError(field, "must be an RFC 3339 timestamp", value)
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if parsed.Format(layout) == value {
			return parsed
		}
	}
	res.addError(field, "does not round-trip through RFC 3339 parsing", value)
	return time.Time{}
}

func convertVocabulary(entries []DocumentVocabulary) []lesson.VocabularyEntry {
	if entries == nil {
		return nil
	}
	out := make([]lesson.VocabularyEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, lesson.VocabularyEntry{Word: entry.Word, Definition: entry.Definition})
	}
	return out
}

func copyStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func intOrZero(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}

func previewString(value string) string {
	const maxPreview = 80
	if utf8.RuneCountInString(value) <= maxPreview {
		return value
	}
	runes := []rune(value)
	return string(runes[:maxPreview]) + "…"
}
