package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

var nullLiteral = []byte("null")

type rawLesson struct {
	ID          json.RawMessage `json:"id"`
	Title       json.RawMessage `json:"title"`
	Description json.RawMessage `json:"description"`
	Content     json.RawMessage `json:"content"`
	Metadata    json.RawMessage `json:"metadata"`
	Vocabulary  json.RawMessage `json:"vocabulary"`
}

type rawMetadata struct {
	Difficulty     json.RawMessage `json:"difficulty"`
	Tags           json.RawMessage `json:"tags"`
	CharacterCount json.RawMessage `json:"characterCount"`
	Source         json.RawMessage `json:"source"`
	Book           json.RawMessage `json:"book"`
	Vocabulary     json.RawMessage `json:"vocabulary"`
	EstimatedTime  json.RawMessage `json:"estimatedTime"`
	CreatedAt      json.RawMessage `json:"createdAt"`
	UpdatedAt      json.RawMessage `json:"updatedAt"`
}

type rawVocabulary struct {
	Word         json.RawMessage `json:"word"`
	Definition   json.RawMessage `json:"definition"`
	Pinyin       json.RawMessage `json:"pinyin"`
	PartOfSpeech json.RawMessage `json:"partOfSpeech"`
}

// decodeDocument decodes one JSON document field by field so a type mismatch
// in one field is recorded against that field alone instead of aborting the
// whole decode. Absent and null fields come back as zero values; requiredness
// is judged later by the value checks.
func decodeDocument(data []byte, res *ValidationResult) (Document, bool) {
	var raw rawLesson
	if err := json.Unmarshal(data, &raw); err != nil {
		res.addError("document", "must be a JSON object", nil)
		return Document{}, false
	}

	doc := Document{
		ID:          stringField(raw.ID, "id", res),
		Title:       stringField(raw.Title, "title", res),
		Description: stringField(raw.Description, "description", res),
		Content:     stringField(raw.Content, "content", res),
	}

	// A top-level vocabulary list is a legacy shape MigrateLegacy repairs; the
	// strict schema neither defines nor judges it, so capture it leniently.
	var legacyRes ValidationResult
	doc.LegacyVocabulary = vocabularyField(raw.Vocabulary, "vocabulary", &legacyRes)

	if absent(raw.Metadata) {
		return doc, true
	}
	var rawMD rawMetadata
	if err := json.Unmarshal(raw.Metadata, &rawMD); err != nil {
		res.addError("metadata", "must be an object", rawValue(raw.Metadata))
		return doc, true
	}

	md := DocumentMetadata{
		Difficulty:     stringField(rawMD.Difficulty, "metadata.difficulty", res),
		Tags:           stringSliceField(rawMD.Tags, "metadata.tags", res),
		CharacterCount: intField(rawMD.CharacterCount, "metadata.characterCount", res),
		Source:         stringField(rawMD.Source, "metadata.source", res),
		Book:           optionalStringField(rawMD.Book, "metadata.book", res),
		Vocabulary:     vocabularyField(rawMD.Vocabulary, "metadata.vocabulary", res),
		EstimatedTime:  intField(rawMD.EstimatedTime, "metadata.estimatedTime", res),
		CreatedAt:      stringField(rawMD.CreatedAt, "metadata.createdAt", res),
		UpdatedAt:      stringField(rawMD.UpdatedAt, "metadata.updatedAt", res),
	}
	doc.Metadata = &md
	return doc, true
}

func absent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, nullLiteral)
}

func stringField(raw json.RawMessage, field string, res *ValidationResult) string {
	if absent(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		res.addError(field, "must be a string", rawValue(raw))
		return ""
	}
	return s
}

func optionalStringField(raw json.RawMessage, field string, res *ValidationResult) *string {
	if absent(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		res.addError(field, "must be a string or null", rawValue(raw))
		return nil
	}
	return &s
}

func intField(raw json.RawMessage, field string, res *ValidationResult) *int {
	if absent(raw) {
		return nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		res.addError(field, "must be a whole number", rawValue(raw))
		return nil
	}
	return &n
}

func stringSliceField(raw json.RawMessage, field string, res *ValidationResult) []string {
	if absent(raw) {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		res.addError(field, "must be an array of strings", rawValue(raw))
		return nil
	}
	return out
}

func vocabularyField(raw json.RawMessage, field string, res *ValidationResult) []DocumentVocabulary {
	if absent(raw) {
		return nil
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		res.addError(field, "must be an array", rawValue(raw))
		return nil
	}
	out := make([]DocumentVocabulary, 0, len(elements))
	for i, element := range elements {
		entryField := fmt.Sprintf("%s[%d]", field, i)
		var rawEntry rawVocabulary
		if err := json.Unmarshal(element, &rawEntry); err != nil {
			res.addError(entryField, "must be an object", rawValue(element))
			out = append(out, DocumentVocabulary{})
			continue
		}
		out = append(out, DocumentVocabulary{
			Word:         stringField(rawEntry.Word, entryField+".word", res),
			Definition:   stringField(rawEntry.Definition, entryField+".definition", res),
			Pinyin:       deprecatedField(rawEntry.Pinyin),
			PartOfSpeech: deprecatedField(rawEntry.PartOfSpeech),
		})
	}
	return out
}

// deprecatedField records presence of a deprecated value without judging its
// type; the field is slated for removal either way.
func deprecatedField(raw json.RawMessage) *string {
	if absent(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = ""
	}
	return &s
}

// rawValue renders a raw JSON fragment for an error report, decoded when
// possible and truncated so oversized values do not bloat the result.
func rawValue(raw json.RawMessage) any {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		value = string(raw)
	}
	if s, ok := value.(string); ok && utf8.RuneCountInString(s) > 80 {
		runes := []rune(s)
		return string(runes[:80]) + "…"
	}
	return value
}
