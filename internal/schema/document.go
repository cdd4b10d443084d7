package schema

import "fmt"

// Document is the permissive wire shape of a lesson. Pointer and nil-able
// fields distinguish absent from present-but-empty so validation and
// migration can tell the two apart. It also tolerates the legacy shapes
// MigrateLegacy repairs: a top-level vocabulary list and deprecated
// per-entry annotation fields.
type Document struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Content     string            `json:"content"`
	Metadata    *DocumentMetadata `json:"metadata,omitempty"`

	// LegacyVocabulary captures a top-level "vocabulary" field from old
	// exports. MigrateLegacy moves it under metadata; Validate ignores it.
	LegacyVocabulary []DocumentVocabulary `json:"vocabulary,omitempty"`
}

// DocumentMetadata mirrors the metadata object of the wire contract.
type DocumentMetadata struct {
	Difficulty     string               `json:"difficulty,omitempty"`
	Tags           []string             `json:"tags,omitempty"`
	CharacterCount *int                 `json:"characterCount,omitempty"`
	Source         string               `json:"source,omitempty"`
	Book           *string              `json:"book"`
	Vocabulary     []DocumentVocabulary `json:"vocabulary,omitempty"`
	EstimatedTime  *int                 `json:"estimatedTime,omitempty"`
	CreatedAt      string               `json:"createdAt,omitempty"`
	UpdatedAt      string               `json:"updatedAt,omitempty"`
}

// DocumentVocabulary is one vocabulary entry as found on the wire. Pinyin and
// PartOfSpeech are deprecated persisted fields; non-nil means the document
// carried them (even empty), and Clean strips them with a warning each.
type DocumentVocabulary struct {
	Word         string  `json:"word"`
	Definition   string  `json:"definition"`
	Pinyin       *string `json:"pinyin,omitempty"`
	PartOfSpeech *string `json:"partOfSpeech,omitempty"`
}

// Clean strips deprecated vocabulary fields from the document, emitting one
// warning per stripped field. The input is never mutated; the returned
// document shares no vocabulary backing array with it.
func Clean(doc Document) (Document, []Warning) {
	out := doc
	if doc.Metadata == nil {
		return out, nil
	}

	md := *doc.Metadata
	var warnings []Warning
	if md.Vocabulary != nil {
		vocab := make([]DocumentVocabulary, len(md.Vocabulary))
		copy(vocab, md.Vocabulary)
		for i := range vocab {
			if vocab[i].Pinyin != nil {
				vocab[i].Pinyin = nil
				warnings = append(warnings, Warning{
					Field:   fmt.Sprintf("metadata.vocabulary[%d].pinyin", i),
					Message: "deprecated field removed",
				})
			}
			if vocab[i].PartOfSpeech != nil {
				vocab[i].PartOfSpeech = nil
				warnings = append(warnings, Warning{
					Field:   fmt.Sprintf("metadata.vocabulary[%d].partOfSpeech", i),
					Message: "deprecated field removed",
				})
			}
		}
		md.Vocabulary = vocab
	}
	out.Metadata = &md
	return out, warnings
}
