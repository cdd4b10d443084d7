package schema

import (
	"strings"

	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/textutil"
)

// legacySourceName labels lessons migrated from documents that never
// recorded their origin.
const legacySourceName = "Unknown Source"

// MigrateLegacy upgrades a legacy lesson document to the current schema:
// missing metadata.source, book, vocabulary, and characterCount are
// back-filled, deprecated vocabulary fields are stripped via Clean, and the
// repaired document is validated. Gaps migration cannot repair (a missing
// difficulty, broken timestamps) remain errors in the result.
func MigrateLegacy(data []byte) (lesson.Lesson, ValidationResult) {
	var res ValidationResult
	doc, ok := decodeDocument(data, &res)
	if !ok {
		return lesson.Lesson{}, res.finalize()
	}

	doc = backfillLegacy(doc)
	doc, warnings := Clean(doc)
	res.Warnings = append(res.Warnings, warnings...)

	built := validateDocument(doc, &res)
	return built, res.finalize()
}

func backfillLegacy(doc Document) Document {
	out := doc
	md := DocumentMetadata{}
	if doc.Metadata != nil {
		md = *doc.Metadata
	}

	if strings.TrimSpace(md.Source) == "" {
		md.Source = legacySourceName
	}
	if md.Vocabulary == nil {
		if doc.LegacyVocabulary != nil {
			md.Vocabulary = append([]DocumentVocabulary(nil), doc.LegacyVocabulary...)
		} else {
			md.Vocabulary = []DocumentVocabulary{}
		}
	}
	if md.CharacterCount == nil {
		count := textutil.CountHan(doc.Content)
		md.CharacterCount = &count
	}

	out.Metadata = &md
	out.LegacyVocabulary = nil
	return out
}
