package pipeline

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
)

// dedupeVocabulary trims entries and drops blanks and repeated words, keeping
// the first-seen definition. Every stage consumes this view so highlights,
// cards, and quiz answers agree on the same entry set.
func dedupeVocabulary(vocab []lesson.VocabularyEntry) []lesson.VocabularyEntry {
	if len(vocab) == 0 {
		return nil
	}
	out := make([]lesson.VocabularyEntry, 0, len(vocab))
	seen := make(map[string]struct{}, len(vocab))
	for _, entry := range vocab {
		word := strings.TrimSpace(entry.Word)
		if word == "" {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, lesson.VocabularyEntry{
			Word:       word,
			Definition: strings.TrimSpace(entry.Definition),
		})
	}
	return out
}

// mapVocabulary records every occurrence of each vocabulary word inside each
// segment as rune-offset highlights.
func mapVocabulary(segments []Segment, vocab []lesson.VocabularyEntry) {
	if len(segments) == 0 || len(vocab) == 0 {
		return
	}
	for i := range segments {
		segments[i].Vocabulary = findVocabulary(segments[i].Text, vocab)
	}
}

func findVocabulary(text string, vocab []lesson.VocabularyEntry) []VocabularyRef {
	var refs []VocabularyRef
	for _, entry := range vocab {
		for offset := 0; ; {
			idx := strings.Index(text[offset:], entry.Word)
			if idx < 0 {
				break
			}
			begin := offset + idx
			start := utf8.RuneCountInString(text[:begin])
			refs = append(refs, VocabularyRef{
				Word:       entry.Word,
				Definition: entry.Definition,
				Start:      start,
				End:        start + utf8.RuneCountInString(entry.Word),
			})
			offset = begin + len(entry.Word)
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Start != refs[j].Start {
			return refs[i].Start < refs[j].Start
		}
		return refs[i].End > refs[j].End
	})
	return refs
}
