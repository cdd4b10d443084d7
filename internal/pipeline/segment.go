package pipeline

import (
	"strings"

	"github.com/mpklu/pinyinMate-sub004/internal/textutil"
)

const segmentModeNone = "none"

// buildSegments splits content by the configured strategy. With segmentation
// disabled the whole trimmed content becomes a single segment so downstream
// stages still have a unit to work with.
func buildSegments(content, mode string, segment bool) []Segment {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}
	var parts []string
	if !segment {
		parts = []string{trimmed}
	} else {
		switch mode {
		case "phrase":
			parts = textutil.SplitPhrases(trimmed)
		case "character":
			parts = textutil.SplitCharacters(trimmed)
		default:
			parts = textutil.SplitSentences(trimmed)
		}
	}
	segments := make([]Segment, 0, len(parts))
	for i, part := range parts {
		segments = append(segments, Segment{Index: i, Text: part})
	}
	return segments
}
