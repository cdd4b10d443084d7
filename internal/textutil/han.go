package textutil

import (
	"strings"
	"unicode"
)

const (
	hanRangeLo = 0x4E00
	hanRangeHi = 0x9FFF
)

// IsHan reports whether the rune falls in the CJK Unified Ideographs block
// (U+4E00–U+9FFF). Extension blocks are intentionally excluded: lesson
// character counts follow the same range the authoring tools use.
func IsHan(r rune) bool {
	return r >= hanRangeLo && r <= hanRangeHi
}

// CountHan returns the number of CJK Unified Ideograph codepoints in s.
func CountHan(s string) int {
	count := 0
	for _, r := range s {
		if IsHan(r) {
			count++
		}
	}
	return count
}

// ContainsHan reports whether s contains at least one CJK ideograph.
func ContainsHan(s string) bool {
	for _, r := range s {
		if IsHan(r) {
			return true
		}
	}
	return false
}

// sentence terminators: CJK full stops and their ASCII equivalents.
var sentenceEnders = map[rune]struct{}{
	'。': {}, '！': {}, '？': {}, '…': {},
	'.': {}, '!': {}, '?': {},
}

// phrase breaks: everything that ends a sentence plus clause punctuation.
var phraseBreakers = map[rune]struct{}{
	'。': {}, '！': {}, '？': {}, '…': {},
	'.': {}, '!': {}, '?': {},
	'，': {}, '、': {}, '；': {}, '：': {},
	',': {}, ';': {}, ':': {},
}

// SplitSentences splits text on CJK and ASCII sentence terminators and
// newlines. Terminators stay attached to the sentence they close. Empty and
// whitespace-only fragments are dropped.
func SplitSentences(text string) []string {
	return splitOn(text, sentenceEnders)
}

// SplitPhrases splits text on sentence terminators plus clause punctuation
// (commas, enumeration commas, semicolons, colons).
func SplitPhrases(text string) []string {
	return splitOn(text, phraseBreakers)
}

// SplitCharacters splits text into per-ideograph units for character-level
// study. Each Han rune becomes its own element; contiguous runs of other
// letters and digits stay grouped as words. Whitespace and punctuation are
// dropped.
func SplitCharacters(text string) []string {
	var out []string
	var run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			out = append(out, run.String())
			run.Reset()
		}
	}
	for _, r := range text {
		switch {
		case IsHan(r):
			flush()
			out = append(out, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			run.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return out
}

func splitOn(text string, breakers map[rune]struct{}) []string {
	var out []string
	var current strings.Builder
	flush := func() {
		if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
			out = append(out, trimmed)
		}
		current.Reset()
	}
	for _, r := range text {
		if r == '\n' || r == '\r' {
			flush()
			continue
		}
		current.WriteRune(r)
		if _, ok := breakers[r]; ok {
			flush()
		}
	}
	flush()
	return out
}
