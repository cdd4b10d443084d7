package textutil

import (
	"strings"

	"golang.org/x/text/width"
)

// NormalizeForSearch prepares text for substring matching: full-width Latin
// letters and digits are folded to their narrow forms (ＰＩＮＹＩＮ → PINYIN),
// then everything is lowercased. Han codepoints pass through unchanged so CJK
// queries match on the raw codepoint sequence.
func NormalizeForSearch(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToLower(width.Fold.String(s))
}

// ContainsNormalized reports whether needle occurs in haystack after both are
// normalized for search. An empty needle matches everything.
func ContainsNormalized(haystack, needle string) bool {
	needle = NormalizeForSearch(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	return strings.Contains(NormalizeForSearch(haystack), needle)
}
