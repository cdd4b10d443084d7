package pipeline

import (
	"hash/fnv"
	"strconv"
)

// Options selects which stages run for one Prepare call. The zero value
// disables everything except segmentation fallback; use DefaultOptions for
// the full study artifact.
type Options struct {
	SegmentText       bool `json:"segmentText"`
	IncludePinyin     bool `json:"includePinyin"`
	IncludeFlashcards bool `json:"includeFlashcards"`
	IncludeQuizzes    bool `json:"includeQuizzes"`
	CacheResult       bool `json:"cacheResult"`
}

// DefaultOptions enables every stage and caching.
func DefaultOptions() Options {
	return Options{
		SegmentText:       true,
		IncludePinyin:     true,
		IncludeFlashcards: true,
		IncludeQuizzes:    true,
		CacheResult:       true,
	}
}

// Hash returns a stable fingerprint of the option set. The library facade
// keys prepared-lesson cache entries on lesson ID plus this value, so equal
// options must hash identically across processes and releases.
func (o Options) Hash() string {
	h := fnv.New64a()
	for _, flag := range []bool{o.SegmentText, o.IncludePinyin, o.IncludeFlashcards, o.IncludeQuizzes, o.CacheResult} {
		if flag {
			h.Write([]byte{'1'})
		} else {
			h.Write([]byte{'0'})
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
