package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"

	gopinyin "github.com/mozillazg/go-pinyin"

	"github.com/mpklu/pinyinMate-sub004/internal/textutil"
)

// annotator romanizes Han text. Build with newAnnotator so the output style
// matches configuration.
type annotator struct {
	args gopinyin.Args
}

func newAnnotator(toneMarks bool) annotator {
	args := gopinyin.NewArgs()
	if toneMarks {
		args.Style = gopinyin.Tone
	} else {
		args.Style = gopinyin.Tone3
	}
	return annotator{args: args}
}

// Annotate romanizes the Han runes of text, joining syllables with single
// spaces and carrying other runs through unchanged. Runs that open with
// punctuation attach to the preceding syllable, so "你好！" becomes "nǐ hǎo！"
// rather than leaving the terminator stranded.
func (a annotator) Annotate(text string) string {
	var parts []string
	var run strings.Builder
	flushRun := func() {
		parts = appendAnnotatedRun(parts, run.String())
		run.Reset()
	}
	for _, r := range text {
		if textutil.IsHan(r) {
			flushRun()
			for _, readings := range gopinyin.Pinyin(string(r), a.args) {
				if len(readings) > 0 {
					parts = append(parts, readings[0])
				}
			}
			continue
		}
		run.WriteRune(r)
	}
	flushRun()
	return strings.Join(parts, " ")
}

func appendAnnotatedRun(parts []string, run string) []string {
	run = strings.TrimSpace(run)
	if run == "" {
		return parts
	}
	first, _ := utf8.DecodeRuneInString(run)
	if len(parts) > 0 && (unicode.IsPunct(first) || unicode.IsSymbol(first)) {
		parts[len(parts)-1] += run
		return parts
	}
	return append(parts, run)
}
