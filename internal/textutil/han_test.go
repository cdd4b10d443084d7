package textutil

import (
	"reflect"
	"testing"
)

func TestIsHanBoundaries(t *testing.T) {
	tests := []struct {
		name string
		r    rune
		want bool
	}{
		{"below range", 0x4DFF, false},
		{"range start", 0x4E00, true},
		{"common ideograph", '好', true},
		{"range end", 0x9FFF, true},
		{"above range", 0xA000, false},
		{"latin letter", 'a', false},
		{"cjk punctuation", '。', false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHan(tt.r); got != tt.want {
				t.Errorf("IsHan(%q) = %v, want %v", tt.r, got, tt.want)
			}
		})
	}
}

func TestCountHan(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"latin only", "hello world", 0},
		{"pure han", "你好世界", 4},
		{"mixed with punctuation", "你好！我是李明。", 6},
		{"han among latin", "学习 pinyin 很有趣", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountHan(tt.text); got != tt.want {
				t.Errorf("CountHan(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestContainsHan(t *testing.T) {
	if ContainsHan("plain ascii") {
		t.Error("ContainsHan(ascii) = true, want false")
	}
	if !ContainsHan("lesson: 你好") {
		t.Error("ContainsHan(mixed) = false, want true")
	}
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"single sentence keeps terminator", "你好！", []string{"你好！"}},
		{"multiple terminators", "你好！我是李明。你呢？", []string{"你好！", "我是李明。", "你呢？"}},
		{"newline splits without terminator", "第一行\n第二行", []string{"第一行", "第二行"}},
		{"ascii terminators", "Hello. How are you?", []string{"Hello.", "How are you?"}},
		{"commas do not split", "我喜欢茶，也喜欢咖啡。", []string{"我喜欢茶，也喜欢咖啡。"}},
		{"whitespace only dropped", "   \n  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitSentences(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestSplitPhrases(t *testing.T) {
	got := SplitPhrases("我喜欢茶，也喜欢咖啡。")
	want := []string{"我喜欢茶，", "也喜欢咖啡。"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitPhrases() = %q, want %q", got, want)
	}
}

func TestSplitCharacters(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"per ideograph", "你好", []string{"你", "好"}},
		{"latin runs stay grouped", "我学Go语言", []string{"我", "学", "Go", "语", "言"}},
		{"punctuation dropped", "你好！再见。", []string{"你", "好", "再", "见"}},
		{"digits grouped", "第3课", []string{"第", "3", "课"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitCharacters(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitCharacters(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
