package collect

import "strings"

// Transcript 是单轮的追加式文本缓冲区，不重排、不去重。
type Transcript struct {
	fragments []string
}

func (t *Transcript) Append(fragment string) {
	t.fragments = append(t.fragments, fragment)
}

func (t *Transcript) String() string {
	return strings.Join(t.fragments, "")
}

func (t *Transcript) Fragments() []string {
	out := make([]string, len(t.fragments))
	copy(out, t.fragments)
	return out
}

func (t *Transcript) Len() int {
	return len(t.fragments)
}

// Preview 按 rune 截断文本，供展示用；超出部分以 "..." 结尾。
func Preview(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
