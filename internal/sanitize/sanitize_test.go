package sanitize

import (
	"strings"
	"testing"
)

func TestText_StripsControlCharsKeepsTabNewline(t *testing.T) {
	in := "hello\x00\x01world\ttab\nline\x07bell"
	got := Text(in, SourceScheduler, 0)
	want := "helloworld\ttab\nlinebell"
	if got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestText_CapsLength(t *testing.T) {
	in := strings.Repeat("a", 100)
	got := Text(in, SourceReminder, 10)
	if len(got) != 10 {
		t.Errorf("len(got) = %d, want 10", len(got))
	}
}

func TestText_NeverPanicsOnMultibyte(t *testing.T) {
	in := strings.Repeat("é", 50) // 2 bytes per rune
	got := Text(in, SourceMCPTool, 11)
	if len(got) > 11 {
		t.Errorf("len(got) = %d, exceeds cap", len(got))
	}
	if !strings.HasPrefix(in, got) {
		t.Errorf("truncation split a rune: %q", got)
	}
}

func TestText_EmptyInput(t *testing.T) {
	if got := Text("", SourceMemory, 100); got != "" {
		t.Errorf("Text(\"\") = %q, want empty", got)
	}
}
