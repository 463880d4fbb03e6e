// Package sanitize hardens content entering the pipeline from outside the
// process: scheduler prompts, reminder messages, memory search results, and
// MCP tool outputs (spec §4.7). It never raises — callers get back a string,
// always.
package sanitize

import (
	"strings"
)

// Source tags where a piece of content originated, so every call site is
// forced to name it (P3 depends on every external source being sanitised).
type Source string

const (
	SourceScheduler Source = "scheduler"
	SourceReminder  Source = "reminder"
	SourceMemory    Source = "memory"
	SourceMCPTool   Source = "mcp-tool"
)

// DefaultMaxLength is the length budget applied when callers don't override it.
const DefaultMaxLength = 16384

// Text removes control characters (except tab and newline) and caps length
// to maxLength. A maxLength <= 0 means DefaultMaxLength. This is
// defence-in-depth against prompt-injected control sequences, not HTML
// sanitisation — callers needing that do it themselves.
func Text(s string, source Source, maxLength int) string {
	_ = source // recorded by callers/observability, not used to vary behavior
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\t' || r == '\n' {
			b.WriteRune(r)
			continue
		}
		if r == '\r' {
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}

	out := b.String()
	if len(out) > maxLength {
		out = truncateRunes(out, maxLength)
	}
	return out
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
