package agent

import (
	"regexp"
)

// injectionPatterns are heuristics for detecting prompt-injection attempts
// embedded in user-supplied text (spec §4.7 sanitisation boundary: this
// guards the inbound side, sanitize.Text guards the outbound side).
var injectionPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"ignore_instructions", regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions`)},
	{"system_prompt_override", regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an)\s+`)},
	{"reveal_system_prompt", regexp.MustCompile(`(?i)(reveal|print|show|repeat)\s+(your\s+)?(system\s+prompt|instructions)`)},
	{"role_injection", regexp.MustCompile(`(?i)\[?(system|assistant)\]?\s*:\s*`)},
	{"tool_call_forgery", regexp.MustCompile(`(?i)<tool_use>|<tool_call>`)},
}

// InputGuard scans inbound user messages for prompt-injection heuristics.
type InputGuard struct {
	patterns []struct {
		name string
		re   *regexp.Regexp
	}
}

// NewInputGuard returns an InputGuard using the default pattern set.
func NewInputGuard() *InputGuard {
	return &InputGuard{patterns: injectionPatterns}
}

// Scan returns the names of every pattern that matched s.
func (g *InputGuard) Scan(s string) []string {
	if g == nil || s == "" {
		return nil
	}
	var matches []string
	for _, p := range g.patterns {
		if p.re.MatchString(s) {
			matches = append(matches, p.name)
		}
	}
	return matches
}
