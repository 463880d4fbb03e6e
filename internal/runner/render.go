package runner

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"
)

var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// RenderResponseText implements spec §4.8.F: wrap JSON payloads (either the
// whole response or fenced ```json blocks within it) in
// <pre data-content-type="..."> markers so the client renderer can tell
// structured output from prose. It never fails — any parse error returns
// the original text untouched.
func RenderResponseText(text string) string {
	if text == "" {
		return text
	}
	if strings.Contains(text, `<pre data-content-type=`) {
		return text
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") && json.Valid([]byte(trimmed)) {
		return wrapJSON(trimmed, "json-raw")
	}

	return codeBlockRe.ReplaceAllStringFunc(text, func(block string) string {
		m := codeBlockRe.FindStringSubmatch(block)
		if m == nil {
			return block
		}
		inner := strings.TrimSpace(m[1])
		if !looksLikeJSON(inner) || !json.Valid([]byte(inner)) {
			return block
		}
		return wrapJSON(formatJSON(inner), "json-formatted")
	})
}

func looksLikeJSON(s string) bool {
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}

func formatJSON(s string) string {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return s
	}
	return string(out)
}

func wrapJSON(content, kind string) string {
	return `<pre data-content-type="` + kind + `" class="content-` + kind + `">` + html.EscapeString(content) + `</pre>`
}
