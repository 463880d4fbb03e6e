package tools

import (
	"context"
	"time"
)

// CurrentTimeTool is a trivial, side-effect-free tool (spec §4.3) used both
// as a genuine capability (agents routinely need "what time is it") and as
// a sanity-check tool for new MCP server wiring: if current_time still
// round-trips through the registry after a config change, the dispatch path
// is intact.
type CurrentTimeTool struct{}

func NewCurrentTimeTool() *CurrentTimeTool { return &CurrentTimeTool{} }

func (t *CurrentTimeTool) Name() string { return "current_time" }

func (t *CurrentTimeTool) Description() string {
	return "Returns the current date and time in UTC, RFC3339 format."
}

func (t *CurrentTimeTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *CurrentTimeTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	return &Result{ForLLM: time.Now().UTC().Format(time.RFC3339)}
}

var _ Tool = (*CurrentTimeTool)(nil)
