package tools

import (
	"context"
	"strings"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/memory"
)

// MemorySearchTool wraps the Memory Service as an agent-callable tool (spec
// §4.3: one of the two representative local tools exercising the registry
// end to end).
type MemorySearchTool struct {
	mem *memory.Service
}

func NewMemorySearchTool(mem *memory.Service) *MemorySearchTool {
	return &MemorySearchTool{mem: mem}
}

func (t *MemorySearchTool) Name() string { return "memory_search" }

func (t *MemorySearchTool) Description() string {
	return "Search the user's stored memories for relevant context. Returns the most relevant snippets, most relevant first."
}

func (t *MemorySearchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "What to search for",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of results (default 5)",
				"minimum":     1,
				"maximum":     20,
			},
		},
		"required": []string{"query"},
	}
}

func (t *MemorySearchTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	if t.mem == nil {
		return &Result{ForLLM: "memory is not enabled for this agent", IsError: true}
	}

	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return &Result{ForLLM: "query is required", IsError: true}
	}

	limit := 5
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	cc, _ := ToolCallFromContext(ctx)
	results := t.mem.Search(ctx, cc.SessionKey, query, limit, memory.SearchFilter{})
	if len(results) == 0 {
		return &Result{ForLLM: "no matching memories found"}
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(r)
	}
	return &Result{ForLLM: b.String()}
}

var _ Tool = (*MemorySearchTool)(nil)
