package mcp

import (
	"context"
	"sync/atomic"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

func TestBridgeTool_NameUsesPrefixOriginalNameDoesNot(t *testing.T) {
	bt := NewBridgeTool("srv1", mcpgo.Tool{Name: "search"}, nil, "srv1__", 30, nil)
	if got := bt.Name(); got != "srv1__search" {
		t.Errorf("Name() = %q, want %q", got, "srv1__search")
	}
	if got := bt.OriginalName(); got != "search" {
		t.Errorf("OriginalName() = %q, want %q", got, "search")
	}
}

func TestBridgeTool_NameWithoutPrefix(t *testing.T) {
	bt := NewBridgeTool("srv1", mcpgo.Tool{Name: "search"}, nil, "", 30, nil)
	if got := bt.Name(); got != "search" {
		t.Errorf("Name() = %q, want %q", got, "search")
	}
}

func TestBridgeTool_ParametersRoundTripsInputSchema(t *testing.T) {
	tool := mcpgo.Tool{
		Name: "lookup",
		InputSchema: mcpgo.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"query": map[string]interface{}{"type": "string"}},
			Required:   []string{"query"},
		},
	}
	bt := NewBridgeTool("srv1", tool, nil, "", 30, nil)
	params := bt.Parameters()
	if params["type"] != "object" {
		t.Errorf("Parameters()[type] = %v, want object", params["type"])
	}
	props, ok := params["properties"].(map[string]interface{})
	if !ok || props["query"] == nil {
		t.Errorf("Parameters()[properties] missing query: %v", params["properties"])
	}
}

func TestBridgeTool_ExecuteRefusesWhenDisconnected(t *testing.T) {
	var connected atomic.Bool
	connected.Store(false)

	bt := NewBridgeTool("srv1", mcpgo.Tool{Name: "search"}, nil, "", 30, &connected)
	res := bt.Execute(context.Background(), map[string]interface{}{"q": "hi"})
	if !res.IsError {
		t.Error("Execute() on a disconnected server should return IsError=true")
	}
	if res.ForLLM == "" {
		t.Error("Execute() should explain why it refused")
	}
}

func TestContentToText_FlattensTextBlocksAndPreservesOthersAsJSON(t *testing.T) {
	blocks := []mcpgo.Content{
		mcpgo.TextContent{Type: "text", Text: "first"},
		mcpgo.TextContent{Type: "text", Text: "second"},
	}
	got := contentToText(blocks)
	want := "first\nsecond"
	if got != want {
		t.Errorf("contentToText() = %q, want %q", got, want)
	}
}

func TestContentToText_EmptyBlocksYieldsEmptyString(t *testing.T) {
	if got := contentToText(nil); got != "" {
		t.Errorf("contentToText(nil) = %q, want empty", got)
	}
}
