package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/sanitize"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/tools"
)

// BridgeTool adapts one MCP-discovered tool to the registry's Tool interface
// (spec §4.4: tool calls the agent makes are proxied to the owning MCP
// server's CallTool RPC). toolPrefix disambiguates tool names across
// servers that happen to expose the same tool name; OriginalName returns
// the server's own unprefixed name, which is what the allow/deny policy
// lists in config.MCPServerConfig are expressed in terms of.
type BridgeTool struct {
	serverName string
	mcpTool    mcpgo.Tool
	client     *mcpclient.Client
	prefix     string
	timeout    time.Duration
	connected  *atomic.Bool
}

// NewBridgeTool wraps mcpTool, discovered from serverName, as a registry Tool.
func NewBridgeTool(serverName string, mcpTool mcpgo.Tool, client *mcpclient.Client, prefix string, timeoutSec int, connected *atomic.Bool) *BridgeTool {
	if timeoutSec <= 0 {
		timeoutSec = 30
	}
	return &BridgeTool{
		serverName: serverName,
		mcpTool:    mcpTool,
		client:     client,
		prefix:     prefix,
		timeout:    time.Duration(timeoutSec) * time.Second,
		connected:  connected,
	}
}

// Name returns the registry-facing name: toolPrefix + the server's tool
// name, so two servers exposing a same-named tool don't collide.
func (t *BridgeTool) Name() string {
	if t.prefix != "" {
		return t.prefix + t.mcpTool.Name
	}
	return t.mcpTool.Name
}

// OriginalName is the name exactly as the MCP server reports it, used for
// allow/deny matching (config.MCPServerConfig.Allow/Deny) independent of
// whatever prefix this deployment applies.
func (t *BridgeTool) OriginalName() string {
	return t.mcpTool.Name
}

func (t *BridgeTool) Description() string {
	return t.mcpTool.Description
}

// Parameters re-exposes the server's own JSON Schema unchanged, so
// Registry.Register compiles and validates against it exactly as it would
// any local tool's schema.
func (t *BridgeTool) Parameters() map[string]interface{} {
	raw, err := json.Marshal(t.mcpTool.InputSchema)
	if err != nil {
		return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	}
	var params map[string]interface{}
	if err := json.Unmarshal(raw, &params); err != nil || params == nil {
		return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	}
	return params
}

// Execute proxies the call to the owning MCP server (spec §4.4), refusing
// eagerly while the health loop has marked the server down rather than
// letting the RPC hang against a dead connection. The server's text output
// is sanitised (spec §4.7: MCP tool output is an external content source)
// before it reaches the LLM.
func (t *BridgeTool) Execute(ctx context.Context, args map[string]interface{}) *tools.Result {
	if t.connected != nil && !t.connected.Load() {
		return &tools.Result{ForLLM: fmt.Sprintf("mcp server %q is currently unreachable", t.serverName), IsError: true}
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req := mcpgo.CallToolRequest{}
	req.Params.Name = t.mcpTool.Name
	req.Params.Arguments = args

	res, err := t.client.CallTool(ctx, req)
	if err != nil {
		return &tools.Result{ForLLM: fmt.Sprintf("mcp tool %q failed: %v", t.Name(), err), IsError: true}
	}

	text := sanitize.Text(contentToText(res.Content), sanitize.SourceMCPTool, 0)
	return &tools.Result{ForLLM: text, IsError: res.IsError}
}

// contentToText flattens an MCP CallToolResult's content blocks into a
// single string for the LLM. Non-text blocks (images, resources) are
// rendered as their JSON so no content is silently dropped.
func contentToText(blocks []mcpgo.Content) string {
	var parts []string
	for _, block := range blocks {
		if tc, ok := block.(mcpgo.TextContent); ok {
			parts = append(parts, tc.Text)
			continue
		}
		if raw, err := json.Marshal(block); err == nil {
			parts = append(parts, string(raw))
		}
	}
	return strings.Join(parts, "\n")
}

var _ tools.Tool = (*BridgeTool)(nil)
