package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/providers"
)

// Tool is a single named capability the agent can invoke mid-turn.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{} // JSON Schema object
	Execute(ctx context.Context, args map[string]interface{}) *Result
}

// Registry is the process-wide set of tools available to FilterTools.
// MCP-backed tools register and unregister here as their server connects
// and disconnects (internal/mcp.Manager). Each tool's Parameters() schema
// is compiled once at registration time (spec §4.3) so ExecuteWithContext
// never has to pay the compile cost per call.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
}

func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*jsonschema.Schema),
	}
}

func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
	delete(r.schemas, t.Name())

	raw, err := json.Marshal(t.Parameters())
	if err != nil {
		slog.Warn("tool schema marshal failed", "tool", t.Name(), "error", err)
		return
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		slog.Warn("tool schema decode failed", "tool", t.Name(), "error", err)
		return
	}
	compiler := jsonschema.NewCompiler()
	resourceName := "tool:" + t.Name()
	if err := compiler.AddResource(resourceName, decoded); err != nil {
		slog.Warn("tool schema add resource failed", "tool", t.Name(), "error", err)
		return
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		slog.Warn("tool schema compile failed", "tool", t.Name(), "error", err)
		return
	}
	r.schemas[t.Name()] = schema
}

func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
	delete(r.schemas, name)
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns every registered tool name.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// ToProviderDef converts a Tool into the JSON-schema shape the LLM call
// expects (spec §4.3: tool registry entries surface as provider function
// tools).
func ToProviderDef(t Tool) providers.ToolDefinition {
	return providers.ToolDefinition{
		Type: "function",
		Function: providers.ToolFunctionSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		},
	}
}

// ProviderDefs converts every registered tool to the provider function-tool
// shape, unfiltered. Used when no PolicyEngine is configured for the agent.
func (r *Registry) ProviderDefs() []providers.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]providers.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, ToProviderDef(t))
	}
	return defs
}

// ExecuteWithContext validates args against the tool's compiled JSON Schema
// before dispatching (spec §4.3): a mismatch returns an error Result rather
// than invoking the handler or panicking. channel/chatID/peerKind/sessionKey
// are threaded onto ctx as CallContext for tools that need per-call routing
// metadata; media is accepted for call-site compatibility with the agent
// loop's multi-channel heritage but is currently always nil (media
// attachments are out of this deployment's scope).
func (r *Registry) ExecuteWithContext(ctx context.Context, name string, args map[string]interface{}, channel, chatID, peerKind, sessionKey string, media interface{}) *Result {
	r.mu.RLock()
	t, ok := r.tools[name]
	schema := r.schemas[name]
	r.mu.RUnlock()

	if !ok {
		return &Result{ForLLM: fmt.Sprintf("unknown tool: %s", name), IsError: true}
	}

	if schema != nil {
		if raw, err := json.Marshal(args); err == nil {
			var decoded any
			if err := json.Unmarshal(raw, &decoded); err == nil {
				if verr := schema.Validate(decoded); verr != nil {
					return &Result{ForLLM: fmt.Sprintf("invalid arguments for %s: %v", name, verr), IsError: true}
				}
			}
		}
	}

	ctx = WithToolCall(ctx, CallContext{Channel: channel, ChatID: chatID, PeerKind: peerKind, SessionKey: sessionKey})
	return t.Execute(ctx, args)
}

type ctxKey int

const (
	toolWorkspaceKey ctxKey = iota
	toolCallKey
)

// WithToolWorkspace scopes filesystem-touching tools (read_file, write_file,
// exec) to a per-user subdirectory of the agent's workspace.
func WithToolWorkspace(ctx context.Context, workspace string) context.Context {
	return context.WithValue(ctx, toolWorkspaceKey, workspace)
}

func ToolWorkspaceFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(toolWorkspaceKey).(string)
	return v, ok
}

// CallContext carries per-invocation routing metadata tools can read via
// ToolCallFromContext rather than widening the Tool interface's Execute
// signature for every implementation.
type CallContext struct {
	Channel    string
	ChatID     string
	PeerKind   string
	SessionKey string
}

func WithToolCall(ctx context.Context, cc CallContext) context.Context {
	return context.WithValue(ctx, toolCallKey, cc)
}

func ToolCallFromContext(ctx context.Context) (CallContext, bool) {
	v, ok := ctx.Value(toolCallKey).(CallContext)
	return v, ok
}
