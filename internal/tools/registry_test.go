package tools

import (
	"context"
	"testing"
)

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "echoes args back" }
func (echoTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":                 "object",
		"properties":           map[string]interface{}{"msg": map[string]interface{}{"type": "string"}},
		"required":             []interface{}{"msg"},
		"additionalProperties": false,
	}
}
func (echoTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	return &Result{ForLLM: args["msg"].(string)}
}

func TestRegistry_RegisterGetList(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool{})

	tool, ok := r.Get("echo")
	if !ok || tool.Name() != "echo" {
		t.Fatalf("Get(echo) = %v, %v", tool, ok)
	}

	names := r.List()
	if len(names) != 1 || names[0] != "echo" {
		t.Fatalf("List() = %v, want [echo]", names)
	}

	r.Unregister("echo")
	if _, ok := r.Get("echo"); ok {
		t.Fatalf("Get(echo) after Unregister still found")
	}
}

func TestRegistry_ExecuteWithContext_ValidArgs(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool{})

	res := r.ExecuteWithContext(context.Background(), "echo", map[string]interface{}{"msg": "hi"}, "", "", "", "", nil)
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res)
	}
	if res.ForLLM != "hi" {
		t.Errorf("ForLLM = %q, want %q", res.ForLLM, "hi")
	}
}

func TestRegistry_ExecuteWithContext_RejectsSchemaMismatch(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool{})

	// missing required "msg" field
	res := r.ExecuteWithContext(context.Background(), "echo", map[string]interface{}{}, "", "", "", "", nil)
	if !res.IsError {
		t.Fatalf("expected error result for missing required field, got %+v", res)
	}
}

func TestRegistry_ExecuteWithContext_RejectsAdditionalProperties(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool{})

	res := r.ExecuteWithContext(context.Background(), "echo", map[string]interface{}{"msg": "hi", "extra": 1}, "", "", "", "", nil)
	if !res.IsError {
		t.Fatalf("expected error result for additional property, got %+v", res)
	}
}

func TestRegistry_ExecuteWithContext_UnknownTool(t *testing.T) {
	r := NewRegistry()
	res := r.ExecuteWithContext(context.Background(), "nope", nil, "", "", "", "", nil)
	if !res.IsError {
		t.Fatalf("expected error result for unknown tool, got %+v", res)
	}
}

func TestRegistry_ExecuteWithContext_ThreadsCallContext(t *testing.T) {
	r := NewRegistry()
	var seen CallContext
	r.Register(funcTool{
		name: "ctxcheck",
		fn: func(ctx context.Context, args map[string]interface{}) *Result {
			seen, _ = ToolCallFromContext(ctx)
			return &Result{ForLLM: "ok"}
		},
	})

	r.ExecuteWithContext(context.Background(), "ctxcheck", map[string]interface{}{}, "web", "chat-1", "direct", "sess-1", nil)

	if seen.Channel != "web" || seen.ChatID != "chat-1" || seen.PeerKind != "direct" || seen.SessionKey != "sess-1" {
		t.Errorf("CallContext not threaded through: %+v", seen)
	}
}

func TestRegistry_ProviderDefs(t *testing.T) {
	r := NewRegistry()
	r.Register(echoTool{})

	defs := r.ProviderDefs()
	if len(defs) != 1 || defs[0].Function.Name != "echo" {
		t.Fatalf("ProviderDefs() = %+v", defs)
	}
}

type funcTool struct {
	name string
	fn   func(ctx context.Context, args map[string]interface{}) *Result
}

func (f funcTool) Name() string        { return f.name }
func (f funcTool) Description() string { return "" }
func (f funcTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
}
func (f funcTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	return f.fn(ctx, args)
}
