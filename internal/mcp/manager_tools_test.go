package mcp

import (
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/tools"
)

// newTestManagerWithTools builds a Manager whose registry already has
// bridgeNames tools registered under a single fake server, bypassing the
// real connect flow (which needs a live MCP transport).
func newTestManagerWithTools(t *testing.T, serverName string, bridgeNames []string) *Manager {
	t.Helper()
	reg := tools.NewRegistry()
	m := NewManager(reg)

	var registered []string
	for _, name := range bridgeNames {
		bt := NewBridgeTool(serverName, mcpgo.Tool{Name: name}, nil, "", 30, nil)
		reg.Register(bt)
		registered = append(registered, bt.Name())
	}
	m.servers[serverName] = &serverState{name: serverName, toolNames: registered}
	tools.RegisterToolGroup("mcp:"+serverName, registered)
	tools.RegisterToolGroup("mcp", registered)
	return m
}

func TestFilterTools_DenyTakesPriorityOverAllow(t *testing.T) {
	m := newTestManagerWithTools(t, "srv", []string{"search", "fetch", "delete_all"})

	m.filterTools("srv", []string{"search", "fetch", "delete_all"}, []string{"delete_all"})

	if _, ok := m.registry.Get("delete_all"); ok {
		t.Error("delete_all should have been unregistered (denied)")
	}
	if _, ok := m.registry.Get("search"); !ok {
		t.Error("search should remain registered (allowed, not denied)")
	}
	if _, ok := m.registry.Get("fetch"); !ok {
		t.Error("fetch should remain registered (allowed, not denied)")
	}
}

func TestFilterTools_AllowListDropsUnlistedTools(t *testing.T) {
	m := newTestManagerWithTools(t, "srv", []string{"search", "fetch"})

	m.filterTools("srv", []string{"search"}, nil)

	if _, ok := m.registry.Get("search"); !ok {
		t.Error("search should remain registered")
	}
	if _, ok := m.registry.Get("fetch"); ok {
		t.Error("fetch should have been unregistered (not in allow list)")
	}
}

func TestFilterTools_EmptyAllowDenyKeepsEverything(t *testing.T) {
	m := newTestManagerWithTools(t, "srv", []string{"search", "fetch"})

	m.filterTools("srv", nil, nil)

	if _, ok := m.registry.Get("search"); !ok {
		t.Error("search should remain registered")
	}
	if _, ok := m.registry.Get("fetch"); !ok {
		t.Error("fetch should remain registered")
	}
}

func TestUnregisterAllTools_ClearsRegistryAndServerState(t *testing.T) {
	m := newTestManagerWithTools(t, "srv", []string{"search", "fetch"})

	m.unregisterAllTools()

	if _, ok := m.registry.Get("search"); ok {
		t.Error("search should be unregistered after Stop")
	}
	if len(m.servers) != 0 {
		t.Errorf("servers map should be empty after unregisterAllTools, got %d entries", len(m.servers))
	}
}

func TestManagerStop_UnregistersTools(t *testing.T) {
	m := newTestManagerWithTools(t, "srv", []string{"search"})
	m.Stop()

	if _, ok := m.registry.Get("search"); ok {
		t.Error("Stop() should unregister all MCP tools")
	}
}
