package gateway

import (
	"testing"

	"github.com/nextlevelbuilder/goclaw-orchestrator/pkg/protocol"
)

func TestConnectionManager_RegisterFirstConnect(t *testing.T) {
	m := NewConnectionManager()

	var fired []string
	m.SetOnFirstConnect(func(sessionID string) { fired = append(fired, sessionID) })

	c1 := &Client{id: "c1"}
	c2 := &Client{id: "c2"}

	if first := m.Register("sess-1", c1); !first {
		t.Error("first Register should report first=true")
	}
	if first := m.Register("sess-1", c2); first {
		t.Error("second Register on same session should report first=false")
	}

	if len(fired) != 1 || fired[0] != "sess-1" {
		t.Errorf("onFirstConnect fired = %v, want [sess-1] once", fired)
	}
}

func TestConnectionManager_UnregisterRemovesEmptySession(t *testing.T) {
	m := NewConnectionManager()
	c := &Client{id: "c1"}

	m.Register("sess-1", c)
	if !m.HasConnections() {
		t.Fatal("expected HasConnections() true after Register")
	}

	m.Unregister("sess-1", c)
	if m.HasConnections() {
		t.Error("expected HasConnections() false after last client unregisters")
	}
	if _, ok := m.GetAnySessionID(); ok {
		t.Error("GetAnySessionID() should report no sessions left")
	}
}

func TestConnectionManager_BroadcastToAllCountsAllClients(t *testing.T) {
	m := NewConnectionManager()
	m.Register("sess-1", &Client{id: "a"})
	m.Register("sess-1", &Client{id: "b"})
	m.Register("sess-2", &Client{id: "c"})

	sent := m.BroadcastToAll(protocol.EventFrame{Type: "chat"})
	if sent != 3 {
		t.Errorf("BroadcastToAll() sent = %d, want 3", sent)
	}
}

func TestConnectionManager_GetAnySessionID(t *testing.T) {
	m := NewConnectionManager()
	if _, ok := m.GetAnySessionID(); ok {
		t.Fatal("expected no session id when empty")
	}

	m.Register("sess-1", &Client{id: "a"})
	id, ok := m.GetAnySessionID()
	if !ok || id != "sess-1" {
		t.Errorf("GetAnySessionID() = %q, %v, want sess-1, true", id, ok)
	}
}
