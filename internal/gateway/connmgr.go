package gateway

import (
	"sync"

	"github.com/nextlevelbuilder/goclaw-orchestrator/pkg/protocol"
)

// ConnectionManager is the Connection Manager (spec §4.9): a registry of
// live WebSocket connections keyed by session id. Generalised from the
// teacher's single global client map (internal/gateway/server.go's
// `clients map[string]*Client`) to a session_id -> set[*Client] registry,
// since one session can have more than one live socket (multiple browser
// tabs, a CLI and a web client on the same session) and the Scheduler
// Engine needs to address a specific session rather than broadcast blind.
type ConnectionManager struct {
	mu       sync.RWMutex
	sessions map[string]map[*Client]struct{}

	// onFirstConnect fires once a session transitions from zero to one
	// live connection, so the Scheduler Engine can replay queued reminders
	// and pending scheduled-task results (spec §4.9 "on the first
	// registration ... deliver any queued reminders").
	onFirstConnect func(sessionID string)
}

// NewConnectionManager returns an empty Connection Manager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{sessions: make(map[string]map[*Client]struct{})}
}

// SetOnFirstConnect installs the replay hook. Must be called before any
// client registers; the scheduler wires this once during process bootstrap.
func (m *ConnectionManager) SetOnFirstConnect(fn func(sessionID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFirstConnect = fn
}

// Register adds a client to a session's connection set. Returns true if
// this was the session's first live connection.
func (m *ConnectionManager) Register(sessionID string, c *Client) bool {
	m.mu.Lock()
	set, ok := m.sessions[sessionID]
	if !ok {
		set = make(map[*Client]struct{})
		m.sessions[sessionID] = set
	}
	first := len(set) == 0
	set[c] = struct{}{}
	hook := m.onFirstConnect
	m.mu.Unlock()

	if first && hook != nil {
		hook(sessionID)
	}
	return first
}

// Unregister removes a client from a session's connection set.
func (m *ConnectionManager) Unregister(sessionID string, c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(m.sessions, sessionID)
	}
}

// BroadcastToSession delivers frame to every socket registered for
// sessionID, best-effort (a slow or dead client is skipped, never blocks
// the others).
func (m *ConnectionManager) BroadcastToSession(sessionID string, frame protocol.EventFrame) {
	m.mu.RLock()
	clients := make([]*Client, 0, len(m.sessions[sessionID]))
	for c := range m.sessions[sessionID] {
		clients = append(clients, c)
	}
	m.mu.RUnlock()

	for _, c := range clients {
		c.SendEvent(frame)
	}
}

// BroadcastToAll delivers frame to every socket in every session and
// returns the count of sends attempted.
func (m *ConnectionManager) BroadcastToAll(frame protocol.EventFrame) int {
	m.mu.RLock()
	var clients []*Client
	for _, set := range m.sessions {
		for c := range set {
			clients = append(clients, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range clients {
		c.SendEvent(frame)
	}
	return len(clients)
}

// HasConnections reports whether any session has at least one live socket.
func (m *ConnectionManager) HasConnections() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, set := range m.sessions {
		if len(set) > 0 {
			return true
		}
	}
	return false
}

// GetAnySessionID returns an arbitrary session id with a live connection,
// used by the Scheduler Engine to pick an output target for a fired task
// (spec §4.10 step 2). The second return is false if nothing is connected.
func (m *ConnectionManager) GetAnySessionID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id, set := range m.sessions {
		if len(set) > 0 {
			return id, true
		}
	}
	return "", false
}
