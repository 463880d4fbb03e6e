// Package sessions holds the Agent Runtime Adapter's in-memory working set
// (spec §4.6: "get_or_create_session(...) → session handle with an
// append-only event list") plus the small set of synthetic session-ID
// helpers the Scheduler and webhook paths use. This is distinct from
// internal/store, which is the durable chat_sessions/chat_messages layer the
// Session Runner persists to at the end of each turn (spec §4.8.B.5) — this
// package never touches a database or the filesystem.
package sessions

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/providers"
)

// Session is the live, in-process conversation state the agent loop reads
// and writes on every turn, adapted from the teacher's file-backed session
// cache down to a pure in-memory working set (durability is the Session
// Runner's job now, not this package's).
type Session struct {
	Key      string
	Messages []providers.Message
	Summary  string
	Created  time.Time
	Updated  time.Time

	AgentID uuid.UUID
	UserID  string

	Model    string
	Provider string
	Channel  string

	InputTokens  int64
	OutputTokens int64

	CompactionCount            int
	MemoryFlushCompactionCount int
	MemoryFlushAt              int64

	ContextWindow    int
	LastPromptTokens int
	LastMessageCount int
}

// Manager is the Agent Runtime Adapter's session registry, keyed by the
// Session Runner's session_id (as a string).
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

func (m *Manager) getOrCreateLocked(key string) *Session {
	s, ok := m.sessions[key]
	if !ok {
		s = &Session{Key: key, Created: time.Now(), Updated: time.Now()}
		m.sessions[key] = s
	}
	return s
}

func (m *Manager) GetOrCreate(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(key)
}

func (m *Manager) AddMessage(key string, msg providers.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getOrCreateLocked(key)
	s.Messages = append(s.Messages, msg)
	s.Updated = time.Now()
}

func (m *Manager) GetHistory(key string) []providers.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[key]
	if !ok {
		return nil
	}
	out := make([]providers.Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

func (m *Manager) GetSummary(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[key]; ok {
		return s.Summary
	}
	return ""
}

func (m *Manager) SetSummary(key, summary string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getOrCreateLocked(key)
	s.Summary = summary
	s.Updated = time.Now()
}

func (m *Manager) SetAgentInfo(key string, agentID uuid.UUID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getOrCreateLocked(key)
	if agentID != uuid.Nil {
		s.AgentID = agentID
	}
	if userID != "" {
		s.UserID = userID
	}
}

func (m *Manager) UpdateMetadata(key, model, provider, channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getOrCreateLocked(key)
	if model != "" {
		s.Model = model
	}
	if provider != "" {
		s.Provider = provider
	}
	if channel != "" {
		s.Channel = channel
	}
}

func (m *Manager) AccumulateTokens(key string, inputTokens, outputTokens int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getOrCreateLocked(key)
	s.InputTokens += inputTokens
	s.OutputTokens += outputTokens
}

func (m *Manager) IncrementCompaction(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		s.CompactionCount++
	}
}

func (m *Manager) GetCompactionCount(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[key]; ok {
		return s.CompactionCount
	}
	return 0
}

func (m *Manager) GetMemoryFlushCompactionCount(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[key]; ok {
		return s.MemoryFlushCompactionCount
	}
	return -1
}

func (m *Manager) SetMemoryFlushDone(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		s.MemoryFlushCompactionCount = s.CompactionCount
		s.MemoryFlushAt = time.Now().UnixMilli()
	}
}

func (m *Manager) SetContextWindow(key string, cw int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getOrCreateLocked(key)
	s.ContextWindow = cw
}

func (m *Manager) GetContextWindow(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[key]; ok {
		return s.ContextWindow
	}
	return 0
}

func (m *Manager) SetLastPromptTokens(key string, tokens, msgCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getOrCreateLocked(key)
	s.LastPromptTokens = tokens
	s.LastMessageCount = msgCount
}

func (m *Manager) GetLastPromptTokens(key string) (int, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[key]; ok {
		return s.LastPromptTokens, s.LastMessageCount
	}
	return 0, 0
}

func (m *Manager) TruncateHistory(key string, keepLast int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok {
		return
	}
	if keepLast <= 0 {
		s.Messages = nil
	} else if len(s.Messages) > keepLast {
		s.Messages = s.Messages[len(s.Messages)-keepLast:]
	}
	s.Updated = time.Now()
}

// Save is a no-op: this manager is a pure runtime working set. Kept so Loop's
// call sites (ported from the teacher's file-backed manager) don't need a
// conditional — the Session Runner is what persists turns durably.
func (m *Manager) Save(key string) error { return nil }

func (m *Manager) Reset(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		s.Messages = nil
		s.Summary = ""
		s.Updated = time.Now()
	}
}

func (m *Manager) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}
