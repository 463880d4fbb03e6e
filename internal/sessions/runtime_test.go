package sessions

import (
	"testing"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/providers"
)

func TestManager_GetOrCreate_IsIdempotent(t *testing.T) {
	m := NewManager()
	a := m.GetOrCreate("sess-1")
	b := m.GetOrCreate("sess-1")
	if a != b {
		t.Error("GetOrCreate should return the same session for the same key")
	}
}

func TestManager_AddMessageAndGetHistory(t *testing.T) {
	m := NewManager()
	m.AddMessage("sess-1", providers.Message{Role: "user", Content: "hi"})
	m.AddMessage("sess-1", providers.Message{Role: "assistant", Content: "hello"})

	hist := m.GetHistory("sess-1")
	if len(hist) != 2 {
		t.Fatalf("len(hist) = %d, want 2", len(hist))
	}
	if hist[0].Content != "hi" || hist[1].Content != "hello" {
		t.Errorf("hist = %+v", hist)
	}
}

func TestManager_GetHistory_ReturnsCopyNotAlias(t *testing.T) {
	m := NewManager()
	m.AddMessage("sess-1", providers.Message{Role: "user", Content: "hi"})

	hist := m.GetHistory("sess-1")
	hist[0].Content = "tampered"

	fresh := m.GetHistory("sess-1")
	if fresh[0].Content != "hi" {
		t.Errorf("mutating returned slice leaked into manager state: %q", fresh[0].Content)
	}
}

func TestManager_GetHistory_UnknownKeyReturnsNil(t *testing.T) {
	m := NewManager()
	if hist := m.GetHistory("missing"); hist != nil {
		t.Errorf("GetHistory(missing) = %v, want nil", hist)
	}
}

func TestManager_SummaryRoundTrip(t *testing.T) {
	m := NewManager()
	m.SetSummary("sess-1", "a summary")
	if got := m.GetSummary("sess-1"); got != "a summary" {
		t.Errorf("GetSummary() = %q", got)
	}
}

func TestManager_SetAgentInfo_IgnoresZeroValues(t *testing.T) {
	m := NewManager()
	id := uuid.New()
	m.SetAgentInfo("sess-1", id, "user-1")
	m.SetAgentInfo("sess-1", uuid.Nil, "")

	s := m.GetOrCreate("sess-1")
	if s.AgentID != id || s.UserID != "user-1" {
		t.Errorf("AgentID/UserID overwritten by zero values: %+v", s)
	}
}

func TestManager_AccumulateTokens(t *testing.T) {
	m := NewManager()
	m.AccumulateTokens("sess-1", 10, 20)
	m.AccumulateTokens("sess-1", 5, 5)

	s := m.GetOrCreate("sess-1")
	if s.InputTokens != 15 || s.OutputTokens != 25 {
		t.Errorf("tokens = %d/%d, want 15/25", s.InputTokens, s.OutputTokens)
	}
}

func TestManager_CompactionAndMemoryFlushTracking(t *testing.T) {
	m := NewManager()
	m.GetOrCreate("sess-1")

	if got := m.GetMemoryFlushCompactionCount("sess-1"); got != 0 {
		t.Errorf("initial GetMemoryFlushCompactionCount() = %d, want 0", got)
	}

	m.IncrementCompaction("sess-1")
	m.IncrementCompaction("sess-1")
	if got := m.GetCompactionCount("sess-1"); got != 2 {
		t.Errorf("GetCompactionCount() = %d, want 2", got)
	}

	m.SetMemoryFlushDone("sess-1")
	if got := m.GetMemoryFlushCompactionCount("sess-1"); got != 2 {
		t.Errorf("GetMemoryFlushCompactionCount() after flush = %d, want 2", got)
	}
}

func TestManager_GetMemoryFlushCompactionCount_UnknownKeyReturnsNegativeOne(t *testing.T) {
	m := NewManager()
	if got := m.GetMemoryFlushCompactionCount("missing"); got != -1 {
		t.Errorf("GetMemoryFlushCompactionCount(missing) = %d, want -1", got)
	}
}

func TestManager_TruncateHistory(t *testing.T) {
	m := NewManager()
	for i := 0; i < 5; i++ {
		m.AddMessage("sess-1", providers.Message{Role: "user", Content: "msg"})
	}

	m.TruncateHistory("sess-1", 2)
	if got := len(m.GetHistory("sess-1")); got != 2 {
		t.Errorf("len(history) after truncate(2) = %d, want 2", got)
	}

	m.TruncateHistory("sess-1", 0)
	if got := len(m.GetHistory("sess-1")); got != 0 {
		t.Errorf("len(history) after truncate(0) = %d, want 0", got)
	}
}

func TestManager_ResetClearsMessagesAndSummary(t *testing.T) {
	m := NewManager()
	m.AddMessage("sess-1", providers.Message{Role: "user", Content: "hi"})
	m.SetSummary("sess-1", "summary")

	m.Reset("sess-1")

	if got := m.GetHistory("sess-1"); len(got) != 0 {
		t.Errorf("history after Reset = %v, want empty", got)
	}
	if got := m.GetSummary("sess-1"); got != "" {
		t.Errorf("summary after Reset = %q, want empty", got)
	}
}

func TestManager_DeleteRemovesSession(t *testing.T) {
	m := NewManager()
	m.AddMessage("sess-1", providers.Message{Role: "user", Content: "hi"})
	m.Delete("sess-1")

	if got := m.GetCompactionCount("sess-1"); got != 0 {
		t.Errorf("GetCompactionCount() after Delete = %d, want 0 (fresh session)", got)
	}
	// GetOrCreate after Delete should build a brand new, empty session.
	s := m.GetOrCreate("sess-1")
	if len(s.Messages) != 0 {
		t.Errorf("session resurrected with stale messages: %+v", s.Messages)
	}
}

func TestCronSessionID_And_WebhookSessionID(t *testing.T) {
	if got := CronSessionID("42"); got != "cron_42" {
		t.Errorf("CronSessionID(42) = %q", got)
	}
	if got := WebhookSessionID("abc"); got != "webhook_abc" {
		t.Errorf("WebhookSessionID(abc) = %q", got)
	}
}
