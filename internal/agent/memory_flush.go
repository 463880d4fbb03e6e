package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/config"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/providers"
)

// MemoryFlushSettings resolves config.MemoryFlushConfig's nilable fields into
// concrete values the compaction path can compare against directly.
type MemoryFlushSettings struct {
	Enabled             bool
	SoftThresholdTokens int
	Prompt              string
	SystemPrompt        string
}

// ResolveMemoryFlushSettings applies the defaults from the original's
// pre-compaction flush (enabled by default, 4000-token soft threshold).
func ResolveMemoryFlushSettings(cfg *config.CompactionConfig) MemoryFlushSettings {
	s := MemoryFlushSettings{Enabled: true, SoftThresholdTokens: 4000}
	if cfg == nil || cfg.MemoryFlush == nil {
		return s
	}
	mf := cfg.MemoryFlush
	if mf.Enabled != nil {
		s.Enabled = *mf.Enabled
	}
	if mf.SoftThresholdTokens > 0 {
		s.SoftThresholdTokens = mf.SoftThresholdTokens
	}
	s.Prompt = mf.Prompt
	s.SystemPrompt = mf.SystemPrompt
	return s
}

// shouldRunMemoryFlush reports whether this session is close enough to its
// compaction threshold, and hasn't already been flushed for the current
// compaction cycle, to warrant writing its older history to the Memory
// Service before summarize() discards it.
func (l *Loop) shouldRunMemoryFlush(sessionKey string, tokenEstimate int, settings MemoryFlushSettings) bool {
	if !settings.Enabled || !l.hasMemory || l.memory == nil {
		return false
	}

	historyShare := 0.75
	if l.compactionCfg != nil && l.compactionCfg.MaxHistoryShare > 0 {
		historyShare = l.compactionCfg.MaxHistoryShare
	}
	threshold := int(float64(l.contextWindow) * historyShare)
	if threshold-tokenEstimate > settings.SoftThresholdTokens {
		return false
	}

	compactionCount := l.sessions.GetCompactionCount(sessionKey)
	flushedAt := l.sessions.GetMemoryFlushCompactionCount(sessionKey)
	return flushedAt != compactionCount
}

// runMemoryFlush asks the model for a compact digest of the session's
// current history and writing that digest into the Memory Service, so a
// later Search() against the same user_id can recall it even after
// maybeSummarize truncates the in-memory log. Best-effort: failures are
// logged and otherwise ignored, matching the Memory Service's own contract.
func (l *Loop) runMemoryFlush(ctx context.Context, sessionKey string, settings MemoryFlushSettings) {
	history := l.sessions.GetHistory(sessionKey)
	if len(history) == 0 {
		return
	}

	userID := ""
	if s := l.sessions.GetOrCreate(sessionKey); s != nil {
		userID = s.UserID
	}

	prompt := settings.Prompt
	if prompt == "" {
		prompt = "Summarize durable facts, preferences, and commitments from this conversation worth remembering long-term. Be concise."
	}
	systemPrompt := settings.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = "You extract long-term memory notes from a conversation transcript."
	}

	var transcript string
	for _, m := range history {
		if m.Role == "user" || m.Role == "assistant" {
			transcript += fmt.Sprintf("%s: %s\n", m.Role, SanitizeAssistantContent(m.Content))
		}
	}

	resp, err := l.provider.Chat(ctx, providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt + "\n\n" + transcript},
		},
		Model:   l.model,
		Options: map[string]interface{}{"max_tokens": 512, "temperature": 0.2},
	})
	if err != nil {
		slog.Warn("memory flush: summarize failed", "session", sessionKey, "error", err)
		return
	}

	l.memory.Upsert(ctx, userID, resp.Content, "conversation_summary", l.id, map[string]any{
		"session_key": sessionKey,
	})
	l.sessions.SetMemoryFlushDone(sessionKey)
}
