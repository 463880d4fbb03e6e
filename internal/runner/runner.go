package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/agent"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/domain"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/sanitize"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/telemetry"
)

// sessionNamespace is a fixed UUID used to derive a stable session UUID
// from a non-UUID session key (the synthetic "scheduler-offline",
// "cron_<id>", "webhook_<id>" keys spec §4.10/§4.11 address sessions by).
// The Session Runner is the single place that performs this mapping, so
// every caller (gateway, scheduler, webhook trigger) persists chat history
// for a given synthetic key under the same row.
var sessionNamespace = uuid.MustParse("6ba7b814-9dad-11d1-80b4-00c04fd430c8")

// SessionUUID resolves a session key to the uuid.UUID the SessionStore
// keys rows by. Real (client-issued) session ids are already UUIDs and
// pass through unchanged; synthetic keys are mapped deterministically so
// the same key always resolves to the same row.
func SessionUUID(sessionKey string) uuid.UUID {
	if id, err := uuid.Parse(sessionKey); err == nil {
		return id
	}
	return uuid.NewSHA1(sessionNamespace, []byte(sessionKey))
}

// Runner is the Session Runner (spec §4.8, CORE): it owns the per-turn
// sequence of sanitising input, invoking the Agent Runtime Adapter,
// persisting the user and assistant messages, and rendering the final
// response. It works on the agent's final RunResult only: it does not
// classify individual agent events and does not run malformed-call recovery
// (Classify, Build and ExtractFromMalformedResponse have no caller here).
// Callers are the gateway (WS "message" frames, the REST session-message
// endpoint, webhook jobs) and the Scheduler Engine.
type Runner struct {
	agents   *agent.Router
	sessions store.SessionStore
	tracker  *telemetry.Tracker
	exporter *telemetry.PromExporter
}

// New builds a Runner bound to the given agent registry and session store.
func New(agents *agent.Router, sessions store.SessionStore) *Runner {
	return &Runner{agents: agents, sessions: sessions}
}

// SetTelemetry wires the process-wide usage Tracker (spec §4.2, CORE: "every
// model response passes through") so each turn's token usage is recorded.
// exporter may be nil when Prometheus export isn't configured; Record still
// accumulates into tracker either way.
func (r *Runner) SetTelemetry(tracker *telemetry.Tracker, exporter *telemetry.PromExporter) {
	r.tracker = tracker
	r.exporter = exporter
}

// Result is what ProcessMessage hands back to its caller: the rendered
// assistant text and the run id for span/log correlation.
type Result struct {
	Response string
	RunID    string
	Usage    *agent.RunResult
}

// ProcessMessage runs one turn: resolve/create the session, run the agent,
// persist the user + assistant turns, and render the final text. There is
// no empty-response fallback: an empty agent reply is stored and returned
// as is. sessionKey is whatever the caller addresses the session
// by (a client-issued UUID string, or one of the synthetic scheduler/
// webhook keys); userID scopes memory/bootstrap and may be empty for
// synthetic sessions.
func (r *Runner) ProcessMessage(ctx context.Context, sessionKey, userID, prompt string) (*Result, error) {
	prompt = sanitize.Text(prompt, sanitize.SourceScheduler, sanitize.DefaultMaxLength)

	sid := SessionUUID(sessionKey)
	if r.sessions != nil {
		if _, err := r.sessions.GetOrCreate(ctx, sid, userID); err != nil {
			return nil, fmt.Errorf("runner: get or create session %s: %w", sessionKey, err)
		}
		if err := r.sessions.AddMessage(ctx, domain.Message{
			ID:        uuid.New(),
			SessionID: sid,
			Role:      domain.RoleUser,
			Content:   prompt,
			Timestamp: time.Now(),
		}); err != nil {
			slog.Warn("runner.persist_user_message_failed", "session", sessionKey, "error", err)
		}
	}

	agt, err := r.agents.Default()
	if err != nil {
		return nil, fmt.Errorf("runner: resolve agent: %w", err)
	}

	runID := uuid.NewString()
	res, err := agt.Run(ctx, agent.RunRequest{
		SessionKey: sessionKey,
		Message:    prompt,
		UserID:     userID,
		RunID:      runID,
	})
	if err != nil {
		return nil, fmt.Errorf("runner: agent run: %w", err)
	}

	if r.tracker != nil && res.Usage != nil {
		r.tracker.Record(int64(res.Usage.PromptTokens), int64(res.Usage.CacheReadTokens), int64(res.Usage.CompletionTokens), agt.ID(), agt.Model())
		if r.exporter != nil {
			r.exporter.Sync()
		}
	}

	rendered := RenderResponseText(res.Content)

	if r.sessions != nil {
		if err := r.sessions.AddMessage(ctx, domain.Message{
			ID:        uuid.New(),
			SessionID: sid,
			Role:      domain.RoleAssistant,
			AgentName: agt.ID(),
			Content:   rendered,
			Timestamp: time.Now(),
		}); err != nil {
			slog.Warn("runner.persist_assistant_message_failed", "session", sessionKey, "error", err)
		}
	}

	return &Result{Response: rendered, RunID: res.RunID, Usage: res}, nil
}

// PersistSystemMessage records a system-authored message (scheduled-task
// announcement, reminder delivery, webhook trigger context) against a
// session without invoking the agent, per spec §4.10 step 4 / step 4 of
// _execute_reminder.
func (r *Runner) PersistSystemMessage(ctx context.Context, sessionKey, content string) error {
	if r.sessions == nil {
		return nil
	}
	sid := SessionUUID(sessionKey)
	if _, err := r.sessions.GetOrCreate(ctx, sid, ""); err != nil {
		return fmt.Errorf("runner: get or create session %s: %w", sessionKey, err)
	}
	return r.sessions.AddMessage(ctx, domain.Message{
		ID:        uuid.New(),
		SessionID: sid,
		Role:      domain.RoleSystem,
		Content:   content,
		Timestamp: time.Now(),
	})
}
