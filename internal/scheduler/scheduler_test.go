package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/agent"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/domain"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/runner"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store/memstore"
	"github.com/nextlevelbuilder/goclaw-orchestrator/pkg/protocol"
)

// fakeAgent is a minimal agent.Agent that echoes the prompt it was given,
// so tests can assert on exactly what the scheduler sent it.
type fakeAgent struct{ response string }

func (f *fakeAgent) Run(ctx context.Context, req agent.RunRequest) (*agent.RunResult, error) {
	content := f.response
	if content == "" {
		content = "echo: " + req.Message
	}
	return &agent.RunResult{Content: content, RunID: req.RunID}, nil
}
func (f *fakeAgent) ID() string      { return "default" }
func (f *fakeAgent) Model() string   { return "test-model" }
func (f *fakeAgent) IsRunning() bool { return false }

// fakeConn is a ConnBroadcaster recording every frame it's asked to send,
// with a switch to simulate "nobody connected".
type fakeConn struct {
	connected bool
	sessionID string
	sent      []protocol.EventFrame
}

func (f *fakeConn) HasConnections() bool { return f.connected }
func (f *fakeConn) GetAnySessionID() (string, bool) {
	if !f.connected {
		return "", false
	}
	return f.sessionID, true
}
func (f *fakeConn) BroadcastToSession(sessionID string, frame protocol.EventFrame) {
	f.sent = append(f.sent, frame)
}
func (f *fakeConn) BroadcastToAll(frame protocol.EventFrame) int {
	f.sent = append(f.sent, frame)
	return 1
}

func newTestScheduler(t *testing.T, a agent.Agent, conn *fakeConn) (*Scheduler, *memstore.ScheduledTaskStore, *memstore.ReminderStore, *memstore.PendingResultStore) {
	t.Helper()
	tasks := memstore.NewScheduledTaskStore()
	reminders := memstore.NewReminderStore()
	pending := memstore.NewPendingResultStore()

	router := agent.NewRouter()
	router.Register("default", a)
	r := runner.New(router, memstore.NewSessionStore())

	s := New(tasks, reminders, pending, DefaultRetryConfig())
	s.Inject(conn, r, nil)
	return s, tasks, reminders, pending
}

// TestExecuteJob_RoundTripsThroughAgentAndStoresResult covers P4: a fired
// job runs the agent and its response lands in ScheduledTaskStore.
func TestExecuteJob_RoundTripsThroughAgentAndStoresResult(t *testing.T) {
	conn := &fakeConn{connected: true, sessionID: "sess-1"}
	s, tasks, _, _ := newTestScheduler(t, &fakeAgent{response: "the weather is sunny"}, conn)

	task := domain.ScheduledTask{ID: uuid.Must(uuid.NewV7()), Name: "weather", CronExpression: "* * * * *", Prompt: "what's the weather?", Enabled: true}
	if err := tasks.Create(context.Background(), &task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	s.executeJob(context.Background(), task)

	stored, err := tasks.Get(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.LastResult != "the weather is sunny" {
		t.Errorf("LastResult = %q, want the agent's response", stored.LastResult)
	}
	if stored.RunCount != 1 {
		t.Errorf("RunCount = %d, want 1", stored.RunCount)
	}

	foundAssistantMsg := false
	for _, f := range conn.sent {
		if m, ok := f.Payload.(map[string]string); ok && m["role"] == "assistant" && m["content"] == "the weather is sunny" {
			foundAssistantMsg = true
		}
	}
	if !foundAssistantMsg {
		t.Error("expected the assistant's response to be broadcast to the connected session")
	}
}

// TestExecuteJob_OfflineEnqueuesPendingResult covers P6 at-least-once
// delivery: with no connections, the result queues instead of being lost.
func TestExecuteJob_OfflineEnqueuesPendingResult(t *testing.T) {
	conn := &fakeConn{connected: false}
	s, tasks, _, pending := newTestScheduler(t, &fakeAgent{response: "done"}, conn)

	task := domain.ScheduledTask{ID: uuid.Must(uuid.NewV7()), Name: "offline-job", CronExpression: "* * * * *", Prompt: "run me", Enabled: true}
	if err := tasks.Create(context.Background(), &task); err != nil {
		t.Fatalf("Create: %v", err)
	}

	s.executeJob(context.Background(), task)

	due, err := pending.Undelivered(context.Background())
	if err != nil {
		t.Fatalf("Undelivered: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("Undelivered() = %d results, want 1", len(due))
	}
	if due[0].Response != "done" {
		t.Errorf("queued response = %q, want %q", due[0].Response, "done")
	}
	if len(conn.sent) != 0 {
		t.Errorf("expected no broadcasts while offline, got %d", len(conn.sent))
	}
}

// TestExecuteReminder_SanitizesMessageBeforeDelivery covers P3: control
// characters in a reminder's message must never reach a session transcript.
func TestExecuteReminder_SanitizesMessageBeforeDelivery(t *testing.T) {
	conn := &fakeConn{connected: true, sessionID: "sess-1"}
	s, _, reminders, _ := newTestScheduler(t, &fakeAgent{}, conn)

	dirty := "take the pills\x07\x1b[31m now"
	r := domain.Reminder{ID: uuid.Must(uuid.NewV7()), Message: dirty, RemindAt: time.Now(), SessionID: "sess-1"}
	if err := reminders.Create(context.Background(), &r); err != nil {
		t.Fatalf("Create: %v", err)
	}

	s.executeReminder(context.Background(), r)

	for _, f := range conn.sent {
		m, ok := f.Payload.(map[string]string)
		if !ok {
			continue
		}
		if strings.ContainsAny(m["content"], "\x07\x1b") {
			t.Errorf("broadcast reminder content retained control characters: %q", m["content"])
		}
	}

	got, err := reminders.List(context.Background(), domain.ReminderCompleted)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || !got[0].Delivered {
		t.Errorf("reminder not marked delivered: %+v", got)
	}
}

// TestExecuteReminder_NoConnectionsStaysUndelivered covers P5 monotonicity:
// a reminder that fires with nobody connected is completed but not
// delivered, never silently dropped or retried.
func TestExecuteReminder_NoConnectionsStaysUndelivered(t *testing.T) {
	conn := &fakeConn{connected: false}
	s, _, reminders, _ := newTestScheduler(t, &fakeAgent{}, conn)

	r := domain.Reminder{ID: uuid.Must(uuid.NewV7()), Message: "stand up", RemindAt: time.Now()}
	if err := reminders.Create(context.Background(), &r); err != nil {
		t.Fatalf("Create: %v", err)
	}

	s.executeReminder(context.Background(), r)

	completed, err := reminders.List(context.Background(), domain.ReminderCompleted)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(completed) != 1 {
		t.Fatalf("expected reminder to be marked completed, got %d completed", len(completed))
	}
	if completed[0].Delivered {
		t.Error("reminder marked delivered with no connections present")
	}

	due, err := reminders.UndeliveredCompleted(context.Background())
	if err != nil {
		t.Fatalf("UndeliveredCompleted: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected reminder queued for replay, got %d", len(due))
	}
}

// TestDeliverPendingReminders_ReplaysAndSanitizesOnReconnect covers P6 for
// reminders specifically: a completed-but-undelivered reminder is replayed
// (and still sanitized) the next time a session connects.
func TestDeliverPendingReminders_ReplaysAndSanitizesOnReconnect(t *testing.T) {
	conn := &fakeConn{connected: true, sessionID: "sess-2"}
	s, _, reminders, _ := newTestScheduler(t, &fakeAgent{}, conn)

	dirty := "don't forget\x07 the meeting"
	r := domain.Reminder{ID: uuid.Must(uuid.NewV7()), Message: dirty, RemindAt: time.Now().Add(-time.Hour)}
	if err := reminders.Create(context.Background(), &r); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := reminders.MarkCompleted(context.Background(), r.ID); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	s.DeliverPendingReminders(context.Background(), "sess-2")

	due, err := reminders.UndeliveredCompleted(context.Background())
	if err != nil {
		t.Fatalf("UndeliveredCompleted: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("expected the reminder to be marked delivered after replay, %d still pending", len(due))
	}

	found := false
	for _, f := range conn.sent {
		m, ok := f.Payload.(map[string]string)
		if !ok {
			continue
		}
		if strings.Contains(m["content"], "don't forget") {
			found = true
			if strings.Contains(m["content"], "\x07") {
				t.Error("replayed reminder content retained a control character")
			}
		}
	}
	if !found {
		t.Error("expected the reminder's message to be broadcast during replay")
	}
}

// TestRegisterCron_MalformedExpressionIsSkipped covers spec
// §4.10's "a malformed cron expression is logged and skipped, never
// returned as an error".
func TestRegisterCron_MalformedExpressionIsSkipped(t *testing.T) {
	conn := &fakeConn{connected: false}
	s, _, _, _ := newTestScheduler(t, &fakeAgent{}, conn)

	task := domain.ScheduledTask{ID: uuid.Must(uuid.NewV7()), Name: "broken", CronExpression: "not a cron expression", Enabled: true}
	s.RegisterTask(task)

	s.mu.Lock()
	_, registered := s.cronCancels[task.ID.String()]
	s.mu.Unlock()
	if registered {
		t.Error("malformed cron expression should not register a job")
	}
}
