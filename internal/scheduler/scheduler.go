// Package scheduler implements the Scheduler Engine (spec §4.10, CORE): a
// single process-wide instance that fires recurring ScheduledTasks on a
// cron schedule and one-shot Reminders at a fixed instant, replaying
// anything that fired while no client was connected. Grounded directly on
// original_source/radbot/tools/scheduler/engine.py (the singleton
// lifecycle, the _execute_job 9-step sequence, the _execute_reminder
// 4-step sequence, the replay methods), ported to Go idiom using the
// teacher's cmd/gateway_cron.go handler-closure shape in place of
// APScheduler. Cron parsing uses github.com/adhocore/gronx; reminders use
// time.AfterFunc against a monotonic deadline (no packaged one-shot date
// scheduler exists anywhere in the retrieval pack, so this one piece is
// justified stdlib, per DESIGN.md).
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/domain"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/runner"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/sanitize"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/sessions"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store"
	"github.com/nextlevelbuilder/goclaw-orchestrator/pkg/protocol"
)

// ConnBroadcaster is the slice of *gateway.ConnectionManager the scheduler
// depends on. A narrow interface here (rather than importing internal/gateway)
// keeps gateway -> scheduler a one-way dependency: gateway imports this
// package for the manual-trigger REST endpoint, scheduler never imports
// gateway.
type ConnBroadcaster interface {
	HasConnections() bool
	GetAnySessionID() (string, bool)
	BroadcastToSession(sessionID string, frame protocol.EventFrame)
	BroadcastToAll(frame protocol.EventFrame) int
}

const (
	maxStoredResult       = 4096 // spec §4.10 step 7: "first 4 KB of the result"
	maxNotificationBody   = 2048 // spec §4.10 step 8: "first 2 KB of the response"
	reminderCompletedBody = "reminder"
)

// Scheduler is the Scheduler Engine. One instance per process; Inject must
// be called before Start.
type Scheduler struct {
	tasks     store.ScheduledTaskStore
	reminders store.ReminderStore
	pending   store.PendingResultStore
	runner    *runner.Runner
	conn      ConnBroadcaster
	notifier  Notifier
	retry     RetryConfig

	mu             sync.Mutex
	cronCancels    map[string]context.CancelFunc
	reminderTimers map[string]*time.Timer
	runCtx         context.Context
	runCancel      context.CancelFunc
	started        bool
}

// New builds a Scheduler bound to its durable stores. Call Inject to wire
// the Connection Manager and Runner, then Start.
func New(tasks store.ScheduledTaskStore, reminders store.ReminderStore, pending store.PendingResultStore, retry RetryConfig) *Scheduler {
	return &Scheduler{
		tasks:          tasks,
		reminders:      reminders,
		pending:        pending,
		retry:          retry,
		cronCancels:    make(map[string]context.CancelFunc),
		reminderTimers: make(map[string]*time.Timer),
	}
}

// Inject wires the Connection Manager, Session Runner, and push notifier.
// Must be called before Start.
func (s *Scheduler) Inject(conn ConnBroadcaster, r *runner.Runner, notifier Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
	s.runner = r
	s.notifier = notifier
}

// Start is idempotent: (1) loads every enabled ScheduledTask and registers
// it, (2) loads every pending Reminder and registers it -- marking any
// whose remind_at is already due as completed/undelivered instead of
// firing on boot, (3) starts accepting fires.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.runCtx, s.runCancel = context.WithCancel(context.Background())
	s.started = true
	s.mu.Unlock()

	tasks, err := s.tasks.List(ctx, true)
	if err != nil {
		return fmt.Errorf("scheduler: load scheduled tasks: %w", err)
	}
	for i := range tasks {
		s.registerCron(tasks[i])
	}

	pendingReminders, err := s.reminders.List(ctx, domain.ReminderPending)
	if err != nil {
		return fmt.Errorf("scheduler: load reminders: %w", err)
	}
	now := time.Now()
	for i := range pendingReminders {
		r := pendingReminders[i]
		if !r.RemindAt.After(now) {
			// Already due while the process was down: mark completed but
			// undelivered rather than firing retroactively.
			if err := s.reminders.MarkCompleted(ctx, r.ID); err != nil {
				slog.Warn("scheduler.mark_overdue_reminder_failed", "reminder", r.ID, "error", err)
			}
			continue
		}
		s.registerReminder(r)
	}

	slog.Info("scheduler.started", "tasks", len(tasks), "reminders", len(pendingReminders))
	return nil
}

// Shutdown stops the timer without waiting for jobs in flight; no client
// receives anything further after this returns.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	for id, cancel := range s.cronCancels {
		cancel()
		delete(s.cronCancels, id)
	}
	for id, t := range s.reminderTimers {
		t.Stop()
		delete(s.reminderTimers, id)
	}
	if s.runCancel != nil {
		s.runCancel()
	}
	s.started = false
}

// RegisterTask (re)registers a ScheduledTask's cron job. A malformed
// five-field cron expression is logged and the task is skipped, never
// returned as an error, per spec §4.10.
func (s *Scheduler) RegisterTask(t domain.ScheduledTask) {
	s.registerCron(t)
}

// UnregisterTask cancels a ScheduledTask's cron job, e.g. on delete.
func (s *Scheduler) UnregisterTask(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.cronCancels[taskID]; ok {
		cancel()
		delete(s.cronCancels, taskID)
	}
}

// RegisterReminder (re)registers a Reminder's one-shot timer.
func (s *Scheduler) RegisterReminder(r domain.Reminder) {
	s.registerReminder(r)
}

func (s *Scheduler) registerCron(t domain.ScheduledTask) {
	if !gronx.IsValid(t.CronExpression) {
		slog.Warn("scheduler.malformed_cron", "task", t.ID, "expr", t.CronExpression)
		return
	}

	jobID := t.ID.String()
	s.mu.Lock()
	if cancel, ok := s.cronCancels[jobID]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(s.runCtxOrBackground())
	s.cronCancels[jobID] = cancel
	s.mu.Unlock()

	go s.cronLoop(ctx, t)
}

func (s *Scheduler) runCtxOrBackground() context.Context {
	if s.runCtx != nil {
		return s.runCtx
	}
	return context.Background()
}

func (s *Scheduler) cronLoop(ctx context.Context, t domain.ScheduledTask) {
	for {
		next, err := gronx.NextTickAfter(t.CronExpression, time.Now(), false)
		if err != nil {
			slog.Warn("scheduler.next_tick_failed", "task", t.ID, "error", err)
			return
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.executeJob(s.runCtxOrBackground(), t)
		}
	}
}

func (s *Scheduler) registerReminder(r domain.Reminder) {
	jobID := "reminder_" + r.ID.String()
	delay := time.Until(r.RemindAt)
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	if old, ok := s.reminderTimers[jobID]; ok {
		old.Stop()
	}
	timer := time.AfterFunc(delay, func() {
		s.executeReminder(s.runCtxOrBackground(), r)
	})
	s.reminderTimers[jobID] = timer
	s.mu.Unlock()
}

// GetNextRunTime returns the next scheduled instant for a registered cron
// task, or (zero, false) if it isn't registered or its expression no
// longer parses.
func (s *Scheduler) GetNextRunTime(t domain.ScheduledTask) (time.Time, bool) {
	if !gronx.IsValid(t.CronExpression) {
		return time.Time{}, false
	}
	next, err := gronx.NextTickAfter(t.CronExpression, time.Now(), false)
	if err != nil {
		return time.Time{}, false
	}
	return next, true
}

// TriggerNow fires a ScheduledTask immediately, out of band from its cron
// schedule (the REST "manual trigger" endpoint, spec §4.11).
func (s *Scheduler) TriggerNow(ctx context.Context, taskID string) error {
	id, err := uuid.Parse(taskID)
	if err != nil {
		return fmt.Errorf("scheduler: invalid task id: %w", err)
	}
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("scheduler: task not found: %w", err)
	}
	go s.executeJob(s.runCtxOrBackground(), *t)
	return nil
}

// executeJob implements spec §4.10's _execute_job: sanitise -> determine
// session -> broadcast system+thinking -> persist system message -> run
// -> broadcast response+ready -> persist run stats -> notify -> (if
// offline) enqueue pending result. The steps run in strict order within
// one fire; ordering across concurrent fires is unspecified (spec §4.10
// "Ordering guarantees").
func (s *Scheduler) executeJob(ctx context.Context, t domain.ScheduledTask) {
	prompt := sanitize.Text(t.Prompt, sanitize.SourceScheduler, sanitize.DefaultMaxLength)

	sessionID, hadConnections := s.conn.GetAnySessionID()
	if !hadConnections {
		sessionID = sessions.OfflineSessionID
	}

	systemMsg := fmt.Sprintf("[Scheduled Task: %s] %s", t.Name, prompt)
	if hadConnections {
		s.conn.BroadcastToSession(sessionID, protocol.EventFrame{Type: protocol.EventChat, Payload: map[string]string{"type": "message", "role": "system", "content": systemMsg}})
		s.conn.BroadcastToSession(sessionID, protocol.EventFrame{Type: protocol.EventChat, Payload: map[string]string{"type": "thinking"}})
	}
	if err := s.runner.PersistSystemMessage(ctx, sessionID, systemMsg); err != nil {
		slog.Warn("scheduler.persist_system_message_failed", "task", t.ID, "error", err)
	}

	res, runErr := s.runWithRetry(ctx, sessionID, prompt)

	response := ""
	if runErr != nil {
		slog.Error("scheduler.job_failed", "task", t.ID, "error", runErr)
		response = "error: " + runErr.Error()
	} else {
		response = res.Response
	}

	if hadConnections {
		s.conn.BroadcastToSession(sessionID, protocol.EventFrame{Type: protocol.EventChat, Payload: map[string]string{"type": "message", "role": "assistant", "content": response}})
		s.conn.BroadcastToSession(sessionID, protocol.EventFrame{Type: protocol.EventChat, Payload: map[string]string{"type": "ready"}})
	}

	stored := truncate(response, maxStoredResult)
	if err := s.tasks.UpdateLastRun(ctx, t.ID, stored); err != nil {
		slog.Warn("scheduler.update_last_run_failed", "task", t.ID, "error", err)
	}

	if s.notifier != nil {
		notifyBody := truncate(response, maxNotificationBody)
		if err := s.notifier.Notify(ctx, "Scheduled: "+t.Name, notifyBody); err != nil {
			slog.Warn("scheduler.notify_failed", "task", t.ID, "error", err)
		}
	}

	if !hadConnections && s.pending != nil {
		if err := s.pending.Enqueue(ctx, &domain.PendingSchedulerResult{
			ID:        uuid.New(),
			TaskName:  t.Name,
			Prompt:    prompt,
			Response:  response,
			SessionID: sessionID,
			CreatedAt: time.Now(),
		}); err != nil {
			slog.Warn("scheduler.enqueue_pending_result_failed", "task", t.ID, "error", err)
		}
	}
}

func (s *Scheduler) runWithRetry(ctx context.Context, sessionID, prompt string) (*runner.Result, error) {
	var lastErr error
	maxAttempts := s.retry.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		res, err := s.runner.ProcessMessage(ctx, sessionID, "", prompt)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoffDelay(s.retry, attempt)):
		}
	}
	return nil, lastErr
}

// executeReminder implements spec §4.10's _execute_reminder: mark
// completed -> notify -> (if no connections, stop) -> broadcast + persist
// -> mark delivered.
func (s *Scheduler) executeReminder(ctx context.Context, r domain.Reminder) {
	if err := s.reminders.MarkCompleted(ctx, r.ID); err != nil {
		slog.Warn("scheduler.mark_reminder_completed_failed", "reminder", r.ID, "error", err)
	}

	message := sanitize.Text(r.Message, sanitize.SourceReminder, sanitize.DefaultMaxLength)

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, "Reminder", message); err != nil {
			slog.Warn("scheduler.notify_reminder_failed", "reminder", r.ID, "error", err)
		}
	}

	if !s.conn.HasConnections() {
		return // stays "completed, not delivered"
	}

	sessionID := r.SessionID
	if sessionID == "" {
		var ok bool
		sessionID, ok = s.conn.GetAnySessionID()
		if !ok {
			return
		}
	}

	s.conn.BroadcastToSession(sessionID, protocol.EventFrame{Type: protocol.EventChat, Payload: map[string]string{"type": "message", "role": "system", "content": message}})
	if err := s.runner.PersistSystemMessage(ctx, sessionID, message); err != nil {
		slog.Warn("scheduler.persist_reminder_message_failed", "reminder", r.ID, "error", err)
	}
	if err := s.reminders.MarkDelivered(ctx, r.ID, reminderCompletedBody); err != nil {
		slog.Warn("scheduler.mark_reminder_delivered_failed", "reminder", r.ID, "error", err)
	}
}

// DeliverPendingReminders drains completed-but-undelivered reminders for
// replay on (re)connection, per spec §4.10 "Replay".
func (s *Scheduler) DeliverPendingReminders(ctx context.Context, sessionID string) {
	due, err := s.reminders.UndeliveredCompleted(ctx)
	if err != nil {
		slog.Warn("scheduler.list_undelivered_reminders_failed", "error", err)
		return
	}
	for _, r := range due {
		message := sanitize.Text(r.Message, sanitize.SourceReminder, sanitize.DefaultMaxLength)
		s.conn.BroadcastToSession(sessionID, protocol.EventFrame{Type: protocol.EventChat, Payload: map[string]string{"type": "message", "role": "system", "content": message}})
		if err := s.runner.PersistSystemMessage(ctx, sessionID, message); err != nil {
			slog.Warn("scheduler.persist_replayed_reminder_failed", "reminder", r.ID, "error", err)
		}
		if err := s.reminders.MarkDelivered(ctx, r.ID, reminderCompletedBody); err != nil {
			slog.Warn("scheduler.mark_replayed_reminder_delivered_failed", "reminder", r.ID, "error", err)
		}
	}
}

// DeliverPendingSchedulerResults drains queued scheduled-task results for
// replay on (re)connection, per spec §4.10 "Replay".
func (s *Scheduler) DeliverPendingSchedulerResults(ctx context.Context, sessionID string) {
	if s.pending == nil {
		return
	}
	due, err := s.pending.Undelivered(ctx)
	if err != nil {
		slog.Warn("scheduler.list_undelivered_results_failed", "error", err)
		return
	}
	for _, r := range due {
		content := fmt.Sprintf("[Scheduled Task: %s] %s", r.TaskName, r.Response)
		s.conn.BroadcastToSession(sessionID, protocol.EventFrame{Type: protocol.EventChat, Payload: map[string]string{"type": "message", "role": "system", "content": content}})
		if err := s.runner.PersistSystemMessage(ctx, sessionID, content); err != nil {
			slog.Warn("scheduler.persist_replayed_result_failed", "result", r.ID, "error", err)
		}
		if err := s.pending.MarkDelivered(ctx, r.ID); err != nil {
			slog.Warn("scheduler.mark_replayed_result_delivered_failed", "result", r.ID, "error", err)
		}
	}
}

// OnConnect is the hook the Connection Manager invokes on a session's
// first registration (spec §4.9): replay reminders, then scheduled-task
// results.
func (s *Scheduler) OnConnect(sessionID string) {
	ctx := s.runCtxOrBackground()
	s.DeliverPendingReminders(ctx, sessionID)
	s.DeliverPendingSchedulerResults(ctx, sessionID)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
