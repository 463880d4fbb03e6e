package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/domain"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store"
)

// PGScheduledTaskStore implements store.ScheduledTaskStore against
// scheduled_tasks, grounded on original_source/radbot/tools/scheduler/db.py's
// list_tasks/update_last_run contract.
type PGScheduledTaskStore struct{ db *sql.DB }

func NewPGScheduledTaskStore(db *sql.DB) *PGScheduledTaskStore { return &PGScheduledTaskStore{db: db} }

func (s *PGScheduledTaskStore) Create(ctx context.Context, t *domain.ScheduledTask) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.Must(uuid.NewV7())
	}
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	metaJSON, _ := json.Marshal(t.Metadata)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_tasks (task_id, name, cron_expression, prompt, description, enabled, created_at, updated_at, metadata)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		t.ID, t.Name, t.CronExpression, t.Prompt, nilStr(t.Description), t.Enabled, t.CreatedAt, t.UpdatedAt, metaJSON,
	)
	return err
}

func (s *PGScheduledTaskStore) Get(ctx context.Context, id uuid.UUID) (*domain.ScheduledTask, error) {
	return scanTask(s.db.QueryRowContext(ctx,
		`SELECT task_id, name, cron_expression, prompt, description, enabled, created_at, updated_at, last_run_at, run_count, last_result, metadata
		 FROM scheduled_tasks WHERE task_id = $1`, id))
}

func (s *PGScheduledTaskStore) List(ctx context.Context, enabledOnly bool) ([]domain.ScheduledTask, error) {
	q := `SELECT task_id, name, cron_expression, prompt, description, enabled, created_at, updated_at, last_run_at, run_count, last_result, metadata
	      FROM scheduled_tasks`
	if enabledOnly {
		q += ` WHERE enabled = TRUE`
	}
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ScheduledTask
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *PGScheduledTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_tasks WHERE task_id = $1`, id)
	return err
}

func (s *PGScheduledTaskStore) UpdateLastRun(ctx context.Context, id uuid.UUID, result string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_tasks SET last_run_at = now(), run_count = run_count + 1, last_result = $1, updated_at = now()
		 WHERE task_id = $2`, result, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row *sql.Row) (*domain.ScheduledTask, error) {
	return scanTaskRows(row)
}

func scanTaskRows(row rowScanner) (*domain.ScheduledTask, error) {
	var t domain.ScheduledTask
	var description, lastResult sql.NullString
	var lastRunAt sql.NullTime
	var metaJSON []byte
	if err := row.Scan(&t.ID, &t.Name, &t.CronExpression, &t.Prompt, &description, &t.Enabled,
		&t.CreatedAt, &t.UpdatedAt, &lastRunAt, &t.RunCount, &lastResult, &metaJSON); err != nil {
		return nil, err
	}
	t.Description = description.String
	t.LastResult = lastResult.String
	if lastRunAt.Valid {
		t.LastRunAt = &lastRunAt.Time
	}
	if len(metaJSON) > 0 {
		json.Unmarshal(metaJSON, &t.Metadata)
	}
	return &t, nil
}

// PGReminderStore implements store.ReminderStore against reminders, grounded
// on original_source/radbot/tools/reminders/db.py's list_reminders /
// mark_completed / mark_delivered / get_undelivered_completed contract.
type PGReminderStore struct{ db *sql.DB }

func NewPGReminderStore(db *sql.DB) *PGReminderStore { return &PGReminderStore{db: db} }

func (s *PGReminderStore) Create(ctx context.Context, r *domain.Reminder) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.Must(uuid.NewV7())
	}
	r.CreatedAt = time.Now()
	if r.Status == "" {
		r.Status = domain.ReminderPending
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (reminder_id, message, remind_at, status, delivered, session_id, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.Message, r.RemindAt, string(r.Status), r.Delivered, nilStr(r.SessionID), r.CreatedAt,
	)
	return err
}

func (s *PGReminderStore) List(ctx context.Context, status domain.ReminderStatus) ([]domain.Reminder, error) {
	q := `SELECT reminder_id, message, remind_at, status, delivered, session_id, created_at, completed_at, delivery_result FROM reminders`
	var args []any
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, string(status))
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *PGReminderStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE reminder_id = $1`, id)
	return err
}

// MarkCompleted transitions pending → completed (P5: the only legal forward
// transition besides pending → cancelled). delivered stays false.
func (s *PGReminderStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET status = $1, completed_at = now() WHERE reminder_id = $2 AND status = $3`,
		string(domain.ReminderCompleted), id, string(domain.ReminderPending))
	return err
}

func (s *PGReminderStore) MarkDelivered(ctx context.Context, id uuid.UUID, result string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET delivered = TRUE, delivery_result = $1 WHERE reminder_id = $2`, result, id)
	return err
}

func (s *PGReminderStore) UndeliveredCompleted(ctx context.Context) ([]domain.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT reminder_id, message, remind_at, status, delivered, session_id, created_at, completed_at, delivery_result
		 FROM reminders WHERE status = $1 AND delivered = FALSE`, string(domain.ReminderCompleted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func scanReminder(row rowScanner) (*domain.Reminder, error) {
	var r domain.Reminder
	var status string
	var sessionID, deliveryResult sql.NullString
	var completedAt sql.NullTime
	if err := row.Scan(&r.ID, &r.Message, &r.RemindAt, &status, &r.Delivered, &sessionID,
		&r.CreatedAt, &completedAt, &deliveryResult); err != nil {
		return nil, err
	}
	r.Status = domain.ReminderStatus(status)
	r.SessionID = sessionID.String
	r.DeliveryResult = deliveryResult.String
	if completedAt.Valid {
		r.CompletedAt = &completedAt.Time
	}
	return &r, nil
}

// PGPendingResultStore implements store.PendingResultStore (P6).
type PGPendingResultStore struct{ db *sql.DB }

func NewPGPendingResultStore(db *sql.DB) *PGPendingResultStore { return &PGPendingResultStore{db: db} }

func (s *PGPendingResultStore) Enqueue(ctx context.Context, r *domain.PendingSchedulerResult) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.Must(uuid.NewV7())
	}
	r.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_scheduler_results (result_id, task_name, prompt, response, session_id, delivered, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.TaskName, r.Prompt, r.Response, nilStr(r.SessionID), r.Delivered, r.CreatedAt,
	)
	return err
}

func (s *PGPendingResultStore) Undelivered(ctx context.Context) ([]domain.PendingSchedulerResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT result_id, task_name, prompt, response, session_id, delivered, created_at
		 FROM pending_scheduler_results WHERE delivered = FALSE ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PendingSchedulerResult
	for rows.Next() {
		var r domain.PendingSchedulerResult
		var sessionID sql.NullString
		if err := rows.Scan(&r.ID, &r.TaskName, &r.Prompt, &r.Response, &sessionID, &r.Delivered, &r.CreatedAt); err != nil {
			continue
		}
		r.SessionID = sessionID.String
		out = append(out, r)
	}
	return out, nil
}

func (s *PGPendingResultStore) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `UPDATE pending_scheduler_results SET delivered = TRUE WHERE result_id = $1`, id)
	return err
}

var (
	_ store.ScheduledTaskStore = (*PGScheduledTaskStore)(nil)
	_ store.ReminderStore      = (*PGReminderStore)(nil)
	_ store.PendingResultStore = (*PGPendingResultStore)(nil)
)
