// Package store defines the DAO-layer contracts the rest of the system
// programs against (spec §4.1). Concrete implementations live in
// internal/store/pg (Postgres) and internal/store/memstore (in-process, used
// by tests and any standalone deployment without a database).
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/domain"
)

// SessionStore manages Session rows and their Message history.
type SessionStore interface {
	GetOrCreate(ctx context.Context, sessionID uuid.UUID, userID string) (*domain.Session, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error)
	Rename(ctx context.Context, sessionID uuid.UUID, name string) error
	Reset(ctx context.Context, sessionID uuid.UUID) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
	List(ctx context.Context) ([]domain.Session, error)

	AddMessage(ctx context.Context, msg domain.Message) error
	AddMessages(ctx context.Context, msgs []domain.Message) error
	History(ctx context.Context, sessionID uuid.UUID, limit, offset int) (messages []domain.Message, total int, err error)
}

// ScheduledTaskStore persists recurring cron tasks (spec §4.1, §4.10).
type ScheduledTaskStore interface {
	Create(ctx context.Context, t *domain.ScheduledTask) error
	Get(ctx context.Context, id uuid.UUID) (*domain.ScheduledTask, error)
	List(ctx context.Context, enabledOnly bool) ([]domain.ScheduledTask, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateLastRun(ctx context.Context, id uuid.UUID, result string) error
}

// ReminderStore persists one-shot reminders (spec §4.1, §4.10).
type ReminderStore interface {
	Create(ctx context.Context, r *domain.Reminder) error
	List(ctx context.Context, status domain.ReminderStatus) ([]domain.Reminder, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkDelivered(ctx context.Context, id uuid.UUID, result string) error
	UndeliveredCompleted(ctx context.Context) ([]domain.Reminder, error)
}

// WebhookStore persists webhook definitions (spec §4.1, §4.11).
type WebhookStore interface {
	Create(ctx context.Context, w *domain.Webhook) error
	List(ctx context.Context) ([]domain.Webhook, error)
	GetByPath(ctx context.Context, pathSuffix string) (*domain.Webhook, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RecordTrigger(ctx context.Context, id uuid.UUID, at time.Time) error
}

// PendingResultStore queues scheduled-task results for replay-on-reconnect
// delivery (spec §4.10, P6).
type PendingResultStore interface {
	Enqueue(ctx context.Context, r *domain.PendingSchedulerResult) error
	Undelivered(ctx context.Context) ([]domain.PendingSchedulerResult, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
}

// ConfigOverrideStore is the DB-held layer of the layered config (spec §4.12
// "load config overrides from DB").
type ConfigOverrideStore interface {
	All(ctx context.Context) (map[string]any, error)
	Set(ctx context.Context, key string, value any) error
}
