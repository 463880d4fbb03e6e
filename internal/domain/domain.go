// Package domain holds the core data model shared across the orchestrator:
// sessions, messages, events, scheduled tasks, reminders, webhooks, and
// memory points. It has no dependency on storage or transport packages.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Session is a single conversation thread.
type Session struct {
	ID            uuid.UUID
	DisplayName   string
	UserID        string
	CreatedAt     time.Time
	LastMessageAt time.Time
	Preview       string
	Active        bool
}

// Message is one turn in a Session's history. Append-only.
type Message struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Role      Role
	Content   string
	AgentName string
	Timestamp time.Time
	Metadata  map[string]any
}

// EventKind classifies a record emitted by the agent runtime during a turn.
type EventKind string

const (
	EventToolCall      EventKind = "tool_call"
	EventAgentTransfer EventKind = "agent_transfer"
	EventPlanner       EventKind = "planner"
	EventModelResponse EventKind = "model_response"
	EventOther         EventKind = "other"
)

// Event is a classified record of something the agent runtime emitted.
// Events live in a bounded per-session in-memory list; they are never
// persisted to the database (spec §3).
type Event struct {
	Kind      EventKind
	Summary   string
	Timestamp time.Time
	Payload   map[string]any
	Details   map[string]any
}

// DedupeKey returns the tuple add_event de-duplicates on (P2).
func (e Event) DedupeKey() string {
	return string(e.Kind) + "\x00" + e.Summary + "\x00" + e.Timestamp.Format(time.RFC3339Nano)
}

// ScheduledTask is a recurring, cron-driven prompt; Enabled distinguishes
// active tasks from disabled ones.
type ScheduledTask struct {
	ID             uuid.UUID
	Name           string
	CronExpression string
	Prompt         string
	Description    string
	Enabled        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastRunAt      *time.Time
	RunCount       int64
	LastResult     string
	Metadata       map[string]any
}

// ReminderStatus is the finite state a Reminder can be in (P5).
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderCompleted ReminderStatus = "completed"
	ReminderCancelled ReminderStatus = "cancelled"
)

// Reminder is a one-shot, time-triggered message.
type Reminder struct {
	ID             uuid.UUID
	Message        string
	RemindAt       time.Time
	Status         ReminderStatus
	Delivered      bool
	SessionID      string
	CreatedAt      time.Time
	CompletedAt    *time.Time
	DeliveryResult string
}

// Webhook is an HTTP-triggerable prompt template.
type Webhook struct {
	ID               uuid.UUID
	Name             string
	PathSuffix       string
	PromptTemplate   string
	Secret           string
	Enabled          bool
	TriggerCount     int64
	LastTriggeredAt  *time.Time
	CreatedAt        time.Time
}

// MemoryPoint is a single vector-store entry in the Memory Service.
type MemoryPoint struct {
	ID          uuid.UUID
	UserID      string
	Text        string
	Vector      []float32
	Timestamp   string
	MemoryType  string
	SourceAgent string
	Fields      map[string]any
}

// PendingSchedulerResult is a queued, undelivered scheduled-task outcome,
// replayed to the first client that reconnects (P6).
type PendingSchedulerResult struct {
	ID        uuid.UUID
	TaskName  string
	Prompt    string
	Response  string
	SessionID string
	Delivered bool
	CreatedAt time.Time
}
