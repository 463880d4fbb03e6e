package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/domain"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store"
)

// ScheduledTaskStore is an in-memory store.ScheduledTaskStore.
type ScheduledTaskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.ScheduledTask
}

func NewScheduledTaskStore() *ScheduledTaskStore {
	return &ScheduledTaskStore{tasks: make(map[uuid.UUID]*domain.ScheduledTask)}
}

func (s *ScheduledTaskStore) Create(ctx context.Context, t *domain.ScheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.Must(uuid.NewV7())
	}
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *ScheduledTaskStore) Get(ctx context.Context, id uuid.UUID) (*domain.ScheduledTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *ScheduledTaskStore) List(ctx context.Context, enabledOnly bool) ([]domain.ScheduledTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ScheduledTask
	for _, t := range s.tasks {
		if enabledOnly && !t.Enabled {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *ScheduledTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	return nil
}

func (s *ScheduledTaskStore) UpdateLastRun(ctx context.Context, id uuid.UUID, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	t.LastRunAt = &now
	t.RunCount++
	t.LastResult = result
	t.UpdatedAt = now
	return nil
}

// ReminderStore is an in-memory store.ReminderStore.
type ReminderStore struct {
	mu        sync.RWMutex
	reminders map[uuid.UUID]*domain.Reminder
}

func NewReminderStore() *ReminderStore {
	return &ReminderStore{reminders: make(map[uuid.UUID]*domain.Reminder)}
}

func (s *ReminderStore) Create(ctx context.Context, r *domain.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.Must(uuid.NewV7())
	}
	r.CreatedAt = time.Now()
	if r.Status == "" {
		r.Status = domain.ReminderPending
	}
	cp := *r
	s.reminders[r.ID] = &cp
	return nil
}

func (s *ReminderStore) List(ctx context.Context, status domain.ReminderStatus) ([]domain.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Reminder
	for _, r := range s.reminders {
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *ReminderStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reminders, id)
	return nil
}

func (s *ReminderStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok || r.Status != domain.ReminderPending {
		return ErrNotFound
	}
	now := time.Now()
	r.Status = domain.ReminderCompleted
	r.CompletedAt = &now
	return nil
}

func (s *ReminderStore) MarkDelivered(ctx context.Context, id uuid.UUID, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok {
		return ErrNotFound
	}
	r.Delivered = true
	r.DeliveryResult = result
	return nil
}

func (s *ReminderStore) UndeliveredCompleted(ctx context.Context) ([]domain.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Reminder
	for _, r := range s.reminders {
		if r.Status == domain.ReminderCompleted && !r.Delivered {
			out = append(out, *r)
		}
	}
	return out, nil
}

// PendingResultStore is an in-memory store.PendingResultStore.
type PendingResultStore struct {
	mu      sync.RWMutex
	results map[uuid.UUID]*domain.PendingSchedulerResult
}

func NewPendingResultStore() *PendingResultStore {
	return &PendingResultStore{results: make(map[uuid.UUID]*domain.PendingSchedulerResult)}
}

func (s *PendingResultStore) Enqueue(ctx context.Context, r *domain.PendingSchedulerResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.Must(uuid.NewV7())
	}
	r.CreatedAt = time.Now()
	cp := *r
	s.results[r.ID] = &cp
	return nil
}

func (s *PendingResultStore) Undelivered(ctx context.Context) ([]domain.PendingSchedulerResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PendingSchedulerResult
	for _, r := range s.results {
		if !r.Delivered {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *PendingResultStore) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[id]
	if !ok {
		return ErrNotFound
	}
	r.Delivered = true
	return nil
}

var (
	_ store.ScheduledTaskStore = (*ScheduledTaskStore)(nil)
	_ store.ReminderStore      = (*ReminderStore)(nil)
	_ store.PendingResultStore = (*PendingResultStore)(nil)
)
