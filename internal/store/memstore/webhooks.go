package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/domain"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store"
)

// WebhookStore is an in-memory store.WebhookStore.
type WebhookStore struct {
	mu       sync.RWMutex
	webhooks map[uuid.UUID]*domain.Webhook
}

func NewWebhookStore() *WebhookStore {
	return &WebhookStore{webhooks: make(map[uuid.UUID]*domain.Webhook)}
}

func (s *WebhookStore) Create(ctx context.Context, w *domain.Webhook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.Must(uuid.NewV7())
	}
	w.CreatedAt = time.Now()
	cp := *w
	s.webhooks[w.ID] = &cp
	return nil
}

func (s *WebhookStore) List(ctx context.Context) ([]domain.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Webhook
	for _, w := range s.webhooks {
		out = append(out, *w)
	}
	return out, nil
}

func (s *WebhookStore) GetByPath(ctx context.Context, pathSuffix string) (*domain.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.webhooks {
		if w.PathSuffix == pathSuffix {
			cp := *w
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *WebhookStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.webhooks, id)
	return nil
}

func (s *WebhookStore) RecordTrigger(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.webhooks[id]
	if !ok {
		return ErrNotFound
	}
	w.LastTriggeredAt = &at
	w.TriggerCount++
	return nil
}

var _ store.WebhookStore = (*WebhookStore)(nil)
