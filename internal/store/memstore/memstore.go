// Package memstore implements the store interfaces (internal/store) entirely
// in-process, guarded by a sync.RWMutex per store. It backs unit tests and
// any standalone deployment run without a configured Postgres DSN, mirroring
// the shape of the Postgres implementations in internal/store/pg without a
// database round trip.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/domain"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store"
)

var ErrNotFound = errors.New("memstore: not found")

// SessionStore is an in-memory store.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*domain.Session
	messages map[uuid.UUID][]domain.Message
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]*domain.Session),
		messages: make(map[uuid.UUID][]domain.Message),
	}
}

func (s *SessionStore) GetOrCreate(ctx context.Context, sessionID uuid.UUID, userID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[sessionID]; ok {
		cp := *existing
		return &cp, nil
	}
	if userID == "" {
		userID = "web_user"
	}
	now := time.Now()
	sess := &domain.Session{ID: sessionID, UserID: userID, CreatedAt: now, LastMessageAt: now, Active: true}
	s.sessions[sessionID] = sess
	cp := *sess
	return &cp, nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *SessionStore) Rename(ctx context.Context, sessionID uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	sess.DisplayName = name
	return nil
}

func (s *SessionStore) Reset(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, sessionID)
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	sess.Active = false
	return nil
}

func (s *SessionStore) List(ctx context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Session
	for _, sess := range s.sessions {
		if sess.Active {
			out = append(out, *sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (s *SessionStore) AddMessage(ctx context.Context, msg domain.Message) error {
	return s.AddMessages(ctx, []domain.Message{msg})
}

func (s *SessionStore) AddMessages(ctx context.Context, msgs []domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range msgs {
		if msgs[i].ID == uuid.Nil {
			msgs[i].ID = uuid.Must(uuid.NewV7())
		}
		sessionID := msgs[i].SessionID
		s.messages[sessionID] = append(s.messages[sessionID], msgs[i])
	}
	last := msgs[len(msgs)-1]
	if sess, ok := s.sessions[last.SessionID]; ok {
		sess.LastMessageAt = last.Timestamp
		sess.Preview = previewOf(last.Content)
	}
	return nil
}

func (s *SessionStore) History(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]domain.Message, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.messages[sessionID]
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]domain.Message, end-offset)
	copy(out, all[offset:end])
	return out, total, nil
}

func previewOf(content string) string {
	const maxPreview = 200
	if len(content) <= maxPreview {
		return content
	}
	return content[:maxPreview]
}

var _ store.SessionStore = (*SessionStore)(nil)
