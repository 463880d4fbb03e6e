package memstore

import (
	"context"
	"sync"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store"
)

// ConfigOverrideStore is an in-memory store.ConfigOverrideStore.
type ConfigOverrideStore struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewConfigOverrideStore() *ConfigOverrideStore {
	return &ConfigOverrideStore{values: make(map[string]any)}
}

func (s *ConfigOverrideStore) All(ctx context.Context) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out, nil
}

func (s *ConfigOverrideStore) Set(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

var _ store.ConfigOverrideStore = (*ConfigOverrideStore)(nil)
