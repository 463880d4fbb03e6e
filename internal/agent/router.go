package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Agent is anything that can process a RunRequest. *Loop is the only
// implementation; the interface exists so Router and its callers
// (internal/runner, internal/scheduler) don't need to import *Loop directly.
type Agent interface {
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
	ID() string
	Model() string
	IsRunning() bool
}

// Router resolves an agent key to its running Loop. SPEC_FULL.md runs a
// single configured agent per process, but keeping a keyed registry (rather
// than a bare *Loop global) costs nothing and matches how the teacher's
// gateway addresses agents by key everywhere else (cron targets, webhook
// targets, WS requests).
type Router struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

func NewRouter() *Router {
	return &Router{agents: make(map[string]Agent)}
}

func (r *Router) Register(key string, a Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[key] = a
}

func (r *Router) Get(key string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[key]
	if !ok {
		return nil, fmt.Errorf("agent not found: %s", key)
	}
	return a, nil
}

// Default returns the single registered agent when there is exactly one,
// the common case for a SPEC_FULL.md deployment.
func (r *Router) Default() (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.agents) == 1 {
		for _, a := range r.agents {
			return a, nil
		}
	}
	if a, ok := r.agents["default"]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("no default agent registered")
}

func (r *Router) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.agents))
	for k := range r.agents {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
