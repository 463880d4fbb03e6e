package bus

import "sync"

// Broadcaster is the in-process EventPublisher implementation: a registry
// of named subscriber callbacks invoked synchronously on Broadcast. The
// gateway's Connection Manager subscribes one callback per live WS client;
// the agent runtime and scheduler are the only publishers.
type Broadcaster struct {
	mu       sync.RWMutex
	handlers map[string]EventHandler
}

// NewBroadcaster returns an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{handlers: make(map[string]EventHandler)}
}

func (b *Broadcaster) Subscribe(id string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[id] = handler
}

func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, id)
}

// Broadcast delivers event to every current subscriber. Subscribers are
// snapshotted under the read lock so a handler that subscribes/unsubscribes
// during delivery can't deadlock or mutate the map mid-range.
func (b *Broadcaster) Broadcast(event Event) {
	b.mu.RLock()
	handlers := make([]EventHandler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
