package bus

import (
	"sync"
	"testing"
)

func TestBroadcaster_DeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcaster()

	var mu sync.Mutex
	got := make(map[string]Event)

	b.Subscribe("a", func(e Event) { mu.Lock(); got["a"] = e; mu.Unlock() })
	b.Subscribe("b", func(e Event) { mu.Lock(); got["b"] = e; mu.Unlock() })

	b.Broadcast(Event{Name: "chat", Payload: "hi"})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got["a"].Name != "chat" || got["b"].Name != "chat" {
		t.Errorf("subscribers did not receive expected event: %+v", got)
	}
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := NewBroadcaster()

	calls := 0
	b.Subscribe("a", func(Event) { calls++ })
	b.Unsubscribe("a")

	b.Broadcast(Event{Name: "chat"})

	if calls != 0 {
		t.Errorf("calls = %d, want 0 after unsubscribe", calls)
	}
}

func TestBroadcaster_NoSubscribersDoesNotPanic(t *testing.T) {
	b := NewBroadcaster()
	b.Broadcast(Event{Name: "chat"})
}

// A handler that subscribes/unsubscribes during delivery must not deadlock
// or corrupt the next Broadcast, since Broadcast snapshots handlers under
// RLock before invoking any of them.
func TestBroadcaster_MutationDuringBroadcastDoesNotDeadlock(t *testing.T) {
	b := NewBroadcaster()

	done := make(chan struct{})
	b.Subscribe("mutator", func(Event) {
		b.Subscribe("late", func(Event) {})
		b.Unsubscribe("mutator")
		close(done)
	})

	b.Broadcast(Event{Name: "chat"})

	select {
	case <-done:
	default:
		t.Fatal("mutator handler never ran")
	}

	calls := 0
	b.Subscribe("counter", func(Event) { calls++ })
	b.Broadcast(Event{Name: "chat2"})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 on subsequent broadcast", calls)
	}
}
