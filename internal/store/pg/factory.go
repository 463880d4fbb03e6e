package pg

import (
	"fmt"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store"
)

// NewPGStores opens a bounded Postgres connection pool and wires every
// store.Stores member to its Postgres-backed implementation.
func NewPGStores(cfg store.StoreConfig) (*store.Stores, error) {
	db, err := OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	return &store.Stores{
		Sessions:        NewPGSessionStore(db),
		ScheduledTasks:  NewPGScheduledTaskStore(db),
		Reminders:       NewPGReminderStore(db),
		Webhooks:        NewPGWebhookStore(db),
		PendingResults:  NewPGPendingResultStore(db),
		ConfigOverrides: NewPGConfigOverrideStore(db),
	}, nil
}
