package memstore

import "github.com/nextlevelbuilder/goclaw-orchestrator/internal/store"

// NewStores builds a fully in-process store.Stores, used by tests and by any
// standalone run with no Postgres DSN configured.
func NewStores() *store.Stores {
	return &store.Stores{
		Sessions:        NewSessionStore(),
		ScheduledTasks:  NewScheduledTaskStore(),
		Reminders:       NewReminderStore(),
		Webhooks:        NewWebhookStore(),
		PendingResults:  NewPendingResultStore(),
		ConfigOverrides: NewConfigOverrideStore(),
	}
}
