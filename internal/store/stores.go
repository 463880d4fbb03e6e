package store

// StoreConfig configures the Postgres-backed store set (spec §4.1).
type StoreConfig struct {
	PostgresDSN string
	MaxOpenConn int
	MaxIdleConn int
}

// Stores is the top-level container for every DAO the rest of the system
// depends on. All fields are populated in both the Postgres-backed and the
// in-memory (test/standalone) builds.
type Stores struct {
	Sessions       SessionStore
	ScheduledTasks ScheduledTaskStore
	Reminders      ReminderStore
	Webhooks       WebhookStore
	PendingResults PendingResultStore
	ConfigOverrides ConfigOverrideStore
}
