package runner

import (
	"testing"

	"github.com/google/uuid"
)

func TestSessionUUID_RealUUIDPassesThrough(t *testing.T) {
	id := uuid.New()
	got := SessionUUID(id.String())
	if got != id {
		t.Errorf("SessionUUID(%s) = %s, want unchanged", id, got)
	}
}

func TestSessionUUID_SyntheticKeyIsDeterministic(t *testing.T) {
	a := SessionUUID("cron_42")
	b := SessionUUID("cron_42")
	if a != b {
		t.Errorf("SessionUUID not deterministic: %s != %s", a, b)
	}
}

func TestSessionUUID_DifferentKeysDifferentUUIDs(t *testing.T) {
	a := SessionUUID("cron_42")
	b := SessionUUID("webhook_7")
	if a == b {
		t.Errorf("SessionUUID collided for distinct keys: %s", a)
	}
}

func TestSessionUUID_SchedulerOfflineKey(t *testing.T) {
	got := SessionUUID("scheduler-offline")
	if got == uuid.Nil {
		t.Error("SessionUUID(\"scheduler-offline\") returned Nil UUID")
	}
}
