// Package sessions provides identifiers for the synthetic, non-UUID session
// slots the Scheduler Engine and webhook surface address: sessions that
// exist even when no real client has ever connected.
package sessions

import "fmt"

// OfflineSessionID is the synthetic session used by the Scheduler Engine
// when a ScheduledTask fires with zero WebSocket connections present
// (spec §4.10, E2E scenario #1).
const OfflineSessionID = "scheduler-offline"

// WebhookSessionID builds the synthetic session id a webhook trigger runs
// its prompt under: "webhook_<webhook_id>".
func WebhookSessionID(webhookID string) string {
	return fmt.Sprintf("webhook_%s", webhookID)
}

// CronSessionID builds the session id a recurring ScheduledTask runs under
// when at least one live connection exists and a session must still be
// addressed for persistence purposes.
func CronSessionID(taskID string) string {
	return fmt.Sprintf("cron_%s", taskID)
}
