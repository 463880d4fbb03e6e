package pg

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/domain"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store"
)

// PGWebhookStore implements store.WebhookStore against webhook_definitions,
// grounded on original_source/radbot/tools/webhooks/db.py's
// list_webhooks/get_by_path/record_trigger contract.
type PGWebhookStore struct{ db *sql.DB }

func NewPGWebhookStore(db *sql.DB) *PGWebhookStore { return &PGWebhookStore{db: db} }

func (s *PGWebhookStore) Create(ctx context.Context, w *domain.Webhook) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.Must(uuid.NewV7())
	}
	w.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO webhook_definitions (webhook_id, name, path_suffix, prompt_template, secret, enabled, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		w.ID, w.Name, w.PathSuffix, w.PromptTemplate, nilStr(w.Secret), w.Enabled, w.CreatedAt,
	)
	return err
}

func (s *PGWebhookStore) List(ctx context.Context) ([]domain.Webhook, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT webhook_id, name, path_suffix, prompt_template, secret, enabled, created_at, last_triggered_at, trigger_count
		 FROM webhook_definitions ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Webhook
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			continue
		}
		out = append(out, *w)
	}
	return out, nil
}

func (s *PGWebhookStore) GetByPath(ctx context.Context, pathSuffix string) (*domain.Webhook, error) {
	return scanWebhook(s.db.QueryRowContext(ctx,
		`SELECT webhook_id, name, path_suffix, prompt_template, secret, enabled, created_at, last_triggered_at, trigger_count
		 FROM webhook_definitions WHERE path_suffix = $1`, pathSuffix))
}

func (s *PGWebhookStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM webhook_definitions WHERE webhook_id = $1`, id)
	return err
}

func (s *PGWebhookStore) RecordTrigger(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE webhook_definitions SET last_triggered_at = $1, trigger_count = trigger_count + 1 WHERE webhook_id = $2`,
		at, id)
	return err
}

func scanWebhook(row rowScanner) (*domain.Webhook, error) {
	var w domain.Webhook
	var secret sql.NullString
	var lastTriggeredAt sql.NullTime
	if err := row.Scan(&w.ID, &w.Name, &w.PathSuffix, &w.PromptTemplate, &secret, &w.Enabled,
		&w.CreatedAt, &lastTriggeredAt, &w.TriggerCount); err != nil {
		return nil, err
	}
	w.Secret = secret.String
	if lastTriggeredAt.Valid {
		w.LastTriggeredAt = &lastTriggeredAt.Time
	}
	return &w, nil
}

var _ store.WebhookStore = (*PGWebhookStore)(nil)
