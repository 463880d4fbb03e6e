package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store"
)

// PGConfigOverrideStore implements store.ConfigOverrideStore against
// config_overrides, the DB layer config.ApplyDBOverrides composes on top of
// the file and env layers via koanf (spec §4.12).
type PGConfigOverrideStore struct{ db *sql.DB }

func NewPGConfigOverrideStore(db *sql.DB) *PGConfigOverrideStore { return &PGConfigOverrideStore{db: db} }

func (s *PGConfigOverrideStore) All(ctx context.Context) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM config_overrides`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]any)
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out[key] = v
	}
	return out, nil
}

func (s *PGConfigOverrideStore) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO config_overrides (key, value, updated_at) VALUES ($1,$2,$3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, raw, time.Now(),
	)
	return err
}

var _ store.ConfigOverrideStore = (*PGConfigOverrideStore)(nil)
