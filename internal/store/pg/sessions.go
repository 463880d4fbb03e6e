package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/domain"
	"github.com/nextlevelbuilder/goclaw-orchestrator/internal/store"
)

// PGSessionStore implements store.SessionStore against chat_sessions and
// chat_messages (spec §4.1), adapted from the teacher's cached
// PGSessionStore pattern down to its UUID-keyed core: no hot-path in-memory
// cache is needed here because the Session Runner keeps its own per-session
// working set (internal/runner) and only calls through on turn boundaries.
type PGSessionStore struct {
	db *sql.DB
}

func NewPGSessionStore(db *sql.DB) *PGSessionStore {
	return &PGSessionStore{db: db}
}

func (s *PGSessionStore) GetOrCreate(ctx context.Context, sessionID uuid.UUID, userID string) (*domain.Session, error) {
	if existing, err := s.Get(ctx, sessionID); err == nil {
		return existing, nil
	}

	if userID == "" {
		userID = "web_user"
	}
	now := time.Now()
	sess := &domain.Session{
		ID:            sessionID,
		UserID:        userID,
		CreatedAt:     now,
		LastMessageAt: now,
		Active:        true,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (session_id, user_id, active, created_at, last_message_at)
		 VALUES ($1,$2,$3,$4,$5) ON CONFLICT (session_id) DO NOTHING`,
		sess.ID, sess.UserID, sess.Active, sess.CreatedAt, sess.LastMessageAt,
	)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *PGSessionStore) Get(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	var sess domain.Session
	var displayName, preview sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, display_name, user_id, preview, active, created_at, last_message_at
		 FROM chat_sessions WHERE session_id = $1`, sessionID,
	).Scan(&sess.ID, &displayName, &sess.UserID, &preview, &sess.Active, &sess.CreatedAt, &sess.LastMessageAt)
	if err != nil {
		return nil, err
	}
	sess.DisplayName = displayName.String
	sess.Preview = preview.String
	return &sess, nil
}

func (s *PGSessionStore) Rename(ctx context.Context, sessionID uuid.UUID, name string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET display_name = $1 WHERE session_id = $2`, name, sessionID)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (s *PGSessionStore) Reset(ctx context.Context, sessionID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = $1`, sessionID)
	return err
}

func (s *PGSessionStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET active = FALSE WHERE session_id = $1`, sessionID)
	return err
}

func (s *PGSessionStore) List(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, display_name, user_id, preview, active, created_at, last_message_at
		 FROM chat_sessions WHERE active = TRUE ORDER BY last_message_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		var sess domain.Session
		var displayName, preview sql.NullString
		if err := rows.Scan(&sess.ID, &displayName, &sess.UserID, &preview, &sess.Active, &sess.CreatedAt, &sess.LastMessageAt); err != nil {
			continue
		}
		sess.DisplayName = displayName.String
		sess.Preview = preview.String
		out = append(out, sess)
	}
	return out, nil
}

func (s *PGSessionStore) AddMessage(ctx context.Context, msg domain.Message) error {
	return s.AddMessages(ctx, []domain.Message{msg})
}

func (s *PGSessionStore) AddMessages(ctx context.Context, msgs []domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, m := range msgs {
		if m.ID == uuid.Nil {
			m.ID = uuid.Must(uuid.NewV7())
		}
		metaJSON, _ := json.Marshal(m.Metadata)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chat_messages (message_id, session_id, role, content, agent_name, metadata, timestamp)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			m.ID, m.SessionID, string(m.Role), m.Content, nilStr(m.AgentName), metaJSON, m.Timestamp,
		)
		if err != nil {
			return err
		}
	}

	last := msgs[len(msgs)-1]
	if _, err := tx.ExecContext(ctx,
		`UPDATE chat_sessions SET last_message_at = $1, preview = $2 WHERE session_id = $3`,
		last.Timestamp, previewOf(last.Content), last.SessionID,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *PGSessionStore) History(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]domain.Message, int, error) {
	if limit <= 0 {
		limit = 200
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE session_id = $1`, sessionID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, session_id, role, content, agent_name, metadata, timestamp
		 FROM chat_messages WHERE session_id = $1 ORDER BY timestamp ASC LIMIT $2 OFFSET $3`,
		sessionID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		var role string
		var agentName sql.NullString
		var metaJSON []byte
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &agentName, &metaJSON, &m.Timestamp); err != nil {
			continue
		}
		m.Role = domain.Role(role)
		m.AgentName = agentName.String
		if len(metaJSON) > 0 {
			json.Unmarshal(metaJSON, &m.Metadata)
		}
		out = append(out, m)
	}
	return out, total, nil
}

func previewOf(content string) string {
	const maxPreview = 200
	if len(content) <= maxPreview {
		return content
	}
	return content[:maxPreview]
}

func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("not found")
	}
	return nil
}

var _ store.SessionStore = (*PGSessionStore)(nil)
