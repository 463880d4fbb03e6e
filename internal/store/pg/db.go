// Package pg implements the store interfaces (internal/store) against
// Postgres via database/sql and the pgx/v5 stdlib driver.
package pg

import (
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/google/uuid"
)

// OpenDB opens a bounded connection pool to dsn (spec §5: min=1, max=5 per
// pool by default).
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func nilStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nilUUIDPtr(u uuid.UUID) any {
	if u == uuid.Nil {
		return nil
	}
	return u
}
