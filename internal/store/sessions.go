package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pantheonlabs/hermes/internal/agent"
)

// SQLiteSessions persists agent session tokens across restarts. All state is
// held in the in-memory session table at runtime; this store is only read at
// startup and written on commit.
type SQLiteSessions struct {
	db *sql.DB
}

// OpenSessions opens (creating if needed) the session database at path.
func OpenSessions(path string) (*SQLiteSessions, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	// Single writer keeps sqlite happy under concurrent commits.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		identity    TEXT PRIMARY KEY,
		token       TEXT NOT NULL,
		persona     TEXT NOT NULL DEFAULT '',
		last_active TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init session db: %w", err)
	}
	return &SQLiteSessions{db: db}, nil
}

func (s *SQLiteSessions) LoadAll(ctx context.Context) ([]agent.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT identity, token, persona, last_active FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	defer rows.Close()

	var out []agent.SessionRecord
	for rows.Next() {
		var rec agent.SessionRecord
		var last time.Time
		if err := rows.Scan(&rec.Identity, &rec.Token, &rec.Persona, &last); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.LastActive = last
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteSessions) Save(ctx context.Context, rec agent.SessionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (identity, token, persona, last_active) VALUES (?, ?, ?, ?)
		 ON CONFLICT (identity) DO UPDATE SET token = excluded.token,
		   persona = excluded.persona, last_active = excluded.last_active`,
		rec.Identity, rec.Token, rec.Persona, rec.LastActive,
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.Identity, err)
	}
	return nil
}

func (s *SQLiteSessions) Close() error { return s.db.Close() }
