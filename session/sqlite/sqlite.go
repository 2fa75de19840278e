// Package sqlite provides a durable core.StateStore on SQLite using the pure
// Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/travelmesh/core"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

var _ core.StateStore = (*Store)(nil)

// Store persists one JSON snapshot per thread.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn and applies the schema.
// Use ":memory:" for an ephemeral database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Load returns the stored state or core.ErrThreadNotFound.
func (s *Store) Load(ctx context.Context, threadID string) (*core.ConversationState, error) {
	var raw string

	err := s.db.QueryRowContext(ctx, "SELECT state FROM threads WHERE thread_id = ?", threadID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load thread %s: %w", threadID, err)
	}

	var st core.ConversationState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decode thread %s: %w", threadID, err)
	}

	return &st, nil
}

// Save upserts the snapshot of state.
func (s *Store) Save(ctx context.Context, state *core.ConversationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode thread %s: %w", state.ThreadID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO threads (thread_id, state, current, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(thread_id) DO UPDATE SET state = excluded.state, current = excluded.current, updated_at = excluded.updated_at`,
		state.ThreadID, string(raw), state.CurrentAgent(), state.Updated.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save thread %s: %w", state.ThreadID, err)
	}

	return nil
}

// Delete removes the thread. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM threads WHERE thread_id = ?", threadID); err != nil {
		return fmt.Errorf("delete thread %s: %w", threadID, err)
	}
	return nil
}

// ThreadIDs lists stored threads, most recently updated first.
func (s *Store) ThreadIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT thread_id FROM threads ORDER BY updated_at DESC, thread_id")
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var ids []string

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
