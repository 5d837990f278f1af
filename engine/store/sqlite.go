package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed SnapshotStore. It is the recommended
// choice for a single-process engine that wants its resource registry and
// activity rollups to survive a restart, with zero external setup.
//
// Schema:
//   - scheduler_tags: the current resource name registry (replaced wholesale
//     on each RegisterTags call)
//   - scheduler_lifecycle: append-only start/stop events
//   - scheduler_rollups: append-only periodic activity summaries
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at path
// and ensures its schema exists. path may be ":memory:" for a scratch
// store that doesn't survive process exit.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("depengine/store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS scheduler_tags (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS scheduler_lifecycle (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event TEXT NOT NULL,
	at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS scheduler_rollups (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tag TEXT NOT NULL,
	queue_depth INTEGER NOT NULL,
	mode TEXT NOT NULL,
	instructions_fired INTEGER NOT NULL,
	recorded_at DATETIME NOT NULL
);
`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) RegisterTags(ctx context.Context, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM scheduler_tags"); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := tx.ExecContext(ctx, "INSERT INTO scheduler_tags(name) VALUES (?)", name); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Tags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM scheduler_tags ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) RecordLifecycle(ctx context.Context, ev Lifecycle) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO scheduler_lifecycle(event, at) VALUES (?, ?)", ev.Event, ev.At)
	return err
}

func (s *SQLiteStore) RecordRollup(ctx context.Context, r Rollup) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO scheduler_rollups(tag, queue_depth, mode, instructions_fired, recorded_at) VALUES (?, ?, ?, ?, ?)",
		r.Tag, r.QueueDepth, r.Mode, r.InstructionsFired, r.RecordedAt)
	return err
}

func (s *SQLiteStore) RecentRollups(ctx context.Context, limit int) ([]Rollup, error) {
	query := "SELECT tag, queue_depth, mode, instructions_fired, recorded_at FROM scheduler_rollups ORDER BY id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rollup
	for rows.Next() {
		var r Rollup
		var recordedAt time.Time
		if err := rows.Scan(&r.Tag, &r.QueueDepth, &r.Mode, &r.InstructionsFired, &recordedAt); err != nil {
			return nil, err
		}
		r.RecordedAt = recordedAt
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
