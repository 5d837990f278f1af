package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL-backed SnapshotStore, for deployments that already
// centralize operational metadata in MySQL and want scheduler rollups
// alongside it rather than in a local file.
//
// dsn follows github.com/go-sql-driver/mysql's DSN format, e.g.
// "user:pass@tcp(host:3306)/dbname?parseTime=true". parseTime=true is
// required so DATETIME columns scan into time.Time.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a connection pool against dsn and ensures the schema
// exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("depengine/store: open mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS scheduler_tags (
			name VARCHAR(255) PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS scheduler_lifecycle (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			event VARCHAR(32) NOT NULL,
			at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scheduler_rollups (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			tag VARCHAR(255) NOT NULL,
			queue_depth INT NOT NULL,
			mode VARCHAR(8) NOT NULL,
			instructions_fired BIGINT NOT NULL,
			recorded_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *MySQLStore) RegisterTags(ctx context.Context, names []string) error {
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

func (s *MySQLStore) Tags(ctx context.Context) ([]string, error) {
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

func (s *MySQLStore) RecordLifecycle(ctx context.Context, ev Lifecycle) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO scheduler_lifecycle(event, at) VALUES (?, ?)", ev.Event, ev.At)
	return err
}

func (s *MySQLStore) RecordRollup(ctx context.Context, r Rollup) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO scheduler_rollups(tag, queue_depth, mode, instructions_fired, recorded_at) VALUES (?, ?, ?, ?, ?)",
		r.Tag, r.QueueDepth, r.Mode, r.InstructionsFired, r.RecordedAt)
	return err
}

func (s *MySQLStore) RecentRollups(ctx context.Context, limit int) ([]Rollup, error) {
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

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
