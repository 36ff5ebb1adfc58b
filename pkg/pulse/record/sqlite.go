package record

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists dispatched events to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite dispatch recorder.
// The path should be a file path (e.g., "./events.db") or ":memory:" for
// testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS dispatches (
			event_id INTEGER NOT NULL PRIMARY KEY,
			kind TEXT NOT NULL,
			priority INTEGER NOT NULL,
			frame INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			handled INTEGER NOT NULL,
			payload BLOB
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_dispatches_kind
		ON dispatches(kind)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Record implements Recorder.
func (s *SQLiteStore) Record(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrRecorderClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO dispatches
			(event_id, kind, priority, frame, timestamp, handled, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.EventID, entry.Kind, entry.Priority, entry.Frame,
		entry.Timestamp.UTC().Format(time.RFC3339Nano), entry.Handled, entry.Payload)

	if err != nil {
		return fmt.Errorf("record dispatch: %w", err)
	}
	return nil
}

// List implements Recorder.
func (s *SQLiteStore) List(ctx context.Context, kind string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrRecorderClosed
	}

	query := `
		SELECT event_id, kind, priority, frame, timestamp, handled, payload
		FROM dispatches
	`
	args := []any{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY event_id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dispatches: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var timestamp string
		if err := rows.Scan(&e.EventID, &e.Kind, &e.Priority, &e.Frame,
			&timestamp, &e.Handled, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatches: %w", err)
	}

	return entries, nil
}

// Count implements Recorder.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrRecorderClosed
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dispatches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count dispatches: %w", err)
	}
	return n, nil
}

// Close implements Recorder.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
