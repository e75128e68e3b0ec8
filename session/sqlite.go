package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/planweave/planweave/core"
)

// ErrStoreClosed is returned by operations on a closed SQLiteStore.
var ErrStoreClosed = errors.New("session: store closed")

// SQLiteStore persists run events to SQLite, so event history survives the
// process that produced it. Suitable for single-process production use;
// WAL mode keeps concurrent readers cheap.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (and if needed initializes) a session database.
// Use a file path such as "./sessions.db" or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			seq       INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			event_id  TEXT NOT NULL,
			author    TEXT NOT NULL,
			kind      TEXT NOT NULL,
			message   TEXT NOT NULL,
			data      TEXT,
			timestamp TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create events table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS events_run_id ON events (run_id)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create run index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, ev core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	var data []byte
	if ev.Data != nil {
		var err error
		data, err = json.Marshal(ev.Data)
		if err != nil {
			return fmt.Errorf("encode event data: %w", err)
		}
	}
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO events (run_id, event_id, author, kind, message, data, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.RunID, ev.ID, ev.Author, string(ev.Kind), ev.Message, data, ts.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Events implements Store.
func (s *SQLiteStore) Events(ctx context.Context, runID string) ([]core.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, author, kind, message, data, timestamp
		FROM events
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var out []core.Event
	for rows.Next() {
		var ev core.Event
		var kind, timestamp string
		var data []byte
		if err := rows.Scan(&ev.ID, &ev.Author, &kind, &ev.Message, &data, &timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.RunID = runID
		ev.Kind = core.EventKind(kind)
		ev.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		if len(data) > 0 {
			if err := json.Unmarshal(data, &ev.Data); err != nil {
				return nil, fmt.Errorf("decode event data: %w", err)
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrRunNotFound
	}
	return out, nil
}

// Runs implements Store. Run IDs are returned sorted for deterministic
// listings.
func (s *SQLiteStore) Runs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT run_id FROM events ORDER BY run_id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return ids, nil
}

// DeleteRun implements Store.
func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete run events: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
