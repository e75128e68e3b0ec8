package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

// SQLiteStore persists checkpoints to SQLite. Suitable for single-process
// production use; WAL mode keeps concurrent readers cheap.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (and if needed initializes) a checkpoint database.
// Use a file path such as "./planweave.db" or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS checkpoints (
			run_id     TEXT NOT NULL,
			sequence   INTEGER NOT NULL,
			node_id    TEXT NOT NULL,
			next_node  TEXT NOT NULL,
			created_at TEXT NOT NULL,
			state      BLOB NOT NULL,
			PRIMARY KEY (run_id, sequence)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create checkpoints table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	createdAt := cp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if cp.Sequence == 0 {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO checkpoints (run_id, sequence, node_id, next_node, created_at, state)
			VALUES (
				?,
				COALESCE((SELECT MAX(sequence) FROM checkpoints WHERE run_id = ?), 0) + 1,
				?, ?, ?, ?
			)
		`, cp.RunID, cp.RunID, cp.NodeID, cp.NextNode, createdAt.Format(time.RFC3339Nano), cp.State)
		if err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO checkpoints (run_id, sequence, node_id, next_node, created_at, state)
		VALUES (?, ?, ?, ?, ?, ?)
	`, cp.RunID, cp.Sequence, cp.NodeID, cp.NextNode, createdAt.Format(time.RFC3339Nano), cp.State)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Latest implements Store.
func (s *SQLiteStore) Latest(ctx context.Context, runID string) (Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Checkpoint{}, ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT sequence, node_id, next_node, created_at, state
		FROM checkpoints
		WHERE run_id = ?
		ORDER BY sequence DESC
		LIMIT 1
	`, runID)

	cp, err := scanCheckpoint(row, runID)
	if err == sql.ErrNoRows {
		return Checkpoint{}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("load latest checkpoint: %w", err)
	}
	return cp, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, runID string) ([]Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence, node_id, next_node, created_at, state
		FROM checkpoints
		WHERE run_id = ?
		ORDER BY sequence
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	out := []Checkpoint{}
	for rows.Next() {
		cp, err := scanCheckpoint(rows, runID)
		if err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		out = append(out, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}
	return out, nil
}

// DeleteRun implements Store.
func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete run checkpoints: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheckpoint(row rowScanner, runID string) (Checkpoint, error) {
	var cp Checkpoint
	var createdAt string
	if err := row.Scan(&cp.Sequence, &cp.NodeID, &cp.NextNode, &createdAt, &cp.State); err != nil {
		return Checkpoint{}, err
	}
	cp.RunID = runID
	cp.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return cp, nil
}
