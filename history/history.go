// Package history stores a record of every task run in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run outcomes.
const (
	Running = "running"
	OK      = "ok"
	Failed  = "error"
)

// Run is one recorded run.
type Run struct {
	ID        string
	TaskID    string
	Caller    string
	StartedAt time.Time
	EndedAt   time.Time
	Outcome   string
	Error     string
	Result    string
}

// Duration is zero for runs that haven't ended.
func (r Run) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Store provides access to the history database.
type Store struct {
	db *sql.DB
}

// Open opens the database at path, creating it if needed, and runs
// migrations.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; this also keeps a :memory: database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL,
		caller TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		outcome TEXT NOT NULL,
		error TEXT,
		result TEXT
	);

	CREATE INDEX IF NOT EXISTS runs_task_started ON runs (task_id, started_at);
	`)
	return err
}

// NewID returns a fresh run ID.
func NewID() string { return uuid.NewString() }

// RecordStart inserts a running run.
func (s *Store) RecordStart(ctx context.Context, id, taskID, caller string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, task_id, caller, started_at, outcome) VALUES (?, ?, ?, ?, ?)`,
		id, taskID, caller, at.UTC(), Running,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordFinish marks a run as ended, with runErr deciding its outcome.
func (s *Store) RecordFinish(ctx context.Context, id string, at time.Time, result string, runErr error) error {
	outcome, msg := OK, ""
	if runErr != nil {
		outcome, msg = Failed, runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET ended_at = ?, outcome = ?, error = ?, result = ? WHERE id = ?`,
		at.UTC(), outcome, msg, result, id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update run %s: %w", id, ErrNotFound)
	}
	return nil
}

var ErrNotFound = errors.New("no such run")

// Query selects runs. The zero Query selects the 50 most recent runs.
type Query struct {
	TaskID string
	Limit  int
}

// List returns matching runs, newest first.
func (s *Store) List(ctx context.Context, q Query) ([]Run, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	query := `SELECT id, task_id, caller, started_at, ended_at, outcome, error, result FROM runs`
	args := []any{}
	if q.TaskID != "" {
		query += ` WHERE task_id = ?`
		args = append(args, q.TaskID)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run           Run
			endedAt       sql.NullTime
			errMsg, value sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.TaskID, &run.Caller, &run.StartedAt, &endedAt, &run.Outcome, &errMsg, &value); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if endedAt.Valid {
			run.EndedAt = endedAt.Time
		}
		run.Error = errMsg.String
		run.Result = value.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Prune deletes finished runs that started before cutoff and returns how
// many were deleted.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE started_at < ? AND outcome != ?`,
		cutoff.UTC(), Running,
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
