// Package history keeps a local log of sync runs in a SQLite database next
// to the config file.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	sync_id    TEXT NOT NULL,
	sync_name  TEXT NOT NULL,
	started_at TEXT NOT NULL,
	elapsed_ms INTEGER NOT NULL DEFAULT 0,
	created    INTEGER NOT NULL DEFAULT 0,
	updated    INTEGER NOT NULL DEFAULT 0,
	deleted    INTEGER NOT NULL DEFAULT 0,
	published  INTEGER NOT NULL DEFAULT 0,
	errors     TEXT NOT NULL DEFAULT '[]',
	outcome    TEXT NOT NULL,
	message    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sync_runs_sync ON sync_runs(sync_id, started_at);
`

// Outcomes of a run.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Run is one logged sync run.
type Run struct {
	ID        int64
	SyncID    string
	SyncName  string
	StartedAt time.Time
	Elapsed   time.Duration
	Created   int
	Updated   int
	Deleted   int
	Published int
	Errors    []string
	Outcome   string
	Message   string
}

// DB is an open run-history database.
type DB struct {
	db *sql.DB
}

// Open opens (and if needed creates) the history database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Record appends one run and fills in its assigned id.
func (d *DB) Record(run *Run) error {
	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("marshal run errors: %w", err)
	}
	res, err := d.db.Exec(`
		INSERT INTO sync_runs
			(sync_id, sync_name, started_at, elapsed_ms, created, updated, deleted, published, errors, outcome, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.SyncID, run.SyncName, run.StartedAt.UTC().Format(time.RFC3339),
		run.Elapsed.Milliseconds(), run.Created, run.Updated, run.Deleted,
		run.Published, string(errorsJSON), run.Outcome, run.Message,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	run.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}
	return nil
}

// Tail returns the most recent runs, newest first. An empty syncID returns
// runs across all syncs.
func (d *DB) Tail(syncID string, limit int) ([]Run, error) {
	query := `
		SELECT id, sync_id, sync_name, started_at, elapsed_ms, created, updated, deleted, published, errors, outcome, message
		FROM sync_runs`
	args := []any{}
	if syncID != "" {
		query += ` WHERE sync_id = ?`
		args = append(args, syncID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			startedAt  string
			elapsedMS  int64
			errorsJSON string
		)
		if err := rows.Scan(&run.ID, &run.SyncID, &run.SyncName, &startedAt, &elapsedMS,
			&run.Created, &run.Updated, &run.Deleted, &run.Published, &errorsJSON,
			&run.Outcome, &run.Message); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse run time: %w", err)
		}
		run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if err := json.Unmarshal([]byte(errorsJSON), &run.Errors); err != nil {
			return nil, fmt.Errorf("parse run errors: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
