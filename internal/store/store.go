// Package store is jobman's durable record of jobs and runs: a single SQLite
// file in WAL mode shared by every jobman invocation on the host. Concurrent
// invocations coordinate only through SQLite's own locking; jobman holds no
// locks of its own.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite connection with jobman-specific operations.
// Every query is scoped to hostID.
type Store struct {
	conn   *sql.DB
	hostID string
}

// Open creates or opens the database at path, creating parent directories as
// needed. It enables WAL mode, a 64 KiB page cache, and foreign keys on
// every connection, and applies the schema idempotently.
func Open(path, hostID string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	// The pragmas ride on the DSN so the driver re-applies them to every
	// pooled connection; foreign_keys in particular is per-connection state
	// and the run cascade depends on it.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=cache_size(-64)&_pragma=foreign_keys(1)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{conn: conn, hostID: hostID}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// HostID returns the host scope this store was opened with.
func (s *Store) HostID() string {
	return s.hostID
}

// Destroy removes the database file along with its WAL and SHM sidecars.
// Used by reset.
func Destroy(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

// migrate creates or updates the schema. Safe to run on every open.
func (s *Store) migrate() error {
	schema := `
-- Jobs: one row per submitted command, identity + policy + terminal outcome
CREATE TABLE IF NOT EXISTS jobs (
    job_id                   TEXT PRIMARY KEY,
    host_id                  TEXT NOT NULL,
    command                  TEXT NOT NULL,
    wait_time                TEXT,
    wait_duration            REAL,
    wait_for_files           TEXT,
    abort_time               TEXT,
    abort_duration           REAL,
    abort_for_files          TEXT,
    retry_attempts           INTEGER NOT NULL DEFAULT 0,
    retry_delay              REAL,
    retry_expo_backoff       INTEGER NOT NULL DEFAULT 0,
    retry_jitter             INTEGER NOT NULL DEFAULT 0,
    success_codes            TEXT,
    notify_on_run_completion TEXT,
    notify_on_job_completion TEXT,
    notify_on_job_success    TEXT,
    notify_on_run_success    TEXT,
    notify_on_job_failure    TEXT,
    notify_on_run_failure    TEXT,
    follow                   INTEGER NOT NULL DEFAULT 0,
    start_time               TEXT,
    finish_time              TEXT,
    state                    INTEGER NOT NULL,
    exit_code                INTEGER
);

-- Runs: one row per attempt; composite identity (job_id, attempt)
CREATE TABLE IF NOT EXISTS runs (
    job_id      TEXT NOT NULL REFERENCES jobs(job_id) ON DELETE CASCADE,
    attempt     INTEGER NOT NULL,
    log_path    TEXT NOT NULL,
    pid         INTEGER,
    start_time  TEXT,
    finish_time TEXT,
    state       INTEGER NOT NULL,
    exit_code   INTEGER,
    killed      INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (job_id, attempt)
);

CREATE INDEX IF NOT EXISTS idx_jobs_host_id ON jobs(host_id);
CREATE INDEX IF NOT EXISTS idx_jobs_state ON jobs(host_id, state);
CREATE INDEX IF NOT EXISTS idx_jobs_start_time ON jobs(host_id, start_time);
CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state);
`

	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}
