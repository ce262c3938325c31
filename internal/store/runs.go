package store

import (
	"database/sql"
	"fmt"
	"time"
)

const runColumns = `job_id, attempt, log_path, pid, start_time, finish_time,
	state, exit_code, killed`

// InsertRun persists a new run row for a job.
func (s *Store) InsertRun(run *Run) error {
	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.conn.Exec(query,
		run.JobID, run.Attempt, run.LogPath,
		encodeInt(run.PID), encodeTime(run.StartTime), encodeTime(run.FinishTime),
		int(run.State), encodeInt(run.ExitCode), run.Killed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetRun retrieves one run by its composite identity.
// Returns nil, nil when the run does not exist.
func (s *Store) GetRun(jobID string, attempt int) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE job_id = ? AND attempt = ?`
	run, err := scanRun(s.conn.QueryRow(query, jobID, attempt))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns all runs for the given jobs, ordered by job then attempt.
func (s *Store) ListRuns(jobIDs []string) ([]*Run, error) {
	if len(jobIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + runColumns + ` FROM runs WHERE job_id IN (` +
		placeholders(len(jobIDs)) + `) ORDER BY job_id, attempt`

	args := make([]any, len(jobIDs))
	for i, id := range jobIDs {
		args[i] = id
	}

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// ActiveRuns returns the runs of the given jobs that are in state Running
// with a recorded pid. These are the runs a concurrent kill can signal.
func (s *Store) ActiveRuns(jobIDs []string) ([]*Run, error) {
	if len(jobIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + runColumns + ` FROM runs WHERE job_id IN (` +
		placeholders(len(jobIDs)) + `) AND state = ? AND pid IS NOT NULL
		ORDER BY job_id, attempt`

	args := make([]any, 0, len(jobIDs)+1)
	for _, id := range jobIDs {
		args = append(args, id)
	}
	args = append(args, int(StateRunning))

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// LastRun returns the run with the highest attempt for a job, or nil, nil if
// the job has no runs.
func (s *Store) LastRun(jobID string) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE job_id = ?
		ORDER BY attempt DESC LIMIT 1`
	run, err := scanRun(s.conn.QueryRow(query, jobID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}
	return run, nil
}

// UpdateRunStarted records that a run's child process is live: pid, start
// time, and the Running state, in one write. A concurrent kill that observes
// state=Running is therefore guaranteed a usable pid.
func (s *Store) UpdateRunStarted(jobID string, attempt, pid int, startTime time.Time) error {
	result, err := s.conn.Exec(
		`UPDATE runs SET pid = ?, start_time = ?, state = ?
		 WHERE job_id = ? AND attempt = ?`,
		pid, encodeTime(&startTime), int(StateRunning), jobID, attempt)
	if err != nil {
		return fmt.Errorf("failed to mark run started: %w", err)
	}
	return requireRow(result, jobID)
}

// UpdateRunFinished records a run's terminal state.
func (s *Store) UpdateRunFinished(jobID string, attempt int, finishTime time.Time, exitCode int) error {
	result, err := s.conn.Exec(
		`UPDATE runs SET finish_time = ?, exit_code = ?, state = ?
		 WHERE job_id = ? AND attempt = ?`,
		encodeTime(&finishTime), exitCode, int(StateComplete), jobID, attempt)
	if err != nil {
		return fmt.Errorf("failed to mark run finished: %w", err)
	}
	return requireRow(result, jobID)
}

// SetRunKilled flips the killed flag on a run. Set by the kill operation
// before it signals, so the supervisor reliably observes it after reaping.
func (s *Store) SetRunKilled(jobID string, attempt int) error {
	result, err := s.conn.Exec(
		`UPDATE runs SET killed = 1 WHERE job_id = ? AND attempt = ?`,
		jobID, attempt)
	if err != nil {
		return fmt.Errorf("failed to set killed: %w", err)
	}
	return requireRow(result, jobID)
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run           Run
		pid, exitCode sql.NullInt64
		start, finish sql.NullString
		state         int
	)

	err := row.Scan(
		&run.JobID, &run.Attempt, &run.LogPath,
		&pid, &start, &finish, &state, &exitCode, &run.Killed,
	)
	if err != nil {
		return nil, err
	}

	run.PID = decodeInt(pid)
	if run.StartTime, err = decodeTime(start); err != nil {
		return nil, err
	}
	if run.FinishTime, err = decodeTime(finish); err != nil {
		return nil, err
	}
	run.State = State(state)
	run.ExitCode = decodeInt(exitCode)

	return &run, nil
}

// RunsByJob groups runs by job id, preserving attempt order.
func RunsByJob(runs []*Run) map[string][]*Run {
	grouped := make(map[string][]*Run)
	for _, r := range runs {
		grouped[r.JobID] = append(grouped[r.JobID], r)
	}
	return grouped
}

// JobIDsOf extracts the job ids from a job slice.
func JobIDsOf(jobs []*Job) []string {
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.JobID
	}
	return ids
}
