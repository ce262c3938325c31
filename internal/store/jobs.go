package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const jobColumns = `job_id, host_id, command,
	wait_time, wait_duration, wait_for_files,
	abort_time, abort_duration, abort_for_files,
	retry_attempts, retry_delay, retry_expo_backoff, retry_jitter,
	success_codes,
	notify_on_run_completion, notify_on_job_completion, notify_on_job_success,
	notify_on_run_success, notify_on_job_failure, notify_on_run_failure,
	follow, start_time, finish_time, state, exit_code`

// InsertJob persists a new job row. The job's HostID must already be set.
func (s *Store) InsertJob(job *Job) error {
	waitFiles, err := encodeList(job.WaitForFiles)
	if err != nil {
		return fmt.Errorf("wait_for_files: %w", err)
	}
	abortFiles, err := encodeList(job.AbortForFiles)
	if err != nil {
		return fmt.Errorf("abort_for_files: %w", err)
	}
	successCodes, err := encodeIntList(job.SuccessCodes)
	if err != nil {
		return fmt.Errorf("success_codes: %w", err)
	}

	notify := make([]sql.NullString, 6)
	for i, list := range [][]string{
		job.NotifyOnRunCompletion, job.NotifyOnJobCompletion, job.NotifyOnJobSuccess,
		job.NotifyOnRunSuccess, job.NotifyOnJobFailure, job.NotifyOnRunFailure,
	} {
		notify[i], err = encodeList(list)
		if err != nil {
			return fmt.Errorf("notify list: %w", err)
		}
	}

	query := `INSERT INTO jobs (` + jobColumns + `) VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.conn.Exec(query,
		job.JobID, job.HostID, job.Command,
		encodeTime(job.WaitTime), encodeDuration(job.WaitDuration), waitFiles,
		encodeTime(job.AbortTime), encodeDuration(job.AbortDuration), abortFiles,
		job.RetryAttempts, encodeDuration(job.RetryDelay), job.RetryExpoBackoff, job.RetryJitter,
		successCodes,
		notify[0], notify[1], notify[2], notify[3], notify[4], notify[5],
		job.Follow, encodeTime(job.StartTime), encodeTime(job.FinishTime),
		int(job.State), encodeInt(job.ExitCode),
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by id, scoped to this host.
// Returns nil, nil when the job does not exist.
func (s *Store) GetJob(jobID string) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE host_id = ? AND job_id = ?`
	job, err := scanJob(s.conn.QueryRow(query, s.hostID, jobID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// JobFilter narrows ListJobs. Zero-valued fields do not filter.
type JobFilter struct {
	IDs    []string
	States []State
	Since  *time.Time // start_time >= Since
	Until  *time.Time // start_time <= Until
}

// ListJobs returns this host's jobs matching the filter, newest first by
// start_time with null start times last.
func (s *Store) ListJobs(filter JobFilter) ([]*Job, error) {
	where := []string{"host_id = ?"}
	args := []any{s.hostID}

	if len(filter.IDs) > 0 {
		where = append(where, "job_id IN ("+placeholders(len(filter.IDs))+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	if len(filter.States) > 0 {
		where = append(where, "state IN ("+placeholders(len(filter.States))+")")
		for _, st := range filter.States {
			args = append(args, int(st))
		}
	}
	if filter.Since != nil {
		where = append(where, "start_time >= ?")
		args = append(args, encodeTime(filter.Since))
	}
	if filter.Until != nil {
		where = append(where, "start_time <= ?")
		args = append(args, encodeTime(filter.Until))
	}

	query := `SELECT ` + jobColumns + ` FROM jobs WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY start_time IS NULL, start_time DESC`

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jobs: %w", err)
	}
	return jobs, nil
}

// UpdateJobState advances a job's state.
func (s *Store) UpdateJobState(jobID string, state State) error {
	result, err := s.conn.Exec(
		`UPDATE jobs SET state = ? WHERE host_id = ? AND job_id = ?`,
		int(state), s.hostID, jobID)
	if err != nil {
		return fmt.Errorf("failed to update job state: %w", err)
	}
	return requireRow(result, jobID)
}

// FinalizeJob records the terminal outcome of a job: Complete, with the
// finish time and exit code of its last run.
func (s *Store) FinalizeJob(jobID string, finishTime *time.Time, exitCode *int) error {
	result, err := s.conn.Exec(
		`UPDATE jobs SET state = ?, finish_time = ?, exit_code = ?
		 WHERE host_id = ? AND job_id = ?`,
		int(StateComplete), encodeTime(finishTime), encodeInt(exitCode), s.hostID, jobID)
	if err != nil {
		return fmt.Errorf("failed to finalize job: %w", err)
	}
	return requireRow(result, jobID)
}

// DeleteJob removes a job row; its runs cascade.
func (s *Store) DeleteJob(jobID string) error {
	_, err := s.conn.Exec(
		`DELETE FROM jobs WHERE host_id = ? AND job_id = ?`, s.hostID, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

// JobIDExists reports whether any job (on any host) uses the given id.
// Used to retry id collisions at submission.
func (s *Store) JobIDExists(jobID string) (bool, error) {
	var n int
	err := s.conn.QueryRow(`SELECT COUNT(*) FROM jobs WHERE job_id = ?`, jobID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check job id: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job                                    Job
		waitTime, abortTime, start, finish     sql.NullString
		waitDur, abortDur, retryDelay          sql.NullFloat64
		waitFiles, abortFiles, successCodes    sql.NullString
		nRunComp, nJobComp, nJobSucc, nRunSucc sql.NullString
		nJobFail, nRunFail                     sql.NullString
		state                                  int
		exitCode                               sql.NullInt64
	)

	err := row.Scan(
		&job.JobID, &job.HostID, &job.Command,
		&waitTime, &waitDur, &waitFiles,
		&abortTime, &abortDur, &abortFiles,
		&job.RetryAttempts, &retryDelay, &job.RetryExpoBackoff, &job.RetryJitter,
		&successCodes,
		&nRunComp, &nJobComp, &nJobSucc, &nRunSucc, &nJobFail, &nRunFail,
		&job.Follow, &start, &finish, &state, &exitCode,
	)
	if err != nil {
		return nil, err
	}

	if job.WaitTime, err = decodeTime(waitTime); err != nil {
		return nil, err
	}
	if job.AbortTime, err = decodeTime(abortTime); err != nil {
		return nil, err
	}
	if job.StartTime, err = decodeTime(start); err != nil {
		return nil, err
	}
	if job.FinishTime, err = decodeTime(finish); err != nil {
		return nil, err
	}
	job.WaitDuration = decodeDuration(waitDur)
	job.AbortDuration = decodeDuration(abortDur)
	job.RetryDelay = decodeDuration(retryDelay)
	job.WaitForFiles = decodeList(waitFiles)
	job.AbortForFiles = decodeList(abortFiles)
	if job.SuccessCodes, err = decodeIntList(successCodes); err != nil {
		return nil, err
	}
	job.NotifyOnRunCompletion = decodeList(nRunComp)
	job.NotifyOnJobCompletion = decodeList(nJobComp)
	job.NotifyOnJobSuccess = decodeList(nJobSucc)
	job.NotifyOnRunSuccess = decodeList(nRunSucc)
	job.NotifyOnJobFailure = decodeList(nJobFail)
	job.NotifyOnRunFailure = decodeList(nRunFail)
	job.State = State(state)
	job.ExitCode = decodeInt(exitCode)

	return &job, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func requireRow(result sql.Result, jobID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job not found: %s", jobID)
	}
	return nil
}
