// Package supervisor contains the per-job controller: it detaches from the
// terminal, drives a job through wait -> run -> observe -> retry -> notify,
// and keeps the store consistent with the live child process so sibling
// invocations can inspect and signal the job.
package supervisor

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/jobman-sh/jobman/internal/config"
	"github.com/jobman-sh/jobman/internal/notify"
	"github.com/jobman-sh/jobman/internal/store"
)

// AbortSignal is the signal the abort monitor delivers and the supervisor
// handles.
const AbortSignal = unix.SIGINT

// Supervisor drives one job to completion.
type Supervisor struct {
	store    *store.Store
	cfg      *config.Config
	notifier *notify.Dispatcher

	// childPID holds the pid of the currently executing child, or 0. The
	// signal handler reads it to forward aborts.
	childPID atomic.Int64
}

// New creates a supervisor over the given store and configuration.
func New(st *store.Store, cfg *config.Config, notifier *notify.Dispatcher) *Supervisor {
	return &Supervisor{store: st, cfg: cfg, notifier: notifier}
}

// BuildJob constructs and persists the job record for a policy, assigning a
// fresh id (retrying the rare collision) and stamping the store's host
// scope. Called before detach so the terminal can print the id immediately.
func BuildJob(st *store.Store, job *store.Job) error {
	for {
		id, err := NewJobID()
		if err != nil {
			return err
		}
		exists, err := st.JobIDExists(id)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		job.JobID = id
		break
	}

	now := time.Now()
	job.HostID = st.HostID()
	job.StartTime = &now
	job.State = store.StateSubmitted
	if len(job.SuccessCodes) == 0 {
		job.SuccessCodes = []int{0}
	}
	return st.InsertJob(job)
}

// Supervise runs the full supervisor loop for jobID. It is invoked in the
// detached process.
func (s *Supervisor) Supervise(ctx context.Context, jobID string) error {
	job, err := s.store.GetJob(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job not found: %s", jobID)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The handler does the minimum: remember that we were aborted and
	// forward the signal to the child. Store mutation happens on the main
	// path after reaping.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, AbortSignal)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigCh:
				log.Printf("job %s: received %v", jobID, AbortSignal)
				if pid := s.childPID.Load(); pid != 0 {
					if err := unix.Kill(int(pid), AbortSignal); err != nil {
						log.Printf("job %s: forwarding %v to pid %d failed: %v",
							jobID, AbortSignal, pid, err)
					}
				} else {
					// No child to reap; unblock the wait gate or retry sleep.
					cancel()
				}
			}
		}
	}()

	monitor := NewAbortMonitor(os.Getpid(), AbortSignal,
		job.AbortTime, job.AbortDuration, job.AbortForFiles)
	if monitor.Armed() {
		monitor.Start(ctx)
	}

	base := time.Now()
	if job.StartTime != nil {
		base = *job.StartTime
	}
	if err := WaitGate(ctx, base, job.WaitTime, job.WaitDuration, job.WaitForFiles); err != nil {
		// Aborted before the first run; finalize with no runs. The job-level
		// notifications still fire.
		log.Printf("job %s: aborted during wait gate", jobID)
		now := time.Now()
		if err := s.store.FinalizeJob(jobID, &now, nil); err != nil {
			return err
		}
		s.notifyJob(job, &now, nil)
		return nil
	}

	if err := s.store.UpdateJobState(jobID, store.StateRunning); err != nil {
		return err
	}

	var lastRun *store.Run
	totalAttempts := job.RetryAttempts + 1
	for attempt := 0; attempt < totalAttempts; attempt++ {
		if attempt > 0 {
			if lastRun.ExitCode != nil && job.IsSuccessCode(*lastRun.ExitCode) {
				break
			}
			if lastRun.Killed {
				break
			}
			if job.RetryDelay != nil {
				delay := RetryDelay(*job.RetryDelay, attempt, job.RetryExpoBackoff, job.RetryJitter)
				log.Printf("job %s: retrying attempt %d after %v", jobID, attempt, delay)
				interrupted := false
				select {
				case <-ctx.Done():
					interrupted = true
				case <-time.After(delay):
				}
				if interrupted {
					break
				}
			}
		}

		run, err := s.runAttempt(ctx, job, attempt)
		if err != nil {
			return err
		}
		lastRun = run
		s.notifyRun(job, run)
	}

	cancel() // stop the abort monitor

	var finish *time.Time
	var exitCode *int
	if lastRun != nil {
		finish = lastRun.FinishTime
		exitCode = lastRun.ExitCode
	}
	if finish == nil {
		now := time.Now()
		finish = &now
	}
	if err := s.store.FinalizeJob(jobID, finish, exitCode); err != nil {
		return err
	}
	s.notifyJob(job, finish, exitCode)

	log.Printf("job %s: complete", jobID)
	return nil
}

// runAttempt executes one attempt: create the run record and its log
// directory, launch the child, persist the live pid, await the exit, and
// persist the terminal state.
func (s *Supervisor) runAttempt(ctx context.Context, job *store.Job, attempt int) (*store.Run, error) {
	logDir := s.cfg.RunLogDir(job.JobID, attempt)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	run := &store.Run{
		JobID:   job.JobID,
		Attempt: attempt,
		LogPath: logDir,
		State:   store.StateSubmitted,
	}
	if err := s.store.InsertRun(run); err != nil {
		return nil, err
	}

	outFile, err := os.Create(logDir + "/out.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout log: %w", err)
	}
	defer outFile.Close()
	errFile, err := os.Create(logDir + "/err.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr log: %w", err)
	}
	defer errFile.Close()

	cmd := exec.Command("sh", "-c", job.Command)
	cmd.Stdout = outFile
	cmd.Stderr = errFile
	// nil Stdin connects the child to the null device.
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("JOBMAN_JOB_ID=%s", job.JobID),
		fmt.Sprintf("JOBMAN_ATTEMPT_NUM=%d", attempt),
	)

	if err := cmd.Start(); err != nil {
		// The command could not be launched at all; record a conventional
		// shell "cannot execute" status so retry policy still applies.
		log.Printf("job %s attempt %d: start failed: %v", job.JobID, attempt, err)
		now := time.Now()
		if dbErr := s.store.UpdateRunFinished(job.JobID, attempt, now, 126); dbErr != nil {
			return nil, dbErr
		}
		return s.reloadRun(job.JobID, attempt)
	}

	pid := cmd.Process.Pid
	s.childPID.Store(int64(pid))
	start := time.Now()
	if err := s.store.UpdateRunStarted(job.JobID, attempt, pid, start); err != nil {
		return nil, err
	}
	log.Printf("job %s attempt %d: child pid %d started", job.JobID, attempt, pid)

	waitErr := cmd.Wait()
	s.childPID.Store(0)

	finish := time.Now()
	exitCode := exitStatus(cmd, waitErr)
	if err := s.store.UpdateRunFinished(job.JobID, attempt, finish, exitCode); err != nil {
		return nil, err
	}
	log.Printf("job %s attempt %d: exited with code %d", job.JobID, attempt, exitCode)

	// Re-read to pick up a killed flag a concurrent kill may have set.
	return s.reloadRun(job.JobID, attempt)
}

func (s *Supervisor) reloadRun(jobID string, attempt int) (*store.Run, error) {
	run, err := s.store.GetRun(jobID, attempt)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("run vanished: %s attempt %d", jobID, attempt)
	}
	return run, nil
}

// exitStatus maps a reaped child to its observed integer exit status,
// applying the 128+signum convention for signal deaths.
func exitStatus(cmd *exec.Cmd, waitErr error) int {
	if waitErr == nil {
		return 0
	}
	if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return 1
}

// notifyRun dispatches the per-run notifications: always run_completion, and
// exactly one of run_success / run_failure.
func (s *Supervisor) notifyRun(job *store.Job, run *store.Run) {
	attempt := run.Attempt
	payload := notify.Payload{
		JobID:      job.JobID,
		Attempt:    &attempt,
		ExitCode:   run.ExitCode,
		StartTime:  run.StartTime,
		FinishTime: run.FinishTime,
	}

	s.notifier.Dispatch(job.NotifyOnRunCompletion, notify.EventRunCompletion, payload)
	if run.ExitCode != nil && job.IsSuccessCode(*run.ExitCode) {
		s.notifier.Dispatch(job.NotifyOnRunSuccess, notify.EventRunSuccess, payload)
	} else {
		s.notifier.Dispatch(job.NotifyOnRunFailure, notify.EventRunFailure, payload)
	}
}

// notifyJob dispatches the per-job notifications, strictly after all run
// notifications.
func (s *Supervisor) notifyJob(job *store.Job, finish *time.Time, exitCode *int) {
	payload := notify.Payload{
		JobID:      job.JobID,
		ExitCode:   exitCode,
		StartTime:  job.StartTime,
		FinishTime: finish,
	}

	s.notifier.Dispatch(job.NotifyOnJobCompletion, notify.EventJobCompletion, payload)
	if exitCode != nil && job.IsSuccessCode(*exitCode) {
		s.notifier.Dispatch(job.NotifyOnJobSuccess, notify.EventJobSuccess, payload)
	} else {
		s.notifier.Dispatch(job.NotifyOnJobFailure, notify.EventJobFailure, payload)
	}
}
