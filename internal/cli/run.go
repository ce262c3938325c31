package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobman-sh/jobman/internal/errs"
	"github.com/jobman-sh/jobman/internal/ops"
	"github.com/jobman-sh/jobman/internal/store"
	"github.com/jobman-sh/jobman/internal/supervisor"
	"github.com/jobman-sh/jobman/internal/timespec"
)

// runFlags collects the raw flag values of the run command before parsing.
type runFlags struct {
	waitTime      string
	waitDuration  string
	waitForFiles  []string
	abortTime     string
	abortDuration string
	abortForFiles []string

	retryAttempts    int
	retryDelay       string
	retryExpoBackoff bool
	retryJitter      bool

	successCodes []int

	notifyRunCompletion []string
	notifyRunSuccess    []string
	notifyRunFailure    []string
	notifyJobCompletion []string
	notifyJobSuccess    []string
	notifyJobFailure    []string

	follow bool
}

// NewRunCmd creates the 'run' command: submit a command as a detached job.
func NewRunCmd(a *App) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [OPTIONS] COMMAND...",
		Short: "Submit a command as a detached job",
		Long: `Submit COMMAND as a job. The job id is printed on stdout, then a
detached supervisor takes over: it waits for the wait conditions, runs the
command, retries per the retry policy, and dispatches notifications. The
submitting terminal may exit immediately.

Durations use the NwNdNhNmNs syntax (e.g. 1h30m). Times are HH:MM[:SS]
(today) or YYYY-MM-DD[ HH:MM[:SS]].`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSubmit(cmd.Context(), &flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.waitTime, "wait-time", "", "Do not start before this time")
	f.StringVar(&flags.waitDuration, "wait-duration", "", "Do not start before this much time has passed")
	f.StringArrayVar(&flags.waitForFiles, "wait-for-file", nil, "Do not start until this file exists (repeatable)")
	f.StringVar(&flags.abortTime, "abort-time", "", "Signal the running command at this time")
	f.StringVar(&flags.abortDuration, "abort-duration", "", "Signal the running command after this long")
	f.StringArrayVar(&flags.abortForFiles, "abort-for-file", nil, "Signal the running command when this file exists (repeatable)")
	f.IntVar(&flags.retryAttempts, "retry-attempts", 0, "Number of retries after the first attempt")
	f.StringVar(&flags.retryDelay, "retry-delay", "", "Delay between attempts")
	f.BoolVar(&flags.retryExpoBackoff, "retry-expo-backoff", false, "Double the retry delay on each attempt")
	f.BoolVar(&flags.retryJitter, "retry-jitter", false, "Randomize the retry delay by ±10%")
	f.IntSliceVarP(&flags.successCodes, "success-code", "c", nil, "Exit code treated as success (repeatable, 0..255)")
	f.StringArrayVar(&flags.notifyRunCompletion, "notify-on-run-completion", nil, "Sink to notify when any run finishes")
	f.StringArrayVar(&flags.notifyRunSuccess, "notify-on-run-success", nil, "Sink to notify when a run succeeds")
	f.StringArrayVar(&flags.notifyRunFailure, "notify-on-run-failure", nil, "Sink to notify when a run fails")
	f.StringArrayVar(&flags.notifyJobCompletion, "notify-on-job-completion", nil, "Sink to notify when the job finishes")
	f.StringArrayVar(&flags.notifyJobSuccess, "notify-on-job-success", nil, "Sink to notify when the job succeeds")
	f.StringArrayVar(&flags.notifyJobFailure, "notify-on-job-failure", nil, "Sink to notify when the job fails")
	f.BoolVarP(&flags.follow, "follow", "f", false, "Tail the job's output after submitting")

	return cmd
}

func (a *App) runSubmit(ctx context.Context, flags *runFlags, args []string) error {
	job, err := jobFromFlags(flags, args)
	if err != nil {
		return err
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := supervisor.BuildJob(st, job); err != nil {
		return err
	}

	// The id reaches stdout before the supervisor exists so scripts can
	// capture it no matter what happens next.
	a.disp.JobID(job.JobID)

	if err := supervisor.Detach(job.JobID); err != nil {
		return err
	}

	if flags.follow {
		return a.followJob(ctx, st, job.JobID)
	}
	return nil
}

func jobFromFlags(flags *runFlags, args []string) (*store.Job, error) {
	job := &store.Job{
		Command:          supervisor.PreprocCommand(args),
		WaitForFiles:     flags.waitForFiles,
		AbortForFiles:    flags.abortForFiles,
		RetryAttempts:    flags.retryAttempts,
		RetryExpoBackoff: flags.retryExpoBackoff,
		RetryJitter:      flags.retryJitter,
		SuccessCodes:     flags.successCodes,

		NotifyOnRunCompletion: flags.notifyRunCompletion,
		NotifyOnRunSuccess:    flags.notifyRunSuccess,
		NotifyOnRunFailure:    flags.notifyRunFailure,
		NotifyOnJobCompletion: flags.notifyJobCompletion,
		NotifyOnJobSuccess:    flags.notifyJobSuccess,
		NotifyOnJobFailure:    flags.notifyJobFailure,

		Follow: flags.follow,
	}

	if flags.retryAttempts < 0 {
		return nil, errs.Usage("--retry-attempts must be non-negative")
	}
	for _, code := range flags.successCodes {
		if code < 0 || code > 255 {
			return nil, errs.Usage("success code %d out of range 0..255", code)
		}
	}

	var err error
	if job.WaitTime, err = parseTimeFlag("--wait-time", flags.waitTime); err != nil {
		return nil, err
	}
	if job.AbortTime, err = parseTimeFlag("--abort-time", flags.abortTime); err != nil {
		return nil, err
	}
	if job.WaitDuration, err = parseDurationFlag("--wait-duration", flags.waitDuration); err != nil {
		return nil, err
	}
	if job.AbortDuration, err = parseDurationFlag("--abort-duration", flags.abortDuration); err != nil {
		return nil, err
	}
	if job.RetryDelay, err = parseDurationFlag("--retry-delay", flags.retryDelay); err != nil {
		return nil, err
	}
	return job, nil
}

func parseTimeFlag(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := timespec.ParseTime(value)
	if err != nil {
		return nil, errs.Usage("%s: %v", flag, err)
	}
	return &t, nil
}

func parseDurationFlag(flag, value string) (*time.Duration, error) {
	if value == "" {
		return nil, nil
	}
	d, err := timespec.ParseDuration(value)
	if err != nil {
		return nil, errs.Usage("%s: %v", flag, err)
	}
	return &d, nil
}

// followJob tails out/err in the submitting terminal until the job
// completes or the user interrupts. The supervisor is already detached, so
// interrupting the tail leaves the job running.
func (a *App) followJob(ctx context.Context, st *store.Store, jobID string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	err := a.tailLogs(ctx, st, jobID, ops.LogOptions{}, false)
	if ctx.Err() != nil {
		a.disp.Info("detached, job %s keeps running", jobID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	return nil
}
