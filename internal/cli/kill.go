package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jobman-sh/jobman/internal/errs"
	"github.com/jobman-sh/jobman/internal/ops"
)

// NewKillCmd creates the 'kill' command for signalling running jobs.
func NewKillCmd(a *App) *cobra.Command {
	var (
		signalName   string
		allowRetries bool
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "kill JOB_ID...",
		Short: "Signal the running processes of jobs",
		Long: `Send a signal (SIGINT by default) to the active run of each job.
Unless -r is given, the run is flagged so the supervisor will not retry
after the process dies.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := ops.ParseSignal(signalName)
			if err != nil {
				return err
			}

			if !force {
				ok, err := a.disp.Confirm(
					fmt.Sprintf("kill %d job(s)?", len(args)))
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			result, err := ops.Kill(st, args, sig, allowRetries)
			if err != nil {
				return err
			}

			a.disp.Result(result)
			for _, ref := range result.KilledRuns {
				a.disp.Info("killed %s (run %d)", ref.JobID, ref.Attempt)
			}

			if result.Failed() {
				return errs.New(errs.CodeDataErr, "%s", killFailureMessage(result))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&signalName, "signal", "s", "", "Signal to send (name or number, default SIGINT)")
	f.BoolVarP(&allowRetries, "allow-retries", "r", false, "Let the supervisor retry after the kill")
	f.BoolVarP(&force, "force", "f", false, "Do not ask for confirmation")

	return cmd
}

func killFailureMessage(result *ops.KillResult) string {
	var parts []string
	if len(result.NonexistentJobIDs) > 0 {
		parts = append(parts, "no such job(s): "+strings.Join(result.NonexistentJobIDs, ", "))
	}
	if len(result.NonrunningJobIDs) > 0 {
		parts = append(parts, "not running: "+strings.Join(result.NonrunningJobIDs, ", "))
	}
	if len(result.FailedKilledRuns) > 0 {
		var refs []string
		for _, ref := range result.FailedKilledRuns {
			refs = append(refs, fmt.Sprintf("%s/%d", ref.JobID, ref.Attempt))
		}
		parts = append(parts, "failed to kill: "+strings.Join(refs, ", "))
	}
	return strings.Join(parts, "; ")
}
