package cli

import (
	"github.com/spf13/cobra"

	"github.com/jobman-sh/jobman/internal/notify"
	"github.com/jobman-sh/jobman/internal/ops"
	"github.com/jobman-sh/jobman/internal/supervisor"
)

// NewSuperviseCmd creates the hidden entry point the detacher re-execs.
// The detached process runs in its own session with stdio on /dev/null, so
// the logger is pointed at the per-job supervisor log first.
func NewSuperviseCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:    supervisor.SuperviseCommand + " JOB_ID",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := args[0]

			if err := a.redirectLogs(jobID); err != nil {
				return err
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			// This process outlives the submitting terminal, so it is a
			// safe place for the log sweep.
			ops.GCLogs(st, a.cfg)

			notifier := notify.NewDispatcher(a.cfg.Sinks)
			return supervisor.New(st, a.cfg, notifier).Supervise(cmd.Context(), jobID)
		},
	}
	return cmd
}
