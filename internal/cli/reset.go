package cli

import (
	"github.com/spf13/cobra"

	"github.com/jobman-sh/jobman/internal/host"
	"github.com/jobman-sh/jobman/internal/ops"
)

// NewResetCmd creates the 'reset' command for wiping all jobman state.
func NewResetCmd(a *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all jobman state on this machine",
		Long: `Delete the job database, every captured log, and the supervisor
logs under the storage path. Running supervisors are not stopped; kill them
first if needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				ok, err := a.disp.Confirm("delete all jobs, runs, and logs?")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			if err := ops.Reset(a.cfg, host.ID()); err != nil {
				return err
			}
			a.disp.Info("reset complete")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Do not ask for confirmation")

	return cmd
}
