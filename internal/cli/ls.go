package cli

import (
	"github.com/spf13/cobra"

	"github.com/jobman-sh/jobman/internal/ops"
)

// NewLsCmd creates the 'ls' command for listing this host's jobs.
func NewLsCmd(a *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List jobs on this host",
		Long: `List jobs submitted from this host, newest first. By default only
jobs that have not completed are shown; use -a to include completed ones.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			ops.GCLogs(st, a.cfg)

			jobs, err := ops.Ls(st, all)
			if err != nil {
				return err
			}
			a.disp.Jobs(jobs)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed jobs")

	return cmd
}
