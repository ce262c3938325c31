package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jobman-sh/jobman/internal/errs"
	"github.com/jobman-sh/jobman/internal/ops"
)

// NewStatusCmd creates the 'status' command for inspecting specific jobs.
func NewStatusCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status JOB_ID...",
		Short: "Show the state of specific jobs and their runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			ops.GCLogs(st, a.cfg)

			result, err := ops.Status(st, args)
			if err != nil {
				return err
			}

			if a.disp.Mode() == ModeJSON {
				a.disp.JSON(struct {
					Jobs       any      `json:"jobs"`
					MissingIDs []string `json:"missing_job_ids"`
				}{jobsToJSON(result.Jobs), result.MissingIDs})
			} else {
				for _, j := range result.Jobs {
					a.disp.JobDetail(j)
				}
			}

			if len(result.MissingIDs) > 0 {
				return errs.New(errs.CodeUnavailable,
					"no such job(s): %s", strings.Join(result.MissingIDs, ", "))
			}
			return nil
		},
	}
	return cmd
}
