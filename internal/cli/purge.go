package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jobman-sh/jobman/internal/errs"
	"github.com/jobman-sh/jobman/internal/ops"
)

// NewPurgeCmd creates the 'purge' command for deleting completed jobs' logs
// and optionally their metadata.
func NewPurgeCmd(a *App) *cobra.Command {
	var (
		all      bool
		metadata bool
		since    string
		until    string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "purge [JOB_ID...]",
		Short: "Delete the logs of completed jobs",
		Long: `Delete the captured stdout/stderr of completed jobs. Give explicit
job ids or -a for all completed jobs, optionally narrowed by -s/-u. With -m
the job and run records are deleted too. Jobs that have not completed are
skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sinceT, err := parseTimeFlag("--since", since)
			if err != nil {
				return err
			}
			untilT, err := parseTimeFlag("--until", until)
			if err != nil {
				return err
			}

			if !force {
				what := fmt.Sprintf("%d job(s)", len(args))
				if all {
					what = "all completed jobs"
				}
				prompt := fmt.Sprintf("purge logs of %s?", what)
				if metadata {
					prompt = fmt.Sprintf("purge logs and metadata of %s?", what)
				}
				ok, err := a.disp.Confirm(prompt)
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

			result, err := ops.Purge(st, a.cfg, args, all, metadata, sinceT, untilT)
			if err != nil {
				return err
			}

			a.disp.Result(result)
			a.disp.Info("purged %d job(s)", len(result.PurgedJobIDs))

			if result.Failed() {
				var parts []string
				if len(result.SkippedJobIDs) > 0 {
					parts = append(parts,
						"not complete: "+strings.Join(result.SkippedJobIDs, ", "))
				}
				if len(result.NonexistentJobIDs) > 0 {
					parts = append(parts,
						"no such job(s): "+strings.Join(result.NonexistentJobIDs, ", "))
				}
				return errs.New(errs.CodeDataErr, "%s", strings.Join(parts, "; "))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&all, "all", "a", false, "Purge all completed jobs")
	f.BoolVarP(&metadata, "metadata", "m", false, "Also delete job and run records")
	f.StringVarP(&since, "since", "s", "", "Only jobs started at or after this time")
	f.StringVarP(&until, "until", "u", "", "Only jobs started at or before this time")
	f.BoolVarP(&force, "force", "f", false, "Do not ask for confirmation")

	return cmd
}
