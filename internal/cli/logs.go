package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jobman-sh/jobman/internal/cli/tui"
	"github.com/jobman-sh/jobman/internal/errs"
	"github.com/jobman-sh/jobman/internal/ops"
	"github.com/jobman-sh/jobman/internal/store"
)

// NewLogsCmd creates the 'logs' command for reading captured job output.
func NewLogsCmd(a *App) *cobra.Command {
	var (
		hideStdout  bool
		hideStderr  bool
		follow      bool
		noLogPrefix bool
		tailLines   int
		since       string
		until       string
	)

	cmd := &cobra.Command{
		Use:   "logs JOB_ID",
		Short: "Show a job's captured stdout and stderr",
		Long: `Print the stdout and stderr captured for each run of the job.
Lines are prefixed with the attempt number and stream unless -x is given.
With -f, keep tailing until the job completes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := ops.LogOptions{
				HideStdout: hideStdout,
				HideStderr: hideStderr,
			}
			if cmd.Flags().Changed("tail") {
				if tailLines < 0 {
					return errs.Usage("--tail must be non-negative")
				}
				opts.Tail = &tailLines
			}
			var err error
			if opts.Since, err = parseTimeFlag("--since", since); err != nil {
				return err
			}
			if opts.Until, err = parseTimeFlag("--until", until); err != nil {
				return err
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			ops.GCLogs(st, a.cfg)

			if follow {
				return a.tailLogs(cmd.Context(), st, args[0], opts, noLogPrefix)
			}
			return a.printLogs(st, args[0], opts, noLogPrefix)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&hideStdout, "hide-stdout", "o", false, "Do not show stdout")
	f.BoolVarP(&hideStderr, "hide-stderr", "e", false, "Do not show stderr")
	f.BoolVarP(&follow, "follow", "f", false, "Keep tailing until the job completes")
	f.BoolVarP(&noLogPrefix, "no-log-prefix", "x", false, "Omit the attempt/stream prefix")
	f.IntVarP(&tailLines, "tail", "n", 0, "Show only the last N lines per stream")
	f.StringVarP(&since, "since", "s", "", "Only runs that were still executing at this time")
	f.StringVarP(&until, "until", "u", "", "Only runs that had started by this time")

	return cmd
}

func (a *App) printLogs(st *store.Store, jobID string, opts ops.LogOptions, noPrefix bool) error {
	chunks, err := ops.Logs(st, jobID, opts)
	if err != nil {
		return err
	}

	if a.disp.Mode() == ModeJSON {
		a.disp.JSON(chunks)
		return nil
	}

	for _, chunk := range chunks {
		w := a.streamWriter(chunk.Stream)
		for _, line := range chunk.Lines {
			fmt.Fprintln(w, logLine(chunk, line, noPrefix))
		}
	}
	return nil
}

// tailLogs follows a job's output until it completes: a bubbletea view on a
// terminal in pretty mode, plain line-by-line polling otherwise.
func (a *App) tailLogs(ctx context.Context, st *store.Store, jobID string,
	opts ops.LogOptions, noPrefix bool) error {

	if a.disp.Mode() == ModePretty && isTerminal(os.Stdout) {
		return a.tailLogsTUI(ctx, st, jobID, opts)
	}

	return ops.FollowLogs(ctx, st, jobID, opts, func(chunk ops.LogChunk, line string) {
		fmt.Fprintln(a.streamWriter(chunk.Stream), logLine(chunk, line, noPrefix))
	})
}

func (a *App) tailLogsTUI(ctx context.Context, st *store.Store, jobID string, opts ops.LogOptions) error {
	model := tui.NewTailModel(jobID)
	program := tea.NewProgram(model, tea.WithContext(ctx))

	followErr := make(chan error, 1)
	go func() {
		err := ops.FollowLogs(ctx, st, jobID, opts, func(chunk ops.LogChunk, line string) {
			program.Send(tui.LineMsg{
				Attempt: chunk.Attempt,
				Stream:  chunk.Stream,
				Line:    line,
			})
		})
		if err == nil {
			// Give the final lines a moment to render.
			time.Sleep(50 * time.Millisecond)
		}
		program.Send(tui.DoneMsg{Err: err})
		followErr <- err
	}()

	if _, err := program.Run(); err != nil {
		return err
	}
	select {
	case err := <-followErr:
		return err
	default:
		return nil
	}
}

func (a *App) streamWriter(stream string) io.Writer {
	if stream == ops.StreamStderr {
		return os.Stderr
	}
	return os.Stdout
}

func logLine(chunk ops.LogChunk, line string, noPrefix bool) string {
	if noPrefix {
		return line
	}
	return fmt.Sprintf("[%d/%s] %s", chunk.Attempt, chunk.Stream, line)
}
