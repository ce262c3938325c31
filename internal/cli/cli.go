// Package cli wires the jobman subcommands: run, ls, status, logs, kill,
// purge, reset, install-completions, and the hidden _supervise entry that
// the detacher re-execs.
package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jobman-sh/jobman/internal/config"
	"github.com/jobman-sh/jobman/internal/errs"
	"github.com/jobman-sh/jobman/internal/host"
	"github.com/jobman-sh/jobman/internal/store"
)

// App is the CLI application with its wired dependencies.
type App struct {
	rootCmd *cobra.Command

	// Initialized by the root PersistentPreRunE.
	cfg  *config.Config
	disp *Displayer

	// Global flags
	quiet bool
	json  bool
	plain bool
	debug bool

	version string
	commit  string
	date    string
}

// New creates the CLI application.
func New() *App {
	app := &App{}
	app.setupRootCmd()
	return app
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	err := a.rootCmd.Execute()
	if err != nil {
		if a.disp != nil {
			a.disp.Error(err)
		} else {
			fmt.Fprintf(os.Stderr, "ERROR! %v\n", err)
		}
	}
	return err
}

// SetVersion sets the version strings shown by -V/--version.
func (a *App) SetVersion(version, commit, date string) {
	a.version = version
	a.commit = commit
	a.date = date
	a.rootCmd.Version = version
	a.rootCmd.SetVersionTemplate(
		"jobman {{.Version}} (commit " + commit + ", built " + date + ")\n")
	a.rootCmd.InitDefaultVersionFlag()
	if f := a.rootCmd.Flags().Lookup("version"); f != nil && f.Shorthand == "" {
		f.Shorthand = "V"
	}
}

func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "jobman",
		Short: "Submit and supervise detached jobs",
		Long: `jobman submits shell commands as detached jobs: each job gets a
supervisor process that waits, runs, retries, and notifies according to the
job's policy, surviving terminal and session exit. The same binary inspects
and controls jobs afterwards.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initRuntime,
	}

	pf := a.rootCmd.PersistentFlags()
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "Suppress informational output")
	pf.BoolVarP(&a.json, "json", "j", false, "Emit results as JSON")
	pf.BoolVarP(&a.plain, "plain", "p", false, "Force plain output (no styling)")
	pf.BoolVarP(&a.debug, "debug", "d", false, "Keep supervisor logs on stderr")

	a.rootCmd.AddCommand(
		NewRunCmd(a),
		NewLsCmd(a),
		NewStatusCmd(a),
		NewLogsCmd(a),
		NewKillCmd(a),
		NewPurgeCmd(a),
		NewResetCmd(a),
		NewInstallCompletionsCmd(a),
		NewSuperviseCmd(a),
	)
}

// initRuntime loads config and sets up the displayer before any subcommand
// runs.
func (a *App) initRuntime(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	disp, err := NewDisplayer(os.Stdout, os.Stderr, a.json, a.plain, a.quiet)
	if err != nil {
		return err
	}
	a.disp = disp
	return nil
}

// openStore opens the host-scoped store, creating storage directories and
// the schema on first use.
func (a *App) openStore() (*store.Store, error) {
	st, err := store.Open(a.cfg.DBPath, host.ID())
	if err != nil {
		return nil, errs.Wrap(errs.CodeUnavailable, err, "failed to open store")
	}
	return st, nil
}

// redirectLogs points the standard logger at the per-job supervisor log
// file. With -d/--debug output stays on stderr.
func (a *App) redirectLogs(jobID string) error {
	if a.debug {
		return nil
	}
	if err := os.MkdirAll(a.cfg.LogPath, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(a.cfg.LogPath, jobID+".log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	log.SetOutput(f)
	return nil
}
