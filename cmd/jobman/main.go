package main

import (
	"os"

	"github.com/jobman-sh/jobman/internal/cli"
	"github.com/jobman-sh/jobman/internal/errs"
)

// Build-time variables (set via ldflags)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := cli.New()
	app.SetVersion(version, commit, date)

	if err := app.Execute(); err != nil {
		// Execute already rendered the error.
		os.Exit(errs.ExitCode(err))
	}
}
