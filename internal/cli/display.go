package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/jobman-sh/jobman/internal/errs"
	"github.com/jobman-sh/jobman/internal/ops"
	"github.com/jobman-sh/jobman/internal/store"
)

// Mode selects how results are rendered.
type Mode int

const (
	ModePretty Mode = iota
	ModePlain
	ModeJSON
)

// Displayer renders operation results and errors in the selected mode.
type Displayer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	quiet  bool

	styles displayStyles
}

type displayStyles struct {
	header    lipgloss.Style
	jobID     lipgloss.Style
	running   lipgloss.Style
	complete  lipgloss.Style
	submitted lipgloss.Style
	failed    lipgloss.Style
	dim       lipgloss.Style
	errBang   lipgloss.Style
}

func defaultDisplayStyles() displayStyles {
	return displayStyles{
		header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		jobID:     lipgloss.NewStyle().Bold(true),
		running:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		complete:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		submitted: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		failed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		errBang:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
}

// NewDisplayer picks the output mode from the flags and the terminal.
// --json and --plain together are a config error.
func NewDisplayer(out, errOut io.Writer, jsonMode, plain, quiet bool) (*Displayer, error) {
	if jsonMode && plain {
		return nil, errs.New(errs.CodeConfig, "--json and --plain are mutually exclusive")
	}

	mode := ModePlain
	switch {
	case jsonMode:
		mode = ModeJSON
	case plain:
		mode = ModePlain
	case isTerminal(out):
		mode = ModePretty
	}

	return &Displayer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		quiet:  quiet,
		styles: defaultDisplayStyles(),
	}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Mode returns the active output mode.
func (d *Displayer) Mode() Mode { return d.mode }

// JobID prints a freshly submitted job id on its own line so scripts can
// capture it. Printed in every mode, including quiet.
func (d *Displayer) JobID(jobID string) {
	if d.mode == ModeJSON {
		d.JSON(map[string]string{"result": "ok", "job_id": jobID})
		return
	}
	fmt.Fprintln(d.out, jobID)
}

// Info prints an informational line. Suppressed in quiet and JSON modes.
func (d *Displayer) Info(format string, args ...any) {
	if d.quiet || d.mode == ModeJSON {
		return
	}
	fmt.Fprintf(d.out, format+"\n", args...)
}

// JSON marshals v to the output stream.
func (d *Displayer) JSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(d.errOut, "ERROR! failed to encode result: %v\n", err)
		return
	}
	fmt.Fprintln(d.out, string(data))
}

// Result renders an operation's result object: JSON in JSON mode, nothing
// otherwise (callers print their own pretty/plain rendering).
func (d *Displayer) Result(v any) {
	if d.mode == ModeJSON {
		d.JSON(v)
	}
}

// Error renders a one-line error: `ERROR! msg` on stderr, or a structured
// object in JSON mode.
func (d *Displayer) Error(err error) {
	if d.mode == ModeJSON {
		data, _ := json.Marshal(map[string]string{
			"result":  "error",
			"message": err.Error(),
		})
		fmt.Fprintln(d.errOut, string(data))
		return
	}
	bang := "ERROR!"
	if d.mode == ModePretty {
		bang = d.styles.errBang.Render(bang)
	}
	fmt.Fprintf(d.errOut, "%s %v\n", bang, err)
}

// Confirm asks the user a yes/no question on the terminal. Outside a
// terminal it fails so scripts must pass --force.
func (d *Displayer) Confirm(prompt string) (bool, error) {
	stdin := os.Stdin
	if !term.IsTerminal(int(stdin.Fd())) {
		return false, errs.Usage("%s: confirmation required, pass -f/--force", prompt)
	}
	fmt.Fprintf(d.errOut, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// Jobs renders a job table (ls, status).
func (d *Displayer) Jobs(jobs []*ops.JobWithRuns) {
	if d.mode == ModeJSON {
		d.JSON(jobsToJSON(jobs))
		return
	}
	if len(jobs) == 0 {
		d.Info("no jobs")
		return
	}

	header := fmt.Sprintf("%-10s %-10s %-8s %-6s %-20s %s",
		"JOB", "STATE", "EXIT", "RUNS", "STARTED", "COMMAND")
	if d.mode == ModePretty {
		header = d.styles.header.Render(header)
	}
	fmt.Fprintln(d.out, header)

	for _, j := range jobs {
		fmt.Fprintln(d.out, d.jobRow(j))
	}
}

func (d *Displayer) jobRow(j *ops.JobWithRuns) string {
	id := j.Job.JobID
	state := j.Job.State.String()
	if d.mode == ModePretty {
		id = d.styles.jobID.Render(fmt.Sprintf("%-10s", id))
		state = d.stateStyle(j.Job).Render(fmt.Sprintf("%-10s", state))
	} else {
		id = fmt.Sprintf("%-10s", id)
		state = fmt.Sprintf("%-10s", state)
	}

	exit := "-"
	if j.Job.ExitCode != nil {
		exit = fmt.Sprintf("%d", *j.Job.ExitCode)
	}
	started := "-"
	if j.Job.StartTime != nil {
		started = j.Job.StartTime.Format("2006-01-02 15:04:05")
	}
	command := j.Job.Command
	if len(command) > 60 {
		command = command[:57] + "..."
	}

	return fmt.Sprintf("%s %s %-8s %-6d %-20s %s",
		id, state, exit, len(j.Runs), started, command)
}

func (d *Displayer) stateStyle(job *store.Job) lipgloss.Style {
	switch job.State {
	case store.StateRunning:
		return d.styles.running
	case store.StateComplete:
		if job.ExitCode != nil && job.IsSuccessCode(*job.ExitCode) {
			return d.styles.complete
		}
		return d.styles.failed
	default:
		return d.styles.submitted
	}
}

// JobDetail renders one job with its runs (status).
func (d *Displayer) JobDetail(j *ops.JobWithRuns) {
	fmt.Fprintln(d.out, d.jobHeading(j.Job))
	for _, run := range j.Runs {
		fmt.Fprintln(d.out, "  "+d.runLine(run))
	}
}

func (d *Displayer) jobHeading(job *store.Job) string {
	id := job.JobID
	state := job.State.String()
	if d.mode == ModePretty {
		id = d.styles.jobID.Render(id)
		state = d.stateStyle(job).Render(state)
	}
	heading := fmt.Sprintf("%s  %s  %s", id, state, job.Command)
	if job.ExitCode != nil {
		heading += fmt.Sprintf("  (exit %d)", *job.ExitCode)
	}
	return heading
}

func (d *Displayer) runLine(run *store.Run) string {
	parts := []string{fmt.Sprintf("run %d: %s", run.Attempt, run.State)}
	if run.PID != nil && run.State == store.StateRunning {
		parts = append(parts, fmt.Sprintf("pid %d", *run.PID))
	}
	if run.ExitCode != nil {
		parts = append(parts, fmt.Sprintf("exit %d", *run.ExitCode))
	}
	if run.StartTime != nil && run.FinishTime != nil {
		parts = append(parts, run.FinishTime.Sub(*run.StartTime).Round(time.Millisecond).String())
	}
	if run.Killed {
		parts = append(parts, "killed")
	}
	line := strings.Join(parts, ", ")
	if d.mode == ModePretty {
		return d.styles.dim.Render(line)
	}
	return line
}

type jobJSON struct {
	JobID      string     `json:"job_id"`
	State      string     `json:"state"`
	Command    string     `json:"command"`
	ExitCode   *int       `json:"exit_code"`
	StartTime  *time.Time `json:"start_time"`
	FinishTime *time.Time `json:"finish_time"`
	Runs       []runJSON  `json:"runs"`
}

type runJSON struct {
	Attempt    int        `json:"attempt"`
	State      string     `json:"state"`
	PID        *int       `json:"pid"`
	ExitCode   *int       `json:"exit_code"`
	StartTime  *time.Time `json:"start_time"`
	FinishTime *time.Time `json:"finish_time"`
	Killed     bool       `json:"killed"`
}

func jobsToJSON(jobs []*ops.JobWithRuns) []jobJSON {
	result := make([]jobJSON, len(jobs))
	for i, j := range jobs {
		jj := jobJSON{
			JobID:      j.Job.JobID,
			State:      j.Job.State.String(),
			Command:    j.Job.Command,
			ExitCode:   j.Job.ExitCode,
			StartTime:  j.Job.StartTime,
			FinishTime: j.Job.FinishTime,
		}
		for _, run := range j.Runs {
			jj.Runs = append(jj.Runs, runJSON{
				Attempt:    run.Attempt,
				State:      run.State.String(),
				PID:        run.PID,
				ExitCode:   run.ExitCode,
				StartTime:  run.StartTime,
				FinishTime: run.FinishTime,
				Killed:     run.Killed,
			})
		}
		result[i] = jj
	}
	return result
}
