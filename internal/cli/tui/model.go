// Package tui renders the follow-mode log tail as a bubbletea program.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// LineMsg carries one captured log line into the view.
type LineMsg struct {
	Attempt int
	Stream  string
	Line    string
}

// DoneMsg signals that the followed job has completed (or following failed).
type DoneMsg struct {
	Err error
}

// TickMsg updates the elapsed timer.
type TickMsg time.Time

type tailLine struct {
	attempt int
	stream  string
	text    string
}

// Model is the bubbletea model for tailing one job's output.
type Model struct {
	JobID  string
	Styles Styles

	lines     []tailLine
	lineLimit int
	startTime time.Time
	width     int
	height    int

	done     bool
	quitting bool
	err      error
}

// NewTailModel creates a tail model for the given job.
func NewTailModel(jobID string) *Model {
	return &Model{
		JobID:     jobID,
		Styles:    DefaultStyles(),
		lineLimit: 1000,
		startTime: time.Now(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
