package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case LineMsg:
		m.lines = append(m.lines, tailLine{
			attempt: msg.Attempt,
			stream:  msg.Stream,
			text:    msg.Line,
		})
		if len(m.lines) > m.lineLimit {
			m.lines = m.lines[len(m.lines)-m.lineLimit:]
		}

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case TickMsg:
		if !m.done {
			return m, tickCmd()
		}
	}

	return m, nil
}
