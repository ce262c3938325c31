package tui

import (
	"fmt"
	"strings"
	"time"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	elapsed := time.Since(m.startTime).Round(time.Second)
	header := fmt.Sprintf("%s %s",
		m.Styles.Title.Render("jobman "+m.JobID),
		m.Styles.Timer.Render(elapsed.String()))
	b.WriteString(header + "\n\n")

	visible := m.lines
	if m.height > 4 && len(visible) > m.height-4 {
		visible = visible[len(visible)-(m.height-4):]
	}
	for _, line := range visible {
		prefix := fmt.Sprintf("[%d/%s]", line.attempt, line.stream)
		style := m.Styles.Stdout
		if line.stream == "err" {
			style = m.Styles.Stderr
		}
		b.WriteString(m.Styles.Prefix.Render(prefix) + " " + style.Render(line.text) + "\n")
	}

	if m.done {
		status := m.Styles.StatusDone.Render("job complete")
		if m.err != nil {
			status = m.Styles.StatusFailed.Render("follow failed: " + m.err.Error())
		}
		b.WriteString("\n" + status + "\n")
	} else {
		b.WriteString("\n" + m.Styles.Footer.Render("q to stop following (the job keeps running)") + "\n")
	}

	return b.String()
}
