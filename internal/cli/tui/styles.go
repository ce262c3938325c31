package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains the lipgloss styles for the tail view.
type Styles struct {
	Title  lipgloss.Style
	Timer  lipgloss.Style
	Prefix lipgloss.Style
	Stdout lipgloss.Style
	Stderr lipgloss.Style

	StatusDone   lipgloss.Style
	StatusFailed lipgloss.Style
	Footer       lipgloss.Style
}

// DefaultStyles returns the default tail view styles.
func DefaultStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Timer:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Prefix: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Stdout: lipgloss.NewStyle(),
		Stderr: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),

		StatusDone:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		StatusFailed: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Footer:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}
