// Package tui holds the terminal front-ends: the job board, the prompt
// sequencer and the batch progress line.
package tui

import (
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)

	columnStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)

	focusedColumnStyle = columnStyle.BorderForeground(lipgloss.Color("12"))

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
)

// Heading title-cases a status or role name for display.
func Heading(s string) string {
	return cases.Title(language.Und).String(s)
}

// Panel draws lines inside a rounded border.
func Panel(content string) string {
	return panelStyle.Render(content)
}

// Success and Failure format one-line outcome messages.
func Success(msg string) string { return successStyle.Render("✔ " + msg) }
func Failure(msg string) string { return errorStyle.Render("✖ " + msg) }
