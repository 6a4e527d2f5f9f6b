package ux

import "github.com/charmbracelet/lipgloss"

// Styles groups the text styles used by the CLI.
type Styles struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
	Label   lipgloss.Style
	Done    lipgloss.Style
	Pending lipgloss.Style
}

// NewStyles returns the CLI palette. With noColor every style renders
// plain text.
func NewStyles(noColor bool) Styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return Styles{
			Title:   plain,
			Success: plain,
			Error:   plain,
			Warning: plain,
			Muted:   plain,
			Label:   plain,
			Done:    plain,
			Pending: plain,
		}
	}

	return Styles{
		Title:   lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Done:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true),
		Pending: lipgloss.NewStyle(),
	}
}
