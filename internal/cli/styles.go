package cli

import "github.com/charmbracelet/lipgloss"

// Centralized Lip Gloss styles for command output.
// All colors are specified using hex codes. Styles render as plain text when
// output is not a terminal.

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff5fd2"))

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	IDStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5fd7ff"))

	TagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#afaf00"))

	ScoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff5f")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff005f")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff5f")).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Faint(true).
			Foreground(lipgloss.Color("#a8a8a8"))

	// ExcerptStyle indents search excerpts under their result.
	ExcerptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a8a8a8")).
			PaddingLeft(6)
)
