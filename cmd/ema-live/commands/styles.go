package commands

import "github.com/charmbracelet/lipgloss"

type styles struct {
	Label   lipgloss.Style
	User    lipgloss.Style
	Model   lipgloss.Style
	Status  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
}

// Styles is the palette used for terminal output.
var Styles = styles{
	Label:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")),
	User:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#58a6ff")),
	Model:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#d2a8ff")),
	Status:  lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#e3b341")),
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#3fb950")),
	Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f85149")),
	Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681")),
}
