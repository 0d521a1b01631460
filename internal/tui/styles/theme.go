package styles

import "github.com/charmbracelet/lipgloss"

// Theme defines the core UI styles
var Theme = struct {
	App     lipgloss.Style
	Title   lipgloss.Style
	Label   lipgloss.Style
	Help    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Summary lipgloss.Style
}{
	App: lipgloss.NewStyle().
		Padding(1, 2),
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7B61FF")).
		MarginBottom(1),
	Label: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#73F59F")).
		Bold(true),
	Help: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#5A9")),
	Success: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00FF00")),
	Warning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFB86C")),
	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF0000")),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666666")),
	Summary: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#7B61FF")).
		Padding(0, 1).
		MarginTop(1),
}
