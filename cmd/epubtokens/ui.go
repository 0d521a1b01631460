package main

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	emphasisStyle = lipgloss.NewStyle().Bold(true)
)

func successText(s string) string  { return successStyle.Render(s) }
func errorText(s string) string    { return errorStyle.Render(s) }
func warningText(s string) string  { return warningStyle.Render(s) }
func infoText(s string) string     { return infoStyle.Render(s) }
func emphasisText(s string) string { return emphasisStyle.Render(s) }
