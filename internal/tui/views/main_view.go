package views

import (
	"fmt"
	"path/filepath"
	"strings"

	"epubtokens/internal/batch"
	"epubtokens/internal/log"
	"epubtokens/internal/tui/common"
	"epubtokens/internal/tui/components"
	"epubtokens/internal/tui/styles"
	"epubtokens/pkg/types"
)

// RenderRunView draws the header, progress, recent log lines and, once
// the run has ended, its summary.
func RenderRunView(m common.RunReader) string {
	var sb strings.Builder

	sb.WriteString(styles.Theme.Title.Render("EPUB Token Counter"))
	sb.WriteString("\n")
	sb.WriteString(renderConfig(m))
	sb.WriteString("\n")

	bar := components.NewProgressBar()
	bar.SetWidth(m.Width())
	sb.WriteString(bar.View(m.Progress()))
	sb.WriteString("\n")

	if current := m.Progress().CurrentFile; current != "" && m.Result() == nil {
		sb.WriteString(styles.Theme.Muted.Render("Last: " + filepath.Base(current)))
		sb.WriteString("\n")
	}

	if logs := m.Logs(); len(logs) > 0 {
		sb.WriteString("\n")
		for _, l := range logs {
			sb.WriteString(renderLog(l))
			sb.WriteString("\n")
		}
	}

	if done := m.Result(); done != nil {
		sb.WriteString(RenderSummary(done))
		sb.WriteString("\n")
	} else if status := m.StatusLine(); status != "" {
		sb.WriteString("\n" + status + "\n")
	}

	sb.WriteString("\n" + RenderKeyCommands(m))
	return styles.Theme.App.Render(sb.String())
}

func renderConfig(m common.RunReader) string {
	cfg := m.Config()
	label := styles.Theme.Label.Render
	return fmt.Sprintf("%s %s\n%s %s\n%s %d\n%s %s",
		label("Source:     "), cfg.SourceDir,
		label("Destination:"), cfg.DestinationDir,
		label("Threshold:  "), cfg.Threshold,
		label("State:      "), m.State())
}

func renderLog(l batch.Log) string {
	line := l.String()
	switch l.Level {
	case log.ErrorLevel:
		return styles.Theme.Error.Render(line)
	case log.WarnLevel:
		return styles.Theme.Warning.Render(line)
	default:
		return styles.Theme.Muted.Render(line)
	}
}

// RenderSummary describes how a run ended. Outright failure, completion
// with file failures and cancellation read differently.
func RenderSummary(done batch.Done) string {
	switch e := done.(type) {
	case batch.CompletedEvent:
		title := styles.Theme.Success.Render("Completed")
		if e.Summary.Failed > 0 {
			title = styles.Theme.Warning.Render(fmt.Sprintf("Completed with %d failed files", e.Summary.Failed))
		}
		return styles.Theme.Summary.Render(title + "\n" + summaryLines(e.Summary))
	case batch.CancelledEvent:
		title := styles.Theme.Warning.Render("Cancelled")
		return styles.Theme.Summary.Render(title + "\n" + summaryLines(e.Summary))
	case batch.FailedEvent:
		title := styles.Theme.Error.Render("Failed: " + e.Err.Error())
		return styles.Theme.Summary.Render(title)
	default:
		return ""
	}
}

func summaryLines(s types.RunSummary) string {
	lines := []string{
		fmt.Sprintf("Files:     %d", s.Total),
		fmt.Sprintf("Succeeded: %d", s.Succeeded),
		fmt.Sprintf("Failed:    %d", s.Failed),
		fmt.Sprintf("Moved:     %d", s.Moved),
	}
	if s.ReportPath != "" {
		lines = append(lines, "Report:    "+s.ReportPath)
	} else {
		lines = append(lines, "Report:    (not written)")
	}
	return strings.Join(lines, "\n")
}

func RenderKeyCommands(m common.RunReader) string {
	if m.Result() != nil {
		return styles.Theme.Help.Render("[q] Quit")
	}
	return styles.Theme.Help.Render("[q/Esc/Ctrl+C] Cancel run")
}
