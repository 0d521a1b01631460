package gui

import (
	"fmt"
	"strings"

	"epubtokens/internal/batch"
)

// summaryText describes a finished run for a dialog.
func summaryText(done batch.Done) string {
	switch e := done.(type) {
	case batch.FailedEvent:
		return "The run failed: " + e.Err.Error()
	case batch.CompletedEvent:
		head := "All files processed."
		if e.Summary.Failed > 0 {
			head = fmt.Sprintf("Finished with %d failed files. See the report for details.", e.Summary.Failed)
		}
		return head + "\n\n" + counts(e.Summary.Total, e.Summary.Succeeded, e.Summary.Failed, e.Summary.Moved, e.Summary.ReportPath)
	case batch.CancelledEvent:
		processed := e.Summary.Succeeded + e.Summary.Failed
		head := fmt.Sprintf("Cancelled after %d of %d files.", processed, e.Summary.Total)
		return head + "\n\n" + counts(e.Summary.Total, e.Summary.Succeeded, e.Summary.Failed, e.Summary.Moved, e.Summary.ReportPath)
	default:
		return ""
	}
}

func counts(total, succeeded, failed, moved int, reportPath string) string {
	lines := []string{
		fmt.Sprintf("Files: %d", total),
		fmt.Sprintf("Succeeded: %d", succeeded),
		fmt.Sprintf("Failed: %d", failed),
		fmt.Sprintf("Moved: %d", moved),
	}
	if reportPath != "" {
		lines = append(lines, "Report: "+reportPath)
	} else {
		lines = append(lines, "Report: not written")
	}
	return strings.Join(lines, "\n")
}
