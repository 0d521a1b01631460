package types

import (
	"strconv"
	"time"
)

// Status is the outcome of processing a single file.
type Status string

const (
	StatusOK             Status = "ok"
	StatusExtractFailed  Status = "extractFailed"
	StatusTokenizeFailed Status = "tokenizeFailed"
	StatusMoveFailed     Status = "moveFailed"
)

// ProcessingResult holds the outcome of processing one SourceFile.
// Tokens is nil when extraction or tokenization failed.
type ProcessingResult struct {
	Path        string `json:"path"`
	Title       string `json:"title,omitempty"`
	TextLength  int    `json:"text_length,omitempty"`
	Tokens      *int   `json:"tokens,omitempty"`
	Status      Status `json:"status"`
	Error       string `json:"error,omitempty"`
	Moved       bool   `json:"moved"`
	Destination string `json:"destination,omitempty"`
}

// OK reports whether the file was processed without error.
func (r ProcessingResult) OK() bool {
	return r.Status == StatusOK
}

// TokenString returns the token count as text, or "" when absent.
func (r ProcessingResult) TokenString() string {
	if r.Tokens == nil {
		return ""
	}
	return strconv.Itoa(*r.Tokens)
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}

// RunSummary is produced once per run, at completion or cancellation.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Total      int           `json:"total"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Moved      int           `json:"moved"`
	ReportPath string        `json:"report_path"`
	Duration   time.Duration `json:"duration"`
}

// Summarize tallies results into a RunSummary. Total is the number of
// results, not the number of enumerated files.
func Summarize(results []ProcessingResult) RunSummary {
	var s RunSummary
	s.Total = len(results)
	for _, r := range results {
		if r.OK() {
			s.Succeeded++
		} else {
			s.Failed++
		}
		if r.Moved {
			s.Moved++
		}
	}
	return s
}
