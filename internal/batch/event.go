package batch

import (
	"fmt"
	"path/filepath"

	"epubtokens/internal/config"
	"epubtokens/internal/errors"
	"epubtokens/internal/log"
	"epubtokens/pkg/types"
)

// Event is emitted by a run to its observer, in order.
type Event interface {
	event()
}

// StateChanged is emitted on every state transition.
type StateChanged struct {
	RunID string
	From  State
	To    State
}

// Progress is emitted after each file.
type Progress struct {
	RunID       string
	Processed   int
	Total       int
	CurrentFile string
}

// Fraction returns progress in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Processed) / float64(p.Total)
}

// Log is a human-readable message about the run.
type Log struct {
	RunID   string
	Level   log.Level
	Message string
	Path    string
	Reason  errors.Reason
}

// WriteTo writes the message to l with its path and reason attached.
func (e Log) WriteTo(l *log.Logger) {
	fields := []log.Field{log.F("run_id", e.RunID)}
	if e.Path != "" {
		fields = append(fields, log.F("path", e.Path))
	}
	if e.Reason != "" {
		fields = append(fields, log.F("reason", string(e.Reason)))
	}
	l.With(fields...).Log(e.Level, e.Message)
}

func (e Log) String() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Level, e.Message, filepath.Base(e.Path))
	}
	return fmt.Sprintf("[%s] %s", e.Level, e.Message)
}

// Done is the terminal event of a run: Completed, Cancelled or Failed.
type Done interface {
	Event
	State() State
	RunConfig() config.RunConfig
}

// CompletedEvent ends a run that processed every file and wrote the report.
type CompletedEvent struct {
	Summary types.RunSummary
	Results []types.ProcessingResult
	Config  config.RunConfig
}

// CancelledEvent ends a run stopped between files. Summary covers the
// files processed before the stop.
type CancelledEvent struct {
	Summary types.RunSummary
	Results []types.ProcessingResult
	Config  config.RunConfig
}

// FailedEvent ends a run that could not start or could not write its
// report. Summary is zero when no file was touched.
type FailedEvent struct {
	Err     error
	Summary types.RunSummary
	Results []types.ProcessingResult
	Config  config.RunConfig
}

func (e FailedEvent) Error() string { return e.Err.Error() }

func (StateChanged) event()   {}
func (Progress) event()       {}
func (Log) event()            {}
func (CompletedEvent) event() {}
func (CancelledEvent) event() {}
func (FailedEvent) event()    {}

func (CompletedEvent) State() State { return Completed }
func (CancelledEvent) State() State { return Cancelled }
func (FailedEvent) State() State    { return Failed }

func (e CompletedEvent) RunConfig() config.RunConfig { return e.Config }
func (e CancelledEvent) RunConfig() config.RunConfig { return e.Config }
func (e FailedEvent) RunConfig() config.RunConfig    { return e.Config }

// LogEvents returns an observer that writes Log and terminal events to l.
func LogEvents(l *log.Logger) func(Event) {
	return func(ev Event) {
		switch e := ev.(type) {
		case Log:
			e.WriteTo(l)
		case CompletedEvent:
			l.With(summaryFields(e.Summary)...).Info("Run completed")
		case CancelledEvent:
			l.With(summaryFields(e.Summary)...).Warn("Run cancelled")
		case FailedEvent:
			l.With(log.F("run_id", e.Summary.RunID)).WithError(e.Err).Error("Run failed")
		}
	}
}

func summaryFields(s types.RunSummary) []log.Field {
	return []log.Field{
		log.F("run_id", s.RunID),
		log.F("total", s.Total),
		log.F("succeeded", s.Succeeded),
		log.F("failed", s.Failed),
		log.F("moved", s.Moved),
		log.F("report", s.ReportPath),
		log.F("duration", s.Duration.String()),
	}
}
