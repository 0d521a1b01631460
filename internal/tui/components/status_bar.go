package components

import (
	"fmt"
	"path/filepath"

	"epubtokens/internal/batch"
	"epubtokens/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// StatusBar is the one-line run status under the progress bar: a spinner
// and the current phase while the run is active, nothing once it ended.
type StatusBar struct {
	spinner    spinner.Model
	phase      string
	current    string
	cancelling bool
	active     bool
}

func NewStatusBar() *StatusBar {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Theme.Help

	return &StatusBar{spinner: s, phase: "Starting", active: true}
}

// Init starts the spinner.
func (s *StatusBar) Init() tea.Cmd {
	return s.spinner.Tick
}

// Follow updates the status from a run event.
func (s *StatusBar) Follow(ev batch.Event) {
	switch e := ev.(type) {
	case batch.StateChanged:
		s.phase = e.To.String()
	case batch.Progress:
		s.phase = fmt.Sprintf("Processed %d of %d", e.Processed, e.Total)
		s.current = filepath.Base(e.CurrentFile)
	case batch.Done:
		s.active = false
	}
}

// Cancel shows that the run stops after the current file.
func (s *StatusBar) Cancel() {
	s.cancelling = true
}

func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if !s.active {
		return nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

func (s *StatusBar) View() string {
	if !s.active {
		return ""
	}
	if s.cancelling {
		return s.spinner.View() + " " + styles.Theme.Warning.Render("Cancelling after the current file...")
	}
	text := s.phase + "..."
	if s.current != "" {
		text = s.phase + ", last: " + s.current
	}
	return s.spinner.View() + " " + styles.Theme.Help.Render(text)
}
