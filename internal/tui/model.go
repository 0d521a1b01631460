// Package tui shows a batch run in the terminal.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"epubtokens/internal/batch"
	"epubtokens/internal/config"
	"epubtokens/internal/log"
	"epubtokens/internal/tui/components"
	"epubtokens/internal/tui/messages"
	"epubtokens/internal/tui/views"
)

const maxLogLines = 8

// Runner is the part of *batch.Run the model drives.
type Runner interface {
	Events() <-chan batch.Event
	Cancel()
}

type Model struct {
	run    Runner
	config config.RunConfig

	state      batch.State
	progress   batch.Progress
	logs       []batch.Log
	result     batch.Done
	cancelling bool

	status   *components.StatusBar
	keys     KeyMap
	observe  func(batch.Event)
	width    int
	autoQuit bool
}

// New creates a model following run. With autoQuit the program exits as
// soon as the run has ended.
func New(run Runner, cfg config.RunConfig, autoQuit bool) *Model {
	status := components.NewStatusBar()

	return &Model{
		run:      run,
		config:   cfg,
		state:    batch.Idle,
		status:   status,
		keys:     DefaultKeyMap(),
		width:    80,
		autoQuit: autoQuit,
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.run.Events()), m.status.Init())
}

func waitForEvent(events <-chan batch.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return messages.RunClosedMsg{}
		}
		return messages.EventMsg{Event: ev}
	}
}

// View implements tea.Model
func (m *Model) View() string {
	return views.RenderRunView(m)
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case messages.EventMsg:
		m.apply(msg.Event)
		return m, waitForEvent(m.run.Events())
	case messages.RunClosedMsg:
		if m.autoQuit {
			return m, tea.Quit
		}
		return m, nil
	}
	return m, m.status.Update(msg)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.result != nil && key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case m.result == nil && key.Matches(msg, m.keys.Cancel):
		if !m.cancelling {
			m.cancelling = true
			m.status.Cancel()
			m.run.Cancel()
		}
	}
	return m, nil
}

// SetObserver sets a function receiving every event the model applies.
func (m *Model) SetObserver(fn func(batch.Event)) {
	m.observe = fn
}

func (m *Model) apply(ev batch.Event) {
	if m.observe != nil {
		m.observe(ev)
	}
	m.status.Follow(ev)
	switch e := ev.(type) {
	case batch.StateChanged:
		m.state = e.To
	case batch.Progress:
		m.progress = e
	case batch.Log:
		if e.Level == log.DebugLevel {
			return
		}
		m.logs = append(m.logs, e)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
	case batch.Done:
		m.result = e
		m.state = e.State()
	}
}

func (m *Model) Config() config.RunConfig { return m.config }
func (m *Model) State() batch.State       { return m.state }
func (m *Model) Progress() batch.Progress { return m.progress }
func (m *Model) Logs() []batch.Log        { return m.logs }
func (m *Model) Result() batch.Done       { return m.result }
func (m *Model) Cancelling() bool         { return m.cancelling }
func (m *Model) StatusLine() string       { return m.status.View() }
func (m *Model) Width() int               { return m.width }

// Run shows run until it ends and returns its terminal event. Every event
// is also passed to observe when it is not nil.
func Run(run *batch.Run, cfg config.RunConfig, observe func(batch.Event)) (batch.Done, error) {
	m := New(run, cfg, true)
	m.SetObserver(observe)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		run.Cancel()
		return run.Wait(), fmt.Errorf("terminal UI failed: %w", err)
	}
	return run.Wait(), nil
}
