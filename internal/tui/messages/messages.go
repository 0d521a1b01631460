package messages

import "epubtokens/internal/batch"

// EventMsg carries one batch event into the program.
type EventMsg struct {
	Event batch.Event
}

// RunClosedMsg is sent once the event stream is closed.
type RunClosedMsg struct{}
