package common

import (
	"epubtokens/internal/batch"
	"epubtokens/internal/config"
)

// RunReader defines the interface that views use to read model state
type RunReader interface {
	Config() config.RunConfig
	State() batch.State
	Progress() batch.Progress
	Logs() []batch.Log
	Result() batch.Done
	Cancelling() bool
	StatusLine() string
	Width() int
}
