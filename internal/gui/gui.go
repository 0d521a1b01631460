//go:build !nogui

// Package gui is the desktop front end: folder pickers, a threshold
// field, a progress bar and a log of the running batch.
package gui

import (
	"epubtokens/internal/batch"
	"epubtokens/internal/config"
)

// StartGUI opens the main window and blocks until it is closed.
func StartGUI(cfg *config.Config, processor *batch.Processor) error {
	NewApp(cfg, processor).Run()
	return nil
}

// IsGUIAvailable returns whether the GUI is available in this build
func IsGUIAvailable() bool {
	return true
}
