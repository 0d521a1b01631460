//go:build nogui

package gui

import (
	"fmt"

	"epubtokens/internal/batch"
	"epubtokens/internal/config"
)

// StartGUI is a stub implementation for builds with GUI disabled
func StartGUI(cfg *config.Config, processor *batch.Processor) error {
	return fmt.Errorf("GUI not available in this build, use 'epubtokens run'")
}

// IsGUIAvailable returns whether the GUI is available in this build
func IsGUIAvailable() bool {
	return false
}
