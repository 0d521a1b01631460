package main

import (
	"fmt"

	"epubtokens/internal/gui"

	"github.com/spf13/cobra"
)

// NewGUICmd creates the gui command
func NewGUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the desktop window",
		Long:  `Open the desktop window with folder pickers, the threshold field and a live progress view.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !gui.IsGUIAvailable() {
				return fmt.Errorf("GUI not available in this build, use 'epubtokens run'")
			}
			processor, err := newProcessor(cfg)
			if err != nil {
				return err
			}
			defer processor.Close()
			return gui.StartGUI(cfg, processor)
		},
	}
}
