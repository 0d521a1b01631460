package main

import (
	"fmt"

	"epubtokens/internal/batch"
	"epubtokens/internal/config"
	"epubtokens/internal/log"
	"epubtokens/internal/watch"

	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	var (
		stop   bool
		status bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process new books as they arrive in the source folder",
		Long: `Run once over the saved source folder, then watch it and run again each
time new EPUB files stop arriving for the debounce interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pid := pidPath()
			out := cmd.OutOrStdout()

			switch {
			case status:
				if p, ok := watch.RunningPID(pid); ok {
					fmt.Fprintln(out, successText(fmt.Sprintf("Watch is running (pid %d)", p)))
				} else {
					fmt.Fprintln(out, infoText("Watch is not running"))
				}
				return nil
			case stop:
				return watch.StopRunning(pid)
			}

			if cfg.Directories.Source == "" || cfg.Directories.Destination == "" {
				return fmt.Errorf("no source or destination folder saved, run 'epubtokens run --source DIR --dest DIR' first")
			}
			fmt.Fprintf(out, "Watching %s\n", infoText(cfg.Directories.Source))
			fmt.Fprintf(out, "Moving books under %s tokens to %s\n",
				emphasisText(fmt.Sprint(cfg.Settings.Threshold)), infoText(cfg.Directories.Destination))

			processor, err := newProcessor(cfg)
			if err != nil {
				return err
			}
			defer processor.Close()

			daemon, err := watch.NewDaemon(cfg, processor)
			if err != nil {
				return err
			}
			daemon.SetObserver(batch.LogEvents(log.Default()))
			daemon.SetCallback(func(done batch.Done) {
				printSummary(out, done)
			})
			return watch.Serve(cmd.Context(), daemon, pid)
		},
	}

	cmd.Flags().BoolVar(&stop, "stop", false, "stop a running watch")
	cmd.Flags().BoolVar(&status, "status", false, "report whether a watch is running")
	cmd.MarkFlagsMutuallyExclusive("stop", "status")

	return cmd
}

// pidPath returns the watch pid file next to the settings file.
func pidPath() string {
	path := cfg.Path()
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return watch.PIDPath("config.yaml")
		}
		path = p
	}
	return watch.PIDPath(path)
}
