package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"epubtokens/internal/batch"
	"epubtokens/internal/config"
	"epubtokens/internal/errors"
	"epubtokens/internal/log"
	"epubtokens/internal/tui"
	"epubtokens/pkg/types"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// errRunFailed is returned when a run ends in the Failed state.
var errRunFailed = errors.New("run failed")

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var (
		source    string
		dest      string
		threshold string
		report    string
		format    string
		plain     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Count tokens and move books below the threshold",
		Long: `Count the tokens in every EPUB in the source folder, move the books with
fewer tokens than the threshold to the destination folder and write a report.
Values not given on the command line come from the settings file, and the
values used are saved back to it after the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := cfg.RunConfig()
			if cmd.Flags().Changed("source") {
				rc.SourceDir = source
			}
			if cmd.Flags().Changed("dest") {
				rc.DestinationDir = dest
			}
			if cmd.Flags().Changed("threshold") {
				n, err := config.ParseThreshold(threshold)
				if err != nil {
					return errors.NewConfigError("invalid threshold", "threshold", errors.ThresholdInvalid, err)
				}
				rc.Threshold = n
			}
			if cmd.Flags().Changed("report") {
				rc.ReportPath = report
			}
			if cmd.Flags().Changed("format") {
				rc.ReportFormat = format
			}
			if rc.ReportFormat != config.FormatCSV && rc.ReportFormat != config.FormatXLSX {
				return errors.NewConfigError(fmt.Sprintf("invalid report format %q", rc.ReportFormat), "format", errors.SettingInvalid, nil)
			}
			for _, dir := range []*string{&rc.SourceDir, &rc.DestinationDir} {
				if *dir != "" {
					if abs, err := filepath.Abs(*dir); err == nil {
						*dir = abs
					}
				}
			}

			processor, err := newProcessor(cfg)
			if err != nil {
				return err
			}
			defer processor.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var done batch.Done
			if !plain && isTerminal(cmd.OutOrStdout()) {
				done, err = runInteractive(ctx, processor, rc)
				if done == nil {
					return err
				}
				if err != nil {
					log.LogError(err, "Terminal UI failed")
				}
			} else {
				done = runPlain(ctx, cmd.OutOrStdout(), processor, rc)
			}

			cfg.Remember(done.RunConfig())
			if err := cfg.Save(); err != nil {
				log.LogError(err, "Failed to save settings")
			}

			printSummary(cmd.OutOrStdout(), done)
			if failed, ok := done.(batch.FailedEvent); ok {
				if errors.IsConfiguration(failed.Err) {
					return failed.Err
				}
				return errRunFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "folder containing the EPUB files (default from settings)")
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "folder receiving books below the threshold (default from settings)")
	cmd.Flags().StringVarP(&threshold, "threshold", "t", "", "token threshold, e.g. 10,000 (default from settings)")
	cmd.Flags().StringVarP(&report, "report", "r", "", "report file (default is a timestamped file in the destination)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "report format: csv or xlsx")
	cmd.Flags().BoolVar(&plain, "plain", false, "print log lines instead of the interactive view")

	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// runInteractive shows the run in the terminal UI. Log lines go to the log
// file only while the UI owns the screen.
func runInteractive(ctx context.Context, processor *batch.Processor, rc config.RunConfig) (batch.Done, error) {
	configureLogging(io.Discard)
	defer configureLogging(os.Stderr)

	run, err := processor.Start(ctx, rc)
	if err != nil {
		return nil, err
	}
	return tui.Run(run, rc, batch.LogEvents(log.Default()))
}

// runPlain runs the batch in the foreground, writing one progress line per
// file to out.
func runPlain(ctx context.Context, out io.Writer, processor *batch.Processor, rc config.RunConfig) batch.Done {
	logEvents := batch.LogEvents(log.Default())
	return processor.Process(ctx, rc, func(ev batch.Event) {
		logEvents(ev)
		if p, ok := ev.(batch.Progress); ok {
			fmt.Fprintf(out, "[%d/%d] %s\n", p.Processed, p.Total, filepath.Base(p.CurrentFile))
		}
	})
}

func printSummary(out io.Writer, done batch.Done) {
	switch e := done.(type) {
	case batch.CompletedEvent:
		if e.Summary.Failed > 0 {
			fmt.Fprintln(out, warningText(fmt.Sprintf("Completed with %d failed files", e.Summary.Failed)))
		} else {
			fmt.Fprintln(out, successText("Completed"))
		}
	case batch.CancelledEvent:
		fmt.Fprintln(out, warningText("Cancelled"))
	case batch.FailedEvent:
		fmt.Fprintln(out, errorText("Failed: "+e.Err.Error()))
		if e.Summary.Total == 0 {
			return
		}
	}

	s := summaryOf(done)
	fmt.Fprintf(out, "  Files:     %d\n", s.Total)
	fmt.Fprintf(out, "  Succeeded: %d\n", s.Succeeded)
	fmt.Fprintf(out, "  Failed:    %d\n", s.Failed)
	fmt.Fprintf(out, "  Moved:     %d\n", s.Moved)
	if s.ReportPath != "" {
		fmt.Fprintf(out, "  Report:    %s\n", emphasisText(s.ReportPath))
	} else {
		fmt.Fprintf(out, "  Report:    %s\n", warningText("not written"))
	}
}

func summaryOf(done batch.Done) types.RunSummary {
	switch e := done.(type) {
	case batch.CompletedEvent:
		return e.Summary
	case batch.CancelledEvent:
		return e.Summary
	case batch.FailedEvent:
		return e.Summary
	}
	return types.RunSummary{}
}
