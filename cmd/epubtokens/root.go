package main

import (
	"fmt"
	"io"

	"epubtokens/internal/batch"
	"epubtokens/internal/config"
	"epubtokens/internal/errors"
	"epubtokens/internal/log"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
	debug   bool
	jsonLog bool

	// newProcessor is replaced in tests to avoid loading a real tokenizer.
	newProcessor = batch.NewFromConfig
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "epubtokens",
		Short: "Count tokens in EPUB books and set aside the short ones",
		Long: `epubtokens counts the LLM tokens in every EPUB in a folder, moves the
books below a token threshold to a destination folder and writes a report
of every file it looked at.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var configErr error
			if cfgFile != "" {
				cfg, configErr = config.LoadConfigFile(cfgFile)
			} else {
				cfg, configErr = config.LoadConfig()
			}
			if configErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), warningText(fmt.Sprintf("Warning: %v", configErr)))
				fmt.Fprintln(cmd.ErrOrStderr(), infoText("Using default settings."))
				cfg = config.New()
				cfg.SetPath(cfgFile)
			}
			configureLogging(cmd.ErrOrStderr())
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Default().Close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/epubtokens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "write log lines as JSON")

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewGUICmd())
	rootCmd.AddCommand(NewWatchCmd())
	rootCmd.AddCommand(NewConfigCmd())

	return rootCmd
}

// configureLogging points the package logger at out and the configured log file.
func configureLogging(out io.Writer) {
	opts := []log.Option{log.WithOutput(out), log.WithLevel(log.InfoLevel)}
	if cfg.Logging.File != "" {
		opts = append(opts, log.WithFile(cfg.Logging.File))
	}
	if jsonLog || cfg.Logging.JSON {
		opts = append(opts, log.WithJSON())
	}
	if debug || cfg.Logging.Debug {
		opts = append(opts, log.WithLevel(log.DebugLevel))
	}
	log.Configure(opts...)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if errors.IsConfiguration(err) {
		return 2
	}
	return 1
}
