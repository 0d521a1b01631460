package main

import (
	"fmt"
	"strconv"
	"strings"

	"epubtokens/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the saved settings",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the settings in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			if cfg.Path() != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", cfg.Path())
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting and save it",
		Long: `Change one setting and save it. Keys:
  source, destination, threshold, pattern, max_file_size,
  report.path, report.format, tokenizer.type, tokenizer.encoding,
  tokenizer.file, logging.file, logging.json, logging.debug, watch.debounce`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			updated := *cfg
			if err := setValue(&updated, args[0], args[1]); err != nil {
				return err
			}
			if err := updated.Validate(); err != nil {
				return err
			}
			*cfg = updated
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successText(fmt.Sprintf("%s = %s", args[0], args[1])))
			return nil
		},
	}
}

func setValue(c *config.Config, key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "source":
		c.Directories.Source = value
	case "destination", "dest":
		c.Directories.Destination = value
	case "threshold":
		c.Settings.Threshold, err = config.ParseThreshold(value)
	case "pattern":
		c.Settings.Pattern = value
	case "max_file_size":
		c.Settings.MaxFileSize, err = strconv.ParseInt(value, 10, 64)
	case "report.path":
		c.Report.Path = value
	case "report.format":
		c.Report.Format = strings.ToLower(value)
	case "tokenizer.type":
		c.Tokenizer.Type = strings.ToLower(value)
	case "tokenizer.encoding":
		c.Tokenizer.Encoding = value
	case "tokenizer.file":
		c.Tokenizer.File = value
	case "logging.file":
		c.Logging.File = value
	case "logging.json":
		c.Logging.JSON, err = strconv.ParseBool(value)
	case "logging.debug":
		c.Logging.Debug, err = strconv.ParseBool(value)
	case "watch.debounce":
		c.WatchMode.Debounce, err = strconv.Atoi(value)
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}
