package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Report formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Tokenizer backends
const (
	TokenizerTiktoken    = "tiktoken"
	TokenizerHuggingFace = "huggingface"
)

// DefaultMaxFileSize is the largest EPUB the extractor will open.
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// Directories holds the last-used source and destination folders.
type Directories struct {
	Source      string `yaml:"source"`      // Folder scanned for EPUB files
	Destination string `yaml:"destination"` // Folder receiving files under the threshold
}

// Settings holds the classification settings.
type Settings struct {
	Threshold   int    `yaml:"threshold"`     // Files with fewer tokens are moved
	Pattern     string `yaml:"pattern"`       // Glob matched against lower-cased file names
	MaxFileSize int64  `yaml:"max_file_size"` // Bytes; larger files fail extraction
}

// Report controls where and how the run report is written.
type Report struct {
	Path   string `yaml:"path"`   // Empty means a timestamped file in the destination folder
	Format string `yaml:"format"` // csv or xlsx
}

// Tokenizer selects the token counting backend.
type Tokenizer struct {
	Type     string `yaml:"type"`     // tiktoken or huggingface
	Encoding string `yaml:"encoding"` // tiktoken encoding name
	File     string `yaml:"file"`     // tokenizer.json for huggingface
}

// Logging configures the log sink.
type Logging struct {
	File  string `yaml:"file"`
	JSON  bool   `yaml:"json"`
	Debug bool   `yaml:"debug"`
}

// WatchMode configures the directory watcher.
type WatchMode struct {
	Debounce int `yaml:"debounce"` // Seconds to wait for more files before running
}

// Config represents the persisted application settings.
type Config struct {
	Directories Directories `yaml:"directories"`
	Settings    Settings    `yaml:"settings"`
	Report      Report      `yaml:"report"`
	Tokenizer   Tokenizer   `yaml:"tokenizer"`
	Logging     Logging     `yaml:"logging"`
	WatchMode   WatchMode   `yaml:"watch_mode"`

	path string
}

// RunConfig is the immutable input of a single batch run.
type RunConfig struct {
	SourceDir      string
	DestinationDir string
	Threshold      int
	ReportPath     string
	ReportFormat   string
}

// DefaultPath returns ~/.config/epubtokens/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "epubtokens", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Unmarshal into a temporary config to preserve defaults for unset fields
	var tempCfg Config
	if err := yaml.Unmarshal(data, &tempCfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.Directories = tempCfg.Directories
	cfg.Settings.Threshold = tempCfg.Settings.Threshold
	if tempCfg.Settings.Pattern != "" {
		cfg.Settings.Pattern = tempCfg.Settings.Pattern
	}
	if tempCfg.Settings.MaxFileSize != 0 {
		cfg.Settings.MaxFileSize = tempCfg.Settings.MaxFileSize
	}
	cfg.Report.Path = tempCfg.Report.Path
	if tempCfg.Report.Format != "" {
		cfg.Report.Format = strings.ToLower(tempCfg.Report.Format)
	}
	if tempCfg.Tokenizer.Type != "" {
		cfg.Tokenizer.Type = strings.ToLower(tempCfg.Tokenizer.Type)
	}
	if tempCfg.Tokenizer.Encoding != "" {
		cfg.Tokenizer.Encoding = tempCfg.Tokenizer.Encoding
	}
	cfg.Tokenizer.File = tempCfg.Tokenizer.File
	if tempCfg.Logging.File != "" {
		cfg.Logging.File = tempCfg.Logging.File
	}
	cfg.Logging.JSON = tempCfg.Logging.JSON
	cfg.Logging.Debug = tempCfg.Logging.Debug
	if tempCfg.WatchMode.Debounce > 0 {
		cfg.WatchMode.Debounce = tempCfg.WatchMode.Debounce
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns the default configuration with safe defaults.
func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Settings.Threshold = 0
	cfg.Settings.Pattern = "*.epub"
	cfg.Settings.MaxFileSize = DefaultMaxFileSize
	cfg.Report.Format = FormatCSV
	cfg.Tokenizer.Type = TokenizerTiktoken
	cfg.Tokenizer.Encoding = "cl100k_base"
	cfg.Logging.File = "epubtokens.log"
	cfg.WatchMode.Debounce = 2
	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// SetPath sets the file Save writes to.
func (c *Config) SetPath(path string) {
	c.path = path
}

// Save writes the configuration back to the file it was loaded from,
// or to the default location.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return err
		}
	}
	return SaveConfig(c, path)
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
// Directories are checked at run start, not here, so a stale path in the
// settings file never prevents the application from starting.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}

	if c.Settings.Threshold < 0 {
		return fmt.Errorf("threshold must be >= 0")
	}
	if c.Settings.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must be >= 0")
	}
	if _, err := glob.Compile(c.Settings.Pattern); err != nil {
		return fmt.Errorf("invalid file pattern %q: %w", c.Settings.Pattern, err)
	}

	switch c.Report.Format {
	case FormatCSV, FormatXLSX:
	default:
		return fmt.Errorf("invalid report format: %s", c.Report.Format)
	}

	switch c.Tokenizer.Type {
	case TokenizerTiktoken:
		if c.Tokenizer.Encoding == "" {
			return fmt.Errorf("tiktoken encoding is required")
		}
	case TokenizerHuggingFace:
		if c.Tokenizer.File == "" {
			return fmt.Errorf("huggingface tokenizer requires a tokenizer file")
		}
	default:
		return fmt.Errorf("invalid tokenizer type: %s", c.Tokenizer.Type)
	}

	if c.WatchMode.Debounce < 0 {
		return fmt.Errorf("watch debounce must be >= 0 seconds")
	}

	return nil
}

// RunConfig builds the input of a batch run from the saved settings.
func (c *Config) RunConfig() RunConfig {
	return RunConfig{
		SourceDir:      c.Directories.Source,
		DestinationDir: c.Directories.Destination,
		Threshold:      c.Settings.Threshold,
		ReportPath:     c.Report.Path,
		ReportFormat:   c.Report.Format,
	}
}

// Remember stores the last-used values of a run so they can be persisted.
func (c *Config) Remember(run RunConfig) {
	c.Directories.Source = run.SourceDir
	c.Directories.Destination = run.DestinationDir
	c.Settings.Threshold = run.Threshold
	if run.ReportFormat != "" {
		c.Report.Format = run.ReportFormat
	}
}

// ParseThreshold parses a user-typed threshold such as "10,000" or "5 000".
func ParseThreshold(input string) (int, error) {
	cleaned := strings.NewReplacer(",", "", "_", "", " ", "").Replace(strings.TrimSpace(input))
	if cleaned == "" {
		return 0, fmt.Errorf("threshold is required")
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q", input)
	}
	if n < 0 {
		return 0, fmt.Errorf("threshold must be >= 0, got %d", n)
	}
	return n, nil
}

// NewTestConfig creates a configuration instance for testing purposes.
func NewTestConfig(source, destination string, threshold int) *Config {
	cfg := defaultConfig()
	cfg.Directories.Source = source
	cfg.Directories.Destination = destination
	cfg.Settings.Threshold = threshold
	cfg.Logging.File = ""
	return cfg
}
