package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all mediaclue configuration
type Config struct {
	Paths  PathsConfig  `toml:"paths"`
	Scan   ScanConfig   `toml:"scan"`
	Log    LogConfig    `toml:"log"`
	Daemon DaemonConfig `toml:"daemon"`
}

// PathsConfig locates the files mediaclue reads and writes.
type PathsConfig struct {
	CluesFile   string `toml:"clues_file"`
	UnknownFile string `toml:"unknown_file"`
	Database    string `toml:"database"`
	ReportDir   string `toml:"report_dir"`
}

// ScanConfig controls which entries are parsed.
type ScanConfig struct {
	Dirs      []string `toml:"dirs"`
	Mode      string   `toml:"mode"` // dirs, files
	Recursive bool     `toml:"recursive"`
	Workers   int      `toml:"workers"` // 0 = number of CPUs
	VideoOnly bool     `toml:"video_only"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console, json
}

// DaemonConfig holds daemon scheduling and behavior settings
type DaemonConfig struct {
	ScanFrequency   string `toml:"scan_frequency"`    // hourly, daily, weekly
	MinUnknownCount int    `toml:"min_unknown_count"` // words seen fewer times are not reported
}

var frequencies = map[string]time.Duration{
	"hourly": time.Hour,
	"daily":  24 * time.Hour,
	"weekly": 7 * 24 * time.Hour,
}

// Environment variables that override file values.
const (
	EnvSourceDir   = "MEDIACLUE_SOURCE_DIR"
	EnvOutputDir   = "MEDIACLUE_OUTPUT_DIR"
	EnvCluesFile   = "MEDIACLUE_CLUES_FILE"
	EnvUnknownFile = "MEDIACLUE_UNKNOWN_FILE"
)

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	configDir := filepath.Join(userConfigDir(), "mediaclue")
	dataDir := filepath.Join(userDataDir(), "mediaclue")

	return &Config{
		Paths: PathsConfig{
			CluesFile:   filepath.Join(configDir, "clues.json"),
			UnknownFile: filepath.Join(dataDir, "unknown_words.json"),
			Database:    filepath.Join(dataDir, "mediaclue.db"),
			ReportDir:   filepath.Join(dataDir, "reports"),
		},
		Scan: ScanConfig{
			Dirs: []string{},
			Mode: "dirs",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Daemon: DaemonConfig{
			ScanFrequency:   "daily",
			MinUnknownCount: 2,
		},
	}
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return os.TempDir()
}

func userDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return os.TempDir()
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "mediaclue", "config.toml"), nil
}

// Load reads the default config file, creating it with defaults if it doesn't exist
func Load() (*Config, error) {
	configFile, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configFile)
}

// LoadFrom reads the config file at path, creating it with defaults if it
// doesn't exist. Keys missing from the file keep their default values and
// environment overrides are applied last.
func LoadFrom(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// ReadFile is LoadFrom without environment overrides. Use it when the
// config is going to be edited and saved back.
func ReadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveTo(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvSourceDir)); v != "" {
		c.Scan.Dirs = []string{v}
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutputDir)); v != "" {
		c.Paths.ReportDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCluesFile)); v != "" {
		c.Paths.CluesFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUnknownFile)); v != "" {
		c.Paths.UnknownFile = v
	}
}

// Save writes the config to the default location
func Save(cfg *Config) error {
	configFile, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, configFile)
}

// SaveTo writes the config to path
func SaveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if _, ok := frequencies[c.Daemon.ScanFrequency]; !ok {
		return fmt.Errorf("%w: scan frequency %q (must be hourly, daily, or weekly)", ErrInvalid, c.Daemon.ScanFrequency)
	}
	switch c.Scan.Mode {
	case "dirs", "files":
	default:
		return fmt.Errorf("%w: scan mode %q (must be dirs or files)", ErrInvalid, c.Scan.Mode)
	}
	if c.Scan.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalid, c.Scan.Workers)
	}
	if c.Daemon.MinUnknownCount < 0 {
		return fmt.Errorf("%w: min_unknown_count must not be negative, got %d", ErrInvalid, c.Daemon.MinUnknownCount)
	}
	if strings.TrimSpace(c.Paths.CluesFile) == "" {
		return fmt.Errorf("%w: clues_file is empty", ErrInvalid)
	}
	if strings.TrimSpace(c.Paths.UnknownFile) == "" {
		return fmt.Errorf("%w: unknown_file is empty", ErrInvalid)
	}
	return nil
}

// ValidateDirs checks that every configured scan directory exists.
func (c *Config) ValidateDirs() error {
	if len(c.Scan.Dirs) == 0 {
		return fmt.Errorf("%w: no scan directories configured", ErrInvalid)
	}
	for _, path := range c.Scan.Dirs {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("scan directory %s: %w", path, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("scan directory %s is not a directory", path)
		}
	}
	return nil
}

// ScanInterval returns the daemon tick for the configured frequency.
func (c *Config) ScanInterval() time.Duration {
	if d, ok := frequencies[c.Daemon.ScanFrequency]; ok {
		return d
	}
	return frequencies["daily"]
}

// AddDir adds a scan directory
func (c *Config) AddDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	if slices.Contains(c.Scan.Dirs, path) {
		return fmt.Errorf("path already configured: %s", path)
	}

	c.Scan.Dirs = append(c.Scan.Dirs, path)
	return nil
}

// RemoveDir removes a scan directory
func (c *Config) RemoveDir(path string) error {
	for i, existing := range c.Scan.Dirs {
		if existing == path {
			c.Scan.Dirs = append(c.Scan.Dirs[:i], c.Scan.Dirs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("path not found: %s", path)
}
