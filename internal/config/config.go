package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Server contains HTTP surface configuration.
type Server struct {
	Bind        string `toml:"bind"`
	AdminPath   string `toml:"admin_path"`
	APIToken    string `toml:"api_token"`
	DisplayOnly bool   `toml:"display_only"`
}

// Store selects and locates the ledger backend.
type Store struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// Button contains configuration for the physical ticket button.
type Button struct {
	Enabled        bool   `toml:"enabled"`
	Chip           string `toml:"chip"`
	GPIOPin        int    `toml:"gpio_pin"`
	ActiveLow      bool   `toml:"active_low"`
	Bias           string `toml:"bias"`
	PollIntervalMS int    `toml:"poll_interval_ms"`
	DebounceMS     int    `toml:"debounce_ms"`
	RetryBackoffMS int    `toml:"retry_backoff_ms"`
	LEDPin         int    `toml:"led_pin"`
}

// Printer contains configuration for the receipt printer.
type Printer struct {
	Enabled        bool   `toml:"enabled"`
	Device         string `toml:"device"`
	VendorID       string `toml:"vendor_id"`
	ProductID      string `toml:"product_id"`
	Codepage       string `toml:"codepage"`
	Header         string `toml:"header"`
	PrintTimestamp bool   `toml:"print_timestamp"`
	Hotplug        bool   `toml:"hotplug"`
}

// Sound contains configuration for the audio cue.
type Sound struct {
	Enabled bool   `toml:"enabled"`
	Player  string `toml:"player"`
	File    string `toml:"file"`
}

// Display contains configuration for the public display page.
type Display struct {
	PollIntervalMS int    `toml:"poll_interval_ms"`
	HistoryWindow  int    `toml:"history_window"`
	ClosedMessage  string `toml:"closed_message"`
}

// Notifications contains configuration for ntfy staff alerts.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	PrinterAlerts  bool   `toml:"printer_alerts"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vuoro.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Server: bind address, hidden admin path, API token, display-only mode
//   - Store: ledger backend (json or sqlite) and location
//   - Button: GPIO ticket button and its LED
//   - Printer: ESC/POS receipt printer device
//   - Sound: audio cue player
//   - Display: public display polling and history window
//   - Notifications: ntfy alerts for staff
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	Store         Store         `toml:"store"`
	Button        Button        `toml:"button"`
	Printer       Printer       `toml:"printer"`
	Sound         Sound         `toml:"sound"`
	Display       Display       `toml:"display"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vuoro.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories plus the parent of
// the ledger document.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir}
	if strings.TrimSpace(c.Store.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.Store.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the path of the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "vuorod.lock")
}

// PIDPath returns the path of the daemon pid file.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "vuorod.pid")
}

// LogPath returns the path of the daemon log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "vuoro.log")
}

// AdminRoute returns the admin page path with a leading slash.
func (c *Config) AdminRoute() string {
	return "/" + strings.Trim(c.Server.AdminPath, "/")
}

// SetPort replaces the port of server.bind, keeping the host.
func (c *Config) SetPort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("port %d out of range", port)
	}
	host, _, err := net.SplitHostPort(c.Server.Bind)
	if err != nil {
		return fmt.Errorf("server.bind %q: %w", c.Server.Bind, err)
	}
	c.Server.Bind = net.JoinHostPort(host, strconv.Itoa(port))
	return nil
}

// PollInterval returns the button sampling interval.
func (b Button) PollInterval() time.Duration {
	return time.Duration(b.PollIntervalMS) * time.Millisecond
}

// Debounce returns the hold-off applied after an accepted press.
func (b Button) Debounce() time.Duration {
	return time.Duration(b.DebounceMS) * time.Millisecond
}

// RetryBackoff returns the pause applied after a failed input read.
func (b Button) RetryBackoff() time.Duration {
	return time.Duration(b.RetryBackoffMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
