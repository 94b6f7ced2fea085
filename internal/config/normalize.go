package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeButton()
	c.normalizePrinter()
	if err := c.normalizeSound(); err != nil {
		return err
	}
	c.normalizeDisplay()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.AdminPath = strings.Trim(strings.TrimSpace(c.Server.AdminPath), "/")
	if c.Server.AdminPath == "" {
		c.Server.AdminPath = defaultAdminPath
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("VUORO_API_TOKEN"); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeStore() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = defaultStoreBackend
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		name := defaultStoreFile
		if c.Store.Backend == "sqlite" {
			name = defaultSQLiteFile
		}
		c.Store.Path = filepath.Join(c.Paths.DataDir, name)
	}
	var err error
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeButton() {
	c.Button.Chip = strings.TrimSpace(c.Button.Chip)
	if c.Button.Chip == "" {
		c.Button.Chip = defaultButtonChip
	}
	c.Button.Bias = strings.ToLower(strings.TrimSpace(c.Button.Bias))
	if c.Button.Bias == "" {
		c.Button.Bias = defaultButtonBias
	}
	if c.Button.PollIntervalMS <= 0 {
		c.Button.PollIntervalMS = defaultButtonPollMS
	}
	if c.Button.DebounceMS < 0 {
		c.Button.DebounceMS = 0
	}
	if c.Button.RetryBackoffMS <= 0 {
		c.Button.RetryBackoffMS = defaultButtonRetryMS
	}
}

func (c *Config) normalizePrinter() {
	c.Printer.Device = strings.TrimSpace(c.Printer.Device)
	c.Printer.VendorID = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Printer.VendorID), "0x"))
	c.Printer.ProductID = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Printer.ProductID), "0x"))
	c.Printer.Codepage = strings.ToLower(strings.TrimSpace(c.Printer.Codepage))
	if c.Printer.Codepage == "" {
		c.Printer.Codepage = defaultPrinterCodepage
	}
	if strings.TrimSpace(c.Printer.Header) == "" {
		c.Printer.Header = defaultPrinterHeader
	}
}

func (c *Config) normalizeSound() error {
	c.Sound.Player = strings.TrimSpace(c.Sound.Player)
	if c.Sound.Player == "" {
		c.Sound.Player = defaultSoundPlayer
	}
	file := strings.TrimSpace(c.Sound.File)
	if file == "" {
		file = defaultSoundFile
	}
	if !filepath.IsAbs(file) && !strings.HasPrefix(file, "~") {
		file = filepath.Join(c.Paths.DataDir, file)
	}
	var err error
	if c.Sound.File, err = expandPath(file); err != nil {
		return fmt.Errorf("sound.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeDisplay() {
	if c.Display.PollIntervalMS <= 0 {
		c.Display.PollIntervalMS = defaultDisplayPollMS
	}
	if c.Display.HistoryWindow <= 0 {
		c.Display.HistoryWindow = defaultDisplayHistoryWindow
	}
	c.Display.ClosedMessage = strings.TrimSpace(c.Display.ClosedMessage)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("VUORO_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
