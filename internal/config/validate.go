package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// historyCapacity mirrors the ledger's bounded call history; the display can
// never show more than the history retains minus the current number.
const historyCapacity = 11

var supportedBiases = map[string]struct{}{
	"pull_up":   {},
	"pull_down": {},
	"disabled":  {},
	"as_is":     {},
}

var supportedCodepages = map[string]struct{}{
	"cp437":        {},
	"cp850":        {},
	"cp858":        {},
	"windows-1252": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateButton(); err != nil {
		return err
	}
	if err := c.validatePrinter(); err != nil {
		return err
	}
	if err := c.validateDisplay(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q: %w", c.Server.Bind, err)
	}
	if strings.ContainsAny(c.Server.AdminPath, "/?#{} ") {
		return fmt.Errorf("server.admin_path %q must be a single path segment", c.Server.AdminPath)
	}
	if c.Server.AdminPath == "api" {
		return errors.New("server.admin_path must not collide with the api prefix")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("store.backend %q is not supported (use json or sqlite)", c.Store.Backend)
	}
	return nil
}

func (c *Config) validateButton() error {
	if !c.Button.Enabled {
		return nil
	}
	if c.Button.GPIOPin < 0 {
		return errors.New("button.gpio_pin must be >= 0 when button.enabled is true")
	}
	if c.Button.LEDPin >= 0 && c.Button.LEDPin == c.Button.GPIOPin {
		return errors.New("button.led_pin must differ from button.gpio_pin")
	}
	if c.Button.Chip == "" {
		return errors.New("button.chip must be set when button.enabled is true")
	}
	if _, ok := supportedBiases[c.Button.Bias]; !ok {
		return fmt.Errorf("button.bias %q is not supported (use pull_up, pull_down, disabled or as_is)", c.Button.Bias)
	}
	return ensurePositiveMap(map[string]int{
		"button.poll_interval_ms": c.Button.PollIntervalMS,
		"button.retry_backoff_ms": c.Button.RetryBackoffMS,
	})
}

func (c *Config) validatePrinter() error {
	if !c.Printer.Enabled {
		return nil
	}
	if c.Printer.Device == "" {
		return errors.New("printer.device must be set when printer.enabled is true")
	}
	if _, ok := supportedCodepages[c.Printer.Codepage]; !ok {
		return fmt.Errorf("printer.codepage %q is not supported", c.Printer.Codepage)
	}
	return nil
}

func (c *Config) validateDisplay() error {
	if c.Display.HistoryWindow >= historyCapacity {
		return fmt.Errorf("display.history_window must be below %d", historyCapacity)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
