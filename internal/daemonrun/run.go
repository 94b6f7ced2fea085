package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"vuoro/internal/button"
	"vuoro/internal/config"
	"vuoro/internal/daemon"
	"vuoro/internal/deps"
	"vuoro/internal/gpio"
	"vuoro/internal/hotplug"
	"vuoro/internal/ledger"
	"vuoro/internal/logging"
	"vuoro/internal/notifications"
	"vuoro/internal/printer"
	"vuoro/internal/queue"
	"vuoro/internal/sinks"
	"vuoro/internal/sound"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// GPIOChip overrides the configured GPIO character device.
	GPIOChip string
	// Ready, when set, receives the started daemon before Run blocks.
	Ready func(*daemon.Daemon)
}

// Run starts the vuoro daemon and blocks until ctx is cancelled or the
// process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", cfg.LogPath()},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logStartupSnapshot(logger, cfg)

	if cfg.Server.DisplayOnly {
		d, err := daemon.New(cfg, daemon.Components{}, logger)
		if err != nil {
			return fmt.Errorf("create daemon: %w", err)
		}
		return serve(signalCtx, d, cfg.PIDPath(), logger, opts)
	}

	store, err := ledger.Open(cfg)
	if err != nil {
		logger.Error("open ledger store", logging.Error(err))
		return err
	}
	defer store.Close()

	prn, err := printer.New(cfg.Printer, logger)
	if err != nil {
		return err
	}
	player := sound.New(cfg.Sound, logger)
	defer player.Stop()
	dispatcher := sinks.New(prn, player, logger)

	notifier := notifications.NewService(cfg)
	alerts := notifications.NewAlerts(notifier, time.Duration(cfg.Notifications.RequestTimeout)*time.Second, logger)
	if cfg.Notifications.PrinterAlerts {
		prn.SetListener(alerts)
	}

	machine, err := queue.New(signalCtx, store,
		queue.WithNotifier(dispatcher),
		queue.WithFailureReporter(alerts),
		queue.WithLogger(logger),
	)
	if err != nil {
		logger.Error("load ledger", logging.Error(err), logging.String("path", store.Path()))
		return err
	}

	parts := daemon.Components{
		Ledger:  machine,
		Printer: prn,
		Sinks:   dispatcher,
		Alerts:  alerts,
	}
	if monitor := hotplug.NewMonitor(cfg.Printer, prn, logger); monitor != nil {
		parts.Hotplug = monitor
	}
	if poller, closePins := openButton(cfg.Button, opts.GPIOChip, machine, logger); poller != nil {
		defer closePins()
		parts.Button = poller
	}

	d, err := daemon.New(cfg, parts, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	snap := machine.Snapshot()
	go func() {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(signalCtx), 10*time.Second)
		defer cancel()
		if err := notifier.NotifyKioskStarted(notifyCtx, snap.NextID, len(snap.Pending)); err != nil {
			logger.Debug("startup notification failed", logging.Error(err))
		}
	}()

	return serve(signalCtx, d, cfg.PIDPath(), logger, opts)
}

func serve(ctx context.Context, d *daemon.Daemon, pidPath string, logger *slog.Logger, opts Options) error {
	if err := d.Start(ctx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check server.bind, the lock file and ledger access"),
		)
		return err
	}
	defer d.Stop()

	// The pid file is only claimed once the instance lock is held.
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	if opts.Ready != nil {
		opts.Ready(d)
	}

	<-ctx.Done()
	logger.Info("vuoro daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

// openButton opens the button input (and optional LED) and builds the poller.
// GPIO failures are not fatal: tickets can still be issued over HTTP.
func openButton(cfg config.Button, chip string, issuer button.Issuer, logger *slog.Logger) (*button.Poller, func()) {
	if !cfg.Enabled {
		return nil, nil
	}
	if chip == "" {
		chip = cfg.Chip
	}
	input, err := gpio.OpenInput(chip, cfg.GPIOPin, gpio.Bias(cfg.Bias))
	if err != nil {
		logging.WarnWithContext(logger, "button input unavailable", "button_open_failed",
			logging.Error(err),
			logging.String("gpio_chip", chip),
			logging.Int("gpio_pin", cfg.GPIOPin),
			logging.String(logging.FieldErrorHint, "check button.chip, button.gpio_pin and membership of the gpio group"),
			logging.String(logging.FieldImpact, "tickets can only be issued over HTTP"),
		)
		return nil, nil
	}

	opts := button.OptionsFromConfig(cfg)
	var led *gpio.Pin
	if cfg.LEDPin >= 0 {
		led, err = gpio.OpenOutput(chip, cfg.LEDPin)
		if err != nil {
			logging.WarnWithContext(logger, "button LED unavailable", "button_led_open_failed",
				logging.Error(err),
				logging.Int("led_pin", cfg.LEDPin),
				logging.String(logging.FieldImpact, "no press feedback light"),
			)
		} else {
			opts.LED = led
		}
	}

	closePins := func() {
		_ = input.Close()
		if led != nil {
			_ = led.Close()
		}
	}
	return button.NewPoller(input, issuer, opts, logger), closePins
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logStartupSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	_, soundErr := os.Stat(cfg.Sound.File)
	logger.Info("startup snapshot",
		logging.String(logging.FieldEventType, "startup_snapshot"),
		logging.String("bind", cfg.Server.Bind),
		logging.String("store_backend", cfg.Store.Backend),
		logging.String("store_path", cfg.Store.Path),
		logging.Bool("display_only", cfg.Server.DisplayOnly),
		logging.Bool("button_enabled", cfg.Button.Enabled),
		logging.Int("gpio_pin", cfg.Button.GPIOPin),
		logging.Bool("printer_enabled", cfg.Printer.Enabled),
		logging.String("printer_device", cfg.Printer.Device),
		logging.Bool("sound_enabled", cfg.Sound.Enabled),
		logging.Bool("sound_player_available", deps.Available(cfg.Sound.Player)),
		logging.Bool("sound_file_present", soundErr == nil),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.Bool("api_token_set", cfg.Server.APIToken != ""),
	)
}
