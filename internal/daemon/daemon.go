package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"vuoro/internal/api"
	"vuoro/internal/config"
	"vuoro/internal/logging"
	"vuoro/internal/printer"
)

// drainTimeout bounds how long Stop waits for in-flight print and sound jobs.
const drainTimeout = 5 * time.Second

// Runner is a background loop with Start/Stop semantics, such as the button
// poller.
type Runner interface {
	Start(ctx context.Context) error
	Stop()
}

// Hotplug watches for the printer being plugged in or removed.
type Hotplug interface {
	Probe(ctx context.Context)
	Start(ctx context.Context) error
	Stop()
}

// Drainer waits for background side effects to finish.
type Drainer interface {
	Wait(ctx context.Context) error
}

// Components are the collaborators the daemon starts and stops. Everything
// except Ledger is optional; Ledger may be nil only in display-only mode.
type Components struct {
	Ledger  Ledger
	Printer *printer.Printer
	Button  Runner
	Hotplug Hotplug
	Sinks   Drainer
	Alerts  interface{ Wait() }
}

// Daemon owns the serving lifecycle and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	parts  Components
	api    *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	DisplayOnly  bool
	Address      string
	StorePath    string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, parts Components, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		parts:    parts,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	srv, err := newAPIServer(cfg, parts.Ledger, d.sinkHealth, logger)
	if err != nil {
		return nil, err
	}
	d.api = srv
	return d, nil
}

// Start acquires the daemon lock and launches the hardware loops and the HTTP
// server. Display-only mode skips the lock because it never touches the ledger.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if !d.cfg.Server.DisplayOnly {
		ok, err := d.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return errors.New("another vuoro daemon instance is already running")
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.startParts(runCtx); err != nil {
		cancel()
		d.stopParts()
		d.releaseLock()
		return err
	}
	d.cancel = cancel
	d.running.Store(true)

	d.logger.Info("vuoro daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.addr()),
		logging.Bool("display_only", d.cfg.Server.DisplayOnly),
	)
	return nil
}

func (d *Daemon) startParts(ctx context.Context) error {
	if d.parts.Hotplug != nil {
		d.parts.Hotplug.Probe(ctx)
		if err := d.parts.Hotplug.Start(ctx); err != nil {
			return fmt.Errorf("start hotplug monitor: %w", err)
		}
	}
	if d.parts.Button != nil {
		if err := d.parts.Button.Start(ctx); err != nil {
			return fmt.Errorf("start button poller: %w", err)
		}
	}
	if err := d.api.start(ctx); err != nil {
		return err
	}
	return nil
}

// Stop shuts down the HTTP server and hardware loops, drains side effects and
// releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.stopParts()
	d.releaseLock()
	d.running.Store(false)
	d.logger.Info("vuoro daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

func (d *Daemon) stopParts() {
	d.api.stop()
	if d.parts.Button != nil {
		d.parts.Button.Stop()
	}
	if d.parts.Hotplug != nil {
		d.parts.Hotplug.Stop()
	}
	if d.parts.Sinks != nil {
		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := d.parts.Sinks.Wait(drainCtx); err != nil {
			logging.WarnWithContext(d.logger, "side effects still running at shutdown", "sink_drain_timeout",
				logging.Error(err),
				logging.String(logging.FieldImpact, "a ticket print or sound cue may have been cut short"),
			)
		}
	}
	if d.parts.Alerts != nil {
		d.parts.Alerts.Wait()
	}
}

func (d *Daemon) releaseLock() {
	if d.cfg.Server.DisplayOnly {
		return
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no vuorod is running"),
		)
	}
}

// Addr returns the HTTP listen address once started.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		DisplayOnly:  d.cfg.Server.DisplayOnly,
		Address:      d.api.addr(),
		StorePath:    d.cfg.Store.Path,
		LockFilePath: d.lockPath,
	}
}

func (d *Daemon) sinkHealth() *api.SinkHealth {
	health := &api.SinkHealth{
		Sound:  d.cfg.Sound.Enabled,
		Button: d.cfg.Button.Enabled,
	}
	if d.parts.Printer != nil {
		health.Printer = d.parts.Printer.Health()
	} else {
		health.Printer = printer.Health{Mode: printer.ModeDisabled}
	}
	return health
}
