package button

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"vuoro/internal/config"
	"vuoro/internal/gpio"
	"vuoro/internal/ledger"
	"vuoro/internal/logging"
)

// Issuer is the queue entry point a press triggers.
type Issuer interface {
	IssueTicket(ctx context.Context) (ledger.Ticket, error)
}

// Options tunes the sampling loop.
type Options struct {
	ActiveLow    bool
	PollInterval time.Duration
	Debounce     time.Duration
	RetryBackoff time.Duration
	// LED, when set, is lit while presses are accepted and dark during the
	// debounce hold-off.
	LED gpio.Output
}

// OptionsFromConfig maps the [button] section onto poller options.
func OptionsFromConfig(cfg config.Button) Options {
	return Options{
		ActiveLow:    cfg.ActiveLow,
		PollInterval: cfg.PollInterval(),
		Debounce:     cfg.Debounce(),
		RetryBackoff: cfg.RetryBackoff(),
	}
}

// Poller turns button edges into ticket requests.
type Poller struct {
	input  gpio.Input
	issuer Issuer
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPoller returns a poller sampling input and issuing through issuer.
func NewPoller(input gpio.Input, issuer Issuer, opts Options, logger *slog.Logger) *Poller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 50 * time.Millisecond
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	return &Poller{
		input:  input,
		issuer: issuer,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "button"),
	}
}

// Start launches the sampling goroutine.
func (p *Poller) Start(ctx context.Context) error {
	if p == nil {
		return errors.New("button poller unavailable")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("button poller already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Run(runCtx)
	}()
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (p *Poller) Stop() {
	if p == nil {
		return
	}
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}

// Run samples the input until ctx is cancelled. Read errors are logged and
// retried after the backoff; they never end the loop.
func (p *Poller) Run(ctx context.Context) {
	ctx = logging.WithSource(ctx, "button")
	p.setLED(true)
	defer p.setLED(false)

	p.logger.Info("monitoring button",
		logging.String(logging.FieldEventType, "button_monitor_started"),
		logging.Duration("poll_interval", p.opts.PollInterval),
		logging.Duration("debounce", p.opts.Debounce),
	)

	// The first sample only arms the edge detector, so a line that idles at
	// the pressed level cannot issue a ticket on startup.
	armed, wasPressed := false, false
	for {
		level, err := p.input.Read()
		if err != nil {
			logging.WarnWithContext(p.logger, "button read failed; will retry", "button_read_failed",
				logging.Error(err),
				logging.Duration("retry_in", p.opts.RetryBackoff),
				logging.String(logging.FieldErrorHint, "check GPIO wiring and access to /dev/gpiochip*"),
				logging.String(logging.FieldImpact, "presses are ignored until the pin reads again"),
			)
			if !sleep(ctx, p.opts.RetryBackoff) {
				return
			}
			continue
		}

		pressed := p.isPressed(level)
		switch {
		case !armed:
			armed = true
			if pressed {
				logging.WarnWithContext(p.logger, "button reads pressed at startup; waiting for release", "button_stuck_at_start",
					logging.String(logging.FieldErrorHint, "check button.active_low and button.bias against the wiring"),
					logging.String(logging.FieldImpact, "no ticket is issued until the button reads released"),
				)
			}
		case pressed && !wasPressed:
			p.press(ctx)
		}
		wasPressed = pressed

		if !sleep(ctx, p.opts.PollInterval) {
			return
		}
	}
}

func (p *Poller) press(ctx context.Context) {
	p.logger.Debug("button pressed", logging.String(logging.FieldEventType, "button_pressed"))
	if _, err := p.issuer.IssueTicket(ctx); err != nil {
		p.logger.Error("ticket issue from button failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "button_issue_failed"),
			logging.String(logging.FieldErrorHint, "check the ledger store; the customer should press again"),
		)
	}
	if p.opts.Debounce <= 0 {
		return
	}
	p.setLED(false)
	sleep(ctx, p.opts.Debounce)
	if ctx.Err() == nil {
		p.setLED(true)
	}
}

func (p *Poller) isPressed(level gpio.Level) bool {
	if p.opts.ActiveLow {
		return level == gpio.Low
	}
	return level == gpio.High
}

func (p *Poller) setLED(on bool) {
	if p.opts.LED == nil {
		return
	}
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := p.opts.LED.Write(level); err != nil {
		p.logger.Debug("led write failed", logging.Error(err))
	}
}

// sleep waits for d and reports whether ctx is still live.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
