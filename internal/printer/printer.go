package printer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"vuoro/internal/config"
	"vuoro/internal/ledger"
	"vuoro/internal/logging"
)

// Mode describes where tickets currently go.
type Mode string

const (
	ModeDevice   Mode = "device"
	ModeDummy    Mode = "dummy"
	ModeDisabled Mode = "disabled"
)

// Health is a point-in-time view of the printer sink.
type Health struct {
	Mode          Mode      `json:"mode"`
	Device        string    `json:"device"`
	Online        bool      `json:"online"`
	Printed       int       `json:"printed"`
	Failures      int       `json:"failures"`
	LastTicket    int       `json:"last_ticket,omitempty"`
	LastPrintedAt time.Time `json:"last_printed_at,omitzero"`
	LastError     string    `json:"last_error,omitempty"`
	LastErrorAt   time.Time `json:"last_error_at,omitzero"`
}

// StateListener is told when the printer goes offline or comes back. It is
// called with the health lock held and must not block.
type StateListener interface {
	PrinterOffline(ctx context.Context, reason string)
	PrinterOnline(ctx context.Context)
}

type openFunc func(path string) (io.WriteCloser, error)

func openDevice(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
}

// Printer writes tickets to an ESC/POS device node, falling back to logging
// the ticket when the device is absent.
type Printer struct {
	device  string
	layout  Layout
	enabled bool
	open    openFunc
	logger  *slog.Logger

	// writeMu serializes device I/O, which can block on a jammed printer.
	writeMu sync.Mutex

	mu       sync.Mutex
	health   Health
	listener StateListener
}

// New validates the printer configuration.
func New(cfg config.Printer, logger *slog.Logger) (*Printer, error) {
	layout := Layout{Header: cfg.Header, Codepage: cfg.Codepage, Timestamp: cfg.PrintTimestamp}
	if _, err := Render(0, time.Time{}, layout); err != nil {
		return nil, fmt.Errorf("printer: %w", err)
	}
	mode := ModeDevice
	if !cfg.Enabled {
		mode = ModeDisabled
	}
	return &Printer{
		device:  cfg.Device,
		layout:  layout,
		enabled: cfg.Enabled,
		open:    openDevice,
		logger:  logging.NewComponentLogger(logger, "printer"),
		health:  Health{Mode: mode, Device: cfg.Device, Online: cfg.Enabled},
	}, nil
}

// SetListener registers the state change observer.
func (p *Printer) SetListener(listener StateListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = listener
}

// Print renders and sends one ticket. A missing device node is not an error:
// the ticket is logged and the printer reports dummy mode.
func (p *Printer) Print(ctx context.Context, ticket ledger.Ticket) error {
	if !p.enabled {
		return nil
	}
	data, err := Render(ticket.Number, ticket.IssuedAt, p.layout)
	if err != nil {
		return err
	}

	logger := logging.WithContext(ctx, p.logger).With(logging.Int(logging.FieldTicket, ticket.Number))

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	out, err := p.open(p.device)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("printer not found; ticket logged instead",
			logging.String(logging.FieldEventType, "ticket_printed_dummy"),
			logging.String("device", p.device),
		)
		p.mu.Lock()
		defer p.mu.Unlock()
		p.transition(ctx, ModeDummy, "device "+p.device+" not present")
		p.health.Printed++
		p.health.LastTicket = ticket.Number
		p.health.LastPrintedAt = time.Now()
		return nil
	}
	if err == nil {
		_, err = out.Write(data)
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.health.Failures++
		p.health.LastError = err.Error()
		p.health.LastErrorAt = time.Now()
		p.transition(ctx, ModeDevice, err.Error())
		return fmt.Errorf("print ticket %d: %w", ticket.Number, err)
	}

	p.transition(ctx, ModeDevice, "")
	p.health.Printed++
	p.health.LastTicket = ticket.Number
	p.health.LastPrintedAt = time.Now()
	logger.Info("ticket printed", logging.String(logging.FieldEventType, "ticket_printed"))
	return nil
}

// DeviceEvent records a hotplug notification for the printer.
func (p *Printer) DeviceEvent(ctx context.Context, present bool) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if present {
		p.transition(ctx, ModeDevice, "")
		return
	}
	p.transition(ctx, ModeDummy, "printer unplugged")
}

// transition updates mode and online state, notifying the listener when
// online flips. Callers hold p.mu.
func (p *Printer) transition(ctx context.Context, mode Mode, failure string) {
	wasOnline := p.health.Online
	online := mode == ModeDevice && failure == ""
	p.health.Mode = mode
	p.health.Online = online
	if wasOnline == online {
		return
	}
	if online {
		p.logger.Info("printer online", logging.String(logging.FieldEventType, "printer_online"))
		if p.listener != nil {
			p.listener.PrinterOnline(ctx)
		}
		return
	}
	logging.WarnWithContext(p.logger, "printer offline", "printer_offline",
		logging.String("reason", failure),
		logging.String(logging.FieldErrorHint, "check the USB cable and paper, then press the button to test"),
		logging.String(logging.FieldImpact, "tickets are issued but not printed"),
	)
	if p.listener != nil {
		p.listener.PrinterOffline(ctx, failure)
	}
}

// Health returns the current sink health.
func (p *Printer) Health() Health {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.health
}
