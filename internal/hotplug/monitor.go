package hotplug

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"vuoro/internal/config"
	"vuoro/internal/logging"
)

// DeviceHandler receives presence changes for the watched printer.
type DeviceHandler interface {
	DeviceEvent(ctx context.Context, present bool)
}

// Monitor listens for udev netlink events and reports when the configured USB
// printer is plugged in or removed.
type Monitor struct {
	vendor  string
	product string
	device  string
	handler DeviceHandler
	logger  *slog.Logger

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	done    chan struct{}
	running bool
}

// NewMonitor returns nil when hotplug tracking is disabled or the printer has
// no USB identity configured.
func NewMonitor(cfg config.Printer, handler DeviceHandler, logger *slog.Logger) *Monitor {
	if !cfg.Enabled || !cfg.Hotplug || handler == nil {
		return nil
	}
	vendor := udevHex(cfg.VendorID)
	product := udevHex(cfg.ProductID)
	if vendor == "" || product == "" {
		return nil
	}
	return &Monitor{
		vendor:  vendor,
		product: product,
		device:  strings.TrimSpace(cfg.Device),
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "hotplug"),
	}
}

// udevHex converts a configured USB id to the form the kernel uses in the
// PRODUCT variable: lowercase hex without leading zeros.
func udevHex(id string) string {
	id = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(id), "0x"))
	if id == "" {
		return ""
	}
	trimmed := strings.TrimLeft(id, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// Probe reports the current presence of the device node to the handler so the
// printer starts in the right mode.
func (m *Monitor) Probe(ctx context.Context) {
	if m == nil || m.device == "" {
		return
	}
	_, err := os.Stat(m.device)
	switch {
	case err == nil:
		m.handler.DeviceEvent(ctx, true)
	case errors.Is(err, fs.ErrNotExist):
		m.handler.DeviceEvent(ctx, false)
	default:
		m.logger.Debug("printer probe inconclusive", logging.String("device", m.device), logging.Error(err))
	}
}

// Start begins listening for udev netlink events. Failing to open the netlink
// socket is logged and otherwise ignored; the printer still detects its device
// on the next print.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(m.logger, "failed to connect to netlink socket; printer hotplug disabled", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the daemon may open netlink sockets"),
			logging.String(logging.FieldImpact, "printer state changes are noticed only when printing"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.done = make(chan struct{})
	m.running = true

	go m.monitorLoop(ctx, conn, m.quit, m.done)

	m.logger.Info("printer hotplug monitor started",
		logging.String(logging.FieldEventType, "hotplug_monitor_started"),
		logging.String("usb_id", m.vendor+"/"+m.product),
	)
	return nil
}

// Stop shuts down the monitor and waits for its loop to exit.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	close(m.quit)
	done := m.done
	conn := m.conn
	m.quit = nil
	m.conn = nil
	m.running = false
	m.mu.Unlock()

	<-done
	if conn != nil {
		_ = conn.Close()
	}
	m.logger.Info("printer hotplug monitor stopped",
		logging.String(logging.FieldEventType, "hotplug_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "printer hotplug events may be missed"),
			)
		}
	}
}

// buildMatcher matches USB add and remove events whose PRODUCT variable
// starts with vendor/product. Interface events also match and are dropped by
// isPrinterEvent.
func (m *Monitor) buildMatcher() netlink.Matcher {
	action := "^(add|remove)$"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "^usb$",
			"PRODUCT":   "^" + m.vendor + "/" + m.product + "/",
		},
	})
	return rules
}

// isPrinterEvent reports whether uevent describes the printer itself rather
// than one of its interfaces or another device.
func (m *Monitor) isPrinterEvent(uevent netlink.UEvent) bool {
	if uevent.Env["SUBSYSTEM"] != "usb" || uevent.Env["DEVTYPE"] != "usb_device" {
		return false
	}
	parts := strings.Split(uevent.Env["PRODUCT"], "/")
	return len(parts) >= 2 && parts[0] == m.vendor && parts[1] == m.product
}

func (m *Monitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	if !m.isPrinterEvent(uevent) {
		return
	}
	var present bool
	switch uevent.Action {
	case netlink.ADD:
		present = true
	case netlink.REMOVE:
		present = false
	default:
		return
	}

	m.logger.Info("printer hotplug event",
		logging.String(logging.FieldEventType, "printer_"+string(uevent.Action)),
		logging.String("devpath", uevent.Env["DEVPATH"]),
		logging.Bool("present", present),
	)
	m.handler.DeviceEvent(ctx, present)
}
