package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vuoro/internal/logging"
)

// Alerts forwards kiosk incidents to staff without blocking the caller.
// Alerts are sent in the background with their own timeout.
type Alerts struct {
	service Service
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewAlerts wraps service for use as a printer state listener and ledger
// failure reporter.
func NewAlerts(service Service, timeout time.Duration, logger *slog.Logger) *Alerts {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Alerts{
		service: service,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "notifications"),
	}
}

// PrinterOffline alerts staff that tickets are no longer printed.
func (a *Alerts) PrinterOffline(ctx context.Context, reason string) {
	a.dispatch(ctx, "printer_offline", func(ctx context.Context) error {
		return a.service.NotifyPrinterOffline(ctx, reason)
	})
}

// PrinterOnline alerts staff that printing resumed.
func (a *Alerts) PrinterOnline(ctx context.Context) {
	a.dispatch(ctx, "printer_online", func(ctx context.Context) error {
		return a.service.NotifyPrinterOnline(ctx)
	})
}

// StorageFailed alerts staff that a queue change could not be saved.
func (a *Alerts) StorageFailed(ctx context.Context, err error) {
	a.dispatch(ctx, "ledger_save_failed", func(ctx context.Context) error {
		return a.service.NotifyError(ctx, err, "ticket ledger")
	})
}

func (a *Alerts) dispatch(ctx context.Context, event string, send func(context.Context) error) {
	if a == nil || a.service == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		if err := send(sendCtx); err != nil {
			logging.WarnWithContext(a.logger, "staff alert failed", "notification_failed",
				logging.String("alert", event),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
				logging.String(logging.FieldImpact, "staff were not told about "+event),
			)
		}
	}()
}

// Wait blocks until in-flight alerts finish.
func (a *Alerts) Wait() {
	if a == nil {
		return
	}
	a.wg.Wait()
}
