package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vuoro/internal/config"
)

const userAgent = "vuoro/0.1.0"

// Service defines the staff alert surface.
type Service interface {
	NotifyPrinterOffline(ctx context.Context, reason string) error
	NotifyPrinterOnline(ctx context.Context) error
	NotifyKioskStarted(ctx context.Context, nextID, pending int) error
	NotifyError(ctx context.Context, err error, label string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyPrinterOffline(ctx context.Context, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	return n.send(ctx, payload{
		title:    "Vuoro - Printer Offline",
		message:  fmt.Sprintf("🖨️ Ticket printer offline: %s\nTickets are still issued but not printed.", reason),
		tags:     []string{"vuoro", "printer", "offline"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyPrinterOnline(ctx context.Context) error {
	return n.send(ctx, payload{
		title:   "Vuoro - Printer Online",
		message: "✅ Ticket printer is back online",
		tags:    []string{"vuoro", "printer", "online"},
	})
}

func (n *ntfyService) NotifyKioskStarted(ctx context.Context, nextID, pending int) error {
	return n.send(ctx, payload{
		title:    "Vuoro - Kiosk Started",
		message:  fmt.Sprintf("Kiosk started: next ticket %d, %d waiting", nextID, pending),
		tags:     []string{"vuoro", "daemon", "started"},
		priority: "low",
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "Vuoro - Error",
		message:  builder.String(),
		tags:     []string{"vuoro", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Vuoro - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"vuoro", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPrinterOffline(context.Context, string) error { return nil }
func (noopService) NotifyPrinterOnline(context.Context) error { return nil }
func (noopService) NotifyKioskStarted(context.Context, int, int) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error { return nil }
