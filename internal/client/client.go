package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vuoro/internal/api"
	"vuoro/internal/config"
)

// ErrUnavailable reports that no daemon answered at the configured address.
var ErrUnavailable = errors.New("vuoro daemon unavailable")

// APIError is a non-2xx reply from the daemon.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned %d", e.StatusCode)
	}
	return fmt.Sprintf("daemon returned %d: %s", e.StatusCode, e.Message)
}

// NotFound reports whether the daemon answered 404.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Client talks to a running vuoro daemon over its HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the daemon described by cfg. Wildcard bind
// addresses are dialled on loopback.
func New(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("client requires configuration")
	}
	host, port, err := net.SplitHostPort(cfg.Server.Bind)
	if err != nil {
		return nil, fmt.Errorf("server.bind: %w", err)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return NewWithURL("http://"+net.JoinHostPort(host, port), cfg.Server.APIToken), nil
}

// NewWithURL returns a client for an explicit base URL.
func NewWithURL(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// BaseURL returns the daemon address the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Status fetches the public display status.
func (c *Client) Status(ctx context.Context) (api.DisplayStatus, error) {
	var out api.DisplayStatus
	err := c.do(ctx, http.MethodGet, "/api/status", &out)
	return out, err
}

// Queue fetches the staff view of the ledger.
func (c *Client) Queue(ctx context.Context) (api.AdminQueue, error) {
	var out api.AdminQueue
	err := c.do(ctx, http.MethodGet, "/api/admin/queue", &out)
	return out, err
}

// Issue asks the daemon to issue a ticket, as a button press would.
func (c *Client) Issue(ctx context.Context) (api.IssueResponse, error) {
	var out api.IssueResponse
	err := c.do(ctx, http.MethodPost, "/api/tickets", &out)
	return out, err
}

// Call calls a pending ticket.
func (c *Client) Call(ctx context.Context, number int) (api.CallResponse, error) {
	var out api.CallResponse
	err := c.do(ctx, http.MethodPost, "/api/call/"+strconv.Itoa(number), &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w at %s: %w", ErrUnavailable, c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload api.ErrorResponse
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Message = payload.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
