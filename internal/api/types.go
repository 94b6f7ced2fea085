package api

import (
	"vuoro/internal/ledger"
	"vuoro/internal/printer"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// DisplayStatus is the public display payload served at /api/status.
type DisplayStatus struct {
	Current ledger.Served `json:"current"`
	History []int         `json:"history"`
}

// Ticket describes a pending ticket for staff views.
type Ticket struct {
	Number   int    `json:"number"`
	IssuedAt string `json:"issuedAt,omitempty"`
	// Clock is the issue time of day as shown on the admin page.
	Clock string `json:"clock"`
}

// SinkHealth reports the state of the hardware side effects.
type SinkHealth struct {
	Printer printer.Health `json:"printer"`
	Sound   bool           `json:"soundEnabled"`
	Button  bool           `json:"buttonEnabled"`
}

// AdminQueue is the staff view of the ledger.
type AdminQueue struct {
	Current ledger.Served `json:"current"`
	NextID  int           `json:"nextId"`
	Pending []Ticket      `json:"pending"`
	History []int         `json:"history"`
	Sinks   *SinkHealth   `json:"sinks,omitempty"`
}

// CallResponse acknowledges a called ticket.
type CallResponse struct {
	Status string `json:"status"`
	Number int    `json:"number"`
}

// IssueResponse acknowledges an issued ticket.
type IssueResponse struct {
	Status    string `json:"status"`
	Number    int    `json:"number"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
