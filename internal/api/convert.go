package api

import (
	"slices"

	"vuoro/internal/ledger"
	"vuoro/internal/queue"
)

// DefaultHistoryWindow is how many recent calls the display shows.
const DefaultHistoryWindow = 10

// Display projects a snapshot onto the public display: the served number
// plus earlier calls, most recent first, without repeating the current one.
func Display(snap queue.Snapshot, window int) DisplayStatus {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	current, served := snap.Current.Number()
	history := make([]int, 0, min(window, len(snap.History)))
	for _, n := range snap.History {
		if served && n == current {
			continue
		}
		if len(history) == window {
			break
		}
		history = append(history, n)
	}
	return DisplayStatus{Current: snap.Current, History: history}
}

// DisplayOnlyStatus is the fixed payload served when the kiosk runs as a
// display demo without hardware or a ledger.
func DisplayOnlyStatus() DisplayStatus {
	history := make([]int, 0, ledger.HistoryCapacity)
	for n := 42; n >= 32; n-- {
		history = append(history, n)
	}
	return DisplayStatus{Current: ledger.Served(42), History: history}
}

// Admin projects a snapshot onto the staff view.
func Admin(snap queue.Snapshot, sinks *SinkHealth) AdminQueue {
	pending := make([]Ticket, 0, len(snap.Pending))
	for _, t := range snap.Pending {
		pending = append(pending, FromTicket(t))
	}
	return AdminQueue{
		Current: snap.Current,
		NextID:  snap.NextID,
		Pending: pending,
		History: slices.Clone(snap.History),
		Sinks:   sinks,
	}
}

// FromTicket converts a ledger ticket.
func FromTicket(t ledger.Ticket) Ticket {
	out := Ticket{Number: t.Number, Clock: ClockLabel(t)}
	if !t.IssuedAt.IsZero() && t.IssuedAt.Year() > 1 {
		out.IssuedAt = t.IssuedAt.Format(dateTimeFormat)
	}
	return out
}

// ClockLabel renders the issue time as HH:MM:SS, or "--:--:--" when unknown.
func ClockLabel(t ledger.Ticket) string {
	if t.IssuedAt.IsZero() {
		return "--:--:--"
	}
	return t.IssuedAt.Format("15:04:05")
}

// NewIssueResponse acknowledges a freshly issued ticket.
func NewIssueResponse(t ledger.Ticket) IssueResponse {
	return IssueResponse{Status: "issued", Number: t.Number, Timestamp: t.IssuedAt.Format(dateTimeFormat)}
}

// NewCallResponse acknowledges a called ticket.
func NewCallResponse(number int) CallResponse {
	return CallResponse{Status: "called", Number: number}
}
