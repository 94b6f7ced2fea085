package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// noneLabel is how an unset served number appears on the wire and on disk.
const noneLabel = "---"

// legacyTimeLayout is the time-of-day stamp written by older kiosk builds.
const legacyTimeLayout = "15:04:05"

// MarshalJSON renders the served number, or "---" when none has been called.
func (s Served) MarshalJSON() ([]byte, error) {
	if n, ok := s.Number(); ok {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(noneLabel)
}

// UnmarshalJSON accepts a number, a numeric string, "---", or null.
func (s *Served) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = NotServed
		return nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" || text == noneLabel {
			*s = NotServed
			return nil
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			return fmt.Errorf("current %q is not a ticket number", text)
		}
		*s = Served(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("current: %w", err)
	}
	*s = Served(n)
	return nil
}

// String renders the served number for display.
func (s Served) String() string {
	if n, ok := s.Number(); ok {
		return strconv.Itoa(n)
	}
	return noneLabel
}

type ticketDocument struct {
	Number    int    `json:"number"`
	Timestamp string `json:"timestamp"`
}

type document struct {
	Current Served           `json:"current"`
	NextID  int              `json:"next_id"`
	Queue   []ticketDocument `json:"queue"`
	History []int            `json:"history"`
}

// Encode renders the ledger as the persisted JSON document.
func Encode(l *Ledger) ([]byte, error) {
	doc := document{
		Current: l.Current,
		NextID:  l.NextID,
		Queue:   make([]ticketDocument, 0, len(l.Pending)),
		History: append(make([]int, 0, len(l.History)), l.History...),
	}
	for _, ticket := range l.Pending {
		doc.Queue = append(doc.Queue, ticketDocument{
			Number:    ticket.Number,
			Timestamp: ticket.IssuedAt.Format(time.RFC3339Nano),
		})
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a persisted document and validates the resulting ledger.
// Documents from older builds carry no history: the served number, if any,
// becomes the only history entry. A pending ticket that was already called is
// dropped from the queue.
func Decode(data []byte) (*Ledger, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}

	l := &Ledger{
		Current: doc.Current,
		NextID:  doc.NextID,
		Pending: make([]Ticket, 0, len(doc.Queue)),
		History: append(make([]int, 0, len(doc.History)), doc.History...),
	}
	for _, entry := range doc.Queue {
		issuedAt, err := parseTimestamp(entry.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("decode ticket %d: %w", entry.Number, err)
		}
		l.Pending = append(l.Pending, Ticket{Number: entry.Number, IssuedAt: issuedAt})
	}
	if doc.History == nil {
		if n, ok := l.Current.Number(); ok {
			l.History = append(l.History, n)
		}
	}
	l.Pending = slices.DeleteFunc(l.Pending, func(t Ticket) bool {
		return slices.Contains(l.History, t.Number)
	})
	if l.NextID == 0 {
		l.NextID = highestNumber(l) + 1
	}

	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(legacyTimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
	}
	return ts, nil
}

func highestNumber(l *Ledger) int {
	highest := 0
	if n, ok := l.Current.Number(); ok {
		highest = n
	}
	for _, t := range l.Pending {
		highest = max(highest, t.Number)
	}
	for _, n := range l.History {
		highest = max(highest, n)
	}
	return highest
}
