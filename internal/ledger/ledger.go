package ledger

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// HistoryCapacity bounds the call history kept in the ledger.
const HistoryCapacity = 11

// ErrInvalidLedger marks a persisted document that violates ledger invariants.
var ErrInvalidLedger = errors.New("invalid ledger")

// Served is the number currently being served. The zero value means no ticket
// has been called yet.
type Served int

// NotServed is the sentinel for "nobody called yet".
const NotServed Served = 0

// Number returns the served ticket number and whether one has been called.
func (s Served) Number() (int, bool) {
	return int(s), s != NotServed
}

// Ticket is an issued queue entry.
type Ticket struct {
	Number   int
	IssuedAt time.Time
}

// Ledger is the sole persisted aggregate of the kiosk.
type Ledger struct {
	Current Served
	NextID  int
	Pending []Ticket
	// History holds called numbers, most recent first.
	History []int
}

// Default returns the ledger used when nothing has been persisted yet.
func Default() *Ledger {
	return &Ledger{
		Current: NotServed,
		NextID:  1,
		Pending: []Ticket{},
		History: []int{},
	}
}

// Clone returns a deep copy.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	return &Ledger{
		Current: l.Current,
		NextID:  l.NextID,
		Pending: append(make([]Ticket, 0, len(l.Pending)), l.Pending...),
		History: append(make([]int, 0, len(l.History)), l.History...),
	}
}

// Issue allocates the next ticket number, appends it to the pending queue and
// advances NextID.
func (l *Ledger) Issue(now time.Time) Ticket {
	ticket := Ticket{Number: l.NextID, IssuedAt: now}
	l.Pending = append(l.Pending, ticket)
	l.NextID++
	return ticket
}

// Call removes number from the pending queue and makes it the served number.
// It reports false and leaves the ledger untouched when number is not pending.
func (l *Ledger) Call(number int) bool {
	idx := slices.IndexFunc(l.Pending, func(t Ticket) bool { return t.Number == number })
	if idx < 0 {
		return false
	}
	l.Pending = slices.Delete(l.Pending, idx, idx+1)
	l.Current = Served(number)
	l.pushHistory(number)
	return true
}

func (l *Ledger) pushHistory(number int) {
	history := make([]int, 0, HistoryCapacity)
	history = append(history, number)
	for _, n := range l.History {
		if n == number {
			continue
		}
		if len(history) == HistoryCapacity {
			break
		}
		history = append(history, n)
	}
	l.History = history
}

// Validate checks the ledger invariants. Errors wrap ErrInvalidLedger.
func (l *Ledger) Validate() error {
	if l == nil {
		return fmt.Errorf("%w: nil ledger", ErrInvalidLedger)
	}
	if l.NextID < 1 {
		return fmt.Errorf("%w: next_id %d must be at least 1", ErrInvalidLedger, l.NextID)
	}
	if len(l.History) > HistoryCapacity {
		return fmt.Errorf("%w: history holds %d entries, capacity is %d", ErrInvalidLedger, len(l.History), HistoryCapacity)
	}

	called := make(map[int]struct{}, len(l.History))
	for _, n := range l.History {
		if n < 1 || n >= l.NextID {
			return fmt.Errorf("%w: history number %d outside issued range", ErrInvalidLedger, n)
		}
		if _, dup := called[n]; dup {
			return fmt.Errorf("%w: history number %d repeated", ErrInvalidLedger, n)
		}
		called[n] = struct{}{}
	}

	previous := 0
	for _, ticket := range l.Pending {
		if ticket.Number < 1 || ticket.Number >= l.NextID {
			return fmt.Errorf("%w: pending ticket %d outside issued range", ErrInvalidLedger, ticket.Number)
		}
		if ticket.Number <= previous {
			return fmt.Errorf("%w: pending ticket %d out of arrival order", ErrInvalidLedger, ticket.Number)
		}
		if _, ok := called[ticket.Number]; ok {
			return fmt.Errorf("%w: pending ticket %d already called", ErrInvalidLedger, ticket.Number)
		}
		previous = ticket.Number
	}

	current, ok := l.Current.Number()
	switch {
	case ok && (len(l.History) == 0 || l.History[0] != current):
		return fmt.Errorf("%w: current %d is not the most recent call", ErrInvalidLedger, current)
	case !ok && len(l.History) > 0:
		return fmt.Errorf("%w: history present but nothing is being served", ErrInvalidLedger)
	}
	return nil
}
