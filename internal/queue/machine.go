package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"vuoro/internal/ledger"
	"vuoro/internal/logging"
)

// Notifier receives side-effect requests once a mutation is durable.
// Implementations must not block.
type Notifier interface {
	TicketIssued(ctx context.Context, ticket ledger.Ticket)
	TicketCalled(ctx context.Context, number int)
}

// FailureReporter is told when a mutation could not be persisted.
// Implementations must not block.
type FailureReporter interface {
	StorageFailed(ctx context.Context, err error)
}

type nopNotifier struct{}

func (nopNotifier) TicketIssued(context.Context, ledger.Ticket) {}

func (nopNotifier) TicketCalled(context.Context, int) {}

// Option customizes a Machine.
type Option func(*Machine)

// WithClock overrides the time source used to stamp tickets.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithNotifier installs the side-effect sink.
func WithNotifier(n Notifier) Option {
	return func(m *Machine) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithFailureReporter installs the observer for persistence failures.
func WithFailureReporter(r FailureReporter) Option {
	return func(m *Machine) {
		m.failures = r
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logging.NewComponentLogger(logger, "queue")
	}
}

// Machine serializes ledger mutations and publishes immutable snapshots.
type Machine struct {
	mu       sync.Mutex
	store    ledger.Store
	current  atomic.Pointer[ledger.Ledger]
	now      func() time.Time
	notifier Notifier
	failures FailureReporter
	logger   *slog.Logger
}

// New loads the persisted ledger and returns a ready machine.
func New(ctx context.Context, store ledger.Store, opts ...Option) (*Machine, error) {
	if store == nil {
		return nil, fmt.Errorf("queue: nil store")
	}
	m := &Machine{
		store:    store,
		now:      time.Now,
		notifier: nopNotifier{},
		logger:   logging.NewComponentLogger(nil, "queue"),
	}
	for _, opt := range opts {
		opt(m)
	}

	l, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	m.current.Store(l)
	m.logger.Info("ledger loaded",
		logging.String(logging.FieldEventType, "ledger_loaded"),
		logging.String("path", store.Path()),
		logging.Int("next_id", l.NextID),
		logging.Int("pending", len(l.Pending)),
		logging.String("current", l.Current.String()),
	)
	return m, nil
}

// IssueTicket allocates the next number, persists it and triggers the issue
// side effects.
func (m *Machine) IssueTicket(ctx context.Context) (ledger.Ticket, error) {
	var ticket ledger.Ticket
	err := m.mutate(ctx, func(l *ledger.Ledger) error {
		ticket = l.Issue(m.now())
		return nil
	})
	if err != nil {
		return ledger.Ticket{}, err
	}

	logging.WithContext(ctx, m.logger).Info("ticket issued",
		logging.String(logging.FieldEventType, "ticket_issued"),
		logging.Int(logging.FieldTicket, ticket.Number),
	)
	m.notifier.TicketIssued(context.WithoutCancel(ctx), ticket)
	return ticket, nil
}

// CallTicket removes number from the pending queue and makes it the served
// number. Unknown numbers yield ErrNotFound without any change.
func (m *Machine) CallTicket(ctx context.Context, number int) (int, error) {
	err := m.mutate(ctx, func(l *ledger.Ledger) error {
		if !l.Call(number) {
			return fmt.Errorf("ticket %d: %w", number, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logging.WithContext(ctx, m.logger).Info("ticket called",
		logging.String(logging.FieldEventType, "ticket_called"),
		logging.Int(logging.FieldTicket, number),
	)
	m.notifier.TicketCalled(context.WithoutCancel(ctx), number)
	return number, nil
}

// mutate applies fn to a private copy, persists it and publishes it. The
// published ledger is left untouched when fn or the store fails.
func (m *Machine) mutate(ctx context.Context, fn func(*ledger.Ledger) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.current.Load().Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := m.store.Save(ctx, next); err != nil {
		logging.ErrorWithContext(logging.WithContext(ctx, m.logger), "ledger persist failed", "ledger_save_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check free space and permissions on "+m.store.Path()),
		)
		if m.failures != nil {
			m.failures.StorageFailed(context.WithoutCancel(ctx), err)
		}
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	m.current.Store(next)
	return nil
}

// Snapshot is a read-only view of the ledger at one instant.
type Snapshot struct {
	Current ledger.Served
	NextID  int
	Pending []ledger.Ticket
	History []int
}

// Snapshot returns a copy of the most recently published ledger.
func (m *Machine) Snapshot() Snapshot {
	l := m.current.Load()
	return Snapshot{
		Current: l.Current,
		NextID:  l.NextID,
		Pending: append([]ledger.Ticket(nil), l.Pending...),
		History: append([]int(nil), l.History...),
	}
}
