package sinks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"vuoro/internal/ledger"
	"vuoro/internal/logging"
)

// TicketPrinter renders an issued ticket.
type TicketPrinter interface {
	Print(ctx context.Context, ticket ledger.Ticket) error
}

// CuePlayer plays the audio cue.
type CuePlayer interface {
	Play(ctx context.Context) error
}

// Dispatcher fans queue events out to the hardware sinks without blocking
// the caller. Tickets print one at a time in issue order; cues run in their
// own goroutines. Failures and panics are logged and never reach the caller.
type Dispatcher struct {
	printer TicketPrinter
	sound   CuePlayer
	logger  *slog.Logger
	wg      sync.WaitGroup

	printMu  sync.Mutex
	prints   []printJob
	printing bool
}

type printJob struct {
	ctx    context.Context
	ticket ledger.Ticket
}

// New returns a dispatcher. Nil sinks are skipped.
func New(printer TicketPrinter, sound CuePlayer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		printer: printer,
		sound:   sound,
		logger:  logging.NewComponentLogger(logger, "sinks"),
	}
}

// TicketIssued prints the ticket and plays the cue.
func (d *Dispatcher) TicketIssued(ctx context.Context, ticket ledger.Ticket) {
	if d.printer != nil {
		d.enqueuePrint(ctx, ticket)
	}
	d.playCue(ctx, ticket.Number)
}

// TicketCalled plays the cue.
func (d *Dispatcher) TicketCalled(ctx context.Context, number int) {
	d.playCue(ctx, number)
}

func (d *Dispatcher) playCue(ctx context.Context, number int) {
	if d.sound == nil {
		return
	}
	d.spawn(ctx, "sound", number, d.sound.Play)
}

// enqueuePrint appends to the print lane, starting its worker when idle.
func (d *Dispatcher) enqueuePrint(ctx context.Context, ticket ledger.Ticket) {
	d.printMu.Lock()
	defer d.printMu.Unlock()
	d.prints = append(d.prints, printJob{ctx: ctx, ticket: ticket})
	if d.printing {
		return
	}
	d.printing = true
	d.wg.Add(1)
	go d.drainPrints()
}

func (d *Dispatcher) drainPrints() {
	defer d.wg.Done()
	for {
		d.printMu.Lock()
		if len(d.prints) == 0 {
			d.printing = false
			d.printMu.Unlock()
			return
		}
		job := d.prints[0]
		d.prints = d.prints[1:]
		d.printMu.Unlock()

		d.run(job.ctx, "printer", job.ticket.Number, func(ctx context.Context) error {
			return d.printer.Print(ctx, job.ticket)
		})
	}
}

func (d *Dispatcher) spawn(ctx context.Context, sink string, number int, fn func(context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(ctx, sink, number, fn)
	}()
}

func (d *Dispatcher) run(ctx context.Context, sink string, number int, fn func(context.Context) error) {
	logger := logging.WithContext(ctx, d.logger).With(
		logging.String("sink", sink),
		logging.Int(logging.FieldTicket, number),
	)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("sink panicked",
				logging.String(logging.FieldEventType, "sink_panic"),
				logging.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	if err := fn(ctx); err != nil {
		logging.WarnWithContext(logger, "sink failed", "sink_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the queue is updated but the customer missed the "+sink+" cue"),
		)
	}
}

// Wait blocks until in-flight sinks finish or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for sinks: %w", ctx.Err())
	}
}
