// Package queue owns the kiosk's ledger at runtime.
//
// Machine is the single writer: IssueTicket and CallTicket take one mutex,
// mutate a private copy of the ledger, persist it through the ledger.Store and
// only then publish the copy for readers. Snapshot loads the published
// pointer without locking, so display polling never waits on a disk write and
// never sees a half-applied mutation. Side effects (printing, sound) are handed
// to a Notifier after the mutation is durable.
//
// Treat this package as the single source of truth for queue semantics; HTTP
// handlers, the button poller and the CLI all go through Machine.
package queue
