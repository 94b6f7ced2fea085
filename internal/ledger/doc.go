// Package ledger defines the persisted queue aggregate and its stores.
//
// A Ledger holds the next ticket number, the pending queue, the number being
// served and a bounded, duplicate-free call history. It is always persisted
// as one document: FileStore writes queue_db.json atomically and SQLiteStore
// keeps the same JSON in a single row. Decode validates the invariants so a
// corrupted document stops the daemon at startup instead of being served.
package ledger
