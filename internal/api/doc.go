// Package api defines the wire-format types shared by the HTTP server and the
// CLI client, and the projections that turn a queue.Snapshot into them.
//
// The public display payload is what display pages poll: "current" is a
// number or "---" and "history" lists earlier calls, most recent first,
// without the current number. Staff payloads use camelCase keys. Every view
// is derived from a single Snapshot so a response never mixes two states.
package api
