// Package daemon coordinates the long-running vuoro process.
//
// It wires the queue, the button poller, the printer hotplug monitor and the
// HTTP surface into a single lifecycle with flock-based locking so only one
// process owns the ledger. The HTTP server serves the public display, the
// hidden admin page and the JSON API used by the pages and the CLI.
//
// Keep orchestration logic here: ticket semantics live in internal/queue and
// the hardware sinks in their own packages.
package daemon
