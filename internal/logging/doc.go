// Package logging assembles structured slog loggers and formatting helpers used
// across vuoro components.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context helpers so HTTP handlers and the button loop
// can tag log lines with correlation IDs and the triggering surface. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
