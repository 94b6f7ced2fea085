// Command vuoro runs and operates the queue-ticketing kiosk.
//
// `vuoro serve` runs the daemon in the foreground. The remaining commands talk
// to a running daemon over its HTTP API (issue, call, status, queue), manage
// the configuration file, or exercise the kiosk hardware directly.
package main
