// Package client is the HTTP client the vuoro CLI uses to reach a running
// daemon.
package client
