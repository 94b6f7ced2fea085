// Package daemonrun builds the vuoro runtime from configuration and runs it
// until the process is asked to stop.
package daemonrun
