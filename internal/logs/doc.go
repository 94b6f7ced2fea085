// Package logs reads the daemon log file for `vuoro logs`.
//
// Last returns the trailing lines with bounded memory; Follow polls from an
// offset and restarts from the top when the file is truncated or replaced.
package logs
