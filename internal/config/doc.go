// Package config loads, normalizes, and validates vuoro configuration data.
//
// It supplies kiosk defaults (GPIO 17 button, USB receipt printer, aplay
// audio cue, JSON ledger under the data directory), expands user paths
// including tilde shortcuts, reads TOML files, and honours environment
// fallbacks such as VUORO_API_TOKEN and VUORO_NTFY_TOPIC.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
