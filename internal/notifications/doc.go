// Package notifications delivers staff alerts via ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and degrades to a no-op when no topic is set. Alerts cover the
// events staff must act on: the ticket printer going offline or coming back,
// daemon startup, and unexpected errors.
package notifications
