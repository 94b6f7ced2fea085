// Package preflight provides readiness checks for the hardware and paths the
// kiosk depends on.
//
// The CLI "vuoro doctor" command runs RunAll and renders each Result. Checks
// for disabled features report as skipped rather than failed, since the
// daemon degrades gracefully without them.
package preflight
