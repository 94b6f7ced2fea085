// Package hotplug watches udev netlink events for the ticket printer.
//
// The monitor matches USB add and remove events on the printer's vendor and
// product ids and forwards presence changes to the printer sink, which flips
// between device and dummy mode and raises staff alerts.
package hotplug
