// Package gpio reads and drives Raspberry Pi pins through the Linux GPIO
// character device. Lines are requested once and held for the process
// lifetime so the button poller samples without reopening anything, and
// input lines carry an explicit bias so an idle button reads released.
package gpio
