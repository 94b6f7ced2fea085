// Package button polls the kiosk's push button and issues a ticket on each
// press. With the default pull-up wiring the pin idles high and a press pulls
// it low; a high to low edge counts once, followed by a debounce hold-off.
package button
