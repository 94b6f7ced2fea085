// Package printer renders queue tickets as ESC/POS and writes them to the USB
// receipt printer's device node. Header text is transcoded to the printer's
// code page. When the device node is missing the printer behaves as a dummy
// that logs each ticket, so the queue keeps working without paper.
package printer
