package printer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"vuoro/internal/config"
	"vuoro/internal/ledger"
	"vuoro/internal/logging"
)

func TestRenderProducesEscPosTicket(t *testing.T) {
	data, err := Render(42, time.Time{}, Layout{Header: "VUORONUMERO", Codepage: "cp850"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	var want bytes.Buffer
	want.Write([]byte{0x1b, '@', 0x1b, 't', 2, '\n', 0x1b, 'a', 1})
	want.WriteString("VUORONUMERO\n----------------\n")
	want.Write([]byte{0x1d, '!', 0x33})
	want.WriteString("42\n")
	want.Write([]byte{0x1d, '!', 0, 0x1b, 'd', 4, 0x1d, 'V', 1})

	if !bytes.Equal(data, want.Bytes()) {
		t.Fatalf("unexpected bytes:\n got %q\nwant %q", data, want.Bytes())
	}
}

func TestRenderTranscodesHeader(t *testing.T) {
	data, err := Render(1, time.Time{}, Layout{Header: "Jäähalli", Codepage: "cp437"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// ä is 0x84 in code page 437.
	if !bytes.Contains(data, []byte{'J', 0x84, 0x84, 'h', 'a', 'l', 'l', 'i'}) {
		t.Fatalf("header not transcoded: %q", data)
	}
}

func TestRenderIncludesTimestampWhenEnabled(t *testing.T) {
	issued := time.Date(2026, 4, 5, 18, 30, 15, 0, time.UTC)
	data, err := Render(7, issued, Layout{Header: "X", Codepage: "windows-1252", Timestamp: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Contains(data, []byte("2026-04-05 18:30:15")) {
		t.Fatalf("timestamp missing: %q", data)
	}
	if !bytes.HasPrefix(data, []byte{0x1b, '@', 0x1b, 't', 16}) {
		t.Fatalf("unexpected codepage selector: %q", data[:5])
	}
}

func TestRenderRejectsUnknownCodepage(t *testing.T) {
	if _, err := Render(1, time.Time{}, Layout{Codepage: "utf-8"}); err == nil {
		t.Fatal("expected error")
	}
}

func newTestPrinter(t *testing.T, device string) *Printer {
	t.Helper()
	cfg := config.Default().Printer
	cfg.Device = device
	p, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

type recordingListener struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingListener) PrinterOffline(_ context.Context, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "offline")
}

func (r *recordingListener) PrinterOnline(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "online")
}

func TestPrintWritesToDevice(t *testing.T) {
	device := filepath.Join(t.TempDir(), "lp0")
	if err := os.WriteFile(device, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	p := newTestPrinter(t, device)

	if err := p.Print(context.Background(), ledger.Ticket{Number: 9}); err != nil {
		t.Fatalf("Print: %v", err)
	}
	data, err := os.ReadFile(device)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("9\n")) {
		t.Fatalf("ticket not written: %q", data)
	}
	health := p.Health()
	if health.Mode != ModeDevice || !health.Online || health.Printed != 1 || health.LastTicket != 9 {
		t.Fatalf("unexpected health %+v", health)
	}
}

func TestMissingDeviceFallsBackToDummy(t *testing.T) {
	p := newTestPrinter(t, filepath.Join(t.TempDir(), "absent"))
	listener := &recordingListener{}
	p.SetListener(listener)

	if err := p.Print(context.Background(), ledger.Ticket{Number: 3}); err != nil {
		t.Fatalf("dummy print should not fail: %v", err)
	}
	health := p.Health()
	if health.Mode != ModeDummy || health.Online {
		t.Fatalf("expected offline dummy mode, got %+v", health)
	}
	if len(listener.events) != 1 || listener.events[0] != "offline" {
		t.Fatalf("expected one offline event, got %v", listener.events)
	}

	if err := p.Print(context.Background(), ledger.Ticket{Number: 4}); err != nil {
		t.Fatalf("second dummy print: %v", err)
	}
	if len(listener.events) != 1 {
		t.Fatalf("expected no repeated offline event, got %v", listener.events)
	}

	p.DeviceEvent(context.Background(), true)
	if len(listener.events) != 2 || listener.events[1] != "online" {
		t.Fatalf("expected online event after hotplug, got %v", listener.events)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("paper jam") }

func (failingWriter) Close() error { return nil }

func TestWriteFailureIsRecorded(t *testing.T) {
	p := newTestPrinter(t, "/dev/usb/lp0")
	p.open = func(string) (io.WriteCloser, error) { return failingWriter{}, nil }

	err := p.Print(context.Background(), ledger.Ticket{Number: 5})
	if err == nil {
		t.Fatal("expected print error")
	}
	health := p.Health()
	if health.Failures != 1 || health.LastError == "" || health.Online {
		t.Fatalf("failure not recorded: %+v", health)
	}
}

type stuckWriter struct {
	entered chan struct{}
	release chan struct{}
}

func (w stuckWriter) Write(data []byte) (int, error) {
	close(w.entered)
	<-w.release
	return len(data), nil
}

func (stuckWriter) Close() error { return nil }

func TestHealthAnswersWhileWriteIsStuck(t *testing.T) {
	p := newTestPrinter(t, "/dev/usb/lp0")
	writer := stuckWriter{entered: make(chan struct{}), release: make(chan struct{})}
	p.open = func(string) (io.WriteCloser, error) { return writer, nil }

	printed := make(chan error, 1)
	go func() { printed <- p.Print(context.Background(), ledger.Ticket{Number: 11}) }()
	<-writer.entered

	answered := make(chan Health, 1)
	go func() {
		p.DeviceEvent(context.Background(), true)
		answered <- p.Health()
	}()
	select {
	case health := <-answered:
		if health.Mode != ModeDevice {
			t.Fatalf("unexpected health %+v", health)
		}
	case <-time.After(time.Second):
		t.Fatal("Health blocked behind a stuck device write")
	}

	close(writer.release)
	if err := <-printed; err != nil {
		t.Fatalf("Print: %v", err)
	}
	if health := p.Health(); health.Printed != 1 || health.LastTicket != 11 {
		t.Fatalf("print not recorded: %+v", health)
	}
}

func TestDisabledPrinterDoesNothing(t *testing.T) {
	cfg := config.Default().Printer
	cfg.Enabled = false
	p, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.open = func(string) (io.WriteCloser, error) {
		t.Fatal("disabled printer opened the device")
		return nil, nil
	}
	if err := p.Print(context.Background(), ledger.Ticket{Number: 1}); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if p.Health().Mode != ModeDisabled {
		t.Fatalf("expected disabled mode, got %s", p.Health().Mode)
	}
}
