package hotplug

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pilebones/go-udev/netlink"

	"vuoro/internal/config"
	"vuoro/internal/testsupport"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []bool
}

func (r *recordingHandler) DeviceEvent(_ context.Context, present bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, present)
}

func (r *recordingHandler) snapshot() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.events...)
}

func printerConfig() config.Printer {
	cfg := config.Default().Printer
	cfg.Device = "/nonexistent/lp0"
	return cfg
}

func TestNewMonitor(t *testing.T) {
	handler := &recordingHandler{}

	t.Run("disabled printer returns nil", func(t *testing.T) {
		cfg := printerConfig()
		cfg.Enabled = false
		if m := NewMonitor(cfg, handler, nil); m != nil {
			t.Fatal("expected nil monitor for disabled printer")
		}
	})

	t.Run("hotplug off returns nil", func(t *testing.T) {
		cfg := printerConfig()
		cfg.Hotplug = false
		if m := NewMonitor(cfg, handler, nil); m != nil {
			t.Fatal("expected nil monitor when hotplug is off")
		}
	})

	t.Run("missing usb id returns nil", func(t *testing.T) {
		cfg := printerConfig()
		cfg.ProductID = ""
		if m := NewMonitor(cfg, handler, nil); m != nil {
			t.Fatal("expected nil monitor without product id")
		}
	})

	t.Run("ids use kernel form", func(t *testing.T) {
		m := NewMonitor(printerConfig(), handler, nil)
		if m == nil {
			t.Fatal("expected monitor")
		}
		if m.vendor != "fe6" || m.product != "811e" {
			t.Fatalf("unexpected ids %q/%q", m.vendor, m.product)
		}
	})
}

func TestUdevHex(t *testing.T) {
	cases := map[string]string{
		"0fe6":   "fe6",
		"0x0FE6": "fe6",
		"811e":   "811e",
		"0000":   "0",
		" ":      "",
	}
	for in, want := range cases {
		if got := udevHex(in); got != want {
			t.Fatalf("udevHex(%q) = %q, want %q", in, got, want)
		}
	}
}

var printerEnv = map[string]string{
	"SUBSYSTEM": "usb",
	"DEVTYPE":   "usb_device",
	"PRODUCT":   "fe6/811e/100",
	"DEVPATH":   "/devices/platform/usb1/1-1",
}

func TestBuildMatcher(t *testing.T) {
	m := NewMonitor(printerConfig(), &recordingHandler{}, nil)
	matcher := m.buildMatcher()

	for _, action := range []netlink.KObjAction{netlink.ADD, netlink.REMOVE} {
		if !matcher.Evaluate(netlink.UEvent{Action: action, Env: printerEnv}) {
			t.Fatalf("expected matcher to accept %s", action)
		}
	}
	if matcher.Evaluate(netlink.UEvent{Action: netlink.CHANGE, Env: printerEnv}) {
		t.Fatal("expected matcher to reject change events")
	}
}

func TestIsPrinterEvent(t *testing.T) {
	m := NewMonitor(printerConfig(), &recordingHandler{}, nil)

	cases := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{name: "printer device", env: printerEnv, want: true},
		{name: "other device", env: map[string]string{"SUBSYSTEM": "usb", "DEVTYPE": "usb_device", "PRODUCT": "46d/c52b/1211"}},
		{name: "printer interface", env: map[string]string{"SUBSYSTEM": "usb", "DEVTYPE": "usb_interface", "PRODUCT": "fe6/811e/100"}},
		{name: "vendor prefix only", env: map[string]string{"SUBSYSTEM": "usb", "DEVTYPE": "usb_device", "PRODUCT": "fe6/811ef/100"}},
		{name: "usbmisc node", env: map[string]string{"SUBSYSTEM": "usbmisc", "DEVNAME": "usb/lp0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.isPrinterEvent(netlink.UEvent{Action: netlink.ADD, Env: tc.env}); got != tc.want {
				t.Fatalf("isPrinterEvent = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHandleEventForwardsPresence(t *testing.T) {
	handler := &recordingHandler{}
	m := NewMonitor(printerConfig(), handler, nil)

	m.handleEvent(context.Background(), netlink.UEvent{Action: netlink.REMOVE, Env: printerEnv})
	m.handleEvent(context.Background(), netlink.UEvent{Action: netlink.CHANGE, Env: printerEnv})
	m.handleEvent(context.Background(), netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"SUBSYSTEM": "usb"}})
	m.handleEvent(context.Background(), netlink.UEvent{Action: netlink.ADD, Env: printerEnv})

	got := handler.snapshot()
	if len(got) != 2 || got[0] || !got[1] {
		t.Fatalf("unexpected events: %v", got)
	}
}

func TestProbeReportsDeviceNode(t *testing.T) {
	handler := &recordingHandler{}
	cfg := printerConfig()
	cfg.Device = filepath.Join(t.TempDir(), "lp0")
	m := NewMonitor(cfg, handler, nil)

	m.Probe(context.Background())
	testsupport.WriteFile(t, cfg.Device, 0)
	m.Probe(context.Background())

	got := handler.snapshot()
	if len(got) != 2 || got[0] || !got[1] {
		t.Fatalf("unexpected probe results: %v", got)
	}
}

func TestMonitorLifecycleIsNilSafe(t *testing.T) {
	var m *Monitor
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start on nil monitor: %v", err)
	}
	m.Stop()
	m.Probe(context.Background())
	if m.Running() {
		t.Fatal("nil monitor should not be running")
	}

	live := NewMonitor(printerConfig(), &recordingHandler{}, nil)
	live.Stop()
	live.Stop()
	if live.Running() {
		t.Fatal("unstarted monitor should not be running")
	}
}
