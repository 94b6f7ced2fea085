package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"vuoro/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Hardware sinks are disabled; options re-enable what a test exercises.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Store.Path = filepath.Join(cfgVal.Paths.DataDir, "queue_db.json")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Button.Enabled = false
	cfgVal.Printer.Enabled = false
	cfgVal.Printer.Hotplug = false
	cfgVal.Printer.Device = filepath.Join(base, "lp0")
	cfgVal.Sound.Enabled = false
	cfgVal.Sound.File = filepath.Join(cfgVal.Paths.DataDir, "ding.wav")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSQLiteStore switches the ledger to the SQLite backend.
func WithSQLiteStore() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Backend = "sqlite"
		b.cfg.Store.Path = filepath.Join(b.cfg.Paths.DataDir, "queue.db")
	}
}

// WithAPIToken sets the bearer token guarding remote ticket issuing.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.APIToken = token
	}
}

// WithDisplayOnly enables the fixed display-only payload.
func WithDisplayOnly() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.DisplayOnly = true
	}
}

// WithClosedMessage makes the display page show the closed notice.
func WithClosedMessage(message string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Display.ClosedMessage = message
	}
}

// WithPrinterFile enables the printer and points it at a regular file so tests
// can inspect the ESC/POS bytes.
func WithPrinterFile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Printer.Enabled = true
		WriteFile(b.t, b.cfg.Printer.Device, 0)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the audio player is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"aplay"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
