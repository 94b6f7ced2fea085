package preflight

import (
	"context"
	"path/filepath"

	"vuoro/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Skipped bool
	Detail  string
}

// Options adjusts where hardware checks look.
type Options struct {
	// GPIOChip overrides the configured GPIO character device.
	GPIOChip string
}

// RunAll executes every check for cfg in display order.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Ledger directory", filepath.Dir(cfg.Store.Path)),
	}

	if cfg.Server.DisplayOnly {
		return append(results, Result{Name: "Hardware", Skipped: true, Detail: "display-only mode"})
	}

	results = append(results,
		CheckPrinter(cfg.Printer),
		CheckButton(cfg.Button, opts.GPIOChip),
	)
	results = append(results, CheckSound(cfg.Sound)...)
	results = append(results, CheckNtfy(ctx, cfg.Notifications))
	return results
}

// Failed reports whether any non-skipped check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			return true
		}
	}
	return false
}
