package preflight

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"

	"vuoro/internal/config"
	"vuoro/internal/deps"
	"vuoro/internal/gpio"
)

// ntfyTimeout bounds the topic reachability probe.
const ntfyTimeout = 5 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckPrinter verifies the printer device node is present and writable. A
// missing node is a failure even though the daemon falls back to logging.
func CheckPrinter(cfg config.Printer) Result {
	const name = "Printer"
	if !cfg.Enabled {
		return Result{Name: name, Skipped: true, Detail: "disabled"}
	}
	info, err := os.Stat(cfg.Device)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s not present; tickets will only be logged", cfg.Device)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", cfg.Device, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s is a directory", cfg.Device)}
	}
	if err := unix.Access(cfg.Device, unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s not writable (%v); check the lp group", cfg.Device, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable)", cfg.Device)}
}

// CheckButton verifies the GPIO chip is accessible and the button line exists
// and is free. chip overrides the configured chip when set.
func CheckButton(cfg config.Button, chip string) Result {
	const name = "Button"
	if !cfg.Enabled {
		return Result{Name: name, Skipped: true, Detail: "disabled"}
	}
	if chip == "" {
		chip = cfg.Chip
	}
	if chip == "" {
		chip = gpio.DefaultChip
	}

	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("cannot open %s (%v); check the gpio group", chip, err)}
	}
	defer c.Close()

	if cfg.GPIOPin >= c.Lines() {
		return Result{Name: name, Detail: fmt.Sprintf("%s has %d lines; line %d does not exist", chip, c.Lines(), cfg.GPIOPin)}
	}
	info, err := c.LineInfo(cfg.GPIOPin)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("read line %d on %s: %v", cfg.GPIOPin, chip, err)}
	}
	if info.Used && info.Consumer != gpio.Consumer {
		return Result{Name: name, Detail: fmt.Sprintf("line %d on %s is in use by %q", cfg.GPIOPin, chip, info.Consumer)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("line %d on %s (bias %s)", cfg.GPIOPin, chip, cfg.Bias)}
}

// CheckSound verifies the audio player binary and the cue file.
func CheckSound(cfg config.Sound) []Result {
	if !cfg.Enabled {
		return []Result{{Name: "Sound", Skipped: true, Detail: "disabled"}}
	}
	status := deps.CheckBinaries([]deps.Requirement{{
		Name:        "Sound player",
		Command:     cfg.Player,
		Description: "Plays the cue when a ticket is issued",
	}})[0]

	player := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
	if status.Available {
		player.Detail = status.Path
	}

	cue := Result{Name: "Sound file", Passed: true, Detail: cfg.File}
	if _, err := os.Stat(cfg.File); err != nil {
		cue = Result{Name: "Sound file", Detail: fmt.Sprintf("%s (error: %v)", cfg.File, err)}
	}
	return []Result{player, cue}
}

// CheckNtfy verifies the notification topic answers HTTP requests.
func CheckNtfy(ctx context.Context, cfg config.Notifications) Result {
	const name = "Notifications"
	if cfg.NtfyTopic == "" {
		return Result{Name: name, Skipped: true, Detail: "no ntfy topic configured"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, ntfyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, cfg.NtfyTopic, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("invalid topic url (%v)", err)}
	}
	resp, err := (&http.Client{Timeout: ntfyTimeout}).Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{Name: name, Detail: "topic unreachable (timed out)"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("topic unreachable (%v)", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{Name: name, Detail: fmt.Sprintf("topic server error (%d)", resp.StatusCode)}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return Result{Name: name, Detail: "topic requires authentication"}
	}
	return Result{Name: name, Passed: true, Detail: "reachable"}
}
