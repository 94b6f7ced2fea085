// Package daemonctl launches and stops a background vuoro daemon for the CLI.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"vuoro/internal/api"
	"vuoro/internal/config"
)

// ErrDaemonNotRunning indicates no live daemon owns the pid file.
var ErrDaemonNotRunning = errors.New("daemon not running")

const pollInterval = 200 * time.Millisecond

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath  string
	DisplayOnly bool
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State StartState
	PID   int
}

// StopResult captures daemon stop outcome.
type StopResult struct {
	PID    int
	Forced bool
}

// Prober reports whether a daemon answers on its HTTP surface.
type Prober interface {
	Status(ctx context.Context) (api.DisplayStatus, error)
}

// Launch starts a detached `serve` process from executablePath in its own
// session and returns its pid.
func Launch(executablePath string, opts LaunchOptions) (int, error) {
	if strings.TrimSpace(executablePath) == "" {
		return 0, errors.New("resolve executable: executable path is empty")
	}

	args := []string{"serve"}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if opts.DisplayOnly {
		args = append(args, "--display-only")
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return 0, fmt.Errorf("launch daemon: %w", err)
	}
	pid := proc.Process.Pid
	return pid, proc.Process.Release()
}

// EnsureStarted launches the daemon unless probe already reaches one, then
// waits up to timeout for it to answer.
func EnsureStarted(ctx context.Context, probe Prober, executablePath string, opts LaunchOptions, timeout time.Duration) (StartResult, error) {
	if _, err := probe.Status(ctx); err == nil {
		return StartResult{State: StartStateAlreadyRunning}, nil
	}

	pid, err := Launch(executablePath, opts)
	if err != nil {
		return StartResult{}, err
	}

	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		if _, lastErr = probe.Status(ctx); lastErr == nil {
			return StartResult{State: StartStateStarted, PID: pid}, nil
		}
		if !Alive(pid) {
			return StartResult{}, fmt.Errorf("daemon exited during startup (pid %d)", pid)
		}
		select {
		case <-ctx.Done():
			return StartResult{}, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return StartResult{}, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// ReadPID parses the pid file, returning ErrDaemonNotRunning when it is
// missing or names a dead process.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrDaemonNotRunning
		}
		return 0, fmt.Errorf("read daemon pid file %q: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid daemon pid file %q", path)
	}
	if !Alive(pid) {
		return 0, ErrDaemonNotRunning
	}
	return pid, nil
}

// Alive reports whether pid names a running process.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Stop sends SIGTERM to the daemon named by the pid file and escalates to
// SIGKILL after gracePeriod. The pid file is removed once the process is gone.
func Stop(cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	pidPath := cfg.PIDPath()
	pid, err := ReadPID(pidPath)
	if err != nil {
		if errors.Is(err, ErrDaemonNotRunning) {
			_ = os.Remove(pidPath)
		}
		return StopResult{}, err
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}

	result := StopResult{PID: pid}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return result, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	if !waitExit(pid, gracePeriod) {
		if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
			return result, fmt.Errorf("kill daemon process %d: %w", pid, err)
		}
		result.Forced = true
		waitExit(pid, gracePeriod)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return result, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	return result, nil
}

func waitExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for Alive(pid) {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval / 4)
	}
	return true
}
