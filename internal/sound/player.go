package sound

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"vuoro/internal/config"
	"vuoro/internal/logging"
)

// releaseWait bounds how long a new cue waits for the previous player to
// free the audio device.
const releaseWait = 100 * time.Millisecond

// ErrNoSoundFile reports that the configured cue file does not exist.
var ErrNoSoundFile = errors.New("sound file not found")

// Player plays the audio cue with an external player, one at a time.
type Player struct {
	enabled bool
	player  string
	file    string
	logger  *slog.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

// New returns a player for the [sound] section.
func New(cfg config.Sound, logger *slog.Logger) *Player {
	return &Player{
		enabled: cfg.Enabled,
		player:  cfg.Player,
		file:    cfg.File,
		logger:  logging.NewComponentLogger(logger, "sound"),
	}
}

// Play starts the cue. A cue still playing is terminated first so the device
// is free; Play does not wait for the new cue to finish.
func (p *Player) Play(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	if _, err := os.Stat(p.file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNoSoundFile, p.file)
		}
		return fmt.Errorf("stat sound file: %w", err)
	}

	cmd := exec.Command(p.player, "-q", p.file) //nolint:gosec
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.player, err)
	}
	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	p.cmd, p.done = cmd, done

	logging.WithContext(ctx, p.logger).Debug("sound started",
		logging.String(logging.FieldEventType, "sound_started"),
		logging.Int("pid", cmd.Process.Pid),
	)
	return nil
}

// Stop terminates a cue that is still playing.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.cmd == nil {
		return
	}
	cmd, done := p.cmd, p.done
	p.cmd, p.done = nil, nil

	select {
	case <-done:
		return
	default:
	}
	if err := cmd.Process.Signal(unix.SIGTERM); err != nil {
		return
	}
	select {
	case <-done:
	case <-time.After(releaseWait):
		p.logger.Debug("previous sound still running after terminate", logging.Int("pid", cmd.Process.Pid))
	}
}
