package sound

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vuoro/internal/config"
	"vuoro/internal/logging"
	"vuoro/internal/testsupport"
)

// writeLoopingPlayer installs a fake player that logs its arguments and runs
// until terminated.
func writeLoopingPlayer(t *testing.T, dir string) (string, string) {
	t.Helper()
	logPath := filepath.Join(dir, "player.log")
	script := "#!/bin/sh\n" +
		"echo \"start $*\" >> " + logPath + "\n" +
		"trap 'echo term >> " + logPath + "; exit 0' TERM\n" +
		"while :; do sleep 0.01; done\n"
	bin := filepath.Join(dir, "fakeplay")
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin, logPath
}

func newPlayer(t *testing.T) (*Player, string) {
	t.Helper()
	dir := t.TempDir()
	bin, logPath := writeLoopingPlayer(t, dir)
	wav := filepath.Join(dir, "ding.wav")
	testsupport.WriteWAV(t, wav)

	p := New(config.Sound{Enabled: true, Player: bin, File: wav}, logging.NewNop())
	t.Cleanup(p.Stop)
	return p, logPath
}

func waitClosed(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("process did not exit")
	}
}

func TestPlayPassesQuietFlag(t *testing.T) {
	p, logPath := newPlayer(t)
	if err := p.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		data, _ := os.ReadFile(logPath)
		if strings.Contains(string(data), "start -q ") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("player not started with -q, log %q", data)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPlayReplacesRunningCue(t *testing.T) {
	p, _ := newPlayer(t)
	if err := p.Play(context.Background()); err != nil {
		t.Fatalf("first Play: %v", err)
	}
	p.mu.Lock()
	first := p.done
	p.mu.Unlock()

	if err := p.Play(context.Background()); err != nil {
		t.Fatalf("second Play: %v", err)
	}
	waitClosed(t, first)

	p.mu.Lock()
	second := p.done
	p.mu.Unlock()
	select {
	case <-second:
		t.Fatal("replacement cue exited early")
	default:
	}

	p.Stop()
	waitClosed(t, second)
}

func TestMissingFileIsReported(t *testing.T) {
	p := New(config.Sound{Enabled: true, Player: "aplay", File: filepath.Join(t.TempDir(), "none.wav")}, logging.NewNop())
	if err := p.Play(context.Background()); !errors.Is(err, ErrNoSoundFile) {
		t.Fatalf("expected ErrNoSoundFile, got %v", err)
	}
}

func TestDisabledPlayerIsSilent(t *testing.T) {
	p := New(config.Sound{Enabled: false, Player: "/nonexistent", File: "/nonexistent"}, logging.NewNop())
	if err := p.Play(context.Background()); err != nil {
		t.Fatalf("disabled Play: %v", err)
	}
}
