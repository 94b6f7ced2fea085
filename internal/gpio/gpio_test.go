package gpio

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenRejectsNegativeLine(t *testing.T) {
	if _, err := OpenInput(DefaultChip, -1, BiasPullUp); err == nil {
		t.Fatal("expected error for negative line")
	}
	if _, err := OpenOutput(DefaultChip, -1); err == nil {
		t.Fatal("expected error for negative line")
	}
}

func TestOpenRejectsUnknownBias(t *testing.T) {
	_, err := OpenInput(DefaultChip, 17, Bias("floating"))
	if err == nil || !strings.Contains(err.Error(), "unknown bias") {
		t.Fatalf("expected unknown bias error, got %v", err)
	}
}

func TestOpenMissingChipFails(t *testing.T) {
	chip := filepath.Join(t.TempDir(), "gpiochip9")
	_, err := OpenInput(chip, 17, BiasPullUp)
	if err == nil {
		t.Fatal("expected error for missing chip")
	}
	if !strings.Contains(err.Error(), "line 17") {
		t.Fatalf("error should name the line: %v", err)
	}
}

func TestBiasOptions(t *testing.T) {
	for _, bias := range []Bias{BiasPullUp, BiasPullDown, BiasDisabled} {
		opt, err := bias.option()
		if err != nil || opt == nil {
			t.Fatalf("bias %q: option=%v err=%v", bias, opt, err)
		}
	}
	if opt, err := BiasAsIs.option(); err != nil || opt != nil {
		t.Fatalf("as_is should leave the line untouched, got %v %v", opt, err)
	}
}

func TestClosedPinRejectsIO(t *testing.T) {
	pin := &Pin{chip: DefaultChip, offset: 4}
	if _, err := pin.Read(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from Read, got %v", err)
	}
	if err := pin.Write(High); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed from Write, got %v", err)
	}
	if err := pin.Close(); err != nil {
		t.Fatalf("Close on released pin: %v", err)
	}
}

func TestFakeQueuesErrors(t *testing.T) {
	fake := NewFake(High)
	boom := errors.New("boom")
	fake.FailReads(boom)

	if _, err := fake.Read(); !errors.Is(err, boom) {
		t.Fatalf("expected queued error, got %v", err)
	}
	level, err := fake.Read()
	if err != nil || level != High {
		t.Fatalf("expected high without error, got %s %v", level, err)
	}
	if fake.Reads() != 2 {
		t.Fatalf("expected 2 reads, got %d", fake.Reads())
	}
}
