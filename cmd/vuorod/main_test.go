package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFlags(t *testing.T) {
	var out bytes.Buffer
	opts, help, err := parseFlags([]string{"-c", "/tmp/v.toml", "--display-only", "--port", "8080", "--log-level", "debug"}, &out)
	if err != nil || help {
		t.Fatalf("parseFlags: help=%v err=%v", help, err)
	}
	if opts.configPath != "/tmp/v.toml" || !opts.displayOnly || opts.port != 8080 || opts.logLevel != "debug" {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestParseFlagsHelp(t *testing.T) {
	var out bytes.Buffer
	_, help, err := parseFlags([]string{"--help"}, &out)
	if err != nil || !help {
		t.Fatalf("expected help, got help=%v err=%v", help, err)
	}
	if !strings.Contains(out.String(), "--display-only") {
		t.Fatalf("usage missing flags:\n%s", out.String())
	}
}

func TestParseFlagsRejectsArguments(t *testing.T) {
	var out bytes.Buffer
	if _, _, err := parseFlags([]string{"serve"}, &out); err == nil {
		t.Fatal("expected error for positional argument")
	}
	if _, _, err := parseFlags([]string{"--bogus"}, &out); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestRunReportsConfigErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[store]\nbackend = \"redis\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	var out bytes.Buffer
	err := run(context.Background(), []string{"--config", path}, &out)
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected load config error, got %v", err)
	}
}

func TestRunRejectsBadPort(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "missing.toml")
	var out bytes.Buffer
	err := run(context.Background(), []string{"--config", path, "--port", "70000"}, &out)
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected port error, got %v", err)
	}
}
