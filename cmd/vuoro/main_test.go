package main

import "testing"

func TestRootHelpListsCommands(t *testing.T) {
	out, _, err := runCLI(t, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"serve", "start", "stop", "issue", "call", "status", "queue", "config", "doctor", "logs", "test-print", "test-sound", "test-notify"} {
		requireContains(t, out, name)
	}
}

func TestUnknownCommandFails(t *testing.T) {
	if _, _, err := runCLI(t, "bogus"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
