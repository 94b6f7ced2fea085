package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"vuoro/internal/api"
	"vuoro/internal/testsupport"
)

func TestIssueCallAndStatusAgainstDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	for want := 1; want <= 3; want++ {
		out, _, err := runCLI(t, "--config", env.configPath, "issue")
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		requireContains(t, out, fmt.Sprintf("Issued ticket %d", want))
	}

	out, _, err := runCLI(t, "--config", env.configPath, "call", "2")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	requireContains(t, out, "Now serving 2")

	out, _, err = runCLI(t, "--config", env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Now serving: 2")

	out, _, err = runCLI(t, "--config", env.configPath, "queue")
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	requireContains(t, out, "next ticket 4")
	requireContains(t, out, "Ticket")
	requireContains(t, out, "Printer:")
	if strings.Contains(out, "No one in queue!") {
		t.Fatalf("expected pending tickets, got:\n%s", out)
	}
}

func TestQueueJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, "--config", env.configPath, "issue"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	out, _, err := runCLI(t, "--config", env.configPath, "--json", "queue")
	if err != nil {
		t.Fatalf("queue --json: %v", err)
	}
	var q api.AdminQueue
	if err := json.Unmarshal([]byte(out), &q); err != nil {
		t.Fatalf("decode queue json: %v\n%s", err, out)
	}
	if q.NextID != 2 || len(q.Pending) != 1 || q.Pending[0].Number != 1 {
		t.Fatalf("unexpected queue: %+v", q)
	}
	if _, ok := q.Current.Number(); ok {
		t.Fatalf("expected nobody served, got %v", q.Current)
	}
}

func TestQueueEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, "--config", env.configPath, "queue")
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	requireContains(t, out, "Now serving: ---")
	requireContains(t, out, "No one in queue!")
}

func TestCallUnknownTicket(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, "--config", env.configPath, "call", "9")
	if err == nil {
		t.Fatal("expected error calling a ticket that was never issued")
	}
	requireContains(t, err.Error(), "ticket 9 is not waiting")
}

func TestIssueRequiresTokenWhenConfigured(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithAPIToken("s3cret"))

	out, _, err := runCLI(t, "--config", env.configPath, "issue")
	if err != nil {
		t.Fatalf("issue with configured token: %v", err)
	}
	requireContains(t, out, "Issued ticket 1")

	env.cfg.Server.APIToken = "wrong"
	path := writeTestConfig(t, env.cfg)
	if _, _, err := runCLI(t, "--config", path, "issue"); err == nil {
		t.Fatal("expected unauthorized error with wrong token")
	}
}

func TestCallRejectsInvalidNumber(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeTestConfig(t, cfg)

	for _, arg := range []string{"abc", "0", "-3"} {
		_, _, err := runCLI(t, "--config", path, "call", "--", arg)
		if err == nil {
			t.Fatalf("expected error for %q", arg)
		}
		requireContains(t, err.Error(), "invalid ticket number")
	}
}

func TestStatusWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Server.Bind = "127.0.0.1:1"
	path := writeTestConfig(t, cfg)

	_, _, err := runCLI(t, "--config", path, "status")
	if err == nil {
		t.Fatal("expected error without a running daemon")
	}
	requireContains(t, err.Error(), "vuoro serve")
}

func TestJoinNumbers(t *testing.T) {
	if got := joinNumbers(nil); got != "-" {
		t.Fatalf("expected dash for empty history, got %q", got)
	}
	if got := joinNumbers([]int{3, 2, 1}); got != "3 2 1" {
		t.Fatalf("unexpected join: %q", got)
	}
}
