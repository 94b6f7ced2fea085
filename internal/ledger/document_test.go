package ledger_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"vuoro/internal/ledger"
)

func TestDecodeDocumentWithoutHistory(t *testing.T) {
	l, err := ledger.Decode([]byte(`{"current": "---", "next_id": 3, "queue": [{"number": 1, "timestamp": "09:15:00"}, {"number": 2, "timestamp": "09:16:30"}]}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(l.History) != 0 {
		t.Fatalf("expected empty history, got %v", l.History)
	}
	if _, ok := l.Current.Number(); ok {
		t.Fatalf("expected nothing served, got %v", l.Current)
	}
	if got := l.Pending[1].IssuedAt.Format("15:04:05"); got != "09:16:30" {
		t.Fatalf("legacy timestamp not preserved: %s", got)
	}
}

func TestDecodeSeedsHistoryFromServedNumber(t *testing.T) {
	l, err := ledger.Decode([]byte(`{"current": "12", "next_id": 14, "queue": [{"number": 13, "timestamp": "10:00:00"}]}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(l.History) != 1 || l.History[0] != 12 {
		t.Fatalf("expected history [12], got %v", l.History)
	}
}

func TestDecodeDropsCalledTicketFromQueue(t *testing.T) {
	l, err := ledger.Decode([]byte(`{"current": 3, "next_id": 5, "queue": [{"number": 3, "timestamp": ""}, {"number": 4, "timestamp": ""}], "history": [3, 1]}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(l.Pending) != 1 || l.Pending[0].Number != 4 {
		t.Fatalf("expected only ticket 4 pending, got %+v", l.Pending)
	}

	l, err = ledger.Decode([]byte(`{"current": 6, "next_id": 8, "queue": [{"number": 6, "timestamp": ""}, {"number": 7, "timestamp": ""}]}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(l.Pending) != 1 || l.Pending[0].Number != 7 {
		t.Fatalf("expected served ticket dropped from queue, got %+v", l.Pending)
	}
}

func TestDecodeAcceptsNumericCurrent(t *testing.T) {
	l, err := ledger.Decode([]byte(`{"current": 4, "next_id": 6, "queue": [{"number": 5, "timestamp": ""}], "history": [4, 2]}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if n, ok := l.Current.Number(); !ok || n != 4 {
		t.Fatalf("unexpected current: %v", l.Current)
	}
}

func TestDecodeRejectsInvalidDocument(t *testing.T) {
	_, err := ledger.Decode([]byte(`{"current": 9, "next_id": 3, "queue": [], "history": [1]}`))
	if !errors.Is(err, ledger.ErrInvalidLedger) {
		t.Fatalf("expected ErrInvalidLedger, got %v", err)
	}

	if _, err := ledger.Decode([]byte(`{"current": "soon"}`)); err == nil {
		t.Fatal("expected error for non-numeric current")
	}
}

func TestDecodeDerivesMissingNextID(t *testing.T) {
	l, err := ledger.Decode([]byte(`{"current": 2, "queue": [{"number": 3, "timestamp": ""}], "history": [2, 1]}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if l.NextID != 4 {
		t.Fatalf("expected derived next id 4, got %d", l.NextID)
	}
}

func TestEncodeWritesDocumentShape(t *testing.T) {
	l := ledger.Default()
	l.Issue(time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC))

	data, err := ledger.Encode(l)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal encoded: %v", err)
	}
	if raw["current"] != "---" {
		t.Fatalf("expected --- sentinel, got %v", raw["current"])
	}
	if raw["next_id"] != float64(2) {
		t.Fatalf("unexpected next_id: %v", raw["next_id"])
	}
	queue, ok := raw["queue"].([]any)
	if !ok || len(queue) != 1 {
		t.Fatalf("unexpected queue: %v", raw["queue"])
	}
	if history, ok := raw["history"].([]any); !ok || len(history) != 0 {
		t.Fatalf("expected empty history array, got %v", raw["history"])
	}
	if !strings.Contains(string(data), "\n    \"next_id\"") {
		t.Fatalf("expected four-space indentation, got %s", data)
	}
}

func TestServedJSON(t *testing.T) {
	data, err := json.Marshal(ledger.Served(12))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "12" {
		t.Fatalf("unexpected served json: %s", data)
	}
	data, err = json.Marshal(ledger.NotServed)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"---"` {
		t.Fatalf("unexpected sentinel json: %s", data)
	}
}
