package api

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"vuoro/internal/ledger"
	"vuoro/internal/queue"
)

func TestDisplayExcludesCurrentAndBoundsWindow(t *testing.T) {
	snap := queue.Snapshot{
		Current: ledger.Served(12),
		History: []int{12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2},
	}

	status := Display(snap, 10)
	if n, _ := status.Current.Number(); n != 12 {
		t.Fatalf("unexpected current %v", status.Current)
	}
	want := []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	if !slices.Equal(status.History, want) {
		t.Fatalf("unexpected history %v", status.History)
	}

	if got := Display(snap, 3).History; !slices.Equal(got, []int{11, 10, 9}) {
		t.Fatalf("unexpected windowed history %v", got)
	}
}

func TestDisplayBeforeAnyCall(t *testing.T) {
	data, err := json.Marshal(Display(queue.Snapshot{}, 0))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"current":"---","history":[]}` {
		t.Fatalf("unexpected payload %s", data)
	}
}

func TestDisplayOnlyStatus(t *testing.T) {
	data, err := json.Marshal(DisplayOnlyStatus())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"current":42,"history":[42,41,40,39,38,37,36,35,34,33,32]}` {
		t.Fatalf("unexpected payload %s", data)
	}
}

func TestAdminListsPendingWithClock(t *testing.T) {
	issued := time.Date(2026, 7, 1, 8, 15, 30, 0, time.UTC)
	snap := queue.Snapshot{
		Current: ledger.Served(1),
		NextID:  4,
		Pending: []ledger.Ticket{{Number: 2, IssuedAt: issued}, {Number: 3}},
		History: []int{1},
	}

	view := Admin(snap, nil)
	if view.NextID != 4 || len(view.Pending) != 2 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Pending[0].Clock != "08:15:30" || view.Pending[0].IssuedAt == "" {
		t.Fatalf("unexpected first ticket %+v", view.Pending[0])
	}
	if view.Pending[1].Clock != "--:--:--" || view.Pending[1].IssuedAt != "" {
		t.Fatalf("unexpected second ticket %+v", view.Pending[1])
	}
}

func TestLegacyClockOnlyTimestamp(t *testing.T) {
	legacy, err := time.Parse("15:04:05", "10:20:30")
	if err != nil {
		t.Fatal(err)
	}
	ticket := FromTicket(ledger.Ticket{Number: 5, IssuedAt: legacy})
	if ticket.Clock != "10:20:30" || ticket.IssuedAt != "" {
		t.Fatalf("unexpected legacy ticket %+v", ticket)
	}
}
