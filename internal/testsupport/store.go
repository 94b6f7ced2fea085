package testsupport

import (
	"context"
	"testing"
	"time"

	"vuoro/internal/config"
	"vuoro/internal/ledger"
)

// MustOpenStore opens the configured ledger store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// SeedLedger persists a ledger with the given number of issued tickets.
func SeedLedger(t testing.TB, store ledger.Store, issued int) *ledger.Ledger {
	t.Helper()

	l := ledger.Default()
	base := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	for i := range issued {
		l.Issue(base.Add(time.Duration(i) * time.Minute))
	}
	if err := store.Save(context.Background(), l); err != nil {
		t.Fatalf("store.Save: %v", err)
	}
	return l
}
