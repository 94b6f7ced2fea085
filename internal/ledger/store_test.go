package ledger_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"vuoro/internal/ledger"
	"vuoro/internal/testsupport"
)

func sampleLedger() *ledger.Ledger {
	l := ledger.Default()
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		l.Issue(base.Add(time.Duration(i) * time.Minute))
	}
	l.Call(2)
	l.Call(4)
	return l
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue_db.json")
	store := ledger.NewFileStore(path)
	ctx := context.Background()

	want := sampleLedger()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestFileStoreMissingFileYieldsDefault(t *testing.T) {
	store := ledger.NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !reflect.DeepEqual(got, ledger.Default()) {
		t.Fatalf("expected default ledger, got %+v", got)
	}
}

func TestFileStoreLoadsDocumentWithoutHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue_db.json")
	doc := `{
    "current": 5,
    "next_id": 8,
    "queue": [
        {"number": 6, "timestamp": "09:15:00"},
        {"number": 7, "timestamp": "09:16:00"}
    ]
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	store := ledger.NewFileStore(path)
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if n, ok := got.Current.Number(); !ok || n != 5 {
		t.Fatalf("unexpected current %v", got.Current)
	}
	if !reflect.DeepEqual(got.History, []int{5}) {
		t.Fatalf("expected served number as history, got %v", got.History)
	}
	if got.NextID != 8 || len(got.Pending) != 2 {
		t.Fatalf("unexpected ledger %+v", got)
	}

	got.Call(6)
	if err := store.Save(context.Background(), got); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	reloaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("reload returned error: %v", err)
	}
	if !reflect.DeepEqual(reloaded.History, []int{6, 5}) {
		t.Fatalf("unexpected history after call %v", reloaded.History)
	}
}

func TestFileStoreRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue_db.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatal("expected error for corrupt document")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	store, err := ledger.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	ctx := context.Background()

	empty, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load on empty db: %v", err)
	}
	if !reflect.DeepEqual(empty, ledger.Default()) {
		t.Fatalf("expected default ledger, got %+v", empty)
	}

	want := sampleLedger()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	want.Issue(time.Date(2026, 6, 1, 13, 0, 0, 0, time.UTC))
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("second Save returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := ledger.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("Open json: %v", err)
	}
	if _, ok := store.(*ledger.FileStore); !ok {
		t.Fatalf("expected FileStore, got %T", store)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithSQLiteStore())
	store, err = ledger.Open(cfg)
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*ledger.SQLiteStore); !ok {
		t.Fatalf("expected SQLiteStore, got %T", store)
	}
	if store.Path() != cfg.Store.Path {
		t.Fatalf("unexpected path %q", store.Path())
	}
}
