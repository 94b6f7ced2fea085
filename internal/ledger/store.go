package ledger

import (
	"context"
	"fmt"

	"vuoro/internal/config"
)

// Store persists the ledger as a whole document.
type Store interface {
	// Load returns the persisted ledger, or Default when nothing is stored.
	Load(ctx context.Context) (*Ledger, error)
	// Save atomically replaces the persisted ledger.
	Save(ctx context.Context, l *Ledger) error
	Close() error
	Path() string
}

// Open selects the backend configured in store.backend.
func Open(cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("open ledger store: nil config")
	}
	switch cfg.Store.Backend {
	case "", "json":
		return NewFileStore(cfg.Store.Path), nil
	case "sqlite":
		return OpenSQLite(cfg.Store.Path)
	default:
		return nil, fmt.Errorf("open ledger store: unsupported backend %q", cfg.Store.Backend)
	}
}
