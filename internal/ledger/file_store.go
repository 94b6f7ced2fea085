package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"vuoro/internal/fileutil"
)

// FileStore keeps the ledger in a single JSON document.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the document at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

// Load reads the document; a missing file yields the default ledger.
func (s *FileStore) Load(ctx context.Context) (*Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read ledger %s: %w", s.path, err)
	}
	l, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load ledger %s: %w", s.path, err)
	}
	return l, nil
}

// Save writes the document via a temp file and rename.
func (s *FileStore) Save(ctx context.Context, l *Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(l)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write ledger %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op; the file is only held open during Save.
func (s *FileStore) Close() error { return nil }
