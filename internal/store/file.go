package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// File persists each slot as an indented JSON file under a data directory.
type File struct {
	mu      sync.Mutex
	dataDir string
}

// NewFile creates a file-backed store rooted at dataDir.
func NewFile(dataDir string) (*File, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &File{dataDir: dataDir}, nil
}

func (f *File) path(slot Slot) string {
	return filepath.Join(f.dataDir, string(slot)+".json")
}

func (f *File) Get(ctx context.Context, slot Slot) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(slot))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put writes to a temp file and renames it over the slot file so a crash
// never leaves a half-written record behind.
func (f *File) Put(ctx context.Context, slot Slot, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		// Not JSON; store verbatim.
		buf.Reset()
		buf.Write(data)
	}

	path := f.path(slot)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (f *File) Close() error { return nil }
