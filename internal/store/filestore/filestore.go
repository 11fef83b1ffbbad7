// Package filestore persists snapshots as a JSON document on the local filesystem.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ambrevelours/av-suite/internal/store"
)

// Provider writes the snapshot to path, replacing it atomically.
type Provider struct {
	path string
}

// New returns a provider for path. The parent directory is created on first save.
func New(path string) *Provider {
	return &Provider{path: path}
}

// Load implements store.Provider.
func (p *Provider) Load(ctx context.Context) (*store.Snapshot, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, store.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read %s: %w", p.path, err)
	}
	return store.Decode(data)
}

// Save implements store.Provider.
func (p *Provider) Save(ctx context.Context, s *store.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := store.Encode(s)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("filestore: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore: temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("filestore: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filestore: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("filestore: rename: %w", err)
	}
	return nil
}
