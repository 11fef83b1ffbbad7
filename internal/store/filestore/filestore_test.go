package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ambrevelours/av-suite/internal/store"
)

func TestProviderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "avsuite.json")
	p := New(path)
	ctx := context.Background()

	_, err := p.Load(ctx)
	require.ErrorIs(t, err, store.ErrNoSnapshot)

	seed := store.Seed(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, p.Save(ctx, seed))

	loaded, err := p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Products, 2)
	require.Equal(t, seed.Products[0].ID, loaded.Products[0].ID)
	require.True(t, seed.Products[0].CMP.Equal(loaded.Products[0].CMP))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestProviderCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avsuite.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := New(path).Load(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, store.ErrNoSnapshot)
}
