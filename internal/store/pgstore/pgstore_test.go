package pgstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ambrevelours/av-suite/internal/platform/db"
	"github.com/ambrevelours/av-suite/internal/store"
)

func TestProviderRoundTrip(t *testing.T) {
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := db.New(ctx, db.Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	p := New(pool, "test-"+time.Now().UTC().Format("20060102150405.000000000"))
	require.NoError(t, p.EnsureSchema(ctx))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DELETE FROM app_snapshots WHERE key = $1", p.key)
	})

	_, err = p.Load(ctx)
	require.ErrorIs(t, err, store.ErrNoSnapshot)

	seed := store.Seed(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC))
	seed.SavedAt = time.Now().UTC()
	require.NoError(t, p.Save(ctx, seed))
	require.NoError(t, p.Save(ctx, seed))

	loaded, err := p.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Orders, 1)
	require.Equal(t, "CMD-0001", loaded.Orders[0].Number)
}
