package shared

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewIdempotencyStore(client, 0)
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "PO-0001", "procurement.receive"))
	require.ErrorIs(t, store.CheckAndInsert(ctx, "PO-0001", "procurement.receive"), ErrIdempotencyConflict)
	require.NoError(t, store.CheckAndInsert(ctx, "PO-0001", "sales.confirm"))

	require.NoError(t, store.Delete(ctx, "PO-0001", "procurement.receive"))
	require.NoError(t, store.CheckAndInsert(ctx, "PO-0001", "procurement.receive"))

	require.Error(t, store.CheckAndInsert(ctx, "", "procurement.receive"))
	var nilStore *IdempotencyStore
	require.Error(t, nilStore.CheckAndInsert(ctx, "k", "m"))
	require.NoError(t, nilStore.Delete(ctx, "k", "m"))
}
