package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAfterCommitRunsImmediatelyOutsideUnit(t *testing.T) {
	ran := false
	AfterCommit(context.Background(), func() { ran = true })
	require.True(t, ran)
}

func TestAfterCommitWaitsForFlush(t *testing.T) {
	ctx, flush := WithCommitHooks(context.Background())
	var order []int
	AfterCommit(ctx, func() { order = append(order, 1) })
	AfterCommit(ctx, func() { order = append(order, 2) })
	require.Empty(t, order)

	flush()
	require.Equal(t, []int{1, 2}, order)
	flush()
	require.Equal(t, []int{1, 2}, order)
}
