package returns

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ambrevelours/av-suite/internal/inventory"
	"github.com/ambrevelours/av-suite/internal/masterdata"
)

type memoryRepo struct {
	returns  []Return
	products []masterdata.Product
}

type memoryTx struct {
	repo *memoryRepo
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListReturns(ctx context.Context) ([]Return, error) {
	out := make([]Return, 0, len(r.returns))
	for i := len(r.returns) - 1; i >= 0; i-- {
		out = append(out, r.returns[i])
	}
	return out, nil
}

func (r *memoryRepo) ListProducts(ctx context.Context) ([]masterdata.Product, error) {
	return r.products, nil
}

func (tx *memoryTx) InsertReturn(ctx context.Context, r Return) error {
	tx.repo.returns = append(tx.repo.returns, r)
	return nil
}

type recordingInventory struct {
	receipts    []inventory.ReceiptInput
	adjustments []inventory.AdjustmentInput
}

func (r *recordingInventory) PostReceipt(ctx context.Context, input inventory.ReceiptInput) (inventory.Movement, error) {
	r.receipts = append(r.receipts, input)
	return inventory.Movement{ID: "m-receipt", Type: inventory.MovementEntry, Qty: input.Qty, UnitCost: input.UnitCost, Ref: input.Ref}, nil
}

func (r *recordingInventory) PostAdjustment(ctx context.Context, input inventory.AdjustmentInput) (inventory.Movement, inventory.IssueResult, error) {
	r.adjustments = append(r.adjustments, input)
	return inventory.Movement{ID: "m-adjust", Type: inventory.MovementAdjustment, Qty: input.Qty, Ref: input.Ref}, inventory.IssueResult{}, nil
}

func TestProcessRestock(t *testing.T) {
	repo := &memoryRepo{products: []masterdata.Product{{ID: "p1", Name: "OJAR"}}}
	inv := &recordingInventory{}
	svc := NewService(repo, inv, nil)

	r, m, err := svc.Process(context.Background(), Return{ProductID: "p1", Qty: 2, Restock: true})
	require.NoError(t, err)
	require.Equal(t, "m-receipt", r.MovementID)
	require.Equal(t, DefaultReason, r.Reason)
	require.Equal(t, inventory.RefReturn, m.Ref)
	require.Len(t, inv.receipts, 1)
	require.True(t, inv.receipts[0].UnitCost.IsZero())
	require.Empty(t, inv.adjustments)

	views, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "OJAR", views[0].ProductName)
}

func TestProcessWriteOff(t *testing.T) {
	repo := &memoryRepo{}
	inv := &recordingInventory{}
	svc := NewService(repo, inv, nil)

	r, m, err := svc.Process(context.Background(), Return{ProductID: "p1", Qty: 3, Reason: "Flacon cassé", UnitCost: decimal.NewFromInt(10)})
	require.NoError(t, err)
	require.Equal(t, "m-adjust", r.MovementID)
	require.Equal(t, inventory.RefWriteOff, m.Ref)
	require.Len(t, inv.adjustments, 1)
	require.Equal(t, -3, inv.adjustments[0].Qty)
	require.True(t, inv.adjustments[0].UnitCost.IsZero())
	require.Empty(t, inv.receipts)
}

func TestProcessRejectsNonPositiveQty(t *testing.T) {
	repo := &memoryRepo{}
	inv := &recordingInventory{}
	svc := NewService(repo, inv, nil)

	for _, qty := range []int{0, -1} {
		_, _, err := svc.Process(context.Background(), Return{ProductID: "p1", Qty: qty, Restock: true})
		require.ErrorIs(t, err, ErrInvalidQuantity)
	}
	require.Empty(t, repo.returns)
	require.Empty(t, inv.receipts)
}
