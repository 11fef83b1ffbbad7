package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ambrevelours/av-suite/internal/inventory"
	"github.com/ambrevelours/av-suite/internal/masterdata"
	"github.com/ambrevelours/av-suite/internal/procurement"
	"github.com/ambrevelours/av-suite/internal/returns"
	"github.com/ambrevelours/av-suite/internal/sales"
	"github.com/ambrevelours/av-suite/internal/shared"
)

var fixedClock = func() time.Time { return time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC) }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type failingProvider struct {
	*MemoryProvider
	fail bool
}

func (p *failingProvider) Save(ctx context.Context, s *Snapshot) error {
	if p.fail {
		return errors.New("disk full")
	}
	return p.MemoryProvider.Save(ctx, s)
}

type auditRecorder struct {
	logs []shared.AuditLog
}

func (a *auditRecorder) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type movementCounter struct {
	movements int
	shortfall int
}

func (m *movementCounter) ObserveMovement(kind string, qty int) { m.movements++ }
func (m *movementCounter) ObserveShortfall(qty int)             { m.shortfall += qty }

func openTestStore(t *testing.T) (*Store, *MemoryProvider) {
	t.Helper()
	provider := NewMemoryProvider()
	s, err := Open(context.Background(), provider, WithClock(fixedClock))
	require.NoError(t, err)
	return s, provider
}

func TestOpenSeedsOnce(t *testing.T) {
	s, provider := openTestStore(t)
	require.Equal(t, 1, provider.Saves())

	snap := s.Snapshot()
	require.Len(t, snap.Products, 2)
	require.Len(t, snap.Leads, 3)
	require.Len(t, snap.Orders, 1)
	require.Len(t, snap.Suppliers, 1)
	require.Equal(t, sales.OrderStatusDelivered, snap.Orders[0].Status)
	require.Equal(t, SeedID("product", "p1"), snap.Products[0].ID)
	require.True(t, inventory.Verify(snap.Products, snap.Movements).OK())

	again, err := Open(context.Background(), provider, WithClock(fixedClock))
	require.NoError(t, err)
	require.Equal(t, 1, provider.Saves())
	require.Equal(t, snap.Products[0].ID, again.Snapshot().Products[0].ID)
}

func TestSeedIsDeterministic(t *testing.T) {
	a := Seed(fixedClock())
	b := Seed(fixedClock())
	require.Equal(t, a.Products[0].ID, b.Products[0].ID)
	require.Equal(t, a.Leads[2].ID, b.Leads[2].ID)
	require.Equal(t, a.Movements[2].ID, b.Movements[2].ID)
}

func TestUpdateIsAllOrNothing(t *testing.T) {
	s, provider := openTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(ctx context.Context, snap *Snapshot) error {
		snap.Products[0].Stock = 999
		return errors.New("abort")
	})
	require.Error(t, err)
	require.Equal(t, 6, s.Snapshot().Products[0].Stock)
	require.Equal(t, 1, provider.Saves())
}

func TestUpdateDiscardedWhenSaveFails(t *testing.T) {
	provider := &failingProvider{MemoryProvider: NewMemoryProvider()}
	s, err := Open(context.Background(), provider, WithClock(fixedClock))
	require.NoError(t, err)

	provider.fail = true
	err = s.Update(context.Background(), func(ctx context.Context, snap *Snapshot) error {
		snap.Products[0].Stock = 1
		return nil
	})
	require.ErrorContains(t, err, "disk full")
	require.Equal(t, 6, s.Snapshot().Products[0].Stock)
}

func TestNestedUpdateJoinsOuterUnit(t *testing.T) {
	s, provider := openTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(ctx context.Context, snap *Snapshot) error {
		snap.Products[0].Stock = 7
		require.NoError(t, s.Update(ctx, func(ctx context.Context, inner *Snapshot) error {
			require.Same(t, snap, inner)
			inner.Products[1].Stock = 5
			return nil
		}))
		require.Equal(t, 7, s.View(ctx).Products[0].Stock)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, provider.Saves())
	require.Equal(t, 5, s.Snapshot().Products[1].Stock)
}

func TestCloneIsDeep(t *testing.T) {
	snap := Seed(fixedClock())
	c := snap.Clone()
	c.Orders[0].Lines[0].Qty = 42
	c.Leads[0].Tags[0] = "changed"
	*c.Leads[0].NextFollowUp = time.Time{}
	require.Equal(t, 1, snap.Orders[0].Lines[0].Qty)
	require.Equal(t, "Prospect", snap.Leads[0].Tags[0])
	require.False(t, snap.Leads[0].NextFollowUp.IsZero())
}

func TestDecodeRejectsNewerVersion(t *testing.T) {
	_, err := Decode([]byte(`{"version": 99}`))
	require.Error(t, err)
}

func TestPurchaseSaleReturnFlow(t *testing.T) {
	s, _ := openTestStore(t)
	repos := s.Repositories()
	ctx := context.Background()

	inv := inventory.NewService(repos.Inventory, nil, inventory.ServiceConfig{})
	proc := procurement.NewService(repos.Procurement, inv, nil, nil)
	sal := sales.NewService(repos.Sales, inv, nil, nil)
	ret := returns.NewService(repos.Returns, inv, nil)
	p1 := SeedID("product", "p1")

	po, err := proc.SavePO(ctx, procurement.PurchaseOrder{
		SupplierID:  SeedID("supplier", "istanbul"),
		FeeShipping: dec("6000"),
		Lines:       []procurement.POLine{{ProductID: p1, Qty: 6, UnitCost: dec("40000")}},
	})
	require.NoError(t, err)
	_, _, err = proc.Receive(ctx, po.ID)
	require.NoError(t, err)

	product, err := repos.Masterdata.GetProduct(ctx, p1)
	require.NoError(t, err)
	require.Equal(t, 12, product.Stock)
	require.True(t, product.CMP.Equal(dec("41500")), product.CMP.String())

	_, _, err = proc.Receive(ctx, po.ID)
	require.ErrorIs(t, err, procurement.ErrInvalidState)

	order, err := sal.SaveOrder(ctx, sales.Order{ClientName: "Aïcha D.", Lines: []sales.OrderLine{{ProductID: p1, Qty: 2}}})
	require.NoError(t, err)
	require.Equal(t, "CMD-0002", order.Number)
	confirmed, moves, err := sal.Confirm(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, confirmed.Lines[0].CogsUnit.Equal(dec("41500")))
	require.Equal(t, 2, moves[0].Qty)

	product, err = repos.Masterdata.GetProduct(ctx, p1)
	require.NoError(t, err)
	require.Equal(t, 10, product.Stock)

	_, _, err = ret.Process(ctx, returns.Return{ProductID: p1, Qty: 1, Restock: false})
	require.NoError(t, err)

	views, err := inv.Movements(ctx, inventory.MovementFilter{ProductID: p1, Limit: 3})
	require.NoError(t, err)
	require.Len(t, views, 3)
	require.Equal(t, inventory.RefWriteOff, views[0].Ref)
	require.Equal(t, -1, views[0].Qty)
	require.Equal(t, "CMD-0002", views[1].Ref)
	require.Equal(t, po.Number, views[2].Ref)

	report, err := inv.Verify(ctx)
	require.NoError(t, err)
	require.True(t, report.OK(), "%+v", report.Drifts)
}

func TestConfirmRollsBackOnFailure(t *testing.T) {
	s, _ := openTestStore(t)
	repos := s.Repositories()
	ctx := context.Background()

	audit := &auditRecorder{}
	metrics := &movementCounter{}
	inv := inventory.NewService(repos.Inventory, audit, inventory.ServiceConfig{OverIssue: inventory.OverIssueReject, Metrics: metrics})
	sal := sales.NewService(repos.Sales, inv, nil, nil)
	p1, p2 := SeedID("product", "p1"), SeedID("product", "p2")

	order, err := sal.SaveOrder(ctx, sales.Order{ClientName: "Yann B.", Lines: []sales.OrderLine{
		{ProductID: p1, Qty: 1},
		{ProductID: p2, Qty: 50},
	}})
	require.NoError(t, err)

	_, _, err = sal.Confirm(ctx, order.ID)
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	snap := s.Snapshot()
	require.Equal(t, 6, snap.Products[0].Stock)
	require.Len(t, snap.Movements, 3)
	stored, err := repos.Sales.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, sales.OrderStatusDraft, stored.Status)
	require.Empty(t, audit.logs)
	require.Zero(t, metrics.movements)

	ok, err := sal.SaveOrder(ctx, sales.Order{ClientName: "Yann B.", Lines: []sales.OrderLine{{ProductID: p1, Qty: 1}}})
	require.NoError(t, err)
	_, _, err = sal.Confirm(ctx, ok.ID)
	require.NoError(t, err)
	require.Len(t, audit.logs, 1)
	require.Equal(t, "inventory:exit", audit.logs[0].Action)
	require.Equal(t, 1, metrics.movements)
}

func TestObservationsDroppedWhenSaveFails(t *testing.T) {
	provider := &failingProvider{MemoryProvider: NewMemoryProvider()}
	s, err := Open(context.Background(), provider, WithClock(fixedClock))
	require.NoError(t, err)
	audit := &auditRecorder{}
	metrics := &movementCounter{}
	inv := inventory.NewService(s.Repositories().Inventory, audit, inventory.ServiceConfig{Metrics: metrics})

	provider.fail = true
	_, _, err = inv.PostAdjustment(context.Background(), inventory.AdjustmentInput{ProductID: SeedID("product", "p1"), Qty: -10, Ref: "ADJ"})
	require.Error(t, err)
	require.Empty(t, audit.logs)
	require.Zero(t, metrics.movements)
	require.Zero(t, metrics.shortfall)
}

func TestNewProductGetsOpeningMovement(t *testing.T) {
	s, _ := openTestStore(t)
	repos := s.Repositories()
	ctx := context.Background()

	inv := inventory.NewService(repos.Inventory, nil, inventory.ServiceConfig{})
	md := masterdata.NewService(repos.Masterdata, inv, nil)

	p, err := md.SaveProduct(ctx, masterdata.Product{SKU: "NEW-1", Name: "Nouveau", Stock: 3, CMP: dec("1000")})
	require.NoError(t, err)
	require.Equal(t, 3, p.Stock)
	require.True(t, p.CMP.Equal(dec("1000")))

	moves, err := repos.Inventory.ListMovements(ctx, inventory.MovementFilter{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	require.Equal(t, inventory.RefOpening, moves[0].Ref)

	p.Stock = 100
	p.Name = "Renommé"
	edited, err := md.SaveProduct(ctx, p)
	require.NoError(t, err)
	require.Equal(t, 3, edited.Stock)
	require.Equal(t, "Renommé", edited.Name)
}
