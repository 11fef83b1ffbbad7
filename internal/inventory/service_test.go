package inventory

import (
	"context"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ambrevelours/av-suite/internal/masterdata"
)

type memoryRepo struct {
	products  map[string]masterdata.Product
	movements []Movement
	seq       int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo(products ...masterdata.Product) *memoryRepo {
	r := &memoryRepo{products: make(map[string]masterdata.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	var out []Movement
	for i := len(r.movements) - 1; i >= 0; i-- {
		if filter.Match(r.movements[i]) {
			out = append(out, r.movements[i])
		}
	}
	return out, nil
}

func (r *memoryRepo) ListProducts(ctx context.Context) ([]masterdata.Product, error) {
	out := make([]masterdata.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *memoryTx) GetProduct(ctx context.Context, id string) (masterdata.Product, error) {
	p, ok := tx.repo.products[id]
	if !ok {
		return masterdata.Product{}, masterdata.ErrNotFound
	}
	return p, nil
}

func (tx *memoryTx) UpdateProduct(ctx context.Context, p masterdata.Product) error {
	tx.repo.products[p.ID] = p
	return nil
}

func (tx *memoryTx) AppendMovement(ctx context.Context, m Movement) (Movement, error) {
	tx.repo.seq++
	m.Seq = tx.repo.seq
	tx.repo.movements = append(tx.repo.movements, m)
	return m, nil
}

type countingMetrics struct {
	moves     int
	shortfall int
}

func (m *countingMetrics) ObserveMovement(string, int) { m.moves++ }
func (m *countingMetrics) ObserveShortfall(qty int)    { m.shortfall += qty }

func seededRepo(t *testing.T) (*memoryRepo, *Service) {
	t.Helper()
	repo := newMemoryRepo(masterdata.Product{ID: "p1", SKU: "OJAR-WW-70", Name: "OJAR Wood Whisper 70ml"})
	svc := NewService(repo, nil, ServiceConfig{})
	require.NoError(t, svc.RecordOpening(context.Background(), "p1", 6, dec("42000"), fixedDate))
	return repo, svc
}

func TestPostReceiptUpdatesCMP(t *testing.T) {
	repo, svc := seededRepo(t)
	ctx := context.Background()

	m, err := svc.PostReceipt(ctx, ReceiptInput{ProductID: "p1", Qty: 6, UnitCost: dec("41000"), Ref: "PO-0001"})
	require.NoError(t, err)
	require.Equal(t, int64(2), m.Seq)
	require.Equal(t, MovementEntry, m.Type)

	p := repo.products["p1"]
	require.Equal(t, 12, p.Stock)
	require.True(t, p.CMP.Equal(dec("41500")), p.CMP.String())
}

func TestPostIssueRecordsCostAtIssue(t *testing.T) {
	repo, svc := seededRepo(t)
	ctx := context.Background()

	m, res, err := svc.PostIssue(ctx, IssueInput{ProductID: "p1", Qty: 2, Ref: "CMD-0002"})
	require.NoError(t, err)
	require.False(t, res.Clamped())
	require.True(t, m.UnitCost.Equal(dec("42000")))
	require.Equal(t, 4, repo.products["p1"].Stock)
	require.True(t, repo.products["p1"].CMP.Equal(dec("42000")))
}

func TestPostIssueClampsAndReports(t *testing.T) {
	repo := newMemoryRepo(masterdata.Product{ID: "p1", Name: "A"})
	metrics := &countingMetrics{}
	svc := NewService(repo, nil, ServiceConfig{Metrics: metrics})
	ctx := context.Background()
	require.NoError(t, svc.RecordOpening(ctx, "p1", 2, dec("10"), fixedDate))

	m, res, err := svc.PostIssue(ctx, IssueInput{ProductID: "p1", Qty: 5, Ref: "CMD-0009"})
	require.NoError(t, err)
	require.Equal(t, 3, res.Shortfall)
	require.Equal(t, 3, m.Shortfall)
	require.Equal(t, 0, repo.products["p1"].Stock)
	require.Equal(t, 3, metrics.shortfall)
	require.Equal(t, 2, metrics.moves)

	report, err := svc.Verify(ctx)
	require.NoError(t, err)
	require.True(t, report.OK())
}

func TestPostIssueRejectPolicy(t *testing.T) {
	repo := newMemoryRepo(masterdata.Product{ID: "p1", Name: "A", Stock: 1, CMP: dec("10")})
	svc := NewService(repo, nil, ServiceConfig{OverIssue: OverIssueReject})

	_, _, err := svc.PostIssue(context.Background(), IssueInput{ProductID: "p1", Qty: 2})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Empty(t, repo.movements)
	require.Equal(t, 1, repo.products["p1"].Stock)
}

func TestPostAdjustmentWriteOff(t *testing.T) {
	repo, svc := seededRepo(t)
	m, _, err := svc.PostAdjustment(context.Background(), AdjustmentInput{ProductID: "p1", Qty: -1, UnitCost: decimal.Zero, Ref: RefWriteOff})
	require.NoError(t, err)
	require.Equal(t, -1, m.Qty)
	require.Equal(t, 5, repo.products["p1"].Stock)
	require.True(t, repo.products["p1"].CMP.Equal(dec("42000")))

	_, _, err = svc.PostAdjustment(context.Background(), AdjustmentInput{ProductID: "p1", Qty: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestUnknownProduct(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, ServiceConfig{})
	_, err := svc.PostReceipt(context.Background(), ReceiptInput{ProductID: "nope", Qty: 1, UnitCost: dec("1")})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestMovementsResolveNames(t *testing.T) {
	repo, svc := seededRepo(t)
	repo.movements = append(repo.movements, Movement{Seq: 99, ProductID: "gone", Type: MovementEntry, Qty: 1})

	views, err := svc.Movements(context.Background(), MovementFilter{})
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, masterdata.Placeholder, views[0].ProductName)
	require.Equal(t, "OJAR Wood Whisper 70ml", views[1].ProductName)
}

func TestStockCard(t *testing.T) {
	_, svc := seededRepo(t)
	ctx := context.Background()
	_, err := svc.PostReceipt(ctx, ReceiptInput{ProductID: "p1", Qty: 6, UnitCost: dec("41000"), Ref: "PO-0001"})
	require.NoError(t, err)

	cards, err := svc.StockCard(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	require.Equal(t, RefOpening, cards[0].Ref)
	require.Equal(t, 12, cards[1].BalanceQty)
	require.True(t, cards[1].BalanceCost.Equal(dec("41500")))
}
