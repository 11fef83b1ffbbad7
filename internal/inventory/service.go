package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ambrevelours/av-suite/internal/masterdata"
	"github.com/ambrevelours/av-suite/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)
	ListProducts(ctx context.Context) ([]masterdata.Product, error)
}

// TxRepository exposes the writes one movement needs.
type TxRepository interface {
	GetProduct(ctx context.Context, id string) (masterdata.Product, error)
	UpdateProduct(ctx context.Context, p masterdata.Product) error
	AppendMovement(ctx context.Context, m Movement) (Movement, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort receives movement counters.
type MetricsPort interface {
	ObserveMovement(kind string, qty int)
	ObserveShortfall(qty int)
}

// Service coordinates valuation changes and their ledger records.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	metrics MetricsPort
	logger  *slog.Logger
	policy  OverIssuePolicy
	now     func() time.Time
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	OverIssue OverIssuePolicy
	Metrics   MetricsPort
	Logger    *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, cfg ServiceConfig) *Service {
	policy := cfg.OverIssue
	if policy == "" {
		policy = OverIssueClamp
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, metrics: cfg.Metrics, logger: logger, policy: policy, now: time.Now}
}

// Policy returns the configured over-issue policy.
func (s *Service) Policy() OverIssuePolicy {
	return s.policy
}

// PostReceipt applies a receipt to the product cost basis and records an entry movement.
func (s *Service) PostReceipt(ctx context.Context, input ReceiptInput) (Movement, error) {
	if input.ProductID == "" {
		return Movement{}, ErrProductNotFound
	}
	var recorded Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := s.loadProduct(ctx, tx, input.ProductID)
		if err != nil {
			return err
		}
		next, err := ApplyReceipt(p, input.Qty, input.UnitCost)
		if err != nil {
			return err
		}
		if err := tx.UpdateProduct(ctx, next); err != nil {
			return err
		}
		recorded, err = tx.AppendMovement(ctx, s.newMovement(input.ProductID, MovementEntry, input.Qty, input.UnitCost, input.Ref, input.Date))
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	shared.AfterCommit(ctx, func() { s.observe(ctx, recorded, IssueResult{}) })
	return recorded, nil
}

// PostIssue removes stock for a sale and records an exit valued at the CMP at issue time.
func (s *Service) PostIssue(ctx context.Context, input IssueInput) (Movement, IssueResult, error) {
	if input.ProductID == "" {
		return Movement{}, IssueResult{}, ErrProductNotFound
	}
	var (
		recorded Movement
		result   IssueResult
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := s.loadProduct(ctx, tx, input.ProductID)
		if err != nil {
			return err
		}
		cost := p.CMP
		next, res, err := ApplyIssue(p, input.Qty, s.policy)
		if err != nil {
			return err
		}
		if err := tx.UpdateProduct(ctx, next); err != nil {
			return err
		}
		m := s.newMovement(input.ProductID, MovementExit, input.Qty, cost, input.Ref, input.Date)
		m.Shortfall = res.Shortfall
		recorded, err = tx.AppendMovement(ctx, m)
		result = res
		return err
	})
	if err != nil {
		return Movement{}, IssueResult{}, err
	}
	shared.AfterCommit(ctx, func() { s.observe(ctx, recorded, result) })
	return recorded, result, nil
}

// PostAdjustment applies a signed adjustment. Positive quantities are valued like receipts.
func (s *Service) PostAdjustment(ctx context.Context, input AdjustmentInput) (Movement, IssueResult, error) {
	if input.ProductID == "" {
		return Movement{}, IssueResult{}, ErrProductNotFound
	}
	if input.Qty == 0 {
		return Movement{}, IssueResult{}, ErrInvalidQuantity
	}
	var (
		recorded Movement
		result   IssueResult
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := s.loadProduct(ctx, tx, input.ProductID)
		if err != nil {
			return err
		}
		var next masterdata.Product
		if input.Qty > 0 {
			next, err = ApplyReceipt(p, input.Qty, input.UnitCost)
		} else {
			next, result, err = ApplyIssue(p, -input.Qty, s.policy)
		}
		if err != nil {
			return err
		}
		if err := tx.UpdateProduct(ctx, next); err != nil {
			return err
		}
		m := s.newMovement(input.ProductID, MovementAdjustment, input.Qty, input.UnitCost, input.Ref, input.Date)
		m.Shortfall = result.Shortfall
		recorded, err = tx.AppendMovement(ctx, m)
		return err
	})
	if err != nil {
		return Movement{}, IssueResult{}, err
	}
	shared.AfterCommit(ctx, func() { s.observe(ctx, recorded, result) })
	return recorded, result, nil
}

// RecordOpening books the opening balance of a freshly created product.
func (s *Service) RecordOpening(ctx context.Context, productID string, qty int, unitCost decimal.Decimal, at time.Time) error {
	_, _, err := s.PostAdjustment(ctx, AdjustmentInput{ProductID: productID, Qty: qty, UnitCost: unitCost, Ref: RefOpening, Date: at})
	return err
}

// Movements lists ledger records most-recent-first with product names resolved.
func (s *Service) Movements(ctx context.Context, filter MovementFilter) ([]MovementView, error) {
	moves, err := s.repo.ListMovements(ctx, filter)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]MovementView, 0, len(moves))
	for _, m := range moves {
		views = append(views, MovementView{Movement: m, ProductName: masterdata.NameOf(products, m.ProductID)})
	}
	return views, nil
}

// StockCard replays one product's movements into running balances, oldest first.
func (s *Service) StockCard(ctx context.Context, productID string) ([]StockCardEntry, error) {
	if productID == "" {
		return nil, ErrProductNotFound
	}
	moves, err := s.repo.ListMovements(ctx, MovementFilter{ProductID: productID})
	if err != nil {
		return nil, err
	}
	return BuildStockCard(moves), nil
}

// Verify replays the whole ledger and compares it with the product records.
func (s *Service) Verify(ctx context.Context) (VerifyReport, error) {
	moves, err := s.repo.ListMovements(ctx, MovementFilter{})
	if err != nil {
		return VerifyReport{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return VerifyReport{}, err
	}
	report := Verify(products, moves)
	if !report.OK() {
		s.logger.WarnContext(ctx, "stock ledger drift", slog.Int("products", len(report.Drifts)))
	}
	return report, nil
}

func (s *Service) loadProduct(ctx context.Context, tx TxRepository, id string) (masterdata.Product, error) {
	p, err := tx.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, masterdata.ErrNotFound) {
			return masterdata.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return masterdata.Product{}, err
	}
	return p, nil
}

func (s *Service) newMovement(productID string, kind MovementType, qty int, unitCost decimal.Decimal, ref string, date time.Time) Movement {
	if date.IsZero() {
		date = s.now().UTC()
	}
	return Movement{
		ID:        uuid.NewString(),
		Date:      date,
		ProductID: productID,
		Type:      kind,
		Qty:       qty,
		UnitCost:  unitCost,
		Ref:       ref,
	}
}

// observe reports a stored movement. It is deferred to commit so rolled-back units leave
// no audit line or counter behind.
func (s *Service) observe(ctx context.Context, m Movement, res IssueResult) {
	if s.metrics != nil {
		s.metrics.ObserveMovement(string(m.Type), m.Qty)
		if res.Clamped() {
			s.metrics.ObserveShortfall(res.Shortfall)
		}
	}
	if res.Clamped() {
		s.logger.WarnContext(ctx, "issue exceeded stock on hand, clamped at zero",
			slog.String("product_id", m.ProductID),
			slog.String("ref", m.Ref),
			slog.Int("requested", res.Requested),
			slog.Int("shortfall", res.Shortfall))
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   fmt.Sprintf("inventory:%s", m.Type),
			Entity:   "stock_movement",
			EntityID: m.ID,
			Meta: map[string]any{
				"product_id": m.ProductID,
				"qty":        m.Qty,
				"unit_cost":  m.UnitCost.String(),
				"ref":        m.Ref,
			},
		})
	}
}
