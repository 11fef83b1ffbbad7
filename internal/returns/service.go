package returns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ambrevelours/av-suite/internal/inventory"
	"github.com/ambrevelours/av-suite/internal/masterdata"
	"github.com/ambrevelours/av-suite/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListReturns(ctx context.Context) ([]Return, error)
	ListProducts(ctx context.Context) ([]masterdata.Product, error)
}

// TxRepository stores return records.
type TxRepository interface {
	InsertReturn(ctx context.Context, r Return) error
}

// InventoryPort exposes required inventory integration.
type InventoryPort interface {
	PostReceipt(ctx context.Context, input inventory.ReceiptInput) (inventory.Movement, error)
	PostAdjustment(ctx context.Context, input inventory.AdjustmentInput) (inventory.Movement, inventory.IssueResult, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service processes customer returns.
type Service struct {
	repo      RepositoryPort
	inventory InventoryPort
	audit     AuditPort
	validate  *validator.Validate
	now       func() time.Time
}

// NewService constructs the returns service.
func NewService(repo RepositoryPort, inventory InventoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, inventory: inventory, audit: audit, validate: validator.New(), now: time.Now}
}

// Process records the return and its single stock movement in one unit of work.
func (s *Service) Process(ctx context.Context, input Return) (Return, inventory.Movement, error) {
	if input.Qty <= 0 {
		return Return{}, inventory.Movement{}, ErrInvalidQuantity
	}
	if err := s.validate.Struct(input); err != nil {
		return Return{}, inventory.Movement{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if input.UnitCost.IsNegative() {
		return Return{}, inventory.Movement{}, fmt.Errorf("%w: unit cost must be >= 0", ErrValidation)
	}
	if s.inventory == nil {
		return Return{}, inventory.Movement{}, errors.New("returns: inventory integration not configured")
	}
	input.Reason = strings.TrimSpace(input.Reason)
	if input.Reason == "" {
		input.Reason = DefaultReason
	}
	if input.Date.IsZero() {
		input.Date = s.now().UTC()
	}
	input.ID = uuid.NewString()

	var movement inventory.Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		if input.Restock {
			movement, err = s.inventory.PostReceipt(ctx, inventory.ReceiptInput{
				ProductID: input.ProductID,
				Qty:       input.Qty,
				UnitCost:  input.UnitCost,
				Ref:       inventory.RefReturn,
				Date:      input.Date,
			})
		} else {
			input.UnitCost = decimal.Zero
			movement, _, err = s.inventory.PostAdjustment(ctx, inventory.AdjustmentInput{
				ProductID: input.ProductID,
				Qty:       -input.Qty,
				UnitCost:  input.UnitCost,
				Ref:       inventory.RefWriteOff,
				Date:      input.Date,
			})
		}
		if err != nil {
			return err
		}
		input.MovementID = movement.ID
		return tx.InsertReturn(ctx, input)
	})
	if err != nil {
		return Return{}, inventory.Movement{}, err
	}
	s.recordAudit(ctx, input, movement)
	return input, movement, nil
}

// List returns recorded returns, newest first, with product names.
func (s *Service) List(ctx context.Context) ([]View, error) {
	items, err := s.repo.ListReturns(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(items))
	for _, r := range items {
		views = append(views, View{Return: r, ProductName: masterdata.NameOf(products, r.ProductID)})
	}
	return views, nil
}

func (s *Service) recordAudit(ctx context.Context, r Return, m inventory.Movement) {
	if s.audit == nil {
		return
	}
	action := "RETURN_WRITE_OFF"
	if r.Restock {
		action = "RETURN_RESTOCK"
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "return", EntityID: r.ID, Meta: map[string]any{
		"product_id":  r.ProductID,
		"qty":         r.Qty,
		"movement_id": m.ID,
	}})
}
