package procurement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ambrevelours/av-suite/internal/inventory"
	"github.com/ambrevelours/av-suite/internal/masterdata"
	"github.com/ambrevelours/av-suite/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPO(ctx context.Context, id string) (PurchaseOrder, error)
	ListPOs(ctx context.Context) ([]PurchaseOrder, error)
	ListProducts(ctx context.Context) ([]masterdata.Product, error)
	ListSuppliers(ctx context.Context) ([]masterdata.Supplier, error)
}

// TxRepository exposes PO writes inside a unit of work.
type TxRepository interface {
	GetPO(ctx context.Context, id string) (PurchaseOrder, error)
	CountPOs(ctx context.Context) (int, error)
	POByNumber(ctx context.Context, number string) (PurchaseOrder, bool, error)
	InsertPO(ctx context.Context, po PurchaseOrder) error
	UpdatePO(ctx context.Context, po PurchaseOrder) error
}

// InventoryPort exposes required inventory integration.
type InventoryPort interface {
	PostReceipt(ctx context.Context, input inventory.ReceiptInput) (inventory.Movement, error)
}

// IdempotencyPort guards reception against replays across processes.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates procurement flows.
type Service struct {
	repo        RepositoryPort
	inventory   InventoryPort
	audit       AuditPort
	idempotency IdempotencyPort
	validate    *validator.Validate
	now         func() time.Time
}

// NewService constructs procurement service.
func NewService(repo RepositoryPort, inventory InventoryPort, audit AuditPort, idem IdempotencyPort) *Service {
	return &Service{repo: repo, inventory: inventory, audit: audit, idempotency: idem, validate: validator.New(), now: time.Now}
}

// List returns purchase orders, newest first.
func (s *Service) List(ctx context.Context) ([]PurchaseOrder, error) {
	return s.repo.ListPOs(ctx)
}

// Get loads one purchase order.
func (s *Service) Get(ctx context.Context, id string) (PurchaseOrder, error) {
	return s.repo.GetPO(ctx, id)
}

// SavePO creates a draft PO or edits one that has not been received.
func (s *Service) SavePO(ctx context.Context, input PurchaseOrder) (PurchaseOrder, error) {
	if input.FeeMode == "" {
		input.FeeMode = FeePerUnit
	}
	if err := s.validatePO(input); err != nil {
		return PurchaseOrder{}, err
	}
	var saved PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.ID != "" {
			existing, err := tx.GetPO(ctx, input.ID)
			if err != nil {
				return err
			}
			if existing.Received() {
				return fmt.Errorf("%w: %s already received", ErrInvalidState, existing.Number)
			}
			input.Number = existing.Number
			input.Status = existing.Status
			input.ReceivedAt = nil
			if input.Date.IsZero() {
				input.Date = existing.Date
			}
			input.Lines = Allocate(input.FeeTotal(), input.Lines, input.FeeMode)
			saved = input
			return tx.UpdatePO(ctx, input)
		}
		count, err := tx.CountPOs(ctx)
		if err != nil {
			return err
		}
		input.ID = uuid.NewString()
		if input.Number == "" {
			// Caller-chosen numbers may already occupy the next slot.
			for n := count + 1; ; n++ {
				input.Number = generateNumber("PO", n)
				_, taken, err := tx.POByNumber(ctx, input.Number)
				if err != nil {
					return err
				}
				if !taken {
					break
				}
			}
		} else if _, taken, err := tx.POByNumber(ctx, input.Number); err != nil {
			return err
		} else if taken {
			return fmt.Errorf("%w: %s", ErrDuplicateNumber, input.Number)
		}
		input.Status = POStatusDraft
		input.ReceivedAt = nil
		if input.Date.IsZero() {
			input.Date = s.now().UTC()
		}
		input.Lines = Allocate(input.FeeTotal(), input.Lines, input.FeeMode)
		saved = input
		return tx.InsertPO(ctx, input)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, "PO_SAVE", saved.ID, map[string]any{"number": saved.Number})
	return saved, nil
}

// MarkOrdered transitions a draft PO to ORDERED.
func (s *Service) MarkOrdered(ctx context.Context, id string) (PurchaseOrder, error) {
	var updated PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPO(ctx, id)
		if err != nil {
			return err
		}
		if po.Status != POStatusDraft {
			return fmt.Errorf("%w: %s is %s", ErrInvalidState, po.Number, po.Status)
		}
		po.Status = POStatusOrdered
		updated = po
		return tx.UpdatePO(ctx, po)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, "PO_ORDER", updated.ID, map[string]any{"number": updated.Number})
	return updated, nil
}

// Receive applies the landed cost of every line to stock and closes the PO.
// A received PO can never be received again.
func (s *Service) Receive(ctx context.Context, id string) (PurchaseOrder, []inventory.Movement, error) {
	if s.inventory == nil {
		return PurchaseOrder{}, nil, errors.New("procurement: inventory integration not configured")
	}
	po, err := s.repo.GetPO(ctx, id)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	if po.Received() {
		return PurchaseOrder{}, nil, fmt.Errorf("%w: %s already received", ErrInvalidState, po.Number)
	}
	key := "PO:" + po.ID
	inserted := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "procurement.receive"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return PurchaseOrder{}, nil, fmt.Errorf("%w: %s already received", ErrInvalidState, po.Number)
			}
			return PurchaseOrder{}, nil, err
		}
		inserted = true
	}
	var (
		received  PurchaseOrder
		movements []inventory.Movement
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetPO(ctx, id)
		if err != nil {
			return err
		}
		if current.Received() {
			return fmt.Errorf("%w: %s already received", ErrInvalidState, current.Number)
		}
		now := s.now().UTC()
		current.Lines = Allocate(current.FeeTotal(), current.Lines, current.FeeMode)
		for _, line := range current.Lines {
			m, err := s.inventory.PostReceipt(ctx, inventory.ReceiptInput{
				ProductID: line.ProductID,
				Qty:       line.Qty,
				UnitCost:  line.LandedUnitCost(),
				Ref:       current.Number,
				Date:      now,
			})
			if err != nil {
				return fmt.Errorf("receive %s line %s: %w", current.Number, line.ProductID, err)
			}
			movements = append(movements, m)
		}
		current.Status = POStatusReceived
		current.ReceivedAt = &now
		received = current
		return tx.UpdatePO(ctx, current)
	})
	if err != nil {
		if inserted {
			_ = s.idempotency.Delete(ctx, key, "procurement.receive")
		}
		return PurchaseOrder{}, nil, err
	}
	s.recordAudit(ctx, "PO_RECEIVE", received.ID, map[string]any{"number": received.Number, "lines": len(received.Lines)})
	return received, movements, nil
}

// Preview allocates fees and resolves names without mutating anything.
func (s *Service) Preview(ctx context.Context, id string) (Preview, error) {
	po, err := s.repo.GetPO(ctx, id)
	if err != nil {
		return Preview{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return Preview{}, err
	}
	suppliers, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return Preview{}, err
	}
	allocated := Allocate(po.FeeTotal(), po.Lines, po.FeeMode)
	lines := make([]LandedLine, 0, len(allocated))
	for _, line := range allocated {
		landed := line.LandedUnitCost()
		lines = append(lines, LandedLine{
			POLine:         line,
			ProductName:    masterdata.NameOf(products, line.ProductID),
			LandedUnitCost: landed,
			LandedTotal:    line.Value().Add(line.FeeAlloc),
		})
	}
	po.Lines = allocated
	return Preview{Order: po, SupplierName: supplierName(suppliers, po.SupplierID), Lines: lines, Totals: ComputeTotals(po)}, nil
}

func (s *Service) validatePO(po PurchaseOrder) error {
	if err := s.validate.Struct(po); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if po.FeeShipping.IsNegative() || po.FeeCustoms.IsNegative() || po.FeePackaging.IsNegative() {
		return fmt.Errorf("%w: fees must be >= 0", ErrValidation)
	}
	for _, line := range po.Lines {
		if line.UnitCost.IsNegative() {
			return fmt.Errorf("%w: unit cost must be >= 0", ErrValidation)
		}
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "purchase_order", EntityID: entityID, Meta: meta})
}

func supplierName(suppliers []masterdata.Supplier, id string) string {
	for _, sup := range suppliers {
		if sup.ID == id {
			return sup.Name
		}
	}
	return masterdata.Placeholder
}

func generateNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s-%04d", prefix, seq)
}
