package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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
	GetOrder(ctx context.Context, id string) (Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	ListProducts(ctx context.Context) ([]masterdata.Product, error)
}

// TxRepository exposes order writes inside a unit of work.
type TxRepository interface {
	GetOrder(ctx context.Context, id string) (Order, error)
	CountOrders(ctx context.Context) (int, error)
	InsertOrder(ctx context.Context, o Order) error
	UpdateOrder(ctx context.Context, o Order) error
	GetProduct(ctx context.Context, id string) (masterdata.Product, error)
}

// InventoryPort exposes required inventory integration.
type InventoryPort interface {
	PostIssue(ctx context.Context, input inventory.IssueInput) (inventory.Movement, inventory.IssueResult, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages orders, their confirmation and collections.
type Service struct {
	repo      RepositoryPort
	inventory InventoryPort
	audit     AuditPort
	logger    *slog.Logger
	validate  *validator.Validate
	now       func() time.Time
}

// NewService creates a new sales service.
func NewService(repo RepositoryPort, inventory InventoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, inventory: inventory, audit: audit, logger: logger, validate: validator.New(), now: time.Now}
}

// ListOrders returns all orders, newest first.
func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	return s.repo.ListOrders(ctx)
}

// GetOrder loads one order.
func (s *Service) GetOrder(ctx context.Context, id string) (Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// SaveOrder creates a draft order or edits an existing draft. Product lines sent without a
// name take the catalog name, and the retail price when none is given. Named lines are kept
// as sent, so a zero price survives.
func (s *Service) SaveOrder(ctx context.Context, input Order) (Order, error) {
	input.ClientName = strings.TrimSpace(input.ClientName)
	if input.Channel == "" {
		input.Channel = ChannelBoutique
	}
	if err := s.validateOrder(input); err != nil {
		return Order{}, err
	}
	var saved Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		lines, err := snapshotLines(ctx, tx, input.Lines)
		if err != nil {
			return err
		}
		input.Lines = lines
		if input.ID != "" {
			existing, err := tx.GetOrder(ctx, input.ID)
			if err != nil {
				return err
			}
			if existing.Status != OrderStatusDraft {
				return fmt.Errorf("%w: %s is %s", ErrInvalidState, existing.Number, existing.Status)
			}
			input.Number = existing.Number
			input.Status = OrderStatusDraft
			input.Payments = existing.Payments
			if input.Date.IsZero() {
				input.Date = existing.Date
			}
			saved = input
			return tx.UpdateOrder(ctx, input)
		}
		count, err := tx.CountOrders(ctx)
		if err != nil {
			return err
		}
		input.ID = uuid.NewString()
		input.Number = generateNumber("CMD", count+1)
		input.Status = OrderStatusDraft
		input.Payments = nil
		if input.Date.IsZero() {
			input.Date = s.now().UTC()
		}
		saved = input
		return tx.InsertOrder(ctx, input)
	})
	if err != nil {
		return Order{}, err
	}
	s.recordAudit(ctx, "ORDER_SAVE", saved.ID, map[string]any{"number": saved.Number})
	return saved, nil
}

// Confirm freezes COGS on every product line and issues the stock. Only drafts can be
// confirmed; a repeated confirmation is rejected without side effects.
func (s *Service) Confirm(ctx context.Context, id string) (Order, []inventory.Movement, error) {
	if s.inventory == nil {
		return Order{}, nil, errors.New("sales: inventory integration not configured")
	}
	var (
		confirmed Order
		movements []inventory.Movement
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if o.Status != OrderStatusDraft {
			return fmt.Errorf("%w: %s is %s", ErrInvalidState, o.Number, o.Status)
		}
		now := s.now().UTC()
		lines := make([]OrderLine, len(o.Lines))
		for i, line := range o.Lines {
			line.CogsUnit = decimal.Zero
			if !line.Manual() {
				m, _, err := s.inventory.PostIssue(ctx, inventory.IssueInput{ProductID: line.ProductID, Qty: line.Qty, Ref: o.Number, Date: now})
				switch {
				case errors.Is(err, inventory.ErrProductNotFound):
					s.logger.WarnContext(ctx, "order line references a missing product",
						slog.String("order", o.Number), slog.String("product_id", line.ProductID))
				case err != nil:
					return fmt.Errorf("confirm %s line %s: %w", o.Number, line.ProductID, err)
				default:
					line.CogsUnit = m.UnitCost
					movements = append(movements, m)
				}
			}
			lines[i] = line
		}
		o.Lines = lines
		o.Status = OrderStatusConfirmed
		confirmed = o
		return tx.UpdateOrder(ctx, o)
	})
	if err != nil {
		return Order{}, nil, err
	}
	s.recordAudit(ctx, "ORDER_CONFIRM", confirmed.ID, map[string]any{"number": confirmed.Number, "cogs": ComputeTotals(confirmed).Cogs.String()})
	return confirmed, movements, nil
}

// SetStatus moves a confirmed order along its downstream states. These transitions never
// touch stock or COGS.
func (s *Service) SetStatus(ctx context.Context, id string, status OrderStatus) (Order, error) {
	switch status {
	case OrderStatusPrepared, OrderStatusDelivered, OrderStatusCancelled:
	default:
		return Order{}, fmt.Errorf("%w: cannot set status %q", ErrInvalidState, status)
	}
	var updated Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if o.Status == OrderStatusCancelled || (o.Status == OrderStatusDraft && status != OrderStatusCancelled) {
			return fmt.Errorf("%w: %s is %s", ErrInvalidState, o.Number, o.Status)
		}
		o.Status = status
		updated = o
		return tx.UpdateOrder(ctx, o)
	})
	if err != nil {
		return Order{}, err
	}
	s.recordAudit(ctx, "ORDER_STATUS", updated.ID, map[string]any{"number": updated.Number, "status": string(status)})
	return updated, nil
}

// AddPayment appends a payment. Overpayment is allowed.
func (s *Service) AddPayment(ctx context.Context, id string, input PaymentInput) (Order, error) {
	if !input.Amount.IsPositive() {
		return Order{}, ErrInvalidAmount
	}
	if input.Mode == "" {
		input.Mode = DefaultPayMode
	}
	if input.Date.IsZero() {
		input.Date = s.now().UTC()
	}
	var updated Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		o.Payments = append(o.Payments, Payment{Mode: input.Mode, Amount: input.Amount, Date: input.Date})
		updated = o
		return tx.UpdateOrder(ctx, o)
	})
	if err != nil {
		return Order{}, err
	}
	s.recordAudit(ctx, "ORDER_PAYMENT", updated.ID, map[string]any{"number": updated.Number, "amount": input.Amount.String(), "mode": input.Mode})
	return updated, nil
}

// CreateManualCredit books off-catalog revenue as an already confirmed order.
func (s *Service) CreateManualCredit(ctx context.Context, input ManualCreditInput) (Order, error) {
	if !input.Amount.IsPositive() {
		return Order{}, ErrInvalidAmount
	}
	client := strings.TrimSpace(input.ClientName)
	if client == "" {
		client = DefaultClient
	}
	name := strings.TrimSpace(input.Note)
	if name == "" {
		name = ManualCreditName
	}
	date := input.Date
	if date.IsZero() {
		date = s.now().UTC()
	}
	var created Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		count, err := tx.CountOrders(ctx)
		if err != nil {
			return err
		}
		created = Order{
			ID:         uuid.NewString(),
			Number:     generateNumber("CMD", count+1),
			Date:       date,
			ClientName: client,
			Status:     OrderStatusConfirmed,
			Channel:    ChannelBoutique,
			Discount:   decimal.Zero,
			Shipping:   decimal.Zero,
			Lines:      []OrderLine{{Name: name, Qty: 1, UnitPrice: input.Amount, CogsUnit: decimal.Zero}},
		}
		return tx.InsertOrder(ctx, created)
	})
	if err != nil {
		return Order{}, err
	}
	s.recordAudit(ctx, "ORDER_CREDIT", created.ID, map[string]any{"number": created.Number, "amount": input.Amount.String()})
	return created, nil
}

// Totals loads an order and derives its amounts.
func (s *Service) Totals(ctx context.Context, id string) (Totals, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return Totals{}, err
	}
	return ComputeTotals(o), nil
}

// Receivables lists orders with money still owed.
func (s *Service) Receivables(ctx context.Context) ([]Receivable, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	return BuildReceivables(orders), nil
}

// Stats aggregates sales KPIs.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return Stats{}, err
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return Stats{}, err
	}
	return BuildStats(orders, products, s.now()), nil
}

func (s *Service) validateOrder(o Order) error {
	if err := s.validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if o.Discount.IsNegative() || o.Shipping.IsNegative() {
		return fmt.Errorf("%w: discount and shipping must be >= 0", ErrValidation)
	}
	for _, line := range o.Lines {
		if line.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: unit price must be >= 0", ErrValidation)
		}
		if line.Manual() && strings.TrimSpace(line.Name) == "" {
			return fmt.Errorf("%w: manual lines need a name", ErrValidation)
		}
	}
	return nil
}

func snapshotLines(ctx context.Context, tx TxRepository, lines []OrderLine) ([]OrderLine, error) {
	out := make([]OrderLine, len(lines))
	for i, line := range lines {
		line.CogsUnit = decimal.Zero
		if !line.Manual() && line.Name == "" {
			p, err := tx.GetProduct(ctx, line.ProductID)
			switch {
			case errors.Is(err, masterdata.ErrNotFound):
				line.Name = masterdata.Placeholder
			case err != nil:
				return nil, err
			default:
				line.Name = p.Name
				if line.UnitPrice.IsZero() {
					line.UnitPrice = p.PriceRetail
				}
			}
		}
		out[i] = line
	}
	return out, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "order", EntityID: entityID, Meta: meta})
}

func generateNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s-%04d", prefix, seq)
}
