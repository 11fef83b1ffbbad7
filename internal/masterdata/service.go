package masterdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ambrevelours/av-suite/internal/shared"
)

// RepositoryPort abstracts catalog persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	GetSettings(ctx context.Context) (Settings, error)
}

// TxRepository exposes catalog writes inside a unit of work.
type TxRepository interface {
	GetProduct(ctx context.Context, id string) (Product, error)
	InsertProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error
	GetSupplier(ctx context.Context, id string) (Supplier, error)
	UpsertSupplier(ctx context.Context, s Supplier) error
	SaveSettings(ctx context.Context, s Settings) error
}

// OpeningPort books the opening balance of a new product on the stock ledger.
type OpeningPort interface {
	RecordOpening(ctx context.Context, productID string, qty int, unitCost decimal.Decimal, at time.Time) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service maintains products, suppliers and settings.
type Service struct {
	repo     RepositoryPort
	opening  OpeningPort
	audit    AuditPort
	validate *validator.Validate
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, opening OpeningPort, audit AuditPort) *Service {
	return &Service{repo: repo, opening: opening, audit: audit, validate: validator.New(), now: time.Now}
}

// ListProducts returns the catalog.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

// GetProduct loads one product.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListSuppliers returns all suppliers.
func (s *Service) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

// GetSettings returns the current settings.
func (s *Service) GetSettings(ctx context.Context) (Settings, error) {
	return s.repo.GetSettings(ctx)
}

// SaveProduct creates or edits a product. New products with stock get an opening movement;
// edits never touch stock or CMP.
func (s *Service) SaveProduct(ctx context.Context, input Product) (Product, error) {
	input.SKU = strings.TrimSpace(input.SKU)
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validateProduct(input); err != nil {
		return Product{}, err
	}
	var saved Product
	created := false
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.ID != "" {
			existing, err := tx.GetProduct(ctx, input.ID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			if err == nil {
				input.Stock = existing.Stock
				input.CMP = existing.CMP
				saved = input
				return tx.UpdateProduct(ctx, input)
			}
		} else {
			input.ID = uuid.NewString()
		}
		created = true
		openingQty, openingCost := input.Stock, input.CMP
		input.Stock = 0
		input.CMP = decimal.Zero
		if err := tx.InsertProduct(ctx, input); err != nil {
			return err
		}
		if openingQty > 0 {
			if s.opening == nil {
				return errors.New("masterdata: opening balance recorder not configured")
			}
			if err := s.opening.RecordOpening(ctx, input.ID, openingQty, openingCost, s.now()); err != nil {
				return err
			}
		}
		p, err := tx.GetProduct(ctx, input.ID)
		if err != nil {
			return err
		}
		saved = p
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	action := "PRODUCT_UPDATE"
	if created {
		action = "PRODUCT_CREATE"
	}
	s.recordAudit(ctx, action, "product", saved.ID, map[string]any{"sku": saved.SKU})
	return saved, nil
}

// SaveSupplier creates or edits a supplier.
func (s *Service) SaveSupplier(ctx context.Context, input Supplier) (Supplier, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Currency == "" {
		input.Currency = "EUR"
	}
	if err := s.validate.Struct(input); err != nil {
		return Supplier{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpsertSupplier(ctx, input)
	})
	if err != nil {
		return Supplier{}, err
	}
	s.recordAudit(ctx, "SUPPLIER_SAVE", "supplier", input.ID, map[string]any{"name": input.Name})
	return input, nil
}

// UpdateSettings replaces the settings record.
func (s *Service) UpdateSettings(ctx context.Context, input Settings) (Settings, error) {
	if err := s.validate.Struct(input); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if input.TaxDefault.IsNegative() {
		return Settings{}, fmt.Errorf("%w: tva must be >= 0", ErrValidation)
	}
	input.UpdatedAt = s.now().UTC()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SaveSettings(ctx, input)
	})
	if err != nil {
		return Settings{}, err
	}
	s.recordAudit(ctx, "SETTINGS_UPDATE", "settings", "default", map[string]any{"z": input.ServiceLevelZ, "window": input.ReorderWindowDays})
	return input, nil
}

func (s *Service) validateProduct(p Product) error {
	if err := s.validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	for name, v := range map[string]decimal.Decimal{
		"price_retail":    p.PriceRetail,
		"price_wholesale": p.PriceWholesale,
		"tax_rate":        p.TaxRate,
		"cmp":             p.CMP,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s must be >= 0", ErrValidation, name)
		}
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action, entity, id string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: entity, EntityID: id, Meta: meta})
}
