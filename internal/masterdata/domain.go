package masterdata

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ambrevelours/av-suite/internal/money"
)

// Placeholder is displayed when a referenced record no longer exists.
const Placeholder = money.Placeholder

// Product is a catalog item. Stock and CMP are owned by the inventory valuation engine.
type Product struct {
	ID             string          `json:"id"`
	SKU            string          `json:"sku" validate:"required,max=64"`
	Name           string          `json:"name" validate:"required,max=200"`
	Brand          string          `json:"brand,omitempty" validate:"max=100"`
	Family         string          `json:"family,omitempty" validate:"max=100"`
	VolumeML       int             `json:"volume_ml,omitempty" validate:"gte=0"`
	PriceRetail    decimal.Decimal `json:"price_retail"`
	PriceWholesale decimal.Decimal `json:"price_wholesale"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	Stock          int             `json:"stock" validate:"gte=0"`
	CMP            decimal.Decimal `json:"cmp"`
	Min            int             `json:"min" validate:"gte=0"`
	Target         int             `json:"target" validate:"gte=0"`
	LeadTimeDays   int             `json:"lead_time_days" validate:"gte=0"`
	MOQ            int             `json:"moq" validate:"gte=0"`
}

// StockValue returns stock × CMP.
func (p Product) StockValue() decimal.Decimal {
	return p.CMP.Mul(decimal.NewFromInt(int64(p.Stock)))
}

// BelowMin reports whether stock is at or under the minimum.
func (p Product) BelowMin() bool {
	return p.Stock <= p.Min
}

// Supplier is referenced by purchase orders.
type Supplier struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required,max=200"`
	Contact  string `json:"contact,omitempty" validate:"max=200"`
	LeadDays int    `json:"lead_days" validate:"gte=0"`
	MOQ      int    `json:"moq" validate:"gte=0"`
	Currency string `json:"currency" validate:"max=8"`
}

// Settings is the process-wide configuration read by valuation and replenishment.
type Settings struct {
	TaxDefault        decimal.Decimal `json:"tva"`
	ServiceLevelZ     float64         `json:"service_level_z" validate:"gte=0,lte=5"`
	ReorderWindowDays int             `json:"reorder_window_days" validate:"gte=1,lte=3650"`
	HoldingRate       float64         `json:"holding_rate" validate:"gte=0,lte=1"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// DefaultSettings mirrors the values shipped with a fresh install.
func DefaultSettings() Settings {
	return Settings{
		TaxDefault:        decimal.RequireFromString("0.18"),
		ServiceLevelZ:     1.65,
		ReorderWindowDays: 60,
		HoldingRate:       0.25,
	}
}

// NameOf resolves a product name, falling back to Placeholder.
func NameOf(products []Product, id string) string {
	for _, p := range products {
		if p.ID == id {
			return p.Name
		}
	}
	return Placeholder
}

var (
	// ErrNotFound indicates the record is missing.
	ErrNotFound = errors.New("masterdata: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("masterdata: invalid input")
)
