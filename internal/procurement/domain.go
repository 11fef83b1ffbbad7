package procurement

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// POStatus enumerates purchase order lifecycle states.
type POStatus string

const (
	POStatusDraft    POStatus = "DRAFT"
	POStatusOrdered  POStatus = "ORDERED"
	POStatusReceived POStatus = "RECEIVED"
)

// FeeMode selects how PO fees are prorated across lines.
type FeeMode string

const (
	FeePerUnit FeeMode = "per_unit"
	FeeByValue FeeMode = "by_value"
)

// PurchaseOrder is a supplier order with lump fees.
type PurchaseOrder struct {
	ID           string          `json:"id"`
	Number       string          `json:"number"`
	Date         time.Time       `json:"date"`
	SupplierID   string          `json:"supplier_id"`
	Status       POStatus        `json:"status"`
	FeeMode      FeeMode         `json:"fee_mode" validate:"omitempty,oneof=per_unit by_value"`
	FeeShipping  decimal.Decimal `json:"fee_shipping"`
	FeeCustoms   decimal.Decimal `json:"fee_customs"`
	FeePackaging decimal.Decimal `json:"fee_packaging"`
	Note         string          `json:"note,omitempty" validate:"max=500"`
	Lines        []POLine        `json:"lines" validate:"required,min=1,dive"`
	ReceivedAt   *time.Time      `json:"received_at,omitempty"`
}

// FeeTotal sums the three fee buckets.
func (po PurchaseOrder) FeeTotal() decimal.Decimal {
	return po.FeeShipping.Add(po.FeeCustoms).Add(po.FeePackaging)
}

// Received reports whether stock has been applied.
func (po PurchaseOrder) Received() bool {
	return po.Status == POStatusReceived
}

// POLine is one ordered product. FeeAlloc is computed, never entered.
type POLine struct {
	ProductID string          `json:"product_id" validate:"required"`
	Qty       int             `json:"qty" validate:"gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	FeeAlloc  decimal.Decimal `json:"fee_alloc"`
}

// Value returns qty × unit cost before fees.
func (l POLine) Value() decimal.Decimal {
	return l.UnitCost.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// LandedUnitCost returns the unit cost including the line's fee share.
func (l POLine) LandedUnitCost() decimal.Decimal {
	qty := l.Qty
	if qty < 1 {
		qty = 1
	}
	return l.UnitCost.Add(l.FeeAlloc.Div(decimal.NewFromInt(int64(qty))))
}

// LandedLine is a PO line with its resolved product name and landed cost.
type LandedLine struct {
	POLine
	ProductName    string          `json:"product_name"`
	LandedUnitCost decimal.Decimal `json:"landed_unit_cost"`
	LandedTotal    decimal.Decimal `json:"landed_total"`
}

// Totals are the derived amounts printed on a purchase order.
type Totals struct {
	Goods decimal.Decimal `json:"goods"`
	Fees  decimal.Decimal `json:"fees"`
	Total decimal.Decimal `json:"total"`
}

// Preview is the read-only view of a PO with fees allocated.
type Preview struct {
	Order        PurchaseOrder `json:"order"`
	SupplierName string        `json:"supplier_name"`
	Lines        []LandedLine  `json:"lines"`
	Totals       Totals        `json:"totals"`
}

var (
	// ErrNotFound indicates missing entity.
	ErrNotFound = errors.New("procurement: not found")
	// ErrInvalidState indicates the PO cannot move to the requested state.
	ErrInvalidState = errors.New("procurement: invalid state")
	// ErrValidation indicates invalid payload.
	ErrValidation = errors.New("procurement: validation error")
	// ErrDuplicateNumber indicates a PO number already in use.
	ErrDuplicateNumber = errors.New("procurement: duplicate PO number")
)
