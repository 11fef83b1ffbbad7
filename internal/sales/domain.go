package sales

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// ORDER
// ============================================================================

type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPrepared  OrderStatus = "PREPARED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Valuated reports whether stock and COGS have been applied for the status.
func (s OrderStatus) Valuated() bool {
	switch s {
	case OrderStatusConfirmed, OrderStatusPrepared, OrderStatusDelivered:
		return true
	default:
		return false
	}
}

const (
	ChannelBoutique  = "Boutique"
	DefaultPayMode   = "Espèces"
	ManualCreditName = "Crédit manuel"
	DefaultClient    = "Client"
)

type Order struct {
	ID         string          `json:"id"`
	Number     string          `json:"number"`
	Date       time.Time       `json:"date"`
	ClientName string          `json:"client_name" validate:"required,max=200"`
	Status     OrderStatus     `json:"status"`
	Channel    string          `json:"channel" validate:"max=50"`
	Discount   decimal.Decimal `json:"discount"`
	Shipping   decimal.Decimal `json:"shipping"`
	Note       string          `json:"note,omitempty" validate:"max=500"`
	Lines      []OrderLine     `json:"lines" validate:"required,min=1,dive"`
	Payments   []Payment       `json:"payments"`
}

// OrderLine snapshots the product name and price at capture time. ProductID is empty for
// manual credit lines.
type OrderLine struct {
	ProductID string          `json:"product_id,omitempty"`
	Name      string          `json:"name" validate:"max=200"`
	Qty       int             `json:"qty" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CogsUnit  decimal.Decimal `json:"cogs_unit"`
}

// Manual reports whether the line carries no stock effect.
func (l OrderLine) Manual() bool {
	return l.ProductID == ""
}

// Revenue returns qty × unit price.
func (l OrderLine) Revenue() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Cogs returns qty × frozen cost.
func (l OrderLine) Cogs() decimal.Decimal {
	return l.CogsUnit.Mul(decimal.NewFromInt(int64(l.Qty)))
}

type Payment struct {
	Mode   string          `json:"mode"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}

// ============================================================================
// DERIVED VIEWS
// ============================================================================

// Totals are the derived amounts printed on an invoice.
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
	Paid      decimal.Decimal `json:"paid"`
	Remaining decimal.Decimal `json:"remaining"`
	Cogs      decimal.Decimal `json:"cogs"`
	Margin    decimal.Decimal `json:"margin"`
}

type Receivable struct {
	OrderID    string          `json:"order_id"`
	Number     string          `json:"number"`
	ClientName string          `json:"client_name"`
	Date       time.Time       `json:"date"`
	Total      decimal.Decimal `json:"total"`
	Paid       decimal.Decimal `json:"paid"`
	Remaining  decimal.Decimal `json:"remaining"`
}

type TopProduct struct {
	ProductID string          `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type DayRevenue struct {
	Day     string          `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Stats struct {
	Revenue    decimal.Decimal `json:"revenue"`
	Cogs       decimal.Decimal `json:"cogs"`
	Margin     decimal.Decimal `json:"margin"`
	Units      int             `json:"units"`
	Orders     int             `json:"orders"`
	Valuated   int             `json:"valuated"`
	AOV        decimal.Decimal `json:"aov"`
	StockValue decimal.Decimal `json:"stock_value"`
	LowStock   []string        `json:"low_stock"`
	Top        []TopProduct    `json:"top"`
	Series     []DayRevenue    `json:"series"`
}

// ============================================================================
// INPUTS
// ============================================================================

type PaymentInput struct {
	Mode   string
	Amount decimal.Decimal
	Date   time.Time
}

type ManualCreditInput struct {
	ClientName string
	Date       time.Time
	Amount     decimal.Decimal
	Note       string
}

var (
	ErrNotFound      = errors.New("sales: not found")
	ErrInvalidState  = errors.New("sales: invalid state")
	ErrInvalidAmount = errors.New("sales: amount must be positive")
	ErrValidation    = errors.New("sales: validation error")
)
