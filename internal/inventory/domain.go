package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType enumerates stock ledger movements.
type MovementType string

const (
	// MovementEntry is an inbound movement (PO reception, restocked return).
	MovementEntry MovementType = "entry"
	// MovementExit is an outbound movement (order confirmation).
	MovementExit MovementType = "exit"
	// MovementAdjustment carries a signed delta (opening balance, write-off).
	MovementAdjustment MovementType = "adjustment"
)

// Well-known movement references.
const (
	RefReturn   = "RET"
	RefWriteOff = "Casse"
	RefOpening  = "OPENING"
)

// Movement is an immutable stock ledger record. Entry and exit quantities are magnitudes;
// adjustment quantities are signed.
type Movement struct {
	ID        string          `json:"id"`
	Seq       int64           `json:"seq"`
	Date      time.Time       `json:"date"`
	ProductID string          `json:"product_id"`
	Type      MovementType    `json:"type"`
	Qty       int             `json:"qty"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Ref       string          `json:"ref"`
	Shortfall int             `json:"shortfall,omitempty"`
}

// Delta returns the signed stock change carried by the movement.
func (m Movement) Delta() int {
	switch m.Type {
	case MovementExit:
		return -m.Qty
	default:
		return m.Qty
	}
}

// MovementView pairs a movement with the resolved product name.
type MovementView struct {
	Movement
	ProductName string `json:"product_name"`
}

// MovementFilter narrows ledger listings.
type MovementFilter struct {
	ProductID string
	Type      MovementType
	From      time.Time
	To        time.Time
	Limit     int
}

// Match reports whether m passes the filter (limit excluded).
func (f MovementFilter) Match(m Movement) bool {
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if !f.From.IsZero() && m.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && m.Date.After(f.To) {
		return false
	}
	return true
}

// StockCardEntry describes one ledger line with running balances.
type StockCardEntry struct {
	Date        time.Time       `json:"date"`
	Type        MovementType    `json:"type"`
	Ref         string          `json:"ref"`
	QtyIn       int             `json:"qty_in"`
	QtyOut      int             `json:"qty_out"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	BalanceQty  int             `json:"balance_qty"`
	BalanceCost decimal.Decimal `json:"balance_cost"`
}

// OverIssuePolicy decides what happens when an issue exceeds on-hand stock.
type OverIssuePolicy string

const (
	// OverIssueClamp floors stock at zero and reports the absorbed shortfall.
	OverIssueClamp OverIssuePolicy = "clamp"
	// OverIssueReject refuses the issue with ErrInsufficientStock.
	OverIssueReject OverIssuePolicy = "reject"
)

// ParseOverIssuePolicy validates a configured policy name.
func ParseOverIssuePolicy(s string) (OverIssuePolicy, error) {
	switch OverIssuePolicy(s) {
	case "", OverIssueClamp:
		return OverIssueClamp, nil
	case OverIssueReject:
		return OverIssueReject, nil
	default:
		return "", fmt.Errorf("inventory: unknown over-issue policy %q", s)
	}
}

// IssueResult reports what an issue actually removed from stock.
type IssueResult struct {
	Requested int `json:"requested"`
	Issued    int `json:"issued"`
	Shortfall int `json:"shortfall"`
}

// Clamped reports whether part of the issue was absorbed by the zero floor.
func (r IssueResult) Clamped() bool {
	return r.Shortfall > 0
}

// ReceiptInput describes a positive receipt at a unit cost.
type ReceiptInput struct {
	ProductID string
	Qty       int
	UnitCost  decimal.Decimal
	Ref       string
	Date      time.Time
}

// IssueInput describes a sale issue; the cost recorded is the product CMP at issue time.
type IssueInput struct {
	ProductID string
	Qty       int
	Ref       string
	Date      time.Time
}

// AdjustmentInput describes a signed adjustment.
type AdjustmentInput struct {
	ProductID string
	Qty       int
	UnitCost  decimal.Decimal
	Ref       string
	Date      time.Time
}

var (
	// ErrInvalidQuantity indicates invalid qty.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
	// ErrInvalidUnitCost indicates invalid cost value.
	ErrInvalidUnitCost = errors.New("inventory: unit cost must be >= 0")
	// ErrInsufficientStock is returned under OverIssueReject.
	ErrInsufficientStock = errors.New("inventory: issue exceeds stock on hand")
	// ErrProductNotFound indicates the movement references an unknown product.
	ErrProductNotFound = errors.New("inventory: product not found")
)
