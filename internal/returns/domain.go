package returns

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultReason is used when a return is recorded without one.
const DefaultReason = "Défectueux"

// Return is a customer return. Restocked goods re-enter stock at UnitCost (zero unless
// given); the others are written off.
type Return struct {
	ID         string          `json:"id"`
	Date       time.Time       `json:"date"`
	ProductID  string          `json:"product_id" validate:"required"`
	Qty        int             `json:"qty"`
	Reason     string          `json:"reason" validate:"max=200"`
	Restock    bool            `json:"restock"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	MovementID string          `json:"movement_id"`
}

// View pairs a return with the resolved product name.
type View struct {
	Return
	ProductName string `json:"product_name"`
}

var (
	// ErrInvalidQuantity rejects returns of zero or negative quantity.
	ErrInvalidQuantity = errors.New("returns: quantity must be positive")
	// ErrValidation indicates invalid payload.
	ErrValidation = errors.New("returns: validation error")
)
