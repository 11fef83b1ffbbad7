package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ambrevelours/av-suite/internal/masterdata"
)

// WeightedAverage blends the current cost basis with a receipt.
func WeightedAverage(prevCMP decimal.Decimal, prevQty int, qty int, unitCost decimal.Decimal) decimal.Decimal {
	totalQty := prevQty + qty
	if totalQty <= 0 {
		return decimal.Zero
	}
	totalCost := prevCMP.Mul(decimal.NewFromInt(int64(prevQty))).Add(unitCost.Mul(decimal.NewFromInt(int64(qty))))
	return totalCost.Div(decimal.NewFromInt(int64(totalQty)))
}

// ApplyReceipt returns p after receiving qty units at unitCost.
func ApplyReceipt(p masterdata.Product, qty int, unitCost decimal.Decimal) (masterdata.Product, error) {
	if qty <= 0 {
		return p, ErrInvalidQuantity
	}
	if unitCost.IsNegative() {
		return p, ErrInvalidUnitCost
	}
	p.CMP = WeightedAverage(p.CMP, p.Stock, qty, unitCost)
	p.Stock += qty
	return p, nil
}

// ApplyIssue returns p after issuing qty units. CMP is never changed by an issue.
func ApplyIssue(p masterdata.Product, qty int, policy OverIssuePolicy) (masterdata.Product, IssueResult, error) {
	if qty <= 0 {
		return p, IssueResult{}, ErrInvalidQuantity
	}
	res := IssueResult{Requested: qty, Issued: qty}
	if qty > p.Stock {
		if policy == OverIssueReject {
			return p, IssueResult{}, fmt.Errorf("%w: product %s has %d, requested %d", ErrInsufficientStock, p.ID, p.Stock, qty)
		}
		res.Issued = p.Stock
		res.Shortfall = qty - p.Stock
	}
	p.Stock -= res.Issued
	return p, res, nil
}
