package procurement

import (
	"github.com/shopspring/decimal"

	"github.com/ambrevelours/av-suite/internal/money"
)

// Allocate prorates totalFee across lines and returns copies carrying FeeAlloc.
// A zero denominator is replaced by 1, leaving the fee undistributed.
func Allocate(totalFee decimal.Decimal, lines []POLine, mode FeeMode) []POLine {
	out := make([]POLine, len(lines))
	copy(out, lines)
	if !totalFee.IsPositive() {
		for i := range out {
			out[i].FeeAlloc = decimal.Zero
		}
		return out
	}
	weights := make([]decimal.Decimal, len(out))
	denominator := decimal.Zero
	for i, line := range out {
		if mode == FeeByValue {
			weights[i] = line.Value()
		} else {
			weights[i] = decimal.NewFromInt(int64(line.Qty))
		}
		denominator = denominator.Add(weights[i])
	}
	if denominator.IsZero() {
		denominator = decimal.NewFromInt(1)
	}
	for i := range out {
		out[i].FeeAlloc = weights[i].Mul(totalFee).Div(denominator)
	}
	return out
}

// ComputeTotals derives goods, fee and grand totals.
func ComputeTotals(po PurchaseOrder) Totals {
	goods := money.Sum(po.Lines, POLine.Value)
	fees := po.FeeTotal()
	return Totals{Goods: goods, Fees: fees, Total: goods.Add(fees)}
}
