package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ambrevelours/av-suite/internal/masterdata"
)

// Position is the stock and cost basis derived for one product.
type Position struct {
	Stock int             `json:"stock"`
	CMP   decimal.Decimal `json:"cmp"`
}

// Drift describes a product whose record disagrees with its ledger.
type Drift struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Stock       int             `json:"stock"`
	LedgerStock int             `json:"ledger_stock"`
	CMP         decimal.Decimal `json:"cmp"`
	LedgerCMP   decimal.Decimal `json:"ledger_cmp"`
}

// VerifyReport summarises a ledger replay.
type VerifyReport struct {
	Products  int     `json:"products"`
	Movements int     `json:"movements"`
	Drifts    []Drift `json:"drifts"`
}

// OK reports whether every product matches its ledger.
func (r VerifyReport) OK() bool {
	return len(r.Drifts) == 0
}

var cmpTolerance = decimal.New(1, -6)

// Replay derives stock and CMP per product from the ledger. Movements are applied by Seq;
// issues always clamp because a rejected issue is never recorded.
func Replay(movements []Movement) map[string]Position {
	ordered := make([]Movement, len(movements))
	copy(ordered, movements)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	products := make(map[string]masterdata.Product)
	for _, m := range ordered {
		p := products[m.ProductID]
		p.ID = m.ProductID
		delta := m.Delta()
		switch {
		case delta > 0:
			p, _ = ApplyReceipt(p, delta, m.UnitCost)
		case delta < 0:
			p, _, _ = ApplyIssue(p, -delta, OverIssueClamp)
		}
		products[m.ProductID] = p
	}
	out := make(map[string]Position, len(products))
	for id, p := range products {
		out[id] = Position{Stock: p.Stock, CMP: p.CMP}
	}
	return out
}

// Verify compares product records with the positions replayed from the ledger.
func Verify(products []masterdata.Product, movements []Movement) VerifyReport {
	positions := Replay(movements)
	report := VerifyReport{Products: len(products), Movements: len(movements)}
	for _, p := range products {
		pos := positions[p.ID]
		if pos.Stock == p.Stock && pos.CMP.Sub(p.CMP).Abs().LessThanOrEqual(cmpTolerance) {
			continue
		}
		report.Drifts = append(report.Drifts, Drift{
			ProductID:   p.ID,
			ProductName: p.Name,
			Stock:       p.Stock,
			LedgerStock: pos.Stock,
			CMP:         p.CMP,
			LedgerCMP:   pos.CMP,
		})
	}
	return report
}

// BuildStockCard turns one product's movements into running balances, oldest first.
func BuildStockCard(movements []Movement) []StockCardEntry {
	ordered := make([]Movement, len(movements))
	copy(ordered, movements)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	var p masterdata.Product
	cards := make([]StockCardEntry, 0, len(ordered))
	for _, m := range ordered {
		delta := m.Delta()
		entry := StockCardEntry{Date: m.Date, Type: m.Type, Ref: m.Ref, UnitCost: m.UnitCost}
		switch {
		case delta > 0:
			p, _ = ApplyReceipt(p, delta, m.UnitCost)
			entry.QtyIn = delta
		case delta < 0:
			p, _, _ = ApplyIssue(p, -delta, OverIssueClamp)
			entry.QtyOut = -delta
		}
		entry.BalanceQty = p.Stock
		entry.BalanceCost = p.CMP
		cards = append(cards, entry)
	}
	return cards
}
