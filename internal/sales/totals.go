package sales

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ambrevelours/av-suite/internal/masterdata"
	"github.com/ambrevelours/av-suite/internal/money"
)

const (
	seriesDays = 14
	topLimit   = 5
	dayLayout  = "2006-01-02"
)

// ComputeTotals derives the invoice amounts of an order.
func ComputeTotals(o Order) Totals {
	t := Totals{
		Subtotal: money.Sum(o.Lines, OrderLine.Revenue),
		Cogs:     money.Sum(o.Lines, OrderLine.Cogs),
		Paid:     money.Sum(o.Payments, func(p Payment) decimal.Decimal { return p.Amount }),
		Discount: o.Discount,
		Shipping: o.Shipping,
	}
	t.Total = t.Subtotal.Sub(o.Discount).Add(o.Shipping)
	t.Remaining = t.Total.Sub(t.Paid)
	t.Margin = t.Total.Sub(t.Cogs)
	return t
}

// BuildReceivables lists non-cancelled orders with an outstanding balance, largest first.
func BuildReceivables(orders []Order) []Receivable {
	var out []Receivable
	for _, o := range orders {
		if o.Status == OrderStatusCancelled {
			continue
		}
		t := ComputeTotals(o)
		rest := decimal.Max(decimal.Zero, t.Remaining)
		if !rest.IsPositive() {
			continue
		}
		out = append(out, Receivable{
			OrderID:    o.ID,
			Number:     o.Number,
			ClientName: o.ClientName,
			Date:       o.Date,
			Total:      t.Total,
			Paid:       t.Paid,
			Remaining:  rest,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Remaining.GreaterThan(out[j].Remaining) })
	return out
}

// BuildStats aggregates KPIs over every order, with a daily series ending at now.
// StockValue and LowStock describe the catalog as it stands.
func BuildStats(orders []Order, products []masterdata.Product, now time.Time) Stats {
	st := Stats{
		Revenue:    decimal.Zero,
		Cogs:       decimal.Zero,
		AOV:        decimal.Zero,
		Orders:     len(orders),
		StockValue: money.Sum(products, masterdata.Product.StockValue),
		LowStock:   []string{},
	}
	for _, p := range products {
		if p.BelowMin() {
			st.LowStock = append(st.LowStock, p.ID)
		}
	}
	byProduct := make(map[string]decimal.Decimal)
	var productOrder []string
	byDay := make(map[string]decimal.Decimal)
	for _, o := range orders {
		t := ComputeTotals(o)
		st.Revenue = st.Revenue.Add(t.Total)
		st.Cogs = st.Cogs.Add(t.Cogs)
		st.Units += money.SumInt(o.Lines, func(l OrderLine) int { return l.Qty })
		if o.Status.Valuated() {
			st.Valuated++
		}
		day := o.Date.UTC().Format(dayLayout)
		for _, line := range o.Lines {
			if _, ok := byProduct[line.ProductID]; !ok {
				productOrder = append(productOrder, line.ProductID)
			}
			byProduct[line.ProductID] = byProduct[line.ProductID].Add(line.Revenue())
			byDay[day] = byDay[day].Add(line.Revenue())
		}
	}
	st.Margin = st.Revenue.Sub(st.Cogs)
	if st.Orders > 0 {
		st.AOV = money.Round(st.Revenue.Div(decimal.NewFromInt(int64(st.Orders))))
	}

	sort.SliceStable(productOrder, func(i, j int) bool {
		return byProduct[productOrder[i]].GreaterThan(byProduct[productOrder[j]])
	})
	for i, id := range productOrder {
		if i == topLimit {
			break
		}
		name := masterdata.Placeholder
		if id != "" {
			name = masterdata.NameOf(products, id)
		}
		st.Top = append(st.Top, TopProduct{ProductID: id, Name: name, Revenue: byProduct[id]})
	}

	today := now.UTC()
	for i := seriesDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(dayLayout)
		rev, ok := byDay[day]
		if !ok {
			rev = decimal.Zero
		}
		st.Series = append(st.Series, DayRevenue{Day: day, Revenue: rev})
	}
	return st
}
