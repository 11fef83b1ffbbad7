// Package replenish projects reorder suggestions from catalog, sales history and settings.
// Nothing here mutates state.
package replenish

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ambrevelours/av-suite/internal/masterdata"
	"github.com/ambrevelours/av-suite/internal/sales"
)

const (
	defaultLeadTimeDays = 14
	defaultWindowDays   = 60
	defaultServiceLevel = 1.65
	minimumTarget       = 4
)

// Suggestion is the advisory reorder line of one product.
type Suggestion struct {
	ProductID    string          `json:"product_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Stock        int             `json:"stock"`
	Min          int             `json:"min"`
	Target       int             `json:"target"`
	SoldWindow   int             `json:"sold_window"`
	DailyDemand  float64         `json:"daily_demand"`
	SafetyStock  float64         `json:"safety_stock"`
	ReorderPoint float64         `json:"reorder_point"`
	Suggested    int             `json:"suggested"`
	MOQ          int             `json:"moq"`
	OrderValue   decimal.Decimal `json:"order_value"`
	HoldingCost  decimal.Decimal `json:"holding_cost"`
}

// Suggest computes one suggestion per product. Demand counts product lines of orders dated
// on or after the first day of the lookback window.
func Suggest(products []masterdata.Product, orders []sales.Order, settings masterdata.Settings, now time.Time) []Suggestion {
	window := settings.ReorderWindowDays
	if window <= 0 {
		window = defaultWindowDays
	}
	z := settings.ServiceLevelZ
	if z == 0 {
		z = defaultServiceLevel
	}
	sold := SoldSince(orders, cutoffDay(now, window))

	out := make([]Suggestion, 0, len(products))
	for _, p := range products {
		qty := sold[p.ID]
		d := float64(qty) / math.Max(1, float64(window))
		lead := p.LeadTimeDays
		if lead <= 0 {
			lead = defaultLeadTimeDays
		}
		sigma := math.Sqrt(math.Max(0, d*(1-d)))
		ss := z * sigma * math.Sqrt(float64(lead))
		rop := d*float64(lead) + ss
		target := p.Target
		if target <= 0 {
			target = max(p.Min*2, minimumTarget)
		}
		suggested := 0
		if p.BelowMin() {
			suggested = max(0, target-p.Stock)
		}
		out = append(out, Suggestion{
			ProductID:    p.ID,
			SKU:          p.SKU,
			Name:         p.Name,
			Stock:        p.Stock,
			Min:          p.Min,
			Target:       target,
			SoldWindow:   qty,
			DailyDemand:  d,
			SafetyStock:  ss,
			ReorderPoint: rop,
			Suggested:    suggested,
			MOQ:          p.MOQ,
			OrderValue:   p.CMP.Mul(decimal.NewFromInt(int64(suggested))),
			HoldingCost:  p.CMP.Mul(decimal.NewFromFloat(ss * settings.HoldingRate)).Round(2),
		})
	}
	return out
}

// SoldSince sums product-line quantities of orders dated on or after cutoff.
func SoldSince(orders []sales.Order, cutoff time.Time) map[string]int {
	sold := make(map[string]int)
	for _, o := range orders {
		if o.Date.UTC().Before(cutoff) {
			continue
		}
		for _, line := range o.Lines {
			if line.Manual() {
				continue
			}
			sold[line.ProductID] += line.Qty
		}
	}
	return sold
}

// Pending keeps the suggestions that ask for stock.
func Pending(suggestions []Suggestion) []Suggestion {
	var out []Suggestion
	for _, s := range suggestions {
		if s.Suggested > 0 {
			out = append(out, s)
		}
	}
	return out
}

func cutoffDay(now time.Time, days int) time.Time {
	c := now.UTC().AddDate(0, 0, -days)
	return time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, time.UTC)
}
