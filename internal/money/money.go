// Package money holds the numeric helpers shared by the valuation, purchasing and sales code.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "FCFA"

// Placeholder is rendered for unresolved references.
const Placeholder = "—"

var printer = message.NewPrinter(language.French)

// Coerce converts loosely typed input into a decimal. Invalid or empty input yields zero.
func Coerce(v any) decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return n
	case *decimal.Decimal:
		if n == nil {
			return decimal.Zero
		}
		return *n
	case int:
		return decimal.NewFromInt(int64(n))
	case int32:
		return decimal.NewFromInt32(n)
	case int64:
		return decimal.NewFromInt(n)
	case float32:
		return fromFloat(float64(n))
	case float64:
		return fromFloat(n)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", "."))
		if s == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	case fmt.Stringer:
		return Coerce(n.String())
	default:
		return decimal.Zero
	}
}

// CoerceInt converts loosely typed input into an integer quantity, truncating toward zero.
func CoerceInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return int(Coerce(v).IntPart())
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// Sum adds f(item) over items.
func Sum[T any](items []T, f func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(f(item))
	}
	return total
}

// SumInt adds f(item) over items.
func SumInt[T any](items []T, f func(T) int) int {
	total := 0
	for _, item := range items {
		total += f(item)
	}
	return total
}

// Round rounds to two decimal places for display totals.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Format renders an amount with French digit grouping followed by the currency code.
func Format(d decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	if d.Equal(d.Truncate(0)) {
		return printer.Sprintf("%d", d.IntPart()) + " " + currency
	}
	return printer.Sprintf("%.2f", d.InexactFloat64()) + " " + currency
}
