// Package pricing computes cart subtotals, delivery fees and totals.
package pricing

import "github.com/shopspring/decimal"

// DefaultPolicy charges a flat 6.00 delivery fee below a 35.00 subtotal.
var DefaultPolicy = Policy{
	FreeThreshold: decimal.NewFromInt(35),
	FlatFee:       decimal.NewFromInt(6),
}

// Policy defines the delivery fee rule.
type Policy struct {
	// FreeThreshold is the subtotal from which delivery is free.
	FreeThreshold decimal.Decimal
	// FlatFee is charged for non-empty carts below FreeThreshold.
	FlatFee decimal.Decimal
}

// Summary holds the derived totals of a cart.
type Summary struct {
	Subtotal decimal.Decimal
	Delivery decimal.Decimal
	Total    decimal.Decimal
}

// Line is a priced cart line.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Amount returns price * quantity.
func (l Line) Amount() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Summarize computes the summary for the given lines.
func (p Policy) Summarize(lines []Line) Summary {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Amount())
	}

	delivery := p.FlatFee
	if subtotal.IsZero() || subtotal.GreaterThanOrEqual(p.FreeThreshold) {
		delivery = decimal.Zero
	}

	return Summary{
		Subtotal: subtotal,
		Delivery: delivery,
		Total:    subtotal.Add(delivery),
	}
}
