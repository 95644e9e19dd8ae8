package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xenking/marketbarrio/internal/domain/pricing"
)

// MaxQuantity is the largest quantity a single cart line may hold.
const MaxQuantity = 99

// Item is a single cart line.
type Item struct {
	ProductID string
	Quantity  int
}

// PriceLookup resolves the current unit price of a product.
type PriceLookup interface {
	Price(productID string) (decimal.Decimal, bool)
}

// Ledger is the ordered set of cart lines, one per product, in first-add
// order. Quantities are always within [1, MaxQuantity].
//
// Ledger is not safe for concurrent use.
type Ledger struct {
	items []Item
}

// NewLedger restores a ledger from previously stored items. Entries with a
// non-positive quantity are dropped, quantities are clamped and duplicate
// products are merged into their first occurrence.
func NewLedger(items []Item) *Ledger {
	l := &Ledger{}
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		l.Add(item.ProductID, item.Quantity)
	}
	return l
}

// Add merges quantity into the line for productID, appending a new line if
// none exists. A non-positive quantity adds a single unit.
func (l *Ledger) Add(productID string, quantity int) {
	quantity = min(max(quantity, 1), MaxQuantity)
	if i := l.index(productID); i >= 0 {
		l.items[i].Quantity = min(l.items[i].Quantity+quantity, MaxQuantity)
		return
	}
	l.items = append(l.items, Item{ProductID: productID, Quantity: quantity})
}

// SetQuantity replaces the quantity of an existing line, clamped to
// [1, MaxQuantity]. A non-positive quantity removes the line. Unknown
// products are ignored. It reports whether the line was removed.
func (l *Ledger) SetQuantity(productID string, quantity int) (removed bool) {
	if quantity <= 0 {
		l.Remove(productID)
		return true
	}
	if i := l.index(productID); i >= 0 {
		l.items[i].Quantity = min(max(quantity, 1), MaxQuantity)
	}
	return false
}

// Remove deletes the line for productID, if any.
func (l *Ledger) Remove(productID string) {
	l.items = slices.DeleteFunc(l.items, func(item Item) bool {
		return item.ProductID == productID
	})
}

// Clear empties the ledger.
func (l *Ledger) Clear() {
	l.items = nil
}

// Items returns a copy of the cart lines.
func (l *Ledger) Items() []Item {
	return slices.Clone(l.items)
}

// Quantity returns the quantity held for productID, or 0.
func (l *Ledger) Quantity(productID string) int {
	if i := l.index(productID); i >= 0 {
		return l.items[i].Quantity
	}
	return 0
}

// Len returns the number of distinct lines.
func (l *Ledger) Len() int {
	return len(l.items)
}

// IsEmpty reports whether the cart has no lines.
func (l *Ledger) IsEmpty() bool {
	return len(l.items) == 0
}

// Count returns the total number of units across all lines.
func (l *Ledger) Count() int {
	total := 0
	for _, item := range l.items {
		total += item.Quantity
	}
	return total
}

// Summary computes the cart totals against current prices. Lines whose
// product is unknown contribute nothing.
func (l *Ledger) Summary(prices PriceLookup, policy pricing.Policy) pricing.Summary {
	lines := make([]pricing.Line, 0, len(l.items))
	for _, item := range l.items {
		price, ok := prices.Price(item.ProductID)
		if !ok {
			continue
		}
		lines = append(lines, pricing.Line{Price: price, Quantity: item.Quantity})
	}
	return policy.Summarize(lines)
}

func (l *Ledger) index(productID string) int {
	return slices.IndexFunc(l.items, func(item Item) bool {
		return item.ProductID == productID
	})
}
