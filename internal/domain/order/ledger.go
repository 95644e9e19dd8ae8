package order

import (
	"time"

	"github.com/xenking/marketbarrio/internal/domain/cart"
	"github.com/xenking/marketbarrio/internal/domain/pricing"
)

// Ledger is the newest-first history of placed orders.
//
// Ledger is not safe for concurrent use.
type Ledger struct {
	orders []Order
	ids    *IDGenerator
	now    func() time.Time
}

// NewLedger restores a ledger from stored orders (newest first). Order IDs
// are reported to ids so that new orders never reuse them.
func NewLedger(orders []Order, ids *IDGenerator) *Ledger {
	l := &Ledger{
		orders: make([]Order, len(orders)),
		ids:    ids,
		now:    time.Now,
	}
	for i, o := range orders {
		l.orders[i] = o.Clone()
		ids.Observe(o.ID)
	}
	return l
}

// Place validates the checkout data and the cart, then records a snapshot
// of the cart with the given summary and empties the cart. On validation
// failure neither the cart nor the ledger is modified.
func (l *Ledger) Place(c *cart.Ledger, info Checkout, summary pricing.Summary) (Order, error) {
	if err := info.validate(); err != nil {
		return Order{}, err
	}
	if c.IsEmpty() {
		return Order{}, ErrEmptyCart
	}

	payment := info.PaymentMethod
	if payment == "" {
		payment = PaymentCashOnDelivery
	}

	now := l.now()
	o := Order{
		ID:              l.ids.Next(now),
		CreatedAt:       now,
		Status:          StatusReceived,
		PaymentMethod:   payment,
		CustomerName:    info.Name,
		CustomerPhone:   info.Phone,
		CustomerAddress: info.Address,
		Items:           c.Items(),
		Subtotal:        summary.Subtotal,
		Delivery:        summary.Delivery,
		Total:           summary.Total,
	}

	l.orders = append([]Order{o}, l.orders...)
	c.Clear()

	return o.Clone(), nil
}

// ClearHistory removes every order.
func (l *Ledger) ClearHistory() {
	l.orders = nil
}

// Orders returns deep copies of all orders, newest first.
func (l *Ledger) Orders() []Order {
	out := make([]Order, len(l.orders))
	for i, o := range l.orders {
		out[i] = o.Clone()
	}
	return out
}

// Find returns the order with the given id.
func (l *Ledger) Find(id int64) (Order, error) {
	for _, o := range l.orders {
		if o.ID == id {
			return o.Clone(), nil
		}
	}
	return Order{}, ErrNotFound
}

// Len returns the number of orders.
func (l *Ledger) Len() int {
	return len(l.orders)
}
