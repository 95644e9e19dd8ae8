package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/marketbarrio/internal/domain/cart"
	"github.com/xenking/marketbarrio/internal/domain/pricing"
)

// --- Helpers ---

type priceMap map[string]decimal.Decimal

func (m priceMap) Price(id string) (decimal.Decimal, bool) {
	p, ok := m[id]
	return p, ok
}

var testPrices = priceMap{
	"rice": decimal.RequireFromString("4.50"),
	"milk": decimal.RequireFromString("3.90"),
}

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestLedger(orders ...Order) *Ledger {
	l := NewLedger(orders, NewIDGenerator())
	l.now = func() time.Time { return fixedNow }
	return l
}

func validCheckout() Checkout {
	return Checkout{
		Name:          "Rosa Quispe",
		Phone:         "987654321",
		Address:       "Jr. Las Flores 123",
		PaymentMethod: PaymentYapePlin,
	}
}

func place(t *testing.T, l *Ledger, c *cart.Ledger, info Checkout) Order {
	t.Helper()
	o, err := l.Place(c, info, c.Summary(testPrices, pricing.DefaultPolicy))
	require.NoError(t, err)
	return o
}

// --- Tests ---

func TestPlace_Success(t *testing.T) {
	l := newTestLedger()
	c := &cart.Ledger{}
	c.Add("rice", 2)

	o := place(t, l, c, validCheckout())

	assert.True(t, decimal.RequireFromString("9.00").Equal(o.Subtotal))
	assert.True(t, decimal.NewFromInt(6).Equal(o.Delivery))
	assert.True(t, decimal.RequireFromString("15.00").Equal(o.Total))
	assert.Equal(t, []cart.Item{{ProductID: "rice", Quantity: 2}}, o.Items)
	assert.Equal(t, StatusReceived, o.Status)
	assert.Equal(t, PaymentYapePlin, o.PaymentMethod)
	assert.Equal(t, "Rosa Quispe", o.CustomerName)
	assert.Equal(t, fixedNow, o.CreatedAt)
	assert.Equal(t, fixedNow.UnixMilli(), o.ID)

	assert.True(t, c.IsEmpty())
	require.Equal(t, 1, l.Len())
	assert.Equal(t, o.ID, l.Orders()[0].ID)
}

func TestPlace_DefaultPaymentMethod(t *testing.T) {
	l := newTestLedger()
	c := &cart.Ledger{}
	c.Add("milk", 1)

	info := validCheckout()
	info.PaymentMethod = ""

	o := place(t, l, c, info)
	assert.Equal(t, PaymentCashOnDelivery, o.PaymentMethod)
}

func TestPlace_EmptyCart(t *testing.T) {
	existing := Order{ID: 1, Status: StatusReceived}
	l := newTestLedger(existing)
	c := &cart.Ledger{}

	_, err := l.Place(c, validCheckout(), c.Summary(testPrices, pricing.DefaultPolicy))
	require.ErrorIs(t, err, ErrEmptyCart)

	assert.Equal(t, []Order{existing}, l.Orders())
	assert.True(t, c.IsEmpty())
}

func TestPlace_MissingCustomerInfo(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Checkout)
		wantFields []string
	}{
		{name: "missing phone", mutate: func(c *Checkout) { c.Phone = "" }, wantFields: []string{"phone"}},
		{name: "blank name", mutate: func(c *Checkout) { c.Name = "   " }, wantFields: []string{"name"}},
		{
			name:       "everything missing",
			mutate:     func(c *Checkout) { *c = Checkout{} },
			wantFields: []string{"name", "phone", "address"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger()
			c := &cart.Ledger{}
			c.Add("rice", 2)

			info := validCheckout()
			tt.mutate(&info)

			_, err := l.Place(c, info, c.Summary(testPrices, pricing.DefaultPolicy))
			require.ErrorIs(t, err, ErrMissingCustomerInfo)

			var infoErr *MissingCustomerInfoError
			require.ErrorAs(t, err, &infoErr)
			assert.Equal(t, tt.wantFields, infoErr.Fields)

			assert.Equal(t, 0, l.Len())
			assert.Equal(t, []cart.Item{{ProductID: "rice", Quantity: 2}}, c.Items())
		})
	}
}

func TestPlace_MissingInfoCheckedBeforeEmptyCart(t *testing.T) {
	l := newTestLedger()
	_, err := l.Place(&cart.Ledger{}, Checkout{}, pricing.Summary{})
	require.ErrorIs(t, err, ErrMissingCustomerInfo)
}

func TestPlace_NewestFirst(t *testing.T) {
	l := newTestLedger()
	c := &cart.Ledger{}

	c.Add("rice", 1)
	first := place(t, l, c, validCheckout())
	c.Add("milk", 1)
	second := place(t, l, c, validCheckout())

	orders := l.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
	assert.Greater(t, second.ID, first.ID, "ids must not collide under a frozen clock")
}

func TestPlace_SnapshotIndependence(t *testing.T) {
	l := newTestLedger()
	c := &cart.Ledger{}
	c.Add("rice", 2)

	o := place(t, l, c, validCheckout())

	c.Add("rice", 5)
	c.Add("milk", 1)

	got, err := l.Find(o.ID)
	require.NoError(t, err)
	assert.Equal(t, []cart.Item{{ProductID: "rice", Quantity: 2}}, got.Items)
	assert.True(t, decimal.RequireFromString("15.00").Equal(got.Total))

	// Returned copies are detached from the ledger too.
	o.Items[0].Quantity = 77
	orders := l.Orders()
	orders[0].Items[0].Quantity = 88
	got, _ = l.Find(o.ID)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestClearHistory(t *testing.T) {
	l := newTestLedger()
	c := &cart.Ledger{}
	c.Add("rice", 1)
	place(t, l, c, validCheckout())

	c.Add("milk", 3)
	l.ClearHistory()

	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Orders())
	assert.Equal(t, []cart.Item{{ProductID: "milk", Quantity: 3}}, c.Items())
}

func TestFind_NotFound(t *testing.T) {
	_, err := newTestLedger().Find(42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNewLedger_ObservesStoredIDs(t *testing.T) {
	future := fixedNow.Add(time.Hour).UnixMilli()
	l := newTestLedger(Order{ID: future, Status: StatusReceived})
	c := &cart.Ledger{}
	c.Add("rice", 1)

	o := place(t, l, c, validCheckout())
	assert.Equal(t, future+1, o.ID)
}

func TestIDGenerator_Monotonic(t *testing.T) {
	g := NewIDGenerator()
	now := fixedNow

	a := g.Next(now)
	b := g.Next(now)
	c := g.Next(now.Add(-time.Second))
	d := g.Next(now.Add(time.Second))

	assert.Equal(t, now.UnixMilli(), a)
	assert.Equal(t, a+1, b)
	assert.Equal(t, b+1, c)
	assert.Equal(t, now.Add(time.Second).UnixMilli(), d)
}

func TestIsKnownPaymentMethod(t *testing.T) {
	assert.True(t, IsKnownPaymentMethod(PaymentCashOnDelivery))
	assert.True(t, IsKnownPaymentMethod(PaymentYapePlin))
	assert.False(t, IsKnownPaymentMethod("Tarjeta"))
}
