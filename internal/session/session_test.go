package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/marketbarrio/internal/codec"
	"github.com/xenking/marketbarrio/internal/domain/cart"
	"github.com/xenking/marketbarrio/internal/domain/order"
	"github.com/xenking/marketbarrio/internal/domain/pricing"
	"github.com/xenking/marketbarrio/internal/domain/product"
	"github.com/xenking/marketbarrio/internal/storage"
	"github.com/xenking/marketbarrio/internal/storage/memory"
)

const testID = "6f1c3c1e-2b7a-4f5e-9d43-6a1f0c2b9e11"

// --- Mock implementations ---

type mockStore struct {
	mu      sync.Mutex
	values  map[string]string
	getErr  error
	setErr  error
	setHits int
}

func newMockStore() *mockStore {
	return &mockStore{values: make(map[string]string)}
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setHits++
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

// --- Helpers ---

func testCatalog(t *testing.T) *product.Catalog {
	t.Helper()
	c, err := product.NewCatalog([]product.Product{
		{ID: "rice", Name: "Arroz", Category: "Abarrotes", Price: decimal.RequireFromString("4.50"), Unit: "kg", Emoji: "🍚"},
		{ID: "milk", Name: "Leche", Category: "Lácteos", Price: decimal.RequireFromString("4.20"), Unit: "L", Emoji: "🥛"},
		{ID: "oil", Name: "Aceite", Category: "Abarrotes", Price: decimal.RequireFromString("12.90"), Unit: "L", Emoji: "🫒"},
	})
	require.NoError(t, err)
	return c
}

func testConfig(t *testing.T, store storage.Store) Config {
	t.Helper()
	return Config{
		Catalog: testCatalog(t),
		Store:   store,
		Policy:  pricing.DefaultPolicy,
		IDs:     order.NewIDGenerator(),
	}
}

func validCheckout() order.Checkout {
	return order.Checkout{Name: "Ana", Phone: "999111222", Address: "Jr. Lima 123"}
}

// --- Tests ---

func TestSessionCartPersistence(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cfg := testConfig(t, store)

	s := Load(ctx, testID, cfg)
	assert.Equal(t, noticeAdded, s.Add(ctx, "rice", 2))
	s.Add(ctx, "milk", 1)
	s.Add(ctx, "rice", 1)

	raw, err := store.Get(ctx, Key(testID, codec.CartKey))
	require.NoError(t, err)
	items, err := codec.DecodeCart([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, []cart.Item{{ProductID: "rice", Quantity: 3}, {ProductID: "milk", Quantity: 1}}, items)

	reloaded := Load(ctx, testID, cfg)
	assert.Equal(t, s.Cart(), reloaded.Cart())
}

func TestSessionSetQuantityNotice(t *testing.T) {
	ctx := context.Background()
	s := Load(ctx, testID, testConfig(t, memory.New()))
	s.Add(ctx, "rice", 1)

	assert.True(t, s.SetQuantity(ctx, "rice", 5).IsZero())
	assert.Equal(t, 5, s.Cart().Count)

	assert.Equal(t, noticeRemoved, s.SetQuantity(ctx, "rice", 0))
	assert.Empty(t, s.Cart().Lines)
}

func TestSessionRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s := Load(ctx, testID, testConfig(t, memory.New()))
	s.Add(ctx, "rice", 1)
	s.Add(ctx, "milk", 1)

	assert.Equal(t, noticeRemoved, s.Remove(ctx, "rice"))
	assert.Equal(t, noticeRemoved, s.Remove(ctx, "absent"))
	assert.Len(t, s.Cart().Lines, 1)

	assert.Equal(t, noticeCartCleared, s.ClearCart(ctx))
	assert.Empty(t, s.Cart().Lines)
}

func TestSessionPlaceOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cfg := testConfig(t, store)
	var placed []order.Order
	cfg.OnPlace = func(_ context.Context, o order.Order) { placed = append(placed, o) }

	s := Load(ctx, testID, cfg)
	s.Add(ctx, "rice", 2)

	o, notice, err := s.PlaceOrder(ctx, validCheckout())
	require.NoError(t, err)
	assert.Equal(t, noticePlaced(o.ID), notice)
	assert.Equal(t, "Pedido creado", notice.Title)
	assert.Equal(t, order.StatusReceived, o.Status)
	assert.Equal(t, order.PaymentCashOnDelivery, o.PaymentMethod)
	assert.True(t, decimal.RequireFromString("9").Equal(o.Subtotal))
	assert.True(t, decimal.RequireFromString("6").Equal(o.Delivery))
	assert.True(t, decimal.RequireFromString("15").Equal(o.Total))
	require.Len(t, placed, 1)
	assert.Equal(t, o.ID, placed[0].ID)

	view := s.View()
	assert.Empty(t, view.Cart.Lines)
	require.Len(t, view.Orders, 1)
	assert.Equal(t, "🧾", view.Orders[0].Glyph)
	assert.Equal(t, 2, view.Orders[0].ItemCount)

	reloaded := Load(ctx, testID, cfg)
	assert.Empty(t, reloaded.Cart().Lines)
	require.Len(t, reloaded.Orders(), 1)
	assert.Equal(t, o.ID, reloaded.Orders()[0].ID)
}

func TestSessionPlaceOrderRejected(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingInfo", func(t *testing.T) {
		s := Load(ctx, testID, testConfig(t, memory.New()))
		s.Add(ctx, "rice", 1)

		_, notice, err := s.PlaceOrder(ctx, order.Checkout{Name: "Ana", Phone: "  "})
		require.ErrorIs(t, err, order.ErrMissingCustomerInfo)
		assert.Equal(t, noticeMissingInfo, notice)
		assert.Len(t, s.Cart().Lines, 1)
		assert.Empty(t, s.Orders())
	})

	t.Run("EmptyCart", func(t *testing.T) {
		s := Load(ctx, testID, testConfig(t, memory.New()))

		_, notice, err := s.PlaceOrder(ctx, validCheckout())
		require.ErrorIs(t, err, order.ErrEmptyCart)
		assert.Equal(t, noticeEmptyCart, notice)
		assert.Empty(t, s.Orders())
	})
}

func TestSessionClearHistory(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cfg := testConfig(t, store)
	s := Load(ctx, testID, cfg)
	s.Add(ctx, "rice", 1)
	_, _, err := s.PlaceOrder(ctx, validCheckout())
	require.NoError(t, err)

	assert.Equal(t, noticeHistoryCleared, s.ClearHistory(ctx))
	assert.Empty(t, s.Orders())
	assert.Empty(t, Load(ctx, testID, cfg).Orders())
}

func TestSessionWriteFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.setErr = errors.New("disk full")
	s := Load(ctx, testID, testConfig(t, store))

	s.Add(ctx, "rice", 3)
	assert.Equal(t, 3, s.Cart().Count)

	o, _, err := s.PlaceOrder(ctx, validCheckout())
	require.NoError(t, err)
	assert.NotZero(t, o.ID)
	assert.Len(t, s.Orders(), 1)
	assert.Equal(t, 3, store.setHits)
}

func TestSessionLoadFailSoft(t *testing.T) {
	ctx := context.Background()

	t.Run("ReadError", func(t *testing.T) {
		store := newMockStore()
		store.getErr = errors.New("connection refused")
		s := Load(ctx, testID, testConfig(t, store))
		assert.Empty(t, s.Cart().Lines)
		assert.Empty(t, s.Orders())
	})

	t.Run("Corrupt", func(t *testing.T) {
		store := newMockStore()
		store.values[Key(testID, codec.CartKey)] = `{"not":"an array"}`
		store.values[Key(testID, codec.OrdersKey)] = `[{"id":`
		s := Load(ctx, testID, testConfig(t, store))
		assert.Empty(t, s.Cart().Lines)
		assert.Empty(t, s.Orders())
	})
}

func TestSessionViewUnavailableProduct(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.values[Key(testID, codec.CartKey)] = `[{"productId":"rice","quantity":2},{"productId":"gone","quantity":4}]`
	s := Load(ctx, testID, testConfig(t, store))

	c := s.Cart()
	require.Len(t, c.Lines, 2)
	assert.True(t, c.Lines[0].Available)
	assert.True(t, decimal.RequireFromString("9").Equal(c.Lines[0].Amount))

	assert.False(t, c.Lines[1].Available)
	assert.Equal(t, UnavailableName, c.Lines[1].Name)
	assert.True(t, c.Lines[1].Amount.IsZero())

	assert.Equal(t, 6, c.Count)
	assert.True(t, decimal.RequireFromString("9").Equal(c.Summary.Subtotal))
}

func TestSessionOrderIDsIncrease(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, memory.New())
	s := Load(ctx, testID, cfg)

	var last int64
	for range 5 {
		s.Add(ctx, "milk", 1)
		o, _, err := s.PlaceOrder(ctx, validCheckout())
		require.NoError(t, err)
		assert.Greater(t, o.ID, last)
		last = o.ID
	}

	_, err := s.Order(last)
	require.NoError(t, err)
	_, err = s.Order(last + 1)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestSessionIDsObservedOnLoad(t *testing.T) {
	ctx := context.Background()
	future := time.Now().Add(time.Hour).UnixMilli()
	store := newMockStore()
	store.values[Key(testID, codec.OrdersKey)] = string(codec.EncodeOrders([]order.Order{{
		ID:        future,
		CreatedAt: time.Now(),
		Status:    order.StatusReceived,
		Items:     []cart.Item{{ProductID: "rice", Quantity: 1}},
	}}))

	s := Load(ctx, testID, testConfig(t, store))
	s.Add(ctx, "rice", 1)
	o, _, err := s.PlaceOrder(ctx, validCheckout())
	require.NoError(t, err)
	assert.Greater(t, o.ID, future)
}
