// Package session binds a shopper's cart and order history to persistent
// storage.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/marketbarrio/internal/codec"
	"github.com/xenking/marketbarrio/internal/domain/cart"
	"github.com/xenking/marketbarrio/internal/domain/order"
	"github.com/xenking/marketbarrio/internal/domain/pricing"
	"github.com/xenking/marketbarrio/internal/domain/product"
	"github.com/xenking/marketbarrio/internal/storage"
)

// Key returns the storage key of the named ledger within a session.
func Key(id, name string) string {
	return id + ":" + name
}

// Config holds the dependencies shared by sessions.
type Config struct {
	Catalog *product.Catalog
	Store   storage.Store
	Policy  pricing.Policy
	IDs     *order.IDGenerator

	// OnPlace is called after an order has been recorded.
	OnPlace func(ctx context.Context, o order.Order)
}

// Session is the cart and order history of a single shopper. Every mutation
// is written through to the store before the call returns; write failures
// are logged and do not affect the in-memory state.
//
// Session is safe for concurrent use.
type Session struct {
	id  string
	cfg Config

	mu     sync.Mutex
	cart   *cart.Ledger
	orders *order.Ledger

	lastUsed atomic.Int64
	// refs counts the Manager.Get calls not yet released. Guarded by the
	// Manager's mutex.
	refs int
}

// Load restores the session id from the store. Missing, unreadable or
// corrupt values yield empty ledgers.
func Load(ctx context.Context, id string, cfg Config) *Session {
	if cfg.IDs == nil {
		cfg.IDs = order.NewIDGenerator()
	}
	s := &Session{id: id, cfg: cfg}

	var items []cart.Item
	if data, ok := s.read(ctx, codec.CartKey); ok {
		decoded, err := codec.DecodeCart(data)
		if err != nil {
			s.logCorrupt(ctx, codec.CartKey, err)
		}
		items = decoded
	}
	var orders []order.Order
	if data, ok := s.read(ctx, codec.OrdersKey); ok {
		decoded, err := codec.DecodeOrders(data)
		if err != nil {
			s.logCorrupt(ctx, codec.OrdersKey, err)
		}
		orders = decoded
	}

	s.cart = cart.NewLedger(items)
	s.orders = order.NewLedger(orders, cfg.IDs)
	s.touch(time.Now())
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Add puts quantity units of productID into the cart.
func (s *Session) Add(ctx context.Context, productID string, quantity int) Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Add(productID, quantity)
	s.saveCart(ctx)
	return noticeAdded
}

// SetQuantity replaces the quantity of a cart line. A zero Notice is
// returned unless the change removed the line.
func (s *Session) SetQuantity(ctx context.Context, productID string, quantity int) Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.cart.SetQuantity(productID, quantity)
	s.saveCart(ctx)
	if removed {
		return noticeRemoved
	}
	return Notice{}
}

// Remove deletes a cart line.
func (s *Session) Remove(ctx context.Context, productID string) Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Remove(productID)
	s.saveCart(ctx)
	return noticeRemoved
}

// ClearCart empties the cart.
func (s *Session) ClearCart(ctx context.Context) Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Clear()
	s.saveCart(ctx)
	return noticeCartCleared
}

// PlaceOrder checks out the cart. On validation failure the returned Notice
// explains the problem and nothing is modified.
func (s *Session) PlaceOrder(ctx context.Context, info order.Checkout) (order.Order, Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := s.cart.Summary(s.cfg.Catalog, s.cfg.Policy)
	o, err := s.orders.Place(s.cart, info, summary)
	switch {
	case errors.Is(err, order.ErrMissingCustomerInfo):
		return order.Order{}, noticeMissingInfo, err
	case errors.Is(err, order.ErrEmptyCart):
		return order.Order{}, noticeEmptyCart, err
	case err != nil:
		return order.Order{}, Notice{}, errors.Wrap(err, "place order")
	}

	s.saveOrders(ctx)
	s.saveCart(ctx)

	zctx.From(ctx).Info("Order placed",
		zap.String("session", s.id),
		zap.Int64("order_id", o.ID),
		zap.String("total", o.Total.StringFixed(2)),
	)
	if s.cfg.OnPlace != nil {
		s.cfg.OnPlace(ctx, o)
	}
	return o, noticePlaced(o.ID), nil
}

// ClearHistory removes every order.
func (s *Session) ClearHistory(ctx context.Context) Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders.ClearHistory()
	s.saveOrders(ctx)
	return noticeHistoryCleared
}

func (s *Session) touch(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastUsed.Load()))
}

func (s *Session) read(ctx context.Context, name string) ([]byte, bool) {
	key := Key(s.id, name)
	value, err := s.cfg.Store.Get(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, false
	case err != nil:
		zctx.From(ctx).Warn("Failed to read ledger",
			zap.String("session", s.id),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, false
	}
	return []byte(value), true
}

func (s *Session) logCorrupt(ctx context.Context, name string, err error) {
	zctx.From(ctx).Warn("Discarding corrupt ledger",
		zap.String("session", s.id),
		zap.String("key", Key(s.id, name)),
		zap.Error(err),
	)
}

func (s *Session) saveCart(ctx context.Context) {
	s.write(ctx, codec.CartKey, codec.EncodeCart(s.cart.Items()))
}

func (s *Session) saveOrders(ctx context.Context) {
	s.write(ctx, codec.OrdersKey, codec.EncodeOrders(s.orders.Orders()))
}

func (s *Session) write(ctx context.Context, name string, data []byte) {
	key := Key(s.id, name)
	if err := s.cfg.Store.Set(ctx, key, string(data)); err != nil {
		zctx.From(ctx).Warn("Failed to persist ledger",
			zap.String("session", s.id),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
