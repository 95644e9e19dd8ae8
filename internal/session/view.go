package session

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/marketbarrio/internal/domain/cart"
	"github.com/xenking/marketbarrio/internal/domain/order"
	"github.com/xenking/marketbarrio/internal/domain/pricing"
)

// UnavailableName is displayed for cart lines whose product left the catalog.
const UnavailableName = "Producto no disponible"

// Line is a cart line joined with its catalog entry.
type Line struct {
	ProductID string
	Name      string
	Emoji     string
	Unit      string
	Price     decimal.Decimal
	Quantity  int
	Amount    decimal.Decimal
	Available bool
}

// CartView is a snapshot of the cart with derived totals.
type CartView struct {
	Lines   []Line
	Count   int
	Summary pricing.Summary
}

// OrderView is a placed order prepared for display.
type OrderView struct {
	order.Order
	Lines     []Line
	ItemCount int
	Glyph     string
}

// View is a consistent snapshot of a session.
type View struct {
	Cart   CartView
	Orders []OrderView
}

// View returns the current cart and order history.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return View{Cart: s.cartView(), Orders: s.orderViews()}
}

// Cart returns the current cart.
func (s *Session) Cart() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cartView()
}

// Orders returns the order history, newest first.
func (s *Session) Orders() []OrderView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.orderViews()
}

// Order returns a single order by id.
func (s *Session) Order(id int64) (OrderView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.orders.Find(id)
	if err != nil {
		return OrderView{}, err
	}
	return s.orderView(o), nil
}

func (s *Session) cartView() CartView {
	return CartView{
		Lines:   s.lines(s.cart.Items()),
		Count:   s.cart.Count(),
		Summary: s.cart.Summary(s.cfg.Catalog, s.cfg.Policy),
	}
}

func (s *Session) orderViews() []OrderView {
	orders := s.orders.Orders()
	out := make([]OrderView, len(orders))
	for i, o := range orders {
		out[i] = s.orderView(o)
	}
	return out
}

func (s *Session) orderView(o order.Order) OrderView {
	return OrderView{
		Order:     o,
		Lines:     s.lines(o.Items),
		ItemCount: o.ItemCount(),
		Glyph:     order.StatusGlyph(o.Status),
	}
}

func (s *Session) lines(items []cart.Item) []Line {
	out := make([]Line, len(items))
	for i, item := range items {
		p, ok := s.cfg.Catalog.Lookup(item.ProductID)
		if !ok {
			out[i] = Line{
				ProductID: item.ProductID,
				Name:      UnavailableName,
				Quantity:  item.Quantity,
				Price:     decimal.Zero,
				Amount:    decimal.Zero,
			}
			continue
		}
		out[i] = Line{
			ProductID: p.ID,
			Name:      p.Name,
			Emoji:     p.Emoji,
			Unit:      p.Unit,
			Price:     p.Price,
			Quantity:  item.Quantity,
			Amount:    pricing.Line{Price: p.Price, Quantity: item.Quantity}.Amount(),
			Available: true,
		}
	}
	return out
}
