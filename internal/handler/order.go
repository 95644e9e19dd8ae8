package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/xenking/marketbarrio/internal/domain/order"
	"github.com/xenking/marketbarrio/internal/session"
)

// ListOrders returns the order history, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	var e jx.Encoder
	e.ArrStart()
	for _, o := range s.Orders() {
		encodeOrder(&e, o)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

// GetOrder returns a single order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, s *session.Session) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	o, err := s.Order(id)
	if errors.Is(err, order.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var e jx.Encoder
	encodeOrder(&e, o)
	writeJSON(w, http.StatusOK, &e)
}

func decodeCheckout(r *http.Request) (order.Checkout, error) {
	d, err := readBody(r)
	if err != nil {
		return order.Checkout{}, err
	}
	var c order.Checkout
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var dst *string
		switch key {
		case "name", "customerName":
			dst = &c.Name
		case "phone", "customerPhone":
			dst = &c.Phone
		case "address", "customerAddress":
			dst = &c.Address
		case "paymentMethod":
			dst = &c.PaymentMethod
		default:
			return d.Skip()
		}
		v, err := d.Str()
		*dst = v
		return err
	}); err != nil {
		return order.Checkout{}, errors.Wrap(err, "decode body")
	}
	return c, nil
}

// PlaceOrder checks out the session cart.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request, s *session.Session) {
	info, err := decodeCheckout(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info.PaymentMethod = strings.TrimSpace(info.PaymentMethod)
	if info.PaymentMethod != "" && !order.IsKnownPaymentMethod(info.PaymentMethod) {
		writeError(w, http.StatusUnprocessableEntity, "unknown payment method "+strconv.Quote(info.PaymentMethod))
		return
	}

	o, notice, err := s.PlaceOrder(r.Context(), info)
	switch {
	case errors.Is(err, order.ErrMissingCustomerInfo), errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusUnprocessableEntity, notice.Message)
		return
	case err != nil:
		zctx.From(r.Context()).Error("Place order", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	view, err := s.Order(o.ID)
	if err != nil {
		zctx.From(r.Context()).Error("Load placed order", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("order")
	encodeOrder(&e, view)
	encodeNotice(&e, notice)
	e.ObjEnd()
	writeJSON(w, http.StatusCreated, &e)
}

// ClearOrders deletes the order history.
func (h *Handler) ClearOrders(w http.ResponseWriter, r *http.Request, s *session.Session) {
	notice := s.ClearHistory(r.Context())

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("orders")
	e.ArrStart()
	e.ArrEnd()
	encodeNotice(&e, notice)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, &e)
}
