package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/gorilla/mux"

	"github.com/xenking/marketbarrio/internal/codec"
	"github.com/xenking/marketbarrio/internal/session"
)

// GetCart returns the session cart.
func (h *Handler) GetCart(w http.ResponseWriter, _ *http.Request, s *session.Session) {
	var e jx.Encoder
	encodeCart(&e, s.Cart())
	writeJSON(w, http.StatusOK, &e)
}

type quantityReq struct {
	ProductID   string
	Quantity    int
	HasQuantity bool
}

func decodeQuantityReq(r *http.Request) (quantityReq, error) {
	d, err := readBody(r)
	if err != nil {
		return quantityReq{}, err
	}
	var req quantityReq
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			req.ProductID, err = codec.Scalar(d)
		case "quantity":
			req.Quantity, err = d.Int()
			req.HasQuantity = true
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return quantityReq{}, errors.Wrap(err, "decode body")
	}
	return req, nil
}

// AddItem adds a product to the cart. The quantity defaults to one.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request, s *session.Session) {
	req, err := decodeQuantityReq(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}
	if _, ok := h.catalog.Lookup(req.ProductID); !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if !req.HasQuantity {
		req.Quantity = 1
	}

	notice := s.Add(r.Context(), req.ProductID, req.Quantity)
	writeCartResult(w, s, notice)
}

// UpdateItem replaces the quantity of a cart line. A quantity of zero or
// less removes it.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request, s *session.Session) {
	req, err := decodeQuantityReq(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.HasQuantity {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}

	notice := s.SetQuantity(r.Context(), mux.Vars(r)["productId"], req.Quantity)
	writeCartResult(w, s, notice)
}

// RemoveItem deletes a cart line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request, s *session.Session) {
	notice := s.Remove(r.Context(), mux.Vars(r)["productId"])
	writeCartResult(w, s, notice)
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request, s *session.Session) {
	notice := s.ClearCart(r.Context())
	writeCartResult(w, s, notice)
}

func writeCartResult(w http.ResponseWriter, s *session.Session, notice session.Notice) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("cart")
	encodeCart(&e, s.Cart())
	encodeNotice(&e, notice)
	e.ObjEnd()
	writeJSON(w, http.StatusOK, &e)
}
