package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/gorilla/mux"

	"github.com/xenking/marketbarrio/internal/domain/order"
	"github.com/xenking/marketbarrio/internal/domain/product"
)

// ListProducts returns the catalog filtered by the optional category and q
// query parameters.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products := h.catalog.Filter(q.Get("category"), q.Get("q"))

	var e jx.Encoder
	e.ArrStart()
	for _, p := range products {
		encodeProduct(&e, p)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(mux.Vars(r)["id"])
	if errors.Is(err, product.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var e jx.Encoder
	encodeProduct(&e, p)
	writeJSON(w, http.StatusOK, &e)
}

// ListCategories returns the category filter options.
func (h *Handler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	var e jx.Encoder
	encodeStrings(&e, h.catalog.Categories())
	writeJSON(w, http.StatusOK, &e)
}

// ListPaymentMethods returns the payment methods accepted at checkout.
func (h *Handler) ListPaymentMethods(w http.ResponseWriter, _ *http.Request) {
	var e jx.Encoder
	encodeStrings(&e, order.PaymentMethods)
	writeJSON(w, http.StatusOK, &e)
}
