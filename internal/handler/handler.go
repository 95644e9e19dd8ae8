// Package handler exposes the storefront over HTTP.
package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/xenking/marketbarrio/internal/domain/product"
	"github.com/xenking/marketbarrio/internal/session"
)

// DefaultCookieName is the session cookie used when none is configured.
const DefaultCookieName = "mb_session"

const maxBodySize = 64 << 10

// Config holds non-dependency configuration for the Handler.
type Config struct {
	CookieName   string
	CookieSecure bool
	// CookieMaxAge is the session cookie lifetime. Zero makes it a browser
	// session cookie.
	CookieMaxAge time.Duration
}

// Handler serves the catalog, cart and order endpoints.
type Handler struct {
	catalog  *product.Catalog
	sessions *session.Manager
	cookie   Config
}

// New creates a Handler.
func New(cfg Config, catalog *product.Catalog, sessions *session.Manager) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return &Handler{
		catalog:  catalog,
		sessions: sessions,
		cookie:   cfg,
	}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	api.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	api.HandleFunc("/products", h.ListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", h.GetProduct).Methods(http.MethodGet)
	api.HandleFunc("/categories", h.ListCategories).Methods(http.MethodGet)
	api.HandleFunc("/payment-methods", h.ListPaymentMethods).Methods(http.MethodGet)

	api.HandleFunc("/cart", h.withSession(h.GetCart)).Methods(http.MethodGet)
	api.HandleFunc("/cart", h.withSession(h.ClearCart)).Methods(http.MethodDelete)
	api.HandleFunc("/cart/items", h.withSession(h.AddItem)).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{productId}", h.withSession(h.UpdateItem)).Methods(http.MethodPut)
	api.HandleFunc("/cart/items/{productId}", h.withSession(h.RemoveItem)).Methods(http.MethodDelete)

	api.HandleFunc("/orders", h.withSession(h.ListOrders)).Methods(http.MethodGet)
	api.HandleFunc("/orders", h.withSession(h.PlaceOrder)).Methods(http.MethodPost)
	api.HandleFunc("/orders", h.withSession(h.ClearOrders)).Methods(http.MethodDelete)
	api.HandleFunc("/orders/{id:[0-9]+}", h.withSession(h.GetOrder)).Methods(http.MethodGet)
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *session.Session)

// withSession resolves the shopper's session from the cookie, starting a
// new one when the cookie is absent or invalid.
func (h *Handler) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s, err := h.resolveSession(ctx, r)
		if err != nil {
			zctx.From(ctx).Error("Resolve session", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		defer h.sessions.Release(s)
		h.setCookie(w, s.ID())

		r = r.WithContext(zctx.With(ctx, zap.String("session", s.ID())))
		next(w, r, s)
	}
}

func (h *Handler) resolveSession(ctx context.Context, r *http.Request) (*session.Session, error) {
	if c, err := r.Cookie(h.cookie.CookieName); err == nil {
		s, err := h.sessions.Get(ctx, c.Value)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, session.ErrInvalidID) {
			return nil, err
		}
	}
	return h.sessions.Create(ctx)
}

func (h *Handler) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.cookie.CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// readBody returns a decoder over the request body.
func readBody(r *http.Request) (*jx.Decoder, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return jx.DecodeBytes(data), nil
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	writeJSON(w, status, &e)
}
