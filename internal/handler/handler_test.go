package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/jx"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/marketbarrio/internal/codec"
	"github.com/xenking/marketbarrio/internal/domain/product"
	"github.com/xenking/marketbarrio/internal/session"
	"github.com/xenking/marketbarrio/internal/storage/memory"
)

// --- Helpers ---

func testCatalog(t *testing.T) *product.Catalog {
	t.Helper()
	c, err := product.NewCatalog([]product.Product{
		{ID: "rice", Name: "Arroz Costeño", Description: "Arroz extra", Category: "Abarrotes", Price: decimal.RequireFromString("4.50"), Unit: "kg", Emoji: "🍚"},
		{ID: "milk", Name: "Leche Gloria", Description: "Leche evaporada", Category: "Lácteos", Price: decimal.RequireFromString("4.20"), Unit: "lata", Emoji: "🥛"},
		{ID: "oil", Name: "Aceite Primor", Description: "Aceite vegetal", Category: "Abarrotes", Price: decimal.RequireFromString("12.90"), Unit: "L", Emoji: "🫒"},
	})
	require.NoError(t, err)
	return c
}

type client struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
	store   *memory.Store
}

func newClient(t *testing.T) *client {
	t.Helper()
	catalog := testCatalog(t)
	store := memory.New()
	sessions, err := session.NewManager(session.ManagerOptions{Catalog: catalog, Store: store})
	require.NoError(t, err)

	router := mux.NewRouter()
	New(Config{}, catalog, sessions).Register(router)
	return &client{t: t, handler: router, store: store}
}

type response struct {
	Code int
	Body string
}

func (c *client) do(method, path, body string) response {
	c.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == DefaultCookieName {
			c.cookie = ck
		}
	}
	return response{Code: w.Code, Body: w.Body.String()}
}

// field extracts a top-level or dotted nested raw JSON value.
func field(t *testing.T, body string, path ...string) string {
	t.Helper()
	raw := body
	for _, key := range path {
		var found string
		d := jx.DecodeStr(raw)
		require.NoError(t, d.Obj(func(d *jx.Decoder, k string) error {
			if k != key {
				return d.Skip()
			}
			r, err := d.Raw()
			found = r.String()
			return err
		}), "body: %s", body)
		raw = found
	}
	return raw
}

// --- Tests ---

func TestListProducts(t *testing.T) {
	c := newClient(t)

	res := c.do(http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body, `"id":"rice"`)
	assert.Contains(t, res.Body, `"price":4.5`)

	res = c.do(http.MethodGet, "/api/products?category=Abarrotes&q=primor", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body, `"id":"oil"`)
	assert.NotContains(t, res.Body, `"id":"rice"`)

	res = c.do(http.MethodGet, "/api/products?q=zzz", "")
	assert.JSONEq(t, `[]`, res.Body)
}

func TestGetProduct(t *testing.T) {
	c := newClient(t)

	res := c.do(http.MethodGet, "/api/products/milk", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{
		"id":"milk","name":"Leche Gloria","description":"Leche evaporada",
		"category":"Lácteos","price":4.2,"unit":"lata","emoji":"🥛"
	}`, res.Body)

	res = c.do(http.MethodGet, "/api/products/nope", "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.JSONEq(t, `{"code":404,"message":"product not found"}`, res.Body)
}

func TestCatalogOptions(t *testing.T) {
	c := newClient(t)

	res := c.do(http.MethodGet, "/api/categories", "")
	assert.JSONEq(t, `["Todos","Abarrotes","Lácteos"]`, res.Body)

	res = c.do(http.MethodGet, "/api/payment-methods", "")
	assert.JSONEq(t, `["Contraentrega","Yape/Plin (simulado)"]`, res.Body)
}

func TestCartFlow(t *testing.T) {
	c := newClient(t)

	res := c.do(http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, c.cookie)
	assert.JSONEq(t, `{"items":[],"count":0,"subtotal":0,"delivery":0,"total":0}`, res.Body)

	res = c.do(http.MethodPost, "/api/cart/items", `{"productId":"rice","quantity":2}`)
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"title":"Agregado","message":"Producto añadido al carrito"}`, field(t, res.Body, "notice"))
	assert.Equal(t, "2", field(t, res.Body, "cart", "count"))
	assert.Equal(t, "9", field(t, res.Body, "cart", "subtotal"))
	assert.Equal(t, "6", field(t, res.Body, "cart", "delivery"))
	assert.Equal(t, "15", field(t, res.Body, "cart", "total"))

	res = c.do(http.MethodPost, "/api/cart/items", `{"productId":"oil"}`)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "3", field(t, res.Body, "cart", "count"))

	res = c.do(http.MethodPut, "/api/cart/items/oil", `{"quantity":2}`)
	require.Equal(t, http.StatusOK, res.Code)
	assert.NotContains(t, res.Body, `"notice"`)
	assert.Equal(t, "34.8", field(t, res.Body, "cart", "subtotal"))
	assert.Equal(t, "6", field(t, res.Body, "cart", "delivery"))

	res = c.do(http.MethodPut, "/api/cart/items/oil", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, field(t, res.Body, "notice"), "Quitado")

	res = c.do(http.MethodDelete, "/api/cart/items/rice", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "0", field(t, res.Body, "cart", "count"))

	c.do(http.MethodPost, "/api/cart/items", `{"productId":"milk","quantity":500}`)
	res = c.do(http.MethodGet, "/api/cart", "")
	assert.Equal(t, "99", field(t, res.Body, "count"))

	res = c.do(http.MethodDelete, "/api/cart", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"title":"Listo","message":"Carrito vaciado"}`, field(t, res.Body, "notice"))
}

func TestCartHugeQuantity(t *testing.T) {
	c := newClient(t)

	c.do(http.MethodPost, "/api/cart/items", `{"productId":"rice","quantity":5}`)
	for range 2 {
		res := c.do(http.MethodPost, "/api/cart/items", `{"productId":"rice","quantity":9223372036854775807}`)
		require.Equal(t, http.StatusOK, res.Code)
		assert.Equal(t, "99", field(t, res.Body, "cart", "count"))
		assert.Equal(t, "445.5", field(t, res.Body, "cart", "subtotal"))
	}

	res := c.do(http.MethodPut, "/api/cart/items/rice", `{"quantity":9223372036854775807}`)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "99", field(t, res.Body, "cart", "count"))

	res = c.do(http.MethodPost, "/api/orders", `{"name":"Ana","phone":"999111222","address":"Jr. Lima 123"}`)
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	assert.Equal(t, "445.5", field(t, res.Body, "order", "total"))

	res = c.do(http.MethodPost, "/api/cart/items", `{"productId":"rice","quantity":99999999999999999999999}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestCartErrors(t *testing.T) {
	c := newClient(t)

	for _, tc := range []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{name: "MalformedBody", method: http.MethodPost, path: "/api/cart/items", body: `{"productId":`, code: http.StatusBadRequest},
		{name: "MissingProduct", method: http.MethodPost, path: "/api/cart/items", body: `{"quantity":1}`, code: http.StatusBadRequest},
		{name: "UnknownProduct", method: http.MethodPost, path: "/api/cart/items", body: `{"productId":"caviar"}`, code: http.StatusNotFound},
		{name: "MissingQuantity", method: http.MethodPut, path: "/api/cart/items/rice", body: `{}`, code: http.StatusBadRequest},
		{name: "UnknownRoute", method: http.MethodGet, path: "/api/nothing", code: http.StatusNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res := c.do(tc.method, tc.path, tc.body)
			assert.Equal(t, tc.code, res.Code)
			assert.Equal(t, tc.code, mustInt(t, field(t, res.Body, "code")))
		})
	}
}

func mustInt(t *testing.T, raw string) int {
	t.Helper()
	v, err := jx.DecodeStr(raw).Int()
	require.NoError(t, err)
	return v
}

func TestPlaceOrder(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodPost, "/api/cart/items", `{"productId":"oil","quantity":3}`)

	res := c.do(http.MethodPost, "/api/orders", `{
		"name":"Ana","phone":"999111222","address":"Jr. Lima 123",
		"paymentMethod":"Yape/Plin (simulado)"
	}`)
	require.Equal(t, http.StatusCreated, res.Code, res.Body)

	id := field(t, res.Body, "order", "id")
	assert.JSONEq(t, `{"title":"Pedido creado","message":"Tu pedido #`+id+` fue registrado"}`, field(t, res.Body, "notice"))
	assert.Equal(t, `"Recibido"`, field(t, res.Body, "order", "status"))
	assert.Equal(t, `"🧾"`, field(t, res.Body, "order", "statusGlyph"))
	assert.Equal(t, "38.7", field(t, res.Body, "order", "subtotal"))
	assert.Equal(t, "0", field(t, res.Body, "order", "delivery"))
	assert.Equal(t, "38.7", field(t, res.Body, "order", "total"))
	assert.Equal(t, "3", field(t, res.Body, "order", "itemCount"))

	res = c.do(http.MethodGet, "/api/cart", "")
	assert.Equal(t, "0", field(t, res.Body, "count"))

	res = c.do(http.MethodGet, "/api/orders/"+id, "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, `"Yape/Plin (simulado)"`, field(t, res.Body, "paymentMethod"))

	res = c.do(http.MethodGet, "/api/orders", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body, `"id":`+id)

	raw, err := c.store.Get(context.Background(), session.Key(c.cookie.Value, codec.OrdersKey))
	require.NoError(t, err)
	stored, err := codec.DecodeOrders([]byte(raw))
	require.NoError(t, err)
	require.Len(t, stored, 1)

	res = c.do(http.MethodDelete, "/api/orders", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"orders":[],"notice":{"title":"Listo","message":"Historial eliminado"}}`, res.Body)

	res = c.do(http.MethodGet, "/api/orders/"+id, "")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestPlaceOrderRejected(t *testing.T) {
	c := newClient(t)

	res := c.do(http.MethodPost, "/api/orders", `{"name":"Ana","phone":"999","address":"Lima"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.JSONEq(t, `{"code":422,"message":"Agrega productos antes de finalizar"}`, res.Body)

	c.do(http.MethodPost, "/api/cart/items", `{"productId":"rice"}`)

	res = c.do(http.MethodPost, "/api/orders", `{"name":"Ana","phone":" ","address":"Lima"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.JSONEq(t, `{"code":422,"message":"Completa nombre, teléfono y dirección"}`, res.Body)

	res = c.do(http.MethodPost, "/api/orders", `{"name":"Ana","phone":"999","address":"Lima","paymentMethod":"Bitcoin"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)

	res = c.do(http.MethodPost, "/api/orders", `not json`)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = c.do(http.MethodGet, "/api/cart", "")
	assert.Equal(t, "1", field(t, res.Body, "count"), "rejected checkout keeps the cart")
}

func TestSessionCookie(t *testing.T) {
	c := newClient(t)
	c.do(http.MethodPost, "/api/cart/items", `{"productId":"rice"}`)
	first := c.cookie.Value

	other := newClient(t)
	other.handler = c.handler
	res := other.do(http.MethodGet, "/api/cart", "")
	assert.Equal(t, "0", field(t, res.Body, "count"), "new shopper gets an empty cart")
	assert.NotEqual(t, first, other.cookie.Value)

	c.cookie.Value = "garbage"
	res = c.do(http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.NotEqual(t, "garbage", c.cookie.Value)

	c.cookie.Value = first
	res = c.do(http.MethodGet, "/api/cart", "")
	assert.Equal(t, "1", field(t, res.Body, "count"))
}
