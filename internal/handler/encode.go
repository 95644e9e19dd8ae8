package handler

import (
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/marketbarrio/internal/codec"
	"github.com/xenking/marketbarrio/internal/domain/pricing"
	"github.com/xenking/marketbarrio/internal/domain/product"
	"github.com/xenking/marketbarrio/internal/session"
)

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("price")
	codec.Money(e, p.Price)
	e.FieldStart("unit")
	e.Str(p.Unit)
	e.FieldStart("emoji")
	e.Str(p.Emoji)
	e.ObjEnd()
}

func encodeStrings(e *jx.Encoder, values []string) {
	e.ArrStart()
	for _, v := range values {
		e.Str(v)
	}
	e.ArrEnd()
}

func encodeNotice(e *jx.Encoder, n session.Notice) {
	if n.IsZero() {
		return
	}
	e.FieldStart("notice")
	e.ObjStart()
	e.FieldStart("title")
	e.Str(n.Title)
	e.FieldStart("message")
	e.Str(n.Message)
	e.ObjEnd()
}

func encodeLines(e *jx.Encoder, lines []session.Line) {
	e.ArrStart()
	for _, l := range lines {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(l.ProductID)
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("emoji")
		e.Str(l.Emoji)
		e.FieldStart("unit")
		e.Str(l.Unit)
		e.FieldStart("price")
		codec.Money(e, l.Price)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("amount")
		codec.Money(e, l.Amount)
		e.FieldStart("available")
		e.Bool(l.Available)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeSummary(e *jx.Encoder, s pricing.Summary) {
	e.FieldStart("subtotal")
	codec.Money(e, s.Subtotal)
	e.FieldStart("delivery")
	codec.Money(e, s.Delivery)
	e.FieldStart("total")
	codec.Money(e, s.Total)
}

func encodeCart(e *jx.Encoder, c session.CartView) {
	e.ObjStart()
	e.FieldStart("items")
	encodeLines(e, c.Lines)
	e.FieldStart("count")
	e.Int(c.Count)
	encodeSummary(e, c.Summary)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o session.OrderView) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339Nano))
	e.FieldStart("status")
	e.Str(o.Status)
	e.FieldStart("statusGlyph")
	e.Str(o.Glyph)
	e.FieldStart("paymentMethod")
	e.Str(o.PaymentMethod)
	e.FieldStart("customerName")
	e.Str(o.CustomerName)
	e.FieldStart("customerPhone")
	e.Str(o.CustomerPhone)
	e.FieldStart("customerAddress")
	e.Str(o.CustomerAddress)
	e.FieldStart("items")
	encodeLines(e, o.Lines)
	e.FieldStart("itemCount")
	e.Int(o.ItemCount)
	encodeSummary(e, pricing.Summary{Subtotal: o.Subtotal, Delivery: o.Delivery, Total: o.Total})
	e.ObjEnd()
}
