// Package codec serializes cart and order ledgers in the JSON layout used by
// the storefront's local storage (camelCase fields, money as JSON numbers).
package codec

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/marketbarrio/internal/domain/cart"
	"github.com/xenking/marketbarrio/internal/domain/order"
)

// Storage keys of the two ledgers.
const (
	CartKey   = "mb_cart_v1"
	OrdersKey = "mb_orders_v1"
)

// ErrNotSequence is returned when the stored value is not a JSON array.
var ErrNotSequence = errors.New("value is not a JSON array")

// EncodeCart serializes cart items.
func EncodeCart(items []cart.Item) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, item := range items {
		encodeItem(&e, item)
	}
	e.ArrEnd()
	return e.Bytes()
}

// DecodeCart parses a serialized cart.
func DecodeCart(data []byte) ([]cart.Item, error) {
	items := []cart.Item{}
	err := decodeArray(data, func(d *jx.Decoder) error {
		item, err := decodeItem(d)
		if err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	return items, nil
}

// EncodeOrders serializes orders, preserving their order.
func EncodeOrders(orders []order.Order) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, o := range orders {
		encodeOrder(&e, o)
	}
	e.ArrEnd()
	return e.Bytes()
}

// DecodeOrders parses serialized orders.
func DecodeOrders(data []byte) ([]order.Order, error) {
	orders := []order.Order{}
	err := decodeArray(data, func(d *jx.Decoder) error {
		o, err := decodeOrder(d)
		if err != nil {
			return errors.Wrapf(err, "order %d", len(orders))
		}
		orders = append(orders, o)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode orders")
	}
	return orders, nil
}

func encodeItem(e *jx.Encoder, item cart.Item) {
	e.ObjStart()
	e.FieldStart("productId")
	e.Str(item.ProductID)
	e.FieldStart("quantity")
	e.Int(item.Quantity)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339Nano))
	e.FieldStart("status")
	e.Str(o.Status)
	e.FieldStart("paymentMethod")
	e.Str(o.PaymentMethod)
	e.FieldStart("customerName")
	e.Str(o.CustomerName)
	e.FieldStart("customerPhone")
	e.Str(o.CustomerPhone)
	e.FieldStart("customerAddress")
	e.Str(o.CustomerAddress)
	e.FieldStart("items")
	e.ArrStart()
	for _, item := range o.Items {
		encodeItem(e, item)
	}
	e.ArrEnd()
	e.FieldStart("subtotal")
	Money(e, o.Subtotal)
	e.FieldStart("delivery")
	Money(e, o.Delivery)
	e.FieldStart("total")
	Money(e, o.Total)
	e.ObjEnd()
}

// Money writes an amount as a JSON number without loss of precision.
func Money(e *jx.Encoder, v decimal.Decimal) {
	e.Raw([]byte(v.String()))
}

func decodeArray(data []byte, element func(d *jx.Decoder) error) error {
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Array {
		return ErrNotSequence
	}
	return d.Arr(element)
}

func decodeItem(d *jx.Decoder) (cart.Item, error) {
	var (
		item       cart.Item
		hasProduct bool
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			item.ProductID, err = Scalar(d)
			hasProduct = true
		case "quantity":
			item.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return cart.Item{}, err
	}
	if !hasProduct {
		return cart.Item{}, errors.New("item without productId")
	}
	return item, nil
}

func decodeOrder(d *jx.Decoder) (order.Order, error) {
	var o order.Order
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			s, err := Scalar(d)
			if err != nil {
				return err
			}
			o.ID, err = strconv.ParseInt(s, 10, 64)
			return err
		case "createdAt":
			s, err := d.Str()
			if err != nil {
				return err
			}
			o.CreatedAt, err = time.Parse(time.RFC3339Nano, s)
			return err
		case "status":
			return str(d, &o.Status)
		case "paymentMethod":
			return str(d, &o.PaymentMethod)
		case "customerName":
			return str(d, &o.CustomerName)
		case "customerPhone":
			return str(d, &o.CustomerPhone)
		case "customerAddress":
			return str(d, &o.CustomerAddress)
		case "items":
			o.Items = []cart.Item{}
			return d.Arr(func(d *jx.Decoder) error {
				item, err := decodeItem(d)
				if err != nil {
					return err
				}
				o.Items = append(o.Items, item)
				return nil
			})
		case "subtotal":
			return decodeMoney(d, &o.Subtotal)
		case "delivery":
			return decodeMoney(d, &o.Delivery)
		case "total":
			return decodeMoney(d, &o.Total)
		default:
			return d.Skip()
		}
	})
	return o, err
}

func str(d *jx.Decoder, dst *string) error {
	s, err := d.Str()
	if err != nil {
		return err
	}
	*dst = s
	return nil
}

func decodeMoney(d *jx.Decoder, dst *decimal.Decimal) error {
	s, err := Scalar(d)
	if err != nil {
		return err
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return errors.Wrapf(err, "parse amount %q", s)
	}
	*dst = v
	return nil
}

// Scalar reads a JSON string or number as text.
func Scalar(d *jx.Decoder) (string, error) {
	switch t := d.Next(); t {
	case jx.String:
		s, err := d.Str()
		return strings.TrimSpace(s), err
	case jx.Number:
		raw, err := d.Raw()
		if err != nil {
			return "", err
		}
		return raw.String(), nil
	default:
		return "", errors.Errorf("expected string or number, got %s", t)
	}
}
