package order

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/marketbarrio/internal/domain/cart"
)

// StatusReceived is the status every new order starts with.
const StatusReceived = "Recibido"

// Recognized payment methods offered at checkout.
const (
	PaymentCashOnDelivery = "Contraentrega"
	PaymentYapePlin       = "Yape/Plin (simulado)"
)

// PaymentMethods lists the recognized payment methods in display order.
var PaymentMethods = []string{PaymentCashOnDelivery, PaymentYapePlin}

// IsKnownPaymentMethod reports whether m is one of PaymentMethods.
func IsKnownPaymentMethod(m string) bool {
	return slices.Contains(PaymentMethods, m)
}

var (
	// ErrMissingCustomerInfo matches any MissingCustomerInfoError.
	ErrMissingCustomerInfo = errors.New("missing customer info")
	// ErrEmptyCart is returned when checking out a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = errors.New("order not found")
)

// MissingCustomerInfoError lists the required checkout fields left blank.
type MissingCustomerInfoError struct {
	Fields []string
}

func (e *MissingCustomerInfoError) Error() string {
	return fmt.Sprintf("missing customer info: %s", strings.Join(e.Fields, ", "))
}

// Is makes errors.Is(err, ErrMissingCustomerInfo) hold.
func (e *MissingCustomerInfoError) Is(target error) bool {
	return target == ErrMissingCustomerInfo
}

// Checkout holds the customer data collected by the checkout form. Name,
// phone and address are required; a value made only of whitespace counts as
// missing.
type Checkout struct {
	Name          string
	Phone         string
	Address       string
	PaymentMethod string
}

// validate checks that name, phone and address are present and not blank.
func (c Checkout) validate() error {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(c.Address) == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return &MissingCustomerInfoError{Fields: missing}
	}
	return nil
}

// Order is an immutable snapshot of a cart taken at checkout.
type Order struct {
	ID              int64
	CreatedAt       time.Time
	Status          string
	PaymentMethod   string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Items           []cart.Item
	Subtotal        decimal.Decimal
	Delivery        decimal.Decimal
	Total           decimal.Decimal
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	o.Items = slices.Clone(o.Items)
	return o
}

// ItemCount returns the total number of units in the order.
func (o Order) ItemCount() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}
