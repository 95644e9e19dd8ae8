package product

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// AllCategories is the pseudo-category that matches every product.
const AllCategories = "Todos"

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// DuplicateIDError indicates two catalog entries share an identifier.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate product id %q", e.ID)
}

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Unit        string
	Emoji       string
}

// Catalog is the ordered, read-only product list loaded once at startup.
type Catalog struct {
	products   []Product
	byID       map[string]int
	index      []searchEntry
	categories []string
}

// NewCatalog validates products and builds the lookup and search indexes.
// Product order is preserved.
func NewCatalog(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: slices.Clone(products),
		byID:     make(map[string]int, len(products)),
		index:    make([]searchEntry, len(products)),
	}

	seen := make(map[string]struct{})
	for i, p := range c.products {
		if p.ID == "" {
			return nil, errors.Errorf("product at position %d has empty id", i)
		}
		if _, ok := c.byID[p.ID]; ok {
			return nil, &DuplicateIDError{ID: p.ID}
		}
		if p.Price.IsNegative() {
			return nil, errors.Errorf("product %q has negative price %s", p.ID, p.Price)
		}
		c.byID[p.ID] = i
		c.index[i] = newSearchEntry(haystack(p))

		if _, ok := seen[p.Category]; !ok {
			seen[p.Category] = struct{}{}
			c.categories = append(c.categories, p.Category)
		}
	}
	slices.Sort(c.categories)

	return c, nil
}

// Products returns a copy of the catalog in its original order.
func (c *Catalog) Products() []Product {
	return slices.Clone(c.products)
}

// Len returns the number of products in the catalog.
func (c *Catalog) Len() int {
	return len(c.products)
}

// Lookup returns the product with the given id.
func (c *Catalog) Lookup(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

// Get is like Lookup but reports a missing product as ErrNotFound.
func (c *Catalog) Get(id string) (Product, error) {
	p, ok := c.Lookup(id)
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// Price returns the current unit price of the given product.
func (c *Catalog) Price(id string) (decimal.Decimal, bool) {
	p, ok := c.Lookup(id)
	if !ok {
		return decimal.Zero, false
	}
	return p.Price, true
}

// Categories returns AllCategories followed by every distinct category,
// sorted.
func (c *Catalog) Categories() []string {
	out := make([]string, 0, len(c.categories)+1)
	out = append(out, AllCategories)
	return append(out, c.categories...)
}

// Filter returns the products in category (empty or AllCategories for any)
// whose name, description or category contains query, ignoring case.
func (c *Catalog) Filter(category, query string) []Product {
	anyCategory := category == "" || category == AllCategories
	q := strings.ToLower(query)

	out := make([]Product, 0, len(c.products))
	for i, p := range c.products {
		if !anyCategory && p.Category != category {
			continue
		}
		if q != "" && !c.index[i].contains(q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func haystack(p Product) string {
	return strings.ToLower(p.Name + " " + p.Description + " " + p.Category)
}
