package order

import "strings"

// Category is the display classification of a free-form status string.
type Category int

// Status categories.
const (
	CategoryReceived Category = iota
	CategoryInTransit
	CategoryDelivered
	CategoryCancelled
)

func (c Category) String() string {
	switch c {
	case CategoryInTransit:
		return "in_transit"
	case CategoryDelivered:
		return "delivered"
	case CategoryCancelled:
		return "cancelled"
	default:
		return "received"
	}
}

// Glyph returns the icon shown next to orders in this category.
func (c Category) Glyph() string {
	switch c {
	case CategoryInTransit:
		return "🚚"
	case CategoryDelivered:
		return "✅"
	case CategoryCancelled:
		return "⛔"
	default:
		return "🧾"
	}
}

// StatusRule maps statuses containing Keyword to Category.
type StatusRule struct {
	Keyword  string
	Category Category
}

// DefaultStatusRules matches the Spanish status vocabulary.
var DefaultStatusRules = []StatusRule{
	{Keyword: "camino", Category: CategoryInTransit},
	{Keyword: "entreg", Category: CategoryDelivered},
	{Keyword: "cancel", Category: CategoryCancelled},
}

// Classifier assigns a Category to status strings using an ordered rule
// table. The first rule whose keyword occurs in the status, ignoring case,
// wins; statuses matching no rule fall back to CategoryReceived.
type Classifier struct {
	rules []StatusRule
}

// NewClassifier creates a Classifier over rules. Keywords are compared
// case-insensitively; empty keywords are ignored.
func NewClassifier(rules []StatusRule) *Classifier {
	c := &Classifier{rules: make([]StatusRule, 0, len(rules))}
	for _, r := range rules {
		if r.Keyword == "" {
			continue
		}
		c.rules = append(c.rules, StatusRule{Keyword: strings.ToLower(r.Keyword), Category: r.Category})
	}
	return c
}

// Classify returns the category of status.
func (c *Classifier) Classify(status string) Category {
	s := strings.ToLower(status)
	for _, r := range c.rules {
		if strings.Contains(s, r.Keyword) {
			return r.Category
		}
	}
	return CategoryReceived
}

var defaultClassifier = NewClassifier(DefaultStatusRules)

// StatusGlyph classifies status with DefaultStatusRules and returns its glyph.
func StatusGlyph(status string) string {
	return defaultClassifier.Classify(status).Glyph()
}
