package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rendering type tags used by line fields.
const (
	FieldTypeText     = "text"
	FieldTypeInt      = "int"
	FieldTypeDate     = "date"
	FieldTypeRateCard = "rateCard"
)

// QuoteLineField describes one column of a line's schema. Fields are
// produced by a line serializer and are never stored per line.
type QuoteLineField struct {
	ID           string `json:"id"`
	DisplayOrder int    `json:"displayOrder"`
	Name         string `json:"name"`
	Label        string `json:"label"`
	Qualifier    string `json:"qualifier,omitempty"`
	DefaultValue string `json:"defaultValue,omitempty"`
	Type         string `json:"type"`
	Style        string `json:"style,omitempty"`
	Summary      bool   `json:"summary"`
	Freeze       bool   `json:"freeze"`
	ReadOnly     bool   `json:"readOnly"`
}

// Equal reports whether two fields describe the same column.
func (f QuoteLineField) Equal(other QuoteLineField) bool {
	return f.ID == other.ID
}

// QuoteLineProperty is the stored value of one field on one line.
type QuoteLineProperty struct {
	NamedIdentifier string `json:"namedIdentifier"`
	Qualifier       string `json:"qualifier,omitempty"`
	Name            string `json:"name"`
	Label           string `json:"label"`
	Value           string `json:"value"`
}

// QuoteLine is a priced order line with a schema-described property bag.
type QuoteLine struct {
	ID         string               `json:"id"`
	Quantity   decimal.Decimal      `json:"quantity"`
	BookRate   decimal.Decimal      `json:"bookRate"`
	Discount   decimal.Decimal      `json:"discount"`
	Properties []*QuoteLineProperty `json:"properties"`
}

// NewQuoteLine returns an empty line with zero amounts.
func NewQuoteLine(id string) *QuoteLine {
	return &QuoteLine{
		ID:         id,
		Quantity:   decimal.Zero,
		BookRate:   decimal.Zero,
		Discount:   decimal.Zero,
		Properties: []*QuoteLineProperty{},
	}
}

// Rate is the book rate less the discount. It may be negative.
func (l *QuoteLine) Rate() decimal.Decimal {
	return l.BookRate.Sub(l.Discount)
}

// Subtotal is quantity times book rate.
func (l *QuoteLine) Subtotal() decimal.Decimal {
	return l.Quantity.Mul(l.BookRate)
}

// Total is quantity times rate.
func (l *QuoteLine) Total() decimal.Decimal {
	return l.Quantity.Mul(l.Rate())
}

// DiscountAmount is the discount applied across the whole quantity.
func (l *QuoteLine) DiscountAmount() decimal.Decimal {
	return l.Discount.Mul(l.Quantity)
}

// Property returns the property whose identifier matches id
// (case-insensitive) without creating one.
func (l *QuoteLine) Property(id string) (*QuoteLineProperty, bool) {
	for _, p := range l.Properties {
		if strings.EqualFold(p.NamedIdentifier, id) {
			return p, true
		}
	}

	return nil, false
}

// GetOrCreateProperty returns the line's property for field, appending a
// new empty one initialised from the field when none exists yet.
//
// This mutates the line. Repeated calls for the same field id return the
// same *QuoteLineProperty.
func (l *QuoteLine) GetOrCreateProperty(field QuoteLineField) *QuoteLineProperty {
	if p, ok := l.Property(field.ID); ok {
		return p
	}

	p := &QuoteLineProperty{
		NamedIdentifier: field.ID,
		Qualifier:       field.Qualifier,
		Name:            field.Name,
		Label:           field.Label,
	}
	l.Properties = append(l.Properties, p)

	return p
}

// PopulateSchema materialises a property for every field.
func (l *QuoteLine) PopulateSchema(fields ...[]QuoteLineField) {
	for _, group := range fields {
		for _, f := range group {
			l.GetOrCreateProperty(f)
		}
	}
}

// SetPropertyValue stores a raw value for an existing property.
func (l *QuoteLine) SetPropertyValue(id, value string) error {
	p, ok := l.Property(id)
	if !ok {
		return NewNotFoundError("line property", id)
	}

	p.Value = value

	return nil
}
