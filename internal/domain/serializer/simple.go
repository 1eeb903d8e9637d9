package serializer

import "github.com/jsamuelsen/quote-engine/internal/domain"

// FieldPrize is the single free-text field of a simple line.
const FieldPrize = "PRIZE"

// Simple is a free-text line without pricing controls.
type Simple struct{}

// NewSimple returns the simple serializer.
func NewSimple() (LineSerializer, error) {
	return Simple{}, nil
}

func (Simple) DiscountPossible() bool { return false }

func (Simple) RateVisible() bool { return false }

func (Simple) Fields(*domain.Quote) []domain.QuoteLineField {
	return []domain.QuoteLineField{{
		ID:           FieldPrize,
		DisplayOrder: 1,
		Label:        "Prize",
		Type:         domain.FieldTypeText,
		Style:        StyleMedium,
	}}
}

func (s Simple) DetailFields(q *domain.Quote) []domain.QuoteLineField {
	return s.Fields(q)
}

// Update mirrors the prize value into the property name.
func (Simple) Update(_ *domain.Quote, line *domain.QuoteLine) {
	if p, ok := line.Property(FieldPrize); ok {
		p.Name = p.Value
	}
}
