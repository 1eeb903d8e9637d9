package serializer

import "github.com/jsamuelsen/quote-engine/internal/domain"

// FieldProduct selects a rate card product.
const FieldProduct = "PRODUCT"

// RateCard is a line priced by picking a product off a rate card.
type RateCard struct{}

// NewRateCard returns the rate card serializer.
func NewRateCard() (LineSerializer, error) {
	return RateCard{}, nil
}

func (RateCard) DiscountPossible() bool { return true }

func (RateCard) RateVisible() bool { return true }

func (RateCard) Fields(*domain.Quote) []domain.QuoteLineField {
	return []domain.QuoteLineField{{
		ID:           FieldProduct,
		DisplayOrder: 1,
		Name:         "Select",
		Label:        "Product",
		Type:         domain.FieldTypeRateCard,
		Style:        StyleMedium,
	}}
}

func (r RateCard) DetailFields(q *domain.Quote) []domain.QuoteLineField {
	return r.Fields(q)
}

// Update is a no-op: rate card lines carry no derived values.
func (RateCard) Update(*domain.Quote, *domain.QuoteLine) {}
