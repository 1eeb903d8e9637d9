// Package serializer implements the per-line-type protocol that describes a
// line's fields and folds its raw property values into priced quantities.
package serializer

import "github.com/jsamuelsen/quote-engine/internal/domain"

// Field styles understood by the rendering layer.
const (
	StyleMini   = "input-mini"
	StyleMedium = "input-medium"
)

// LineSerializer describes and aggregates the lines of one line type.
//
// Fields returns the summary columns shown in list views. DetailFields
// returns the full column set for editing a single line and may depend on
// the quote's dates. Update recomputes derived values of line from its raw
// properties; it must be idempotent.
type LineSerializer interface {
	DiscountPossible() bool
	RateVisible() bool
	Fields(q *domain.Quote) []domain.QuoteLineField
	DetailFields(q *domain.Quote) []domain.QuoteLineField
	Update(q *domain.Quote, line *domain.QuoteLine)
}

// DetailFrozenFields returns the detail fields pinned while scrolling.
func DetailFrozenFields(s LineSerializer, q *domain.Quote) []domain.QuoteLineField {
	return filterFrozen(s.DetailFields(q), true)
}

// DetailNonFrozenFields returns the detail fields that scroll.
func DetailNonFrozenFields(s LineSerializer, q *domain.Quote) []domain.QuoteLineField {
	return filterFrozen(s.DetailFields(q), false)
}

func filterFrozen(fields []domain.QuoteLineField, frozen bool) []domain.QuoteLineField {
	out := make([]domain.QuoteLineField, 0, len(fields))

	for _, f := range fields {
		if f.Freeze == frozen {
			out = append(out, f)
		}
	}

	return out
}
