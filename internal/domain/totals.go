package domain

import "github.com/shopspring/decimal"

// Totals are the price roll-ups of a quote. They are derived on every read
// and never stored.
type Totals struct {
	SubtotalBeforeDiscounts decimal.Decimal
	SubtotalAfterDiscounts  decimal.Decimal
	Discount                decimal.Decimal
	VAT                     decimal.Decimal
	SubtotalAfterVAT        decimal.Decimal
	SubtotalNonVAT          decimal.Decimal
	GrandTotal              decimal.Decimal
}

// Totals computes the roll-ups at the given VAT rate. Sections flagged
// ExcludeFromVAT only contribute to SubtotalNonVAT. No rounding is
// applied.
func (q *Quote) Totals(vatRate decimal.Decimal) Totals {
	t := Totals{
		SubtotalBeforeDiscounts: decimal.Zero,
		SubtotalAfterDiscounts:  decimal.Zero,
		Discount:                decimal.Zero,
		SubtotalNonVAT:          decimal.Zero,
	}

	for _, s := range q.Sections {
		if s.ExcludeFromVAT {
			t.SubtotalNonVAT = t.SubtotalNonVAT.Add(s.Total())
			continue
		}

		t.SubtotalBeforeDiscounts = t.SubtotalBeforeDiscounts.Add(s.Subtotal())
		t.SubtotalAfterDiscounts = t.SubtotalAfterDiscounts.Add(s.Total())
		t.Discount = t.Discount.Add(s.Discount())
	}

	t.VAT = t.SubtotalAfterDiscounts.Mul(vatRate)
	t.SubtotalAfterVAT = t.SubtotalAfterDiscounts.Add(t.VAT)
	t.GrandTotal = t.SubtotalAfterVAT.Add(t.SubtotalNonVAT)

	return t
}
