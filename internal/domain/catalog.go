// Package domain contains the quote, catalog and workflow entities together
// with the business rules that operate on them. It has no knowledge of
// storage or transport.
package domain

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Outlet is a media channel that carries priced placements. It owns its
// bands, ad sizes and rate cards; deleting the outlet deletes them.
type Outlet struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Abbreviation    string          `json:"abbreviation"`
	VATRate         decimal.Decimal `json:"vatRate"`
	DefaultCurrency string          `json:"defaultCurrency"`
	LastQuoteNumber int64           `json:"lastQuoteNumber"`
	Active          bool            `json:"active"`
	Bands           []Band          `json:"bands,omitempty"`
	AdSizes         []AdSize        `json:"adSizes,omitempty"`
	RateCards       []RateCard      `json:"rateCards,omitempty"`
}

// Band is a pricing tier on a rate card, typically a time-of-day slot.
// Start and End are "HH:MM" strings and sort lexically.
type Band struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

// AdSize is a placement size on a rate card.
type AdSize struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RateCardPrice is a single cell of a rate card grid.
type RateCardPrice struct {
	ID       string          `json:"id"`
	Name     string          `json:"name,omitempty"`
	BandID   string          `json:"bandId,omitempty"`
	AdSizeID string          `json:"adSizeId,omitempty"`
	Price    decimal.Decimal `json:"price"`
}

// RateCard is a priced grid of Band x AdSize, or a flat price list when
// Simple is set.
type RateCard struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Simple bool            `json:"simple"`
	Prices []RateCardPrice `json:"prices,omitempty"`
}

// RateCard returns the outlet's rate card with the given id.
func (o *Outlet) RateCard(id string) (*RateCard, error) {
	for i := range o.RateCards {
		if o.RateCards[i].ID == id {
			return &o.RateCards[i], nil
		}
	}

	return nil, NewNotFoundError("rate card", id)
}

// Band returns the outlet's band with the given id.
func (o *Outlet) Band(id string) (*Band, bool) {
	for i := range o.Bands {
		if o.Bands[i].ID == id {
			return &o.Bands[i], true
		}
	}

	return nil, false
}

// AdSize returns the outlet's ad size with the given id.
func (o *Outlet) AdSize(id string) (*AdSize, bool) {
	for i := range o.AdSizes {
		if o.AdSizes[i].ID == id {
			return &o.AdSizes[i], true
		}
	}

	return nil, false
}

// SetPrice inserts or replaces the price for a (band, size) cell. A card
// never holds two prices for the same cell.
func (r *RateCard) SetPrice(p RateCardPrice) {
	for i := range r.Prices {
		if r.Prices[i].BandID == p.BandID && r.Prices[i].AdSizeID == p.AdSizeID {
			if p.ID == "" {
				p.ID = r.Prices[i].ID
			}

			r.Prices[i] = p

			return
		}
	}

	r.Prices = append(r.Prices, p)
}

// Price looks up the price for a (band, size) cell.
func (r *RateCard) Price(bandID, adSizeID string) (decimal.Decimal, error) {
	for _, p := range r.Prices {
		if p.BandID == bandID && p.AdSizeID == adSizeID {
			return p.Price, nil
		}
	}

	return decimal.Zero, NewNotFoundError("rate card price", r.ID+"/"+bandID+"/"+adSizeID)
}

// AvailableBands returns the distinct bands priced on this card, ordered by
// start time. Simple cards have no band axis.
func (r *RateCard) AvailableBands(o *Outlet) []Band {
	if r.Simple {
		return nil
	}

	seen := make(map[string]struct{})

	var bands []Band

	for _, p := range r.Prices {
		if _, ok := seen[p.BandID]; ok {
			continue
		}

		seen[p.BandID] = struct{}{}

		if b, ok := o.Band(p.BandID); ok {
			bands = append(bands, *b)
		}
	}

	slices.SortStableFunc(bands, func(a, b Band) int {
		return strings.Compare(a.Start, b.Start)
	})

	return bands
}

// AvailableAdSizes returns the distinct sizes priced on this card, ordered
// by name.
func (r *RateCard) AvailableAdSizes(o *Outlet) []AdSize {
	if r.Simple {
		return nil
	}

	seen := make(map[string]struct{})

	var sizes []AdSize

	for _, p := range r.Prices {
		if _, ok := seen[p.AdSizeID]; ok {
			continue
		}

		seen[p.AdSizeID] = struct{}{}

		if s, ok := o.AdSize(p.AdSizeID); ok {
			sizes = append(sizes, *s)
		}
	}

	slices.SortStableFunc(sizes, func(a, b AdSize) int {
		return strings.Compare(a.Name, b.Name)
	})

	return sizes
}

// Validate checks the outlet and every rate card it owns.
func (o *Outlet) Validate() error {
	if o.Abbreviation == "" {
		return NewValidationError("abbreviation", "is required")
	}

	if o.VATRate.IsNegative() || o.VATRate.GreaterThan(decimal.NewFromInt(1)) {
		return NewValidationErrorWithValue("vatRate", "must be between 0 and 1", o.VATRate.String())
	}

	cards := make(map[string]struct{}, len(o.RateCards))

	for i := range o.RateCards {
		rc := &o.RateCards[i]

		if _, dup := cards[rc.ID]; dup {
			return NewValidationErrorWithValue("rateCards", "duplicate rate card id", rc.ID)
		}

		cards[rc.ID] = struct{}{}

		if err := rc.Validate(o); err != nil {
			return err
		}
	}

	return nil
}

// Validate enforces one price per (band, size) cell. Cells of a grid card
// must name a band and an ad size of the outlet.
func (r *RateCard) Validate(o *Outlet) error {
	type cell struct{ band, size string }

	seen := make(map[cell]struct{}, len(r.Prices))

	for _, p := range r.Prices {
		c := cell{p.BandID, p.AdSizeID}
		if _, dup := seen[c]; dup {
			return NewValidationErrorWithValue("prices",
				"rate card "+r.ID+" prices the same band and ad size twice", p.BandID+"/"+p.AdSizeID)
		}

		seen[c] = struct{}{}

		if r.Simple {
			continue
		}

		if _, ok := o.Band(p.BandID); !ok {
			return NewValidationErrorWithValue("bandId", "is not a band of the outlet", p.BandID)
		}

		if _, ok := o.AdSize(p.AdSizeID); !ok {
			return NewValidationErrorWithValue("adSizeId", "is not an ad size of the outlet", p.AdSizeID)
		}
	}

	return nil
}
