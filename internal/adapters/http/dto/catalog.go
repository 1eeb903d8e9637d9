package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jsamuelsen/quote-engine/internal/domain"
)

// OutletRequest is the body of PUT /outlets/:id. The quote counter is not
// writable through the API.
type OutletRequest struct {
	Name            string            `json:"name"            validate:"required"`
	Abbreviation    string            `json:"abbreviation"    validate:"required,max=16"`
	VATRate         decimal.Decimal   `json:"vatRate"`
	DefaultCurrency string            `json:"defaultCurrency" validate:"omitempty,currency"`
	Active          bool              `json:"active"`
	Bands           []domain.Band     `json:"bands"`
	AdSizes         []domain.AdSize   `json:"adSizes"`
	RateCards       []domain.RateCard `json:"rateCards"`
}

// ToDomain converts the request into an outlet with the given id.
func (r *OutletRequest) ToDomain(id string) *domain.Outlet {
	return &domain.Outlet{
		ID:              id,
		Name:            r.Name,
		Abbreviation:    r.Abbreviation,
		VATRate:         r.VATRate,
		DefaultCurrency: r.DefaultCurrency,
		Active:          r.Active,
		Bands:           r.Bands,
		AdSizes:         r.AdSizes,
		RateCards:       r.RateCards,
	}
}

// PriceRequest is the body of PUT on a rate card price cell.
type PriceRequest struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	BandID   string          `json:"bandId"`
	AdSizeID string          `json:"adSizeId"`
	Price    decimal.Decimal `json:"price"`
}

// ToDomain converts the request into a price cell.
func (r *PriceRequest) ToDomain() domain.RateCardPrice {
	return domain.RateCardPrice{
		ID:       r.ID,
		Name:     r.Name,
		BandID:   r.BandID,
		AdSizeID: r.AdSizeID,
		Price:    r.Price,
	}
}

// Validate rejects negative prices.
func (r *PriceRequest) Validate() error {
	if r.Price.IsNegative() {
		return domain.NewValidationErrorWithValue("price", "must not be negative", r.Price.String())
	}

	return nil
}

// PriceResponse is a rounded price cell.
type PriceResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	BandID   string `json:"bandId,omitempty"`
	AdSizeID string `json:"adSizeId,omitempty"`
	Price    string `json:"price"`
}

// RateCardResponse is a rate card with rounded prices.
type RateCardResponse struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Simple bool            `json:"simple"`
	Prices []PriceResponse `json:"prices"`
}

// NewRateCardResponse converts a rate card.
func NewRateCardResponse(rc *domain.RateCard) RateCardResponse {
	prices := make([]PriceResponse, 0, len(rc.Prices))
	for _, p := range rc.Prices {
		prices = append(prices, PriceResponse{
			ID:       p.ID,
			Name:     p.Name,
			BandID:   p.BandID,
			AdSizeID: p.AdSizeID,
			Price:    Money(p.Price),
		})
	}

	return RateCardResponse{ID: rc.ID, Name: rc.Name, Simple: rc.Simple, Prices: prices}
}

// OutletResponse is an outlet with its catalog.
type OutletResponse struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Abbreviation    string             `json:"abbreviation"`
	VATRate         string             `json:"vatRate"`
	DefaultCurrency string             `json:"defaultCurrency"`
	LastQuoteNumber int64              `json:"lastQuoteNumber"`
	Active          bool               `json:"active"`
	Bands           []domain.Band      `json:"bands"`
	AdSizes         []domain.AdSize    `json:"adSizes"`
	RateCards       []RateCardResponse `json:"rateCards"`
}

// NewOutletResponse converts an outlet. The VAT rate keeps its precision.
func NewOutletResponse(o *domain.Outlet) *OutletResponse {
	cards := make([]RateCardResponse, 0, len(o.RateCards))
	for i := range o.RateCards {
		cards = append(cards, NewRateCardResponse(&o.RateCards[i]))
	}

	return &OutletResponse{
		ID:              o.ID,
		Name:            o.Name,
		Abbreviation:    o.Abbreviation,
		VATRate:         o.VATRate.String(),
		DefaultCurrency: o.DefaultCurrency,
		LastQuoteNumber: o.LastQuoteNumber,
		Active:          o.Active,
		Bands:           nonNil(o.Bands),
		AdSizes:         nonNil(o.AdSizes),
		RateCards:       cards,
	}
}

// AxesResponse lists the bands and ad sizes priced on a rate card.
type AxesResponse struct {
	Bands   []domain.Band   `json:"bands"`
	AdSizes []domain.AdSize `json:"adSizes"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}
