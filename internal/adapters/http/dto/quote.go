package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jsamuelsen/quote-engine/internal/domain"
)

// moneyPlaces is the number of decimal places money is rendered with.
const moneyPlaces = 2

// Money renders an amount rounded half away from zero to two places.
// Amounts are only rounded here; the engine keeps exact values.
func Money(d decimal.Decimal) string {
	return d.StringFixed(moneyPlaces)
}

// CreateQuoteRequest is the body of POST /quotes.
type CreateQuoteRequest struct {
	OutletID string `json:"outletId" validate:"required"`
	TypeID   string `json:"typeId"   validate:"required"`
}

// UpdateQuoteRequest is the body of PATCH /quotes/:id. Absent fields are
// left unchanged.
type UpdateQuoteRequest struct {
	Version    int64      `json:"version"    validate:"gte=0"`
	StartDate  *time.Time `json:"startDate"`
	Duration   *int       `json:"duration"   validate:"omitempty,gte=1"`
	ValidUntil *time.Time `json:"validUntil"`
	Currency   *string    `json:"currency"   validate:"omitempty,currency"`
	QuoteFor   *string    `json:"quoteFor"`
	BookedBy   *string    `json:"bookedBy"`
}

// StepRequest is the body of POST /quotes/:id/step.
type StepRequest struct {
	OptionID string `json:"optionId" validate:"required"`
	Version  int64  `json:"version"  validate:"gte=0"`
}

// VersionRequest carries only the expected quote version.
type VersionRequest struct {
	Version int64 `json:"version" form:"version" validate:"gte=0"`
}

// UpdateLineRequest is the body of PATCH on a line. Properties maps field
// ids to raw values.
type UpdateLineRequest struct {
	Version    int64             `json:"version"    validate:"gte=0"`
	Quantity   *decimal.Decimal  `json:"quantity"`
	BookRate   *decimal.Decimal  `json:"bookRate"`
	Discount   *decimal.Decimal  `json:"discount"`
	Properties map[string]string `json:"properties"`
}

// CommentRequest is the body of POST /quotes/:id/comments.
type CommentRequest struct {
	Version int64  `json:"version" validate:"gte=0"`
	Text    string `json:"text"    validate:"notempty,max=4000"`
}

// ListQuotesRequest holds the query of GET /quotes.
type ListQuotesRequest struct {
	PaginationRequest

	Rep    string `form:"rep"`
	Status string `form:"status" validate:"omitempty,oneof=active closed trashed"`
}

// PurgeRequest holds the query of DELETE /trash.
type PurgeRequest struct {
	Rep string `form:"rep"`
}

// PurgeResponse reports how many quotes a purge deleted.
type PurgeResponse struct {
	Purged int `json:"purged"`
}

// TotalsResponse holds the rounded roll-ups of a quote.
type TotalsResponse struct {
	SubtotalBeforeDiscounts string `json:"subtotalBeforeDiscounts"`
	SubtotalAfterDiscounts  string `json:"subtotalAfterDiscounts"`
	Discount                string `json:"discount"`
	VAT                     string `json:"vat"`
	SubtotalAfterVAT        string `json:"subtotalAfterVat"`
	SubtotalNonVAT          string `json:"subtotalNonVat"`
	GrandTotal              string `json:"grandTotal"`
}

// NewTotalsResponse rounds t for display.
func NewTotalsResponse(t domain.Totals) TotalsResponse {
	return TotalsResponse{
		SubtotalBeforeDiscounts: Money(t.SubtotalBeforeDiscounts),
		SubtotalAfterDiscounts:  Money(t.SubtotalAfterDiscounts),
		Discount:                Money(t.Discount),
		VAT:                     Money(t.VAT),
		SubtotalAfterVAT:        Money(t.SubtotalAfterVAT),
		SubtotalNonVAT:          Money(t.SubtotalNonVAT),
		GrandTotal:              Money(t.GrandTotal),
	}
}

// LineResponse is a line with its derived amounts.
type LineResponse struct {
	ID             string                      `json:"id"`
	Quantity       string                      `json:"quantity"`
	BookRate       string                      `json:"bookRate"`
	Discount       string                      `json:"discount"`
	Rate           string                      `json:"rate"`
	Subtotal       string                      `json:"subtotal"`
	DiscountAmount string                      `json:"discountAmount"`
	Total          string                      `json:"total"`
	Properties     []*domain.QuoteLineProperty `json:"properties"`
}

// NewLineResponse converts a line.
func NewLineResponse(l *domain.QuoteLine) LineResponse {
	return LineResponse{
		ID:             l.ID,
		Quantity:       l.Quantity.String(),
		BookRate:       Money(l.BookRate),
		Discount:       Money(l.Discount),
		Rate:           Money(l.Rate()),
		Subtotal:       Money(l.Subtotal()),
		DiscountAmount: Money(l.DiscountAmount()),
		Total:          Money(l.Total()),
		Properties:     l.Properties,
	}
}

// SectionResponse is a section with its roll-ups.
type SectionResponse struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	LineType       domain.QuoteLineType `json:"lineType"`
	ExcludeFromVAT bool                 `json:"excludeFromVat"`
	RateCardID     string               `json:"rateCardId,omitempty"`
	DisplayOrder   int                  `json:"displayOrder"`
	TotalQuantity  string               `json:"totalQuantity"`
	Subtotal       string               `json:"subtotal"`
	Discount       string               `json:"discount"`
	Total          string               `json:"total"`
	Lines          []LineResponse       `json:"lines"`
}

// NewSectionResponse converts a section and its lines.
func NewSectionResponse(s *domain.QuoteLineSection) SectionResponse {
	lines := make([]LineResponse, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, NewLineResponse(l))
	}

	return SectionResponse{
		ID:             s.ID,
		Name:           s.Name,
		LineType:       s.LineType,
		ExcludeFromVAT: s.ExcludeFromVAT,
		RateCardID:     s.RateCardID,
		DisplayOrder:   s.DisplayOrder,
		TotalQuantity:  s.TotalQuantity().String(),
		Subtotal:       Money(s.Subtotal()),
		Discount:       Money(s.Discount()),
		Total:          Money(s.Total()),
		Lines:          lines,
	}
}

// QuoteSummary is a quote as it appears in lists.
type QuoteSummary struct {
	ID                  string    `json:"id"`
	Version             int64     `json:"version"`
	QuoteNumber         string    `json:"quoteNumber"`
	OutletID            string    `json:"outletId"`
	TypeID              string    `json:"typeId"`
	QuoteDate           time.Time `json:"quoteDate"`
	StartDate           time.Time `json:"startDate"`
	SalesRepresentative string    `json:"salesRepresentative,omitempty"`
	QuoteFor            string    `json:"quoteFor,omitempty"`
	CurrentState        string    `json:"currentState"`
}

// NewQuoteSummary converts a quote for a list.
func NewQuoteSummary(q *domain.Quote) QuoteSummary {
	return QuoteSummary{
		ID:                  q.ID,
		Version:             q.Version,
		QuoteNumber:         q.QuoteNumber,
		OutletID:            q.OutletID,
		TypeID:              q.TypeID,
		QuoteDate:           q.QuoteDate,
		StartDate:           q.StartDate,
		SalesRepresentative: q.SalesRepresentative,
		QuoteFor:            q.QuoteFor,
		CurrentState:        q.CurrentState,
	}
}

// QuoteResponse is the full quote document.
type QuoteResponse struct {
	QuoteSummary

	EndDate        time.Time                        `json:"endDate"`
	Duration       int                              `json:"duration"`
	ValidUntil     *time.Time                       `json:"validUntil,omitempty"`
	Currency       string                           `json:"currency"`
	PaymentTerms   string                           `json:"paymentTerms,omitempty"`
	BookedBy       string                           `json:"bookedBy,omitempty"`
	Classification domain.Classification            `json:"classification,omitempty"`
	CanPullback    bool                             `json:"canPullback"`
	Options        []domain.WorkflowStateOption     `json:"options,omitempty"`
	Totals         *TotalsResponse                  `json:"totals,omitempty"`
	Sections       []SectionResponse                `json:"sections"`
	Comments       []domain.QuoteComment            `json:"comments"`
	History        []domain.WorkflowStateTransition `json:"history"`
}

// NewQuoteResponse converts a quote. Derived fields that need the catalog
// (totals, classification, options) are set by the caller.
func NewQuoteResponse(q *domain.Quote) *QuoteResponse {
	sections := make([]SectionResponse, 0, len(q.Sections))
	for _, s := range q.Sections {
		sections = append(sections, NewSectionResponse(s))
	}

	comments := q.Comments
	if comments == nil {
		comments = []domain.QuoteComment{}
	}

	return &QuoteResponse{
		QuoteSummary: NewQuoteSummary(q),
		EndDate:      q.EndDate(),
		Duration:     q.Duration,
		ValidUntil:   q.ValidUntil,
		Currency:     q.Currency,
		PaymentTerms: q.PaymentTerms,
		BookedBy:     q.BookedBy,
		Sections:     sections,
		Comments:     comments,
		History:      q.History,
	}
}

// LineSchemaResponse lists the columns of a section's lines.
type LineSchemaResponse struct {
	Serializer       string                  `json:"serializer"`
	DiscountPossible bool                    `json:"discountPossible"`
	RateVisible      bool                    `json:"rateVisible"`
	Summary          []domain.QuoteLineField `json:"summary"`
	Detail           []domain.QuoteLineField `json:"detail"`
	Frozen           []domain.QuoteLineField `json:"frozen"`
	NonFrozen        []domain.QuoteLineField `json:"nonFrozen"`
}
