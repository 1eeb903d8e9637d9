package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultQuoteDuration is the duration in weeks used when a quote type
// does not set one.
const DefaultQuoteDuration = 1

const (
	daysPerWeek             = 7
	quoteNumberSeparator    = "/"
	quoteSubjectDescription = "quote "
)

// QuoteLineType names the serializer variant that governs lines of a
// section.
type QuoteLineType struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Serializer string `json:"serializer"`
}

// QuoteSectionType is one entry of a quote type's section template.
type QuoteSectionType struct {
	Name           string        `json:"name"`
	LineType       QuoteLineType `json:"lineType"`
	ExcludeFromVAT bool          `json:"excludeFromVat"`
	RateCardID     string        `json:"rateCardId,omitempty"`
	DisplayOrder   int           `json:"displayOrder"`
}

// QuoteType is the template for a category of quote.
type QuoteType struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	WorkflowDefinitionID string             `json:"workflowDefinitionId"`
	Sections             []QuoteSectionType `json:"sections"`
	DefaultDuration      int                `json:"defaultDuration"`
	DefaultStartOffset   int                `json:"defaultStartOffset"`
}

// Duration returns the default quote duration in weeks.
func (qt *QuoteType) Duration() int {
	if qt.DefaultDuration <= 0 {
		return DefaultQuoteDuration
	}

	return qt.DefaultDuration
}

// QuoteLineSection groups the lines of one line type inside a quote.
type QuoteLineSection struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	LineType       QuoteLineType `json:"lineType"`
	ExcludeFromVAT bool          `json:"excludeFromVat"`
	RateCardID     string        `json:"rateCardId,omitempty"`
	DisplayOrder   int           `json:"displayOrder"`
	Lines          []*QuoteLine  `json:"lines"`
}

// Line returns the section's line with the given id.
func (s *QuoteLineSection) Line(id string) (*QuoteLine, error) {
	for _, l := range s.Lines {
		if l.ID == id {
			return l, nil
		}
	}

	return nil, NewNotFoundError("quote line", id)
}

// RemoveLine deletes a line from the section.
func (s *QuoteLineSection) RemoveLine(id string) error {
	for i, l := range s.Lines {
		if l.ID == id {
			s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
			return nil
		}
	}

	return NewNotFoundError("quote line", id)
}

// Subtotal sums line subtotals.
func (s *QuoteLineSection) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range s.Lines {
		sum = sum.Add(l.Subtotal())
	}

	return sum
}

// Total sums line totals.
func (s *QuoteLineSection) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range s.Lines {
		sum = sum.Add(l.Total())
	}

	return sum
}

// Discount sums discount times quantity over the lines.
func (s *QuoteLineSection) Discount() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range s.Lines {
		sum = sum.Add(l.DiscountAmount())
	}

	return sum
}

// TotalQuantity sums line quantities.
func (s *QuoteLineSection) TotalQuantity() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range s.Lines {
		sum = sum.Add(l.Quantity)
	}

	return sum
}

// SummaryValue adds up an integer summary field across lines. Values that
// do not parse count as zero.
func (s *QuoteLineSection) SummaryValue(fieldID string) int64 {
	var sum int64

	for _, l := range s.Lines {
		p, ok := l.Property(fieldID)
		if !ok {
			continue
		}

		if n, err := strconv.ParseInt(p.Value, 10, 64); err == nil {
			sum += n
		}
	}

	return sum
}

// QuoteComment is a free-text note on a quote.
type QuoteComment struct {
	ID      string    `json:"id"`
	Author  string    `json:"author,omitempty"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

// Quote is the priced document driven through its type's workflow.
// Sections, lines and properties are owned by value and are deleted with
// the quote.
type Quote struct {
	Workflowable

	ID                  string              `json:"id"`
	Version             int64               `json:"version"`
	OutletID            string              `json:"outletId"`
	QuoteNumber         string              `json:"quoteNumber"`
	QuoteDate           time.Time           `json:"quoteDate"`
	StartDate           time.Time           `json:"startDate"`
	Duration            int                 `json:"duration"`
	ValidUntil          *time.Time          `json:"validUntil,omitempty"`
	SalesRepresentative string              `json:"salesRepresentative,omitempty"`
	TypeID              string              `json:"typeId"`
	Currency            string              `json:"currency"`
	PaymentTerms        string              `json:"paymentTerms,omitempty"`
	QuoteFor            string              `json:"quoteFor,omitempty"`
	BookedBy            string              `json:"bookedBy,omitempty"`
	Sections            []*QuoteLineSection `json:"sections"`
	Comments            []QuoteComment      `json:"comments"`
}

// SubjectName identifies the quote in workflow errors.
func (q *Quote) SubjectName() string {
	if q.QuoteNumber != "" {
		return quoteSubjectDescription + q.QuoteNumber
	}

	return quoteSubjectDescription + q.ID
}

// EndDate is the start date plus the duration in weeks.
func (q *Quote) EndDate() time.Time {
	return q.StartDate.AddDate(0, 0, q.Duration*daysPerWeek)
}

// Section returns the quote's section with the given id.
func (q *Quote) Section(id string) (*QuoteLineSection, error) {
	for _, s := range q.Sections {
		if s.ID == id {
			return s, nil
		}
	}

	return nil, NewNotFoundError("quote section", id)
}

// FormatQuoteNumber builds the per-outlet quote number.
func FormatQuoteNumber(abbreviation string, counter int64) string {
	return abbreviation + quoteNumberSeparator + strconv.FormatInt(counter, 10)
}

// SectionsFromTemplate expands a quote type's section template in order.
// newID supplies the id of each section.
func SectionsFromTemplate(qt *QuoteType, newID func() string) []*QuoteLineSection {
	sections := make([]*QuoteLineSection, 0, len(qt.Sections))

	for _, st := range qt.Sections {
		sections = append(sections, &QuoteLineSection{
			ID:             newID(),
			Name:           st.Name,
			LineType:       st.LineType,
			ExcludeFromVAT: st.ExcludeFromVAT,
			RateCardID:     st.RateCardID,
			DisplayOrder:   st.DisplayOrder,
			Lines:          []*QuoteLine{},
		})
	}

	return sections
}

// CalendarDay truncates t to midnight UTC of its calendar date.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
