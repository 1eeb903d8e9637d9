package serializer

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jsamuelsen/quote-engine/internal/domain"
)

// Qualifiers tagging broadcast pattern properties.
const (
	QualifierPattern        = "BROADCAST_PATTERN"
	QualifierPatternSummary = "BROADCAST_PATTERN_SUMMARY"
)

// Broadcast pattern field identifiers. LENGHT keeps its historical spelling
// because stored properties are keyed by it.
const (
	FieldRateCard = "RATE_CARD"
	FieldLength   = "LENGHT"
	FieldStart    = "START"
	FieldEnd      = "END"
	FieldTitle    = "TITLE"
)

const (
	dayLayout    = "Mon 2/1"
	periodLayout = "2/1"

	firstDayOrder = 3
)

// weekdayFields is indexed by time.Weekday.
var weekdayFields = [7]struct {
	id   string
	name string
}{
	{"SUNDAYS", "S"},
	{"MONDAYS", "M"},
	{"TUESDAYS", "T"},
	{"WEDNESDAYS", "W"},
	{"THURSDAYS", "T"},
	{"FRIDAYS", "F"},
	{"SATURDAYS", "S"},
}

// BroadcastPattern is a spot-ad line whose quantity is a calendar grid of
// spots per broadcast day.
type BroadcastPattern struct{}

// NewBroadcastPattern returns the broadcast pattern serializer.
func NewBroadcastPattern() (LineSerializer, error) {
	return BroadcastPattern{}, nil
}

func (BroadcastPattern) DiscountPossible() bool { return true }

func (BroadcastPattern) RateVisible() bool { return true }

// Fields returns the aggregated summary columns: rate card, length, one
// total per weekday, the active period and the title.
func (BroadcastPattern) Fields(*domain.Quote) []domain.QuoteLineField {
	fields := []domain.QuoteLineField{
		{ID: FieldRateCard, DisplayOrder: 1, Name: "Select rate card", Label: "Day part", Type: domain.FieldTypeText, Style: StyleMini},
		{ID: FieldLength, DisplayOrder: 2, Name: "Length", Label: "Length", Type: domain.FieldTypeText, Style: StyleMini},
	}

	for i, wd := range weekdayFields {
		fields = append(fields, domain.QuoteLineField{
			ID:           wd.id,
			DisplayOrder: firstDayOrder + i,
			Name:         wd.name,
			Label:        wd.name,
			Qualifier:    QualifierPatternSummary,
			Type:         domain.FieldTypeInt,
			Style:        StyleMini,
			Summary:      true,
		})
	}

	return append(fields,
		domain.QuoteLineField{ID: FieldStart, DisplayOrder: 11, Name: "Start", Label: "Start", Type: domain.FieldTypeDate, Style: StyleMini},
		domain.QuoteLineField{ID: FieldEnd, DisplayOrder: 12, Name: "End", Label: "End", Type: domain.FieldTypeDate, Style: StyleMini},
		domain.QuoteLineField{ID: FieldTitle, DisplayOrder: 13, Name: "Title", Label: "Title", Type: domain.FieldTypeText, Style: StyleMini},
	)
}

// DetailFields returns the editing columns with one field per broadcast
// day. The grid starts on the Sunday on or before the quote's start date
// and is padded with read-only days so it always spans whole weeks. Days
// before the start date are read-only as well.
func (BroadcastPattern) DetailFields(q *domain.Quote) []domain.QuoteLineField {
	start := domain.CalendarDay(q.StartDate)
	end := domain.CalendarDay(q.EndDate())

	fields := []domain.QuoteLineField{
		{ID: FieldRateCard, DisplayOrder: 1, Name: "Select rate card", Label: "Rate Card", Type: domain.FieldTypeRateCard, Style: StyleMedium, Freeze: true},
		{ID: FieldLength, DisplayOrder: 2, Label: "Size", Type: domain.FieldTypeText, Style: StyleMedium, Freeze: true, ReadOnly: true},
	}

	order := firstDayOrder
	day := start.AddDate(0, 0, -int(start.Weekday()))

	for ; day.Before(end); day = day.AddDate(0, 0, 1) {
		fields = append(fields, dayField(day, order, day.Before(start)))
		order++
	}

	for day.Weekday() != time.Sunday {
		fields = append(fields, dayField(day, order, true))
		order++
		day = day.AddDate(0, 0, 1)
	}

	return append(fields, domain.QuoteLineField{
		ID: FieldTitle, DisplayOrder: order, Name: "Title", Label: "Title", Type: domain.FieldTypeText, Style: StyleMedium,
	})
}

// Update recomputes quantity, the weekday totals and the active period
// from the per-day counts. Unparsable or negative counts contribute zero.
func (BroadcastPattern) Update(q *domain.Quote, line *domain.QuoteLine) {
	var (
		quantity int64
		weekdays [7]int64
		first    time.Time
		last     time.Time
	)

	for _, p := range line.Properties {
		if p.Qualifier != QualifierPattern {
			continue
		}

		count, err := strconv.ParseInt(p.Value, 10, 64)
		if err != nil || count < 0 {
			continue
		}

		day, ok := DayFromKey(p.NamedIdentifier)
		if !ok {
			continue
		}

		quantity += count
		weekdays[day.Weekday()] += count

		if count == 0 {
			continue
		}

		if first.IsZero() || day.Before(first) {
			first = day
		}

		if last.IsZero() || day.After(last) {
			last = day
		}
	}

	if first.IsZero() {
		first = domain.CalendarDay(q.StartDate)
		last = first
	}

	for _, p := range line.Properties {
		switch p.NamedIdentifier {
		case FieldTitle:
			p.Name = p.Value
		case FieldStart:
			setBoth(p, first.Format(periodLayout))
		case FieldEnd:
			setBoth(p, last.Format(periodLayout))
		default:
			if wd, ok := weekdayIndex(p.NamedIdentifier); ok {
				setBoth(p, strconv.FormatInt(weekdays[wd], 10))
			}
		}
	}

	line.Quantity = decimal.NewFromInt(quantity)
}

// DayKey is the identifier of the day field for the calendar day of t: its
// UTC midnight in epoch milliseconds.
func DayKey(t time.Time) string {
	return strconv.FormatInt(domain.CalendarDay(t).UnixMilli(), 10)
}

// DayFromKey decodes a DayKey.
func DayFromKey(key string) (time.Time, bool) {
	ms, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	day := time.UnixMilli(ms).UTC()
	if !domain.CalendarDay(day).Equal(day) {
		return time.Time{}, false
	}

	return day, true
}

func dayField(day time.Time, order int, readOnly bool) domain.QuoteLineField {
	label := day.Format(dayLayout)

	return domain.QuoteLineField{
		ID:           DayKey(day),
		DisplayOrder: order,
		Name:         label,
		Label:        label,
		Qualifier:    QualifierPattern,
		Type:         domain.FieldTypeInt,
		Style:        StyleMini,
		Summary:      true,
		ReadOnly:     readOnly,
	}
}

func weekdayIndex(id string) (time.Weekday, bool) {
	for i, wd := range weekdayFields {
		if wd.id == id {
			return time.Weekday(i), true
		}
	}

	return 0, false
}

func setBoth(p *domain.QuoteLineProperty, v string) {
	p.Value = v
	p.Name = v
}
