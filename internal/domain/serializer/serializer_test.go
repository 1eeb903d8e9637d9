package serializer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-engine/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// wednesdayQuote starts on Wednesday 3 January 2024 and runs one week.
func wednesdayQuote() *domain.Quote {
	return &domain.Quote{ID: "q-1", StartDate: date(2024, time.January, 3), Duration: 1}
}

func fieldIDs(fields []domain.QuoteLineField) []string {
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		ids = append(ids, f.ID)
	}

	return ids
}

func dayFields(fields []domain.QuoteLineField) []domain.QuoteLineField {
	var days []domain.QuoteLineField

	for _, f := range fields {
		if f.Qualifier == QualifierPattern {
			days = append(days, f)
		}
	}

	return days
}

func newPatternLine(t *testing.T, q *domain.Quote) *domain.QuoteLine {
	t.Helper()

	s, err := NewBroadcastPattern()
	require.NoError(t, err)

	line := domain.NewQuoteLine("l-1")
	line.PopulateSchema(s.Fields(q), s.DetailFields(q))

	return line
}

func propertyValue(t *testing.T, line *domain.QuoteLine, id string) string {
	t.Helper()

	p, ok := line.Property(id)
	require.True(t, ok, "property %s", id)

	return p.Value
}

func TestBroadcastPattern_DetailFields_WholeWeeks(t *testing.T) {
	tests := []struct {
		name      string
		start     time.Time
		duration  int
		days      int
		readOnly  int
		firstDay  time.Time
		firstName string
	}{
		{
			name:      "wednesday start",
			start:     date(2024, time.January, 3),
			duration:  1,
			days:      14,
			readOnly:  7,
			firstDay:  date(2023, time.December, 31),
			firstName: "Sun 31/12",
		},
		{
			name:      "sunday start",
			start:     date(2024, time.January, 7),
			duration:  1,
			days:      7,
			readOnly:  0,
			firstDay:  date(2024, time.January, 7),
			firstName: "Sun 7/1",
		},
		{
			name:      "saturday start over two weeks",
			start:     date(2024, time.January, 6),
			duration:  2,
			days:      21,
			readOnly:  6 + 1,
			firstDay:  date(2023, time.December, 31),
			firstName: "Sun 31/12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &domain.Quote{StartDate: tt.start, Duration: tt.duration}

			fields := BroadcastPattern{}.DetailFields(q)
			days := dayFields(fields)

			require.Len(t, days, tt.days)
			assert.Zero(t, len(days)%7)
			assert.Len(t, fields, len(days)+3)

			assert.Equal(t, FieldRateCard, fields[0].ID)
			assert.Equal(t, FieldLength, fields[1].ID)
			assert.Equal(t, FieldTitle, fields[len(fields)-1].ID)
			assert.Equal(t, len(days)+3, fields[len(fields)-1].DisplayOrder)

			assert.Equal(t, DayKey(tt.firstDay), days[0].ID)
			assert.Equal(t, tt.firstName, days[0].Name)
			assert.Equal(t, tt.firstName, days[0].Label)
			assert.Equal(t, time.Saturday, mustDay(t, days[len(days)-1].ID).Weekday())

			readOnly := 0
			for i, d := range days {
				assert.Equal(t, firstDayOrder+i, d.DisplayOrder)
				assert.Equal(t, domain.FieldTypeInt, d.Type)
				if d.ReadOnly {
					readOnly++
				}
			}
			assert.Equal(t, tt.readOnly, readOnly)
		})
	}
}

func mustDay(t *testing.T, key string) time.Time {
	t.Helper()

	d, ok := DayFromKey(key)
	require.True(t, ok)

	return d
}

func TestBroadcastPattern_DetailFields_ReadOnlyEdges(t *testing.T) {
	q := wednesdayQuote()

	days := dayFields(BroadcastPattern{}.DetailFields(q))

	byKey := make(map[string]domain.QuoteLineField, len(days))
	for _, d := range days {
		byKey[d.ID] = d
	}

	assert.True(t, byKey[DayKey(date(2024, time.January, 2))].ReadOnly, "day before start")
	assert.False(t, byKey[DayKey(date(2024, time.January, 3))].ReadOnly, "start day")
	assert.False(t, byKey[DayKey(date(2024, time.January, 9))].ReadOnly, "last quoted day")
	assert.True(t, byKey[DayKey(date(2024, time.January, 10))].ReadOnly, "end date is exclusive")
	assert.True(t, byKey[DayKey(date(2024, time.January, 13))].ReadOnly, "padding")
}

func TestBroadcastPattern_DetailFields_Frozen(t *testing.T) {
	s, err := NewBroadcastPattern()
	require.NoError(t, err)
	q := wednesdayQuote()

	frozen := DetailFrozenFields(s, q)
	rest := DetailNonFrozenFields(s, q)

	assert.Equal(t, []string{FieldRateCard, FieldLength}, fieldIDs(frozen))
	assert.Len(t, rest, len(s.DetailFields(q))-2)
	assert.Equal(t, FieldTitle, rest[len(rest)-1].ID)
}

func TestBroadcastPattern_Fields(t *testing.T) {
	fields := BroadcastPattern{}.Fields(wednesdayQuote())

	assert.Equal(t, []string{
		FieldRateCard, FieldLength,
		"SUNDAYS", "MONDAYS", "TUESDAYS", "WEDNESDAYS", "THURSDAYS", "FRIDAYS", "SATURDAYS",
		FieldStart, FieldEnd, FieldTitle,
	}, fieldIDs(fields))

	for _, f := range fields[2:9] {
		assert.Equal(t, QualifierPatternSummary, f.Qualifier)
		assert.True(t, f.Summary)
	}

	assert.Equal(t, 11, fields[9].DisplayOrder)
	assert.Equal(t, 13, fields[11].DisplayOrder)
}

func TestBroadcastPattern_Update(t *testing.T) {
	q := wednesdayQuote()
	line := newPatternLine(t, q)

	require.NoError(t, line.SetPropertyValue(DayKey(date(2024, time.January, 8)), "2"))
	require.NoError(t, line.SetPropertyValue(DayKey(date(2024, time.January, 3)), "0"))
	require.NoError(t, line.SetPropertyValue(DayKey(date(2024, time.January, 5)), "3"))
	require.NoError(t, line.SetPropertyValue(FieldTitle, "Morning show"))

	BroadcastPattern{}.Update(q, line)

	assert.True(t, decimal.NewFromInt(5).Equal(line.Quantity), "quantity %s", line.Quantity)
	assert.Equal(t, "2", propertyValue(t, line, "MONDAYS"))
	assert.Equal(t, "0", propertyValue(t, line, "WEDNESDAYS"))
	assert.Equal(t, "3", propertyValue(t, line, "FRIDAYS"))
	assert.Equal(t, "0", propertyValue(t, line, "SUNDAYS"))
	assert.Equal(t, "5/1", propertyValue(t, line, FieldStart))
	assert.Equal(t, "8/1", propertyValue(t, line, FieldEnd))

	title, _ := line.Property(FieldTitle)
	assert.Equal(t, "Morning show", title.Name)

	start, _ := line.Property(FieldStart)
	assert.Equal(t, "5/1", start.Name)
}

func TestBroadcastPattern_Update_Idempotent(t *testing.T) {
	q := wednesdayQuote()
	line := newPatternLine(t, q)
	require.NoError(t, line.SetPropertyValue(DayKey(date(2024, time.January, 4)), "4"))

	BroadcastPattern{}.Update(q, line)
	first := snapshot(line)

	BroadcastPattern{}.Update(q, line)

	assert.Equal(t, first, snapshot(line))
	assert.True(t, decimal.NewFromInt(4).Equal(line.Quantity))
}

func TestBroadcastPattern_Update_IgnoresBadCounts(t *testing.T) {
	q := wednesdayQuote()
	line := newPatternLine(t, q)
	require.NoError(t, line.SetPropertyValue(DayKey(date(2024, time.January, 4)), "abc"))
	require.NoError(t, line.SetPropertyValue(DayKey(date(2024, time.January, 6)), "-2"))
	require.NoError(t, line.SetPropertyValue(DayKey(date(2024, time.January, 7)), "1"))

	BroadcastPattern{}.Update(q, line)

	assert.True(t, decimal.NewFromInt(1).Equal(line.Quantity))
	assert.Equal(t, "0", propertyValue(t, line, "THURSDAYS"))
	assert.Equal(t, "0", propertyValue(t, line, "SATURDAYS"))
	assert.Equal(t, "1", propertyValue(t, line, "SUNDAYS"))
	assert.Equal(t, "7/1", propertyValue(t, line, FieldStart))
	assert.Equal(t, "7/1", propertyValue(t, line, FieldEnd))
}

func TestBroadcastPattern_Update_EmptyGridDefaultsToStart(t *testing.T) {
	q := wednesdayQuote()
	line := newPatternLine(t, q)

	BroadcastPattern{}.Update(q, line)

	assert.True(t, line.Quantity.IsZero())
	assert.Equal(t, "3/1", propertyValue(t, line, FieldStart))
	assert.Equal(t, "3/1", propertyValue(t, line, FieldEnd))
}

func snapshot(line *domain.QuoteLine) map[string][2]string {
	out := make(map[string][2]string, len(line.Properties))
	for _, p := range line.Properties {
		out[p.NamedIdentifier] = [2]string{p.Name, p.Value}
	}

	return out
}

func TestDayKey_RoundTrip(t *testing.T) {
	local := time.Date(2024, time.March, 10, 23, 30, 0, 0, time.UTC)

	key := DayKey(local)
	day, ok := DayFromKey(key)

	require.True(t, ok)
	assert.Equal(t, date(2024, time.March, 10), day)

	_, ok = DayFromKey("TITLE")
	assert.False(t, ok)

	_, ok = DayFromKey("1704243600000") // 01:00 UTC
	assert.False(t, ok)
}

func TestSimple(t *testing.T) {
	s, err := NewSimple()
	require.NoError(t, err)
	q := wednesdayQuote()

	assert.False(t, s.DiscountPossible())
	assert.False(t, s.RateVisible())
	assert.Equal(t, []string{FieldPrize}, fieldIDs(s.Fields(q)))
	assert.Equal(t, s.Fields(q), s.DetailFields(q))
	assert.Empty(t, DetailFrozenFields(s, q))

	line := domain.NewQuoteLine("l-1")
	line.PopulateSchema(s.Fields(q))
	require.NoError(t, line.SetPropertyValue(FieldPrize, "Weekend for two"))

	s.Update(q, line)

	p, _ := line.Property(FieldPrize)
	assert.Equal(t, "Weekend for two", p.Name)
	assert.Equal(t, "Prize", p.Label)
}

func TestRateCard(t *testing.T) {
	s, err := NewRateCard()
	require.NoError(t, err)
	q := wednesdayQuote()

	assert.True(t, s.DiscountPossible())
	assert.True(t, s.RateVisible())

	fields := s.Fields(q)
	require.Len(t, fields, 1)
	assert.Equal(t, FieldProduct, fields[0].ID)
	assert.Equal(t, domain.FieldTypeRateCard, fields[0].Type)

	line := domain.NewQuoteLine("l-1")
	line.PopulateSchema(fields)
	line.Quantity = decimal.NewFromInt(3)
	require.NoError(t, line.SetPropertyValue(FieldProduct, "p-1"))

	s.Update(q, line)

	assert.True(t, decimal.NewFromInt(3).Equal(line.Quantity))
	p, _ := line.Property(FieldProduct)
	assert.Equal(t, "Select", p.Name)
}
