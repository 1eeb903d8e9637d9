package gormstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jsamuelsen/quote-engine/internal/adapters/persistence/seed"
	"github.com/jsamuelsen/quote-engine/internal/domain"
	"github.com/jsamuelsen/quote-engine/internal/ports"
)

var dbSeq atomic.Int64

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:gormstore_%d?mode=memory&cache=shared", dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))

	s, err := New(Config{DB: db, NodeID: 1})
	require.NoError(t, err)

	return s
}

func newQuote(id, rep string, day int) *domain.Quote {
	return &domain.Quote{
		ID:                  id,
		OutletID:            seed.OutletID,
		QuoteNumber:         "NTV/" + id,
		TypeID:              seed.QuoteTypeID,
		SalesRepresentative: rep,
		QuoteDate:           time.Date(2024, time.May, day, 0, 0, 0, 0, time.UTC),
		Sections: []*domain.QuoteLineSection{{
			ID:    "s-1",
			Lines: []*domain.QuoteLine{domain.NewQuoteLine("l-1")},
		}},
		Comments: []domain.QuoteComment{},
	}
}

func transition(id, state string) domain.WorkflowStateTransition {
	return domain.WorkflowStateTransition{
		ID:        id,
		Actor:     "jdoe",
		Timestamp: time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC),
		StateID:   state,
	}
}

func TestStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	q := newQuote("q-1", "jdoe", 1)
	q.Sections[0].Lines[0].Quantity = decimal.RequireFromString("2.5")

	require.NoError(t, s.Create(ctx, q))
	assert.Equal(t, int64(1), q.Version)

	got, err := s.FindByID(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, "NTV/q-1", got.QuoteNumber)
	require.Len(t, got.Sections, 1)
	assert.True(t, decimal.RequireFromString("2.5").Equal(got.Sections[0].Lines[0].Quantity))

	err = s.Create(ctx, newQuote("q-1", "jdoe", 1))
	assert.True(t, domain.IsConflict(err))

	_, err = s.FindByID(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestStore_UpdateChecksVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	q := newQuote("q-1", "jdoe", 1)
	require.NoError(t, s.Create(ctx, q))

	stale, err := s.FindByID(ctx, "q-1")
	require.NoError(t, err)

	q.QuoteFor = "Acme"
	require.NoError(t, s.Update(ctx, q))
	assert.Equal(t, int64(2), q.Version)

	stale.QuoteFor = "Globex"
	err = s.Update(ctx, stale)
	require.Error(t, err)
	assert.True(t, domain.IsStaleWrite(err))
	assert.True(t, domain.IsConflict(err))

	got, err := s.FindByID(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.QuoteFor)
	assert.Equal(t, int64(2), got.Version)

	err = s.Update(ctx, newQuote("missing", "jdoe", 1))
	assert.True(t, domain.IsNotFound(err))
}

func TestStore_ConcurrentWritersOnSameVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, newQuote("q-1", "jdoe", 1)))

	const writers = 6

	var (
		wg       sync.WaitGroup
		ok, lost atomic.Int32
	)

	for i := range writers {
		q, err := s.FindByID(ctx, "q-1")
		require.NoError(t, err)

		wg.Add(1)

		go func() {
			defer wg.Done()

			q.QuoteFor = fmt.Sprintf("writer-%d", i)

			switch err := s.Update(ctx, q); {
			case err == nil:
				ok.Add(1)
			case domain.IsStaleWrite(err):
				lost.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(writers-1), lost.Load())
}

func TestStore_Find(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := newQuote("q-a", "jdoe", 1)
	b := newQuote("q-b", "jdoe", 3)
	c := newQuote("q-c", "asmith", 2)
	c.TypeID = "qt-print"

	for _, q := range []*domain.Quote{a, b, c} {
		require.NoError(t, s.Create(ctx, q))
	}

	tests := []struct {
		name   string
		filter ports.QuoteFilter
		want   []string
	}{
		{name: "all newest first", filter: ports.QuoteFilter{}, want: []string{"q-b", "q-c", "q-a"}},
		{name: "by representative", filter: ports.QuoteFilter{SalesRepresentative: "jdoe"}, want: []string{"q-b", "q-a"}},
		{name: "by type", filter: ports.QuoteFilter{TypeID: "qt-print"}, want: []string{"q-c"}},
		{name: "by outlet", filter: ports.QuoteFilter{OutletID: "other"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes, err := s.Find(ctx, tt.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(quotes))
			for _, q := range quotes {
				ids = append(ids, q.ID)
			}

			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestStore_DeleteKeepsAuditTrail(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	q := newQuote("q-1", "jdoe", 1)
	q.CurrentState = seed.StateDraft
	q.History = []domain.WorkflowStateTransition{transition("t-1", seed.StateDraft)}
	require.NoError(t, s.Create(ctx, q))

	q.CurrentState = seed.StateTrash
	q.History = append(q.History, transition("t-2", seed.StateTrash))
	require.NoError(t, s.Update(ctx, q))

	trail, err := s.AuditTrail(ctx, "q-1")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "t-1", trail[0].ID)
	assert.Equal(t, seed.StateTrash, trail[1].StateID)

	require.NoError(t, s.Delete(ctx, "q-1"))
	assert.True(t, domain.IsNotFound(s.Delete(ctx, "q-1")))

	// Restoring the quote does not duplicate its audit rows.
	require.NoError(t, s.Create(ctx, q))

	trail, err = s.AuditTrail(ctx, "q-1")
	require.NoError(t, err)
	assert.Len(t, trail, 2)
}

func TestStore_CatalogRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	demo := seed.Demo()

	require.NoError(t, seed.Load(ctx, s, s, demo))

	o, err := s.GetOutlet(ctx, seed.OutletID)
	require.NoError(t, err)
	assert.Equal(t, demo.Outlets[0].Abbreviation, o.Abbreviation)
	assert.True(t, demo.Outlets[0].VATRate.Equal(o.VATRate))
	assert.Len(t, o.RateCards, len(demo.Outlets[0].RateCards))

	outlets, err := s.ListOutlets(ctx)
	require.NoError(t, err)
	assert.Len(t, outlets, 1)

	qt, err := s.GetQuoteType(ctx, seed.QuoteTypeID)
	require.NoError(t, err)
	assert.Equal(t, seed.WorkflowID, qt.WorkflowDefinitionID)
	assert.Len(t, qt.Sections, len(demo.QuoteTypes[0].Sections))

	wf, err := s.GetWorkflow(ctx, seed.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, seed.StateDraft, wf.StartStateID)
	require.NoError(t, wf.Validate())

	acc, err := s.GetAccount(ctx, seed.AccountAcme)
	require.NoError(t, err)
	assert.NotEmpty(t, acc.PaymentTerms)

	_, err = s.GetQuoteType(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))

	_, err = s.GetWorkflow(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))

	_, err = s.GetAccount(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))

	// Saving twice replaces rather than duplicates.
	qt.Name = "Airtime (renamed)"
	require.NoError(t, s.SaveQuoteType(ctx, qt))

	qt, err = s.GetQuoteType(ctx, seed.QuoteTypeID)
	require.NoError(t, err)
	assert.Equal(t, "Airtime (renamed)", qt.Name)
}

func TestStore_SaveOutletNeverMovesCounterBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	o := &domain.Outlet{ID: "o-1", Name: "NTV", Abbreviation: "NTV", LastQuoteNumber: 10}
	require.NoError(t, s.SaveOutlet(ctx, o))

	n, err := s.NextQuoteNumber(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)

	o.Name = "Nation TV"
	o.LastQuoteNumber = 3
	require.NoError(t, s.SaveOutlet(ctx, o))

	got, err := s.GetOutlet(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, "Nation TV", got.Name)
	assert.Equal(t, int64(11), got.LastQuoteNumber)

	o.LastQuoteNumber = 20
	require.NoError(t, s.SaveOutlet(ctx, o))

	n, err = s.NextQuoteNumber(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, int64(21), n)
}

func TestStore_NextQuoteNumberConcurrent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveOutlet(ctx, &domain.Outlet{ID: "o-1", Name: "NTV", Abbreviation: "NTV"}))

	const callers = 25

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []int64
	)

	for range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			n, err := s.NextQuoteNumber(ctx, "o-1")
			assert.NoError(t, err)

			mu.Lock()
			numbers = append(numbers, n)
			mu.Unlock()
		}()
	}

	wg.Wait()

	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	require.Len(t, numbers, callers)

	for i, n := range numbers {
		assert.Equal(t, int64(i+1), n)
	}

	_, err := s.NextQuoteNumber(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestStore_Check(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, HealthCheckName, s.Name())
	assert.NoError(t, s.Check(context.Background()))
}
