// Package ports defines the contracts between the quote engine's use cases
// and the adapters that store, identify and enrich its data.
//
// Every method takes a context first and returns domain types. Failures are
// reported with the domain error types (ErrNotFound, ErrStaleWrite, ...).
package ports

import (
	"context"

	"github.com/jsamuelsen/quote-engine/internal/domain"
)

// QuoteFilter selects quotes. Empty fields match everything.
type QuoteFilter struct {
	SalesRepresentative string
	OutletID            string
	TypeID              string
}

// Matches reports whether q satisfies the filter.
func (f QuoteFilter) Matches(q *domain.Quote) bool {
	return (f.SalesRepresentative == "" || f.SalesRepresentative == q.SalesRepresentative) &&
		(f.OutletID == "" || f.OutletID == q.OutletID) &&
		(f.TypeID == "" || f.TypeID == q.TypeID)
}

// QuoteRepository persists quote aggregates.
type QuoteRepository interface {
	// Create stores a new quote at version 1.
	// Returns domain.ErrConflict if the id is taken.
	Create(ctx context.Context, q *domain.Quote) error

	// Update stores q if the stored version equals q.Version and then
	// increments q.Version. Returns *domain.StaleWriteError otherwise.
	Update(ctx context.Context, q *domain.Quote) error

	// Delete removes a quote with its sections, lines and comments.
	// Returns domain.ErrNotFound if the quote does not exist.
	Delete(ctx context.Context, id string) error

	// FindByID returns domain.ErrNotFound if the quote does not exist.
	FindByID(ctx context.Context, id string) (*domain.Quote, error)

	// Find returns the quotes matching filter ordered by quote date, newest
	// first.
	Find(ctx context.Context, filter QuoteFilter) ([]*domain.Quote, error)
}

// CatalogRepository persists outlets, quote types and workflow definitions.
type CatalogRepository interface {
	GetOutlet(ctx context.Context, id string) (*domain.Outlet, error)
	// SaveOutlet never lowers the stored LastQuoteNumber.
	SaveOutlet(ctx context.Context, o *domain.Outlet) error
	ListOutlets(ctx context.Context) ([]*domain.Outlet, error)

	GetQuoteType(ctx context.Context, id string) (*domain.QuoteType, error)
	SaveQuoteType(ctx context.Context, qt *domain.QuoteType) error

	GetWorkflow(ctx context.Context, id string) (*domain.WorkflowDefinition, error)
	SaveWorkflow(ctx context.Context, wf *domain.WorkflowDefinition) error

	// NextQuoteNumber atomically increments the outlet's counter and
	// returns the new value. Values are never handed out twice.
	NextQuoteNumber(ctx context.Context, outletID string) (int64, error)
}
