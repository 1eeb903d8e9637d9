// Package memory provides in-process implementations of the repository and
// account directory ports. Stored values are deep copies, so callers never
// share state with the store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/jsamuelsen/quote-engine/internal/domain"
	"github.com/jsamuelsen/quote-engine/internal/ports"
)

// HealthCheckName identifies the store in health reports.
const HealthCheckName = "memory-store"

// Store keeps quotes, catalog data and accounts in maps guarded by one
// mutex.
type Store struct {
	mu        sync.RWMutex
	quotes    map[string]*domain.Quote
	outlets   map[string]*domain.Outlet
	types     map[string]*domain.QuoteType
	workflows map[string]*domain.WorkflowDefinition
	accounts  map[string]*domain.Account
}

var (
	_ ports.QuoteRepository   = (*Store)(nil)
	_ ports.CatalogRepository = (*Store)(nil)
	_ ports.AccountDirectory  = (*Store)(nil)
	_ ports.HealthChecker     = (*Store)(nil)
)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		quotes:    make(map[string]*domain.Quote),
		outlets:   make(map[string]*domain.Outlet),
		types:     make(map[string]*domain.QuoteType),
		workflows: make(map[string]*domain.WorkflowDefinition),
		accounts:  make(map[string]*domain.Account),
	}
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return HealthCheckName }

// Check implements ports.HealthChecker. The store is always available.
func (s *Store) Check(ctx context.Context) error { return ctx.Err() }

// Create implements ports.QuoteRepository.
func (s *Store) Create(_ context.Context, q *domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quotes[q.ID]; ok {
		return domain.NewConflictError("quote", "id "+q.ID+" already exists")
	}

	if q.QuoteNumber != "" {
		for _, other := range s.quotes {
			if other.QuoteNumber == q.QuoteNumber {
				return domain.NewConflictError("quote", "number "+q.QuoteNumber+" already exists")
			}
		}
	}

	q.Version = 1
	s.quotes[q.ID] = clone(q)

	return nil
}

// Update implements ports.QuoteRepository.
func (s *Store) Update(_ context.Context, q *domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.quotes[q.ID]
	if !ok {
		return domain.NewNotFoundError("quote", q.ID)
	}

	if stored.Version != q.Version {
		return domain.NewStaleWriteError("quote", q.ID, q.Version)
	}

	q.Version++
	s.quotes[q.ID] = clone(q)

	return nil
}

// Delete implements ports.QuoteRepository.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quotes[id]; !ok {
		return domain.NewNotFoundError("quote", id)
	}

	delete(s.quotes, id)

	return nil
}

// FindByID implements ports.QuoteRepository.
func (s *Store) FindByID(_ context.Context, id string) (*domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[id]
	if !ok {
		return nil, domain.NewNotFoundError("quote", id)
	}

	return clone(q), nil
}

// Find implements ports.QuoteRepository.
func (s *Store) Find(_ context.Context, filter ports.QuoteFilter) ([]*domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Quote, 0)

	for _, q := range s.quotes {
		if filter.Matches(q) {
			out = append(out, clone(q))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].QuoteDate.Equal(out[j].QuoteDate) {
			return out[i].QuoteDate.After(out[j].QuoteDate)
		}

		return out[i].ID < out[j].ID
	})

	return out, nil
}

// GetOutlet implements ports.CatalogRepository.
func (s *Store) GetOutlet(_ context.Context, id string) (*domain.Outlet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.outlets[id]
	if !ok {
		return nil, domain.NewNotFoundError("outlet", id)
	}

	return clone(o), nil
}

// SaveOutlet implements ports.CatalogRepository. The quote counter never
// moves backwards, so saving a stale snapshot keeps the stored counter.
func (s *Store) SaveOutlet(_ context.Context, o *domain.Outlet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := clone(o)
	if stored, ok := s.outlets[o.ID]; ok {
		saved.LastQuoteNumber = max(saved.LastQuoteNumber, stored.LastQuoteNumber)
	}

	s.outlets[o.ID] = saved

	return nil
}

// ListOutlets implements ports.CatalogRepository.
func (s *Store) ListOutlets(_ context.Context) ([]*domain.Outlet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Outlet, 0, len(s.outlets))
	for _, o := range s.outlets {
		out = append(out, clone(o))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

// GetQuoteType implements ports.CatalogRepository.
func (s *Store) GetQuoteType(_ context.Context, id string) (*domain.QuoteType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	qt, ok := s.types[id]
	if !ok {
		return nil, domain.NewNotFoundError("quote type", id)
	}

	return clone(qt), nil
}

// SaveQuoteType implements ports.CatalogRepository.
func (s *Store) SaveQuoteType(_ context.Context, qt *domain.QuoteType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.types[qt.ID] = clone(qt)

	return nil
}

// GetWorkflow implements ports.CatalogRepository.
func (s *Store) GetWorkflow(_ context.Context, id string) (*domain.WorkflowDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wf, ok := s.workflows[id]
	if !ok {
		return nil, domain.NewNotFoundError("workflow", id)
	}

	return clone(wf), nil
}

// SaveWorkflow implements ports.CatalogRepository.
func (s *Store) SaveWorkflow(_ context.Context, wf *domain.WorkflowDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workflows[wf.ID] = clone(wf)

	return nil
}

// NextQuoteNumber implements ports.CatalogRepository.
func (s *Store) NextQuoteNumber(_ context.Context, outletID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.outlets[outletID]
	if !ok {
		return 0, domain.NewNotFoundError("outlet", outletID)
	}

	o.LastQuoteNumber++

	return o.LastQuoteNumber, nil
}

// SaveAccount adds or replaces a directory account.
func (s *Store) SaveAccount(_ context.Context, a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[a.ID] = clone(a)

	return nil
}

// GetAccount implements ports.AccountDirectory.
func (s *Store) GetAccount(_ context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.NewNotFoundError("account", id)
	}

	return clone(a), nil
}

// clone deep-copies v through its JSON form. Every stored type round-trips
// through JSON losslessly.
func clone[T any](v *T) *T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("memory: cloning %T: %v", v, err))
	}

	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("memory: cloning %T: %v", v, err))
	}

	return out
}
