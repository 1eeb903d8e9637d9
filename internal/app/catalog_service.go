package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-engine/internal/domain"
	"github.com/jsamuelsen/quote-engine/internal/ports"
)

// CatalogService maintains outlets, rate cards, quote types and workflow
// definitions.
type CatalogService struct {
	catalog     ports.CatalogRepository
	serializers ports.SerializerRegistry
	logger      *slog.Logger
}

// CatalogServiceConfig contains the dependencies of the catalog service.
type CatalogServiceConfig struct {
	Catalog     ports.CatalogRepository
	Serializers ports.SerializerRegistry
	Logger      *slog.Logger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(cfg CatalogServiceConfig) *CatalogService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &CatalogService{
		catalog:     cfg.Catalog,
		serializers: cfg.Serializers,
		logger:      logger.With(slog.String("component", "app.CatalogService")),
	}
}

// GetOutlet returns an outlet by id.
func (s *CatalogService) GetOutlet(ctx context.Context, id string) (*domain.Outlet, error) {
	o, err := s.catalog.GetOutlet(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting outlet: %w", err)
	}

	return o, nil
}

// ListOutlets returns every outlet.
func (s *CatalogService) ListOutlets(ctx context.Context) ([]*domain.Outlet, error) {
	outlets, err := s.catalog.ListOutlets(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing outlets: %w", err)
	}

	return outlets, nil
}

// SaveOutlet validates and stores an outlet with its rate cards. The
// repository keeps the stored quote counter when o carries a lower one.
func (s *CatalogService) SaveOutlet(ctx context.Context, o *domain.Outlet) error {
	if err := o.Validate(); err != nil {
		return err
	}

	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	if err := s.catalog.SaveOutlet(ctx, o); err != nil {
		return fmt.Errorf("saving outlet: %w", err)
	}

	s.logger.InfoContext(ctx, "outlet saved", slog.String("outlet_id", o.ID))

	return nil
}

// SetRateCardPrice upserts one cell of an outlet's rate card. Band and size
// must belong to the outlet unless the card is simple.
func (s *CatalogService) SetRateCardPrice(
	ctx context.Context, outletID, rateCardID string, price domain.RateCardPrice,
) (*domain.RateCard, error) {
	o, err := s.catalog.GetOutlet(ctx, outletID)
	if err != nil {
		return nil, fmt.Errorf("setting rate card price: %w", err)
	}

	rc, err := o.RateCard(rateCardID)
	if err != nil {
		return nil, fmt.Errorf("setting rate card price: %w", err)
	}

	if price.ID == "" {
		price.ID = uuid.NewString()
	}

	rc.SetPrice(price)

	if err := rc.Validate(o); err != nil {
		return nil, err
	}

	if err := s.catalog.SaveOutlet(ctx, o); err != nil {
		return nil, fmt.Errorf("setting rate card price: %w", err)
	}

	return rc, nil
}

// RateCardAxes returns the bands and ad sizes priced on a rate card.
func (s *CatalogService) RateCardAxes(
	ctx context.Context, outletID, rateCardID string,
) ([]domain.Band, []domain.AdSize, error) {
	o, err := s.catalog.GetOutlet(ctx, outletID)
	if err != nil {
		return nil, nil, fmt.Errorf("getting rate card: %w", err)
	}

	rc, err := o.RateCard(rateCardID)
	if err != nil {
		return nil, nil, fmt.Errorf("getting rate card: %w", err)
	}

	return rc.AvailableBands(o), rc.AvailableAdSizes(o), nil
}

// GetQuoteType returns a quote type by id.
func (s *CatalogService) GetQuoteType(ctx context.Context, id string) (*domain.QuoteType, error) {
	qt, err := s.catalog.GetQuoteType(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting quote type: %w", err)
	}

	return qt, nil
}

// SaveQuoteType stores a quote type after checking that its workflow exists
// and that every section's serializer resolves.
func (s *CatalogService) SaveQuoteType(ctx context.Context, qt *domain.QuoteType) error {
	if _, err := s.catalog.GetWorkflow(ctx, qt.WorkflowDefinitionID); err != nil {
		return fmt.Errorf("saving quote type: %w", err)
	}

	for _, st := range qt.Sections {
		if _, err := s.serializers.Resolve(st.LineType.Serializer); err != nil {
			return fmt.Errorf("saving quote type: section %q: %w", st.Name, err)
		}
	}

	if qt.ID == "" {
		qt.ID = uuid.NewString()
	}

	if err := s.catalog.SaveQuoteType(ctx, qt); err != nil {
		return fmt.Errorf("saving quote type: %w", err)
	}

	return nil
}

// GetWorkflow returns a workflow definition by id.
func (s *CatalogService) GetWorkflow(ctx context.Context, id string) (*domain.WorkflowDefinition, error) {
	wf, err := s.catalog.GetWorkflow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting workflow: %w", err)
	}

	return wf, nil
}

// SaveWorkflow validates and stores a workflow definition.
func (s *CatalogService) SaveWorkflow(ctx context.Context, wf *domain.WorkflowDefinition) error {
	if err := wf.Validate(); err != nil {
		return fmt.Errorf("saving workflow: %w", err)
	}

	if wf.ID == "" {
		wf.ID = uuid.NewString()
	}

	if err := s.catalog.SaveWorkflow(ctx, wf); err != nil {
		return fmt.Errorf("saving workflow: %w", err)
	}

	return nil
}
