// Package gormstore persists quotes, the catalog and the account directory
// through gorm. SQLite and PostgreSQL are supported.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jsamuelsen/quote-engine/internal/domain"
	"github.com/jsamuelsen/quote-engine/internal/ports"
)

// HealthCheckName identifies the store in health reports.
const HealthCheckName = "database"

// Store implements the repository ports on a gorm connection.
type Store struct {
	db     *gorm.DB
	node   *snowflake.Node
	logger *slog.Logger
}

var (
	_ ports.QuoteRepository   = (*Store)(nil)
	_ ports.CatalogRepository = (*Store)(nil)
	_ ports.AccountDirectory  = (*Store)(nil)
	_ ports.HealthChecker     = (*Store)(nil)
)

// Config contains the store's dependencies. NodeID seeds the snowflake
// generator for audit rows and must differ between running instances.
type Config struct {
	DB     *gorm.DB
	NodeID int64
	Logger *slog.Logger
}

// New creates a store. The schema must already be migrated.
func New(cfg Config) (*Store, error) {
	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("creating audit id generator: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		db:     cfg.DB,
		node:   node,
		logger: logger.With(slog.String("component", "gormstore.Store")),
	}, nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return HealthCheckName }

// Check implements ports.HealthChecker.
func (s *Store) Check(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return domain.NewUnavailableError(HealthCheckName, err.Error())
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return domain.NewUnavailableError(HealthCheckName, err.Error())
	}

	return nil
}

// Create implements ports.QuoteRepository.
func (s *Store) Create(ctx context.Context, q *domain.Quote) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&quoteRecord{}).Where("id = ?", q.ID).Count(&n).Error; err != nil {
			return fmt.Errorf("checking quote %s: %w", q.ID, err)
		}

		if n > 0 {
			return domain.NewConflictError("quote", "id "+q.ID+" already exists")
		}

		rec := newQuoteRecord(q)
		rec.Version = 1

		if err := tx.Create(rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.NewConflictError("quote", "number "+q.QuoteNumber+" already exists")
			}

			return fmt.Errorf("inserting quote %s: %w", q.ID, err)
		}

		if err := s.auditTransitions(tx, q); err != nil {
			return err
		}

		q.Version = 1

		return nil
	})
}

// Update implements ports.QuoteRepository. The row is only written when its
// stored version still equals q.Version.
func (s *Store) Update(ctx context.Context, q *domain.Quote) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next := q.Version + 1

		res := tx.Model(&quoteRecord{}).
			Where("id = ? AND version = ?", q.ID, q.Version).
			Updates(map[string]any{
				"version":              next,
				"sales_representative": q.SalesRepresentative,
				"current_state":        q.CurrentState,
				"quote_date":           q.QuoteDate,
				"document":             datatypes.NewJSONType(*q),
			})
		if res.Error != nil {
			return fmt.Errorf("updating quote %s: %w", q.ID, res.Error)
		}

		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&quoteRecord{}).Where("id = ?", q.ID).Count(&n).Error; err != nil {
				return fmt.Errorf("checking quote %s: %w", q.ID, err)
			}

			if n == 0 {
				return domain.NewNotFoundError("quote", q.ID)
			}

			return domain.NewStaleWriteError("quote", q.ID, q.Version)
		}

		if err := s.auditTransitions(tx, q); err != nil {
			return err
		}

		q.Version = next

		return nil
	})
}

// auditTransitions appends the history entries not yet in the audit table.
// History is append-only, so the stored row count is the resume point.
func (s *Store) auditTransitions(tx *gorm.DB, q *domain.Quote) error {
	var recorded int64
	if err := tx.Model(&transitionRecord{}).Where("quote_id = ?", q.ID).Count(&recorded).Error; err != nil {
		return fmt.Errorf("counting transitions of %s: %w", q.ID, err)
	}

	if int(recorded) >= len(q.History) {
		return nil
	}

	pending := q.History[recorded:]
	rows := make([]transitionRecord, 0, len(pending))

	for _, t := range pending {
		rows = append(rows, transitionRecord{
			ID:           s.node.Generate().Int64(),
			QuoteID:      q.ID,
			QuoteNumber:  q.QuoteNumber,
			TransitionID: t.ID,
			OptionID:     t.OptionID,
			StateID:      t.StateID,
			Actor:        t.Actor,
			Timestamp:    t.Timestamp,
		})
	}

	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("auditing transitions of %s: %w", q.ID, err)
	}

	return nil
}

// Delete implements ports.QuoteRepository. Audit rows are kept.
func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&quoteRecord{})
	if res.Error != nil {
		return fmt.Errorf("deleting quote %s: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("quote", id)
	}

	return nil
}

// FindByID implements ports.QuoteRepository.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.Quote, error) {
	var rec quoteRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err, "quote", id)
	}

	return rec.quote(), nil
}

// Find implements ports.QuoteRepository. Newest quotes come first.
func (s *Store) Find(ctx context.Context, filter ports.QuoteFilter) ([]*domain.Quote, error) {
	query := s.db.WithContext(ctx).Model(&quoteRecord{})

	if filter.SalesRepresentative != "" {
		query = query.Where("sales_representative = ?", filter.SalesRepresentative)
	}

	if filter.OutletID != "" {
		query = query.Where("outlet_id = ?", filter.OutletID)
	}

	if filter.TypeID != "" {
		query = query.Where("type_id = ?", filter.TypeID)
	}

	var recs []quoteRecord
	if err := query.Order("quote_date DESC").Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("finding quotes: %w", err)
	}

	out := make([]*domain.Quote, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].quote())
	}

	return out, nil
}

// AuditTrail returns the recorded transitions of a quote in the order they
// were stored, including those of deleted quotes.
func (s *Store) AuditTrail(ctx context.Context, quoteID string) ([]domain.WorkflowStateTransition, error) {
	var rows []transitionRecord
	if err := s.db.WithContext(ctx).Where("quote_id = ?", quoteID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("reading audit trail of %s: %w", quoteID, err)
	}

	out := make([]domain.WorkflowStateTransition, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.WorkflowStateTransition{
			ID:        r.TransitionID,
			Actor:     r.Actor,
			Timestamp: r.Timestamp,
			OptionID:  r.OptionID,
			StateID:   r.StateID,
		})
	}

	return out, nil
}

// GetOutlet implements ports.CatalogRepository.
func (s *Store) GetOutlet(ctx context.Context, id string) (*domain.Outlet, error) {
	var rec outletRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err, "outlet", id)
	}

	return rec.outlet(), nil
}

// SaveOutlet implements ports.CatalogRepository. An existing counter is
// only ever moved forward.
func (s *Store) SaveOutlet(ctx context.Context, o *domain.Outlet) error {
	rec := outletRecord{
		ID:              o.ID,
		Name:            o.Name,
		Abbreviation:    o.Abbreviation,
		LastQuoteNumber: o.LastQuoteNumber,
		Document:        datatypes.NewJSONType(*o),
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "abbreviation", "document", "updated_at"}),
		}).Create(&rec).Error
		if err != nil {
			return fmt.Errorf("saving outlet %s: %w", o.ID, err)
		}

		err = tx.Model(&outletRecord{}).
			Where("id = ? AND last_quote_number < ?", o.ID, o.LastQuoteNumber).
			UpdateColumn("last_quote_number", o.LastQuoteNumber).Error
		if err != nil {
			return fmt.Errorf("saving outlet %s counter: %w", o.ID, err)
		}

		return nil
	})
}

// ListOutlets implements ports.CatalogRepository.
func (s *Store) ListOutlets(ctx context.Context) ([]*domain.Outlet, error) {
	var recs []outletRecord
	if err := s.db.WithContext(ctx).Order("name").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing outlets: %w", err)
	}

	out := make([]*domain.Outlet, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].outlet())
	}

	return out, nil
}

// NextQuoteNumber implements ports.CatalogRepository. The increment and the
// read-back share one transaction, so concurrent callers never see the
// same number.
func (s *Store) NextQuoteNumber(ctx context.Context, outletID string) (int64, error) {
	var n int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&outletRecord{}).
			Where("id = ?", outletID).
			UpdateColumn("last_quote_number", gorm.Expr("last_quote_number + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("incrementing quote counter: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return domain.NewNotFoundError("outlet", outletID)
		}

		return tx.Model(&outletRecord{}).
			Where("id = ?", outletID).
			Select("last_quote_number").
			Scan(&n).Error
	})
	if err != nil {
		return 0, err
	}

	return n, nil
}

// GetQuoteType implements ports.CatalogRepository.
func (s *Store) GetQuoteType(ctx context.Context, id string) (*domain.QuoteType, error) {
	var rec quoteTypeRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err, "quote type", id)
	}

	qt := rec.Document.Data()

	return &qt, nil
}

// SaveQuoteType implements ports.CatalogRepository.
func (s *Store) SaveQuoteType(ctx context.Context, qt *domain.QuoteType) error {
	rec := quoteTypeRecord{
		ID:                   qt.ID,
		Name:                 qt.Name,
		WorkflowDefinitionID: qt.WorkflowDefinitionID,
		Document:             datatypes.NewJSONType(*qt),
	}

	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("saving quote type %s: %w", qt.ID, err)
	}

	return nil
}

// GetWorkflow implements ports.CatalogRepository.
func (s *Store) GetWorkflow(ctx context.Context, id string) (*domain.WorkflowDefinition, error) {
	var rec workflowRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err, "workflow", id)
	}

	wf := rec.Document.Data()

	return &wf, nil
}

// SaveWorkflow implements ports.CatalogRepository.
func (s *Store) SaveWorkflow(ctx context.Context, wf *domain.WorkflowDefinition) error {
	rec := workflowRecord{
		ID:       wf.ID,
		Name:     wf.Name,
		Document: datatypes.NewJSONType(*wf),
	}

	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("saving workflow %s: %w", wf.ID, err)
	}

	return nil
}

// SaveAccount adds or replaces a directory account.
func (s *Store) SaveAccount(ctx context.Context, a *domain.Account) error {
	rec := accountRecord{ID: a.ID, Name: a.Name, PaymentTerms: a.PaymentTerms}

	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("saving account %s: %w", a.ID, err)
	}

	return nil
}

// GetAccount implements ports.AccountDirectory.
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	var rec accountRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err, "account", id)
	}

	return &domain.Account{ID: rec.ID, Name: rec.Name, PaymentTerms: rec.PaymentTerms}, nil
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NewNotFoundError(entity, id)
	}

	return fmt.Errorf("loading %s %s: %w", entity, id, err)
}
