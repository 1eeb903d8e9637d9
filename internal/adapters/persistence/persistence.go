// Package persistence picks the quote store named by the database config:
// the in-process memory store, or gorm over SQLite or PostgreSQL.
package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quote-engine/internal/adapters/persistence/gormstore"
	"github.com/jsamuelsen/quote-engine/internal/adapters/persistence/memory"
	"github.com/jsamuelsen/quote-engine/internal/adapters/persistence/seed"
	"github.com/jsamuelsen/quote-engine/internal/domain"
	"github.com/jsamuelsen/quote-engine/internal/platform/config"
	"github.com/jsamuelsen/quote-engine/internal/platform/database"
	"github.com/jsamuelsen/quote-engine/internal/ports"
)

// DriverMemory keeps every record in process.
const DriverMemory = "memory"

// Store is everything the quote engine keeps.
type Store interface {
	ports.QuoteRepository
	ports.CatalogRepository
	ports.AccountDirectory
	ports.HealthChecker
	seed.AccountWriter
}

// Auditor is implemented by stores that keep the workflow audit trail.
type Auditor interface {
	AuditTrail(ctx context.Context, quoteID string) ([]domain.WorkflowStateTransition, error)
}

// Handle is an open store. Close releases its connections.
type Handle struct {
	Store
	close func() error
}

func (h *Handle) Close() error {
	if h.close == nil {
		return nil
	}

	return h.close()
}

// Open connects the configured store. The schema is migrated when
// cfg.AutoMigrate is set and the demo catalog is loaded when cfg.Seed is.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Handle, error) {
	if logger == nil {
		logger = slog.Default()
	}

	h, err := open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Seed {
		if err := seed.Load(ctx, h, h, seed.Demo()); err != nil {
			_ = h.Close()
			return nil, fmt.Errorf("seeding demo catalog: %w", err)
		}

		logger.InfoContext(ctx, "demo catalog loaded", slog.String("outlet", seed.OutletID))
	}

	return h, nil
}

func open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Handle, error) {
	if cfg.Driver == DriverMemory {
		logger.WarnContext(ctx, "using the in-memory store, data is lost on exit")
		return &Handle{Store: memory.NewStore()}, nil
	}

	db, err := database.Open(ctx, database.Config{
		Driver:          cfg.Driver,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnectRetries:  cfg.ConnectRetries,
		RetryDelay:      cfg.RetryDelay,
	}, logger)
	if err != nil {
		return nil, err
	}

	closeDB := func() error { return database.Close(db) }

	if cfg.AutoMigrate {
		if err := gormstore.Migrate(db); err != nil {
			_ = closeDB()
			return nil, fmt.Errorf("migrating schema: %w", err)
		}
	}

	store, err := gormstore.New(gormstore.Config{DB: db, NodeID: cfg.NodeID, Logger: logger})
	if err != nil {
		_ = closeDB()
		return nil, err
	}

	return &Handle{Store: store, close: closeDB}, nil
}
