// Package main runs the quote engine HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jsamuelsen/quote-engine/internal/adapters/clients"
	"github.com/jsamuelsen/quote-engine/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-engine/internal/adapters/http"
	"github.com/jsamuelsen/quote-engine/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-engine/internal/adapters/identity"
	"github.com/jsamuelsen/quote-engine/internal/adapters/persistence"
	"github.com/jsamuelsen/quote-engine/internal/app"
	"github.com/jsamuelsen/quote-engine/internal/domain/serializer"
	"github.com/jsamuelsen/quote-engine/internal/platform/config"
	"github.com/jsamuelsen/quote-engine/internal/platform/logging"
	"github.com/jsamuelsen/quote-engine/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-engine/internal/ports"
)

// Set with -ldflags "-X main.Version=... -X main.Commit=... -X main.BuildTime=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnvironment()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	logging.SetDefault(logger)

	logger.Info("starting quote engine",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("store", cfg.Database.Driver),
	)

	tel, err := telemetry.New(ctx, cfg.App, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	store, err := persistence.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing store failed", slog.Any("error", err))
		}
	}()

	health := ports.NewHealthRegistry()
	if err := health.Register(store); err != nil {
		return fmt.Errorf("registering store health check: %w", err)
	}

	accounts, err := accountDirectory(cfg, store, health, logger)
	if err != nil {
		return err
	}

	registry, err := serializerRegistry(cfg.Serializers)
	if err != nil {
		return err
	}

	quotes := app.NewQuoteService(app.QuoteServiceConfig{
		Quotes:      store,
		Catalog:     store,
		Identity:    identity.ContextResolver{},
		Serializers: registry,
		Accounts:    accounts,
		Logger:      logger,
	})
	catalog := app.NewCatalogService(app.CatalogServiceConfig{
		Catalog:     store,
		Serializers: registry,
		Logger:      logger,
	})

	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.NewDefaultRouterConfig(
		logger,
		&cfg.App,
		&cfg.Auth,
		handlers.NewHealthHandler(health, handlers.NewBuildInfo(Version, Commit, BuildTime)),
		handlers.NewQuoteHandler(quotes),
		handlers.NewCatalogHandler(catalog),
	))

	return serve(ctx, logger, server, cfg.Server.ShutdownTimeout)
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
}

// accountDirectory uses the CRM service when one is configured and the
// accounts kept in the store otherwise.
func accountDirectory(
	cfg *config.Config, store persistence.Store, health ports.HealthRegistry, logger *slog.Logger,
) (ports.AccountDirectory, error) {
	endpoint := cfg.Services.Accounts
	if endpoint.BaseURL == "" {
		logger.Info("no account service configured, using stored accounts")
		return store, nil
	}

	client, err := clients.New(&clients.Config{
		BaseURL:     endpoint.BaseURL,
		ServiceName: endpoint.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", endpoint.Name, err)
	}

	directory := acl.NewAccountClient(client)
	if err := health.Register(directory); err != nil {
		return nil, fmt.Errorf("registering %s health check: %w", endpoint.Name, err)
	}

	return directory, nil
}

func serializerRegistry(cfg config.SerializersConfig) (*serializer.Registry, error) {
	registry := serializer.NewRegistry()

	for alias, target := range cfg.Aliases {
		if err := registry.Alias(alias, target); err != nil {
			return nil, fmt.Errorf("serializer alias %q: %w", alias, err)
		}
	}

	return registry, nil
}

// serve blocks until ctx is cancelled or the listener fails, then drains
// in-flight requests for at most timeout.
func serve(ctx context.Context, logger *slog.Logger, server *http.Server, timeout time.Duration) error {
	errCh := server.Start()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return err
		}

		return errors.New("server stopped unexpectedly")
	case <-ctx.Done():
		logger.Info("shutdown requested", slog.Duration("timeout", timeout))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}
