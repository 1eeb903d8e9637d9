// Package cli implements quotectl, the operator tool of the quote engine.
// Every command works against the store named by the service config.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-engine/internal/adapters/identity"
	"github.com/jsamuelsen/quote-engine/internal/adapters/persistence"
	"github.com/jsamuelsen/quote-engine/internal/app"
	"github.com/jsamuelsen/quote-engine/internal/domain"
	"github.com/jsamuelsen/quote-engine/internal/domain/serializer"
	"github.com/jsamuelsen/quote-engine/internal/platform/config"
	"github.com/jsamuelsen/quote-engine/internal/platform/logging"
)

// Options wires the commands to their environment.
type Options struct {
	// LoadConfig defaults to config.FromEnvironment.
	LoadConfig func() (*config.Config, error)
	Version    string
}

// session is an open store plus the services built on it.
type session struct {
	cfg    *config.Config
	store  *persistence.Handle
	quotes *app.QuoteService
	logger *slog.Logger
}

func (s *session) Close() error { return s.store.Close() }

type rootFlags struct {
	actor   string
	verbose bool
}

// NewRootCmd builds the quotectl command tree.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.LoadConfig == nil {
		opts.LoadConfig = func() (*config.Config, error) { return config.FromEnvironment() }
	}

	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "quotectl",
		Short:         "Operate the quote engine store",
		Version:       opts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.actor, "as", "", "user id recorded as the actor of changes")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log at debug level")

	open := func(ctx context.Context, cmd *cobra.Command, mutate func(*config.DatabaseConfig)) (*session, error) {
		return openSession(ctx, cmd.ErrOrStderr(), opts, flags, mutate)
	}

	root.AddCommand(
		migrateCmd(open),
		seedCmd(open),
		quotesCmd(open),
		trashCmd(open),
		serializersCmd(opts),
	)

	return root
}

type opener func(ctx context.Context, cmd *cobra.Command, mutate func(*config.DatabaseConfig)) (*session, error)

func openSession(
	ctx context.Context, stderr io.Writer, opts Options, flags *rootFlags, mutate func(*config.DatabaseConfig),
) (*session, error) {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return nil, err
	}

	if mutate != nil {
		mutate(&cfg.Database)
	}

	level := "warn"
	if flags.verbose {
		level = "debug"
	}

	logger := logging.NewWithWriter(&logging.Config{
		Level:   level,
		Format:  "text",
		Service: "quotectl",
		Version: opts.Version,
	}, stderr)

	store, err := persistence.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	registry := serializer.NewRegistry()
	for alias, target := range cfg.Serializers.Aliases {
		if err := registry.Alias(alias, target); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	quotes := app.NewQuoteService(app.QuoteServiceConfig{
		Quotes:      store,
		Catalog:     store,
		Identity:    identity.Static{User: domain.UserAccount{ID: flags.actor}},
		Serializers: registry,
		Accounts:    store,
		Logger:      logger,
	})

	return &session{cfg: cfg, store: store, quotes: quotes, logger: logger}, nil
}
