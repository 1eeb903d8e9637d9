package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-engine/internal/adapters/persistence"
	"github.com/jsamuelsen/quote-engine/internal/adapters/persistence/seed"
	"github.com/jsamuelsen/quote-engine/internal/domain/serializer"
	"github.com/jsamuelsen/quote-engine/internal/platform/config"
)

var errMemoryStore = errors.New("the memory store lives inside the service and cannot be changed from here")

func migrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var driver string

			s, err := open(cmd.Context(), cmd, func(db *config.DatabaseConfig) {
				driver = db.Driver
				db.AutoMigrate = driver != persistence.DriverMemory
				db.Seed = false
			})
			if err != nil {
				return err
			}
			defer s.Close()

			if driver == persistence.DriverMemory {
				return errMemoryStore
			}

			done(cmd.OutOrStdout(), "%s schema is up to date", driver)

			return nil
		},
	}
}

func seedCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo outlet, workflow, quote type and accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var driver string

			s, err := open(cmd.Context(), cmd, func(db *config.DatabaseConfig) {
				driver = db.Driver
				db.Seed = driver != persistence.DriverMemory
			})
			if err != nil {
				return err
			}
			defer s.Close()

			if driver == persistence.DriverMemory {
				return errMemoryStore
			}

			done(cmd.OutOrStdout(), "seeded outlet %s, quote type %s and workflow %s", seed.OutletID, seed.QuoteTypeID, seed.WorkflowID)

			return nil
		},
	}
}

func serializersCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serializers",
		Short: "List the line serializers and configured aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.LoadConfig()
			if err != nil {
				return err
			}

			registry := serializer.NewRegistry()

			aliases := cfg.Serializers.Aliases
			for alias, target := range aliases {
				if err := registry.Alias(alias, target); err != nil {
					return fmt.Errorf("alias %q: %w", alias, err)
				}
			}

			out := cmd.OutOrStdout()
			for _, name := range registry.Names() {
				if target, ok := aliases[name]; ok {
					fmt.Fprintf(out, "%s %s\n", name, faint.Sprint("-> "+target))
					continue
				}

				fmt.Fprintln(out, name)
			}

			return nil
		},
	}
}
