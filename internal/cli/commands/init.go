package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aiyi2099/bayeslite/internal/crosscat"
	"github.com/aiyi2099/bayeslite/internal/store"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the BayesLite store",
		Long: `Create the SQLite store and install the bookkeeping schema.

Running init against an existing store upgrades its schema in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := ConfigFromContext(cmd.Context())
			logger := LoggerFromContext(cmd.Context())

			if dir := filepath.Dir(cfg.StatePath); dir != "." && dir != "" && cfg.StatePath != ":memory:" {
				if err := os.MkdirAll(dir, 0750); err != nil {
					return fmt.Errorf("failed to create state directory: %w", err)
				}
			}

			st := store.New(logger)
			if err := st.Open(cmd.Context(), cfg.StatePath); err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if err := st.Migrate(); err != nil {
				return err
			}
			version, err := st.SchemaVersion()
			if err != nil {
				return err
			}

			// Install the crosscat schema too; registration needs no
			// engine.
			if err := crosscat.New(st, nil, logger).Register(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized store at %s (schema version %d)\n",
				cfg.StatePath, version)
			return nil
		},
	}
}
