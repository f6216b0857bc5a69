package commands

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	// sqlite driver for read-only store queries.
	_ "modernc.org/sqlite"
)

// openStoreReadOnly opens the store in read-only mode, bypassing the
// session layer. Queries here never mutate bookkeeping state.
func openStoreReadOnly(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path+"?mode=ro")
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	var format string
	var input string

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Query the store's bookkeeping tables",
		Long: `Execute read-only SQL against the BayesLite store.

Useful for inspecting generators, columns, models, and metamodel-owned
tables directly.`,
		Example: `  # List generators
  bayeslite query "SELECT * FROM bayesdb_generator"

  # List available tables
  bayeslite query tables

  # Output as JSON
  bayeslite query "SELECT * FROM bayesdb_generator_model" --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ConfigFromContext(cmd.Context())
			if format == "" {
				format = cfg.Output
			}

			if _, err := os.Stat(cfg.StatePath); os.IsNotExist(err) {
				return fmt.Errorf("store not found at %s (run 'bayeslite init' first)", cfg.StatePath)
			}

			var sqlQuery string
			switch {
			case len(args) > 0:
				sqlQuery = strings.Join(args, " ")
			case input != "":
				content, err := os.ReadFile(input)
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				sqlQuery = string(content)
			default:
				content, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				sqlQuery = string(content)
			}

			db, err := openStoreReadOnly(cfg.StatePath)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer func() { _ = db.Close() }()

			rows, err := db.QueryContext(cmd.Context(), sqlQuery)
			if err != nil {
				return fmt.Errorf("query failed: %w", err)
			}
			defer func() { _ = rows.Close() }()

			return renderResults(cmd.OutOrStdout(), rows, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: table, json, csv")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Read SQL from file")

	cmd.AddCommand(newQueryTablesCommand(&format))

	return cmd
}

// newQueryTablesCommand creates the tables subcommand.
func newQueryTablesCommand(format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := ConfigFromContext(cmd.Context())
			f := *format
			if f == "" {
				f = cfg.Output
			}

			db, err := openStoreReadOnly(cfg.StatePath)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer func() { _ = db.Close() }()

			rows, err := db.QueryContext(cmd.Context(), `
				SELECT name, type
				    FROM sqlite_master
				    WHERE type IN ('table', 'view')
				        AND name NOT LIKE 'sqlite_%'
				        AND name NOT LIKE 'goose_%'
				    ORDER BY type DESC, name`)
			if err != nil {
				return err
			}
			defer func() { _ = rows.Close() }()

			return renderResults(cmd.OutOrStdout(), rows, f)
		},
	}
}
