package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/aiyi2099/bayeslite/internal/store"
)

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show generators and their trained models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := ConfigFromContext(cmd.Context())
			logger := LoggerFromContext(cmd.Context())

			if cfg.StatePath != ":memory:" {
				if _, err := os.Stat(cfg.StatePath); os.IsNotExist(err) {
					return fmt.Errorf("store not found at %s (run 'bayeslite init' first)", cfg.StatePath)
				}
			}

			st := store.New(logger)
			if err := st.Open(cmd.Context(), cfg.StatePath); err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			gens, err := st.Generators(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([]generatorStatus, len(gens))
			for i, gen := range gens {
				modelnos, err := st.ModelNumbers(cmd.Context(), gen.ID)
				if err != nil {
					return err
				}
				iterations := 0
				for _, modelno := range modelnos {
					n, err := st.ModelIterations(cmd.Context(), gen.ID, modelno)
					if err != nil {
						return err
					}
					iterations += n
				}
				rows[i] = generatorStatus{
					Name:       gen.Name,
					Table:      gen.Table,
					Metamodel:  gen.Metamodel,
					Models:     len(modelnos),
					Iterations: iterations,
				}
			}

			return renderStatus(cmd.OutOrStdout(), rows, cfg.Output)
		},
	}
}

type generatorStatus struct {
	Name       string `json:"name"`
	Table      string `json:"table"`
	Metamodel  string `json:"metamodel"`
	Models     int    `json:"models"`
	Iterations int    `json:"iterations"`
}

func renderStatus(w io.Writer, rows []generatorStatus, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "csv":
		fmt.Fprintln(w, "name,table,metamodel,models,iterations")
		for _, r := range rows {
			fmt.Fprintf(w, "%s,%s,%s,%d,%d\n",
				escapeCSV(r.Name), escapeCSV(r.Table), escapeCSV(r.Metamodel), r.Models, r.Iterations)
		}
		return nil
	default:
		if len(rows) == 0 {
			fmt.Fprintln(w, "(no generators)")
			return nil
		}
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Generator", "Table", "Metamodel", "Models", "Iterations"})
		for _, r := range rows {
			t.AppendRow(table.Row{r.Name, r.Table, r.Metamodel, r.Models, r.Iterations})
		}
		t.Render()
		fmt.Fprintf(w, "(%d generators)\n", len(rows))
		return nil
	}
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
