package crosscat

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/aiyi2099/bayeslite/pkg/core"
)

// InsertMany appends rows to the generator's table and extends every
// model's latent state to cover them. Each row is a full table row in
// table column order. The raw inserts, the engine call, and the theta
// updates are one savepoint; a failure anywhere leaves the table and
// the models untouched.
func (m *Metamodel) InsertMany(ctx context.Context, generatorID int64, rows [][]any) error {
	return m.store.Savepoint(ctx, func() error {
		tabname, err := m.store.GeneratorTable(ctx, generatorID)
		if err != nil {
			return err
		}
		tableCols, err := m.store.TableColumnNames(ctx, tabname)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if len(row) != len(tableCols) {
				return &core.WrongRowLengthError{Want: len(tableCols), Got: len(row)}
			}
		}

		meta, err := m.metadata(ctx, generatorID)
		if err != nil {
			return err
		}
		modelled, err := m.modelledColumns(ctx, generatorID)
		if err != nil {
			return err
		}

		// Snapshot the codified matrix before the raw inserts so the
		// engine's before and after views are consistent.
		oldData, err := m.dataMatrix(ctx, generatorID, meta)
		if err != nil {
			return err
		}

		// Each modelled column's position within the supplied rows, by
		// case-insensitive name match against the table columns.
		slots := make([]int, len(modelled))
		for cc, col := range modelled {
			slot := -1
			for i, name := range tableCols {
				if strings.EqualFold(name, col.Name) {
					slot = i
					break
				}
			}
			if slot < 0 {
				return fmt.Errorf("modelled column %q missing from table %q", col.Name, tabname)
			}
			slots[cc] = slot
		}

		newRows := make(core.DataMatrix, len(rows))
		for i, row := range rows {
			newRows[i] = make([]float64, len(modelled))
			for cc, col := range modelled {
				code, err := m.encodeValue(ctx, generatorID, meta, col.ColNo, row[slots[cc]])
				if err != nil {
					return err
				}
				newRows[i][cc] = code
			}
		}

		for _, row := range rows {
			if err := m.store.InsertRow(ctx, tabname, tableCols, row); err != nil {
				return err
			}
		}

		modelnos, thetas, err := m.allThetas(ctx, generatorID)
		if err != nil {
			return err
		}
		if len(thetas) == 0 {
			return nil
		}

		result, err := m.engine.Insert(ctx, core.InsertRequest{
			Metadata: meta,
			Data:     oldData,
			States:   latentStates(thetas),
			Rows:     newRows,
		})
		if err != nil {
			return fmt.Errorf("failed to extend models: %w", err)
		}
		if len(result.States) != len(thetas) {
			return fmt.Errorf("engine returned %d states for %d models", len(result.States), len(thetas))
		}

		want := append(append(core.DataMatrix{}, oldData...), newRows...)
		if !matrixEqual(result.Data, want) {
			return fmt.Errorf("engine data matrix inconsistent after insert into %q", tabname)
		}

		for i, theta := range thetas {
			theta.SetLatent(result.States[i])
			if err := m.saveTheta(ctx, generatorID, modelnos[i], theta); err != nil {
				return err
			}
		}

		m.logger.Debug("inserted rows",
			"generator", m.generatorName(ctx, generatorID),
			"rows", len(rows),
			"models", len(thetas))
		return nil
	})
}

// matrixEqual compares two codified matrices cell by cell, treating NaN
// as equal to NaN so missing values compare consistently.
func matrixEqual(a, b core.DataMatrix) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			x, y := a[i][j], b[i][j]
			if math.IsNaN(x) && math.IsNaN(y) {
				continue
			}
			if x != y {
				return false
			}
		}
	}
	return true
}
