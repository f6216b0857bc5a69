package crosscat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aiyi2099/bayeslite/pkg/core"
)

// buildMetadata constructs the engine-facing metadata document for a
// generator's column set, assigning dense engine column numbers to the
// modelled columns in declaration order. The returned slice holds the
// modelled columns in engine column order.
func (m *Metamodel) buildMetadata(ctx context.Context, tabname string, columns []core.GeneratorColumn) (*core.Metadata, []core.GeneratorColumn, error) {
	meta := &core.Metadata{
		NameToIdx: make(map[string]int),
		IdxToName: make(map[string]string),
	}

	var modelled []core.GeneratorColumn
	for _, col := range columns {
		dist, ok := core.DistTypeFor(col.StatType)
		if !ok {
			return nil, nil, &core.UnsupportedStatTypeError{Column: col.Name, StatType: col.StatType}
		}

		cm := core.ColumnMetadata{
			ModelType:   dist,
			ValueToCode: make(map[string]int),
			CodeToValue: make(map[string]string),
		}
		switch col.StatType {
		case core.StatCategorical, core.StatIgnore, core.StatKey:
			// Code maps snapshot the distinct non-null values present at
			// creation time; they are immutable afterward.
			values, err := m.store.DistinctNonNullValues(ctx, tabname, col.Name)
			if err != nil {
				return nil, nil, err
			}
			for code, value := range values {
				cm.ValueToCode[value] = code
				cm.CodeToValue[strconv.Itoa(code)] = value
			}
		}

		if col.StatType.Modelled() {
			cc := len(modelled)
			meta.NameToIdx[col.Name] = cc
			meta.IdxToName[strconv.Itoa(cc)] = col.Name
			meta.Columns = append(meta.Columns, cm)
			modelled = append(modelled, col)
		} else {
			meta.Unmodelled = append(meta.Unmodelled, core.UnmodelledColumn{
				ColNo:    col.ColNo,
				Name:     col.Name,
				Metadata: cm,
			})
		}
	}
	return meta, modelled, nil
}

// metadata loads a generator's persisted metadata document.
func (m *Metamodel) metadata(ctx context.Context, generatorID int64) (*core.Metadata, error) {
	var blob []byte
	err := m.store.QueryRow(ctx,
		`SELECT metadata_json FROM bayesdb_crosscat_metadata WHERE generator_id = ?`,
		generatorID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no crosscat metadata for generator %q", m.generatorName(ctx, generatorID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load crosscat metadata: %w", err)
	}

	var meta core.Metadata
	if err := json.Unmarshal(blob, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode crosscat metadata: %w", err)
	}
	return &meta, nil
}

// modelledColumns returns the generator's modelled columns in engine
// column order.
func (m *Metamodel) modelledColumns(ctx context.Context, generatorID int64) ([]core.GeneratorColumn, error) {
	cols, err := m.store.GeneratorColumns(ctx, generatorID)
	if err != nil {
		return nil, err
	}
	var modelled []core.GeneratorColumn
	for _, col := range cols {
		if col.StatType.Modelled() {
			modelled = append(modelled, col)
		}
	}
	return modelled, nil
}

// dataMatrix codifies the full table contents for the generator's
// modelled columns, one row per table row in insertion order.
func (m *Metamodel) dataMatrix(ctx context.Context, generatorID int64, meta *core.Metadata) (core.DataMatrix, error) {
	tabname, err := m.store.GeneratorTable(ctx, generatorID)
	if err != nil {
		return nil, err
	}
	modelled, err := m.modelledColumns(ctx, generatorID)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(modelled))
	for i, col := range modelled {
		names[i] = col.Name
	}
	rows, err := m.store.TableRows(ctx, tabname, names)
	if err != nil {
		return nil, err
	}

	data := make(core.DataMatrix, len(rows))
	for i, row := range rows {
		data[i] = make([]float64, len(modelled))
		for j, col := range modelled {
			code, err := m.encodeValue(ctx, generatorID, meta, col.ColNo, row[j])
			if err != nil {
				return nil, err
			}
			data[i][j] = code
		}
	}
	return data, nil
}

// engineColNo translates a database column number to the engine's dense
// column index.
func (m *Metamodel) engineColNo(ctx context.Context, generatorID int64, colno int) (int, error) {
	var cc int
	err := m.store.QueryRow(ctx,
		`SELECT cc_colno FROM bayesdb_crosscat_column WHERE generator_id = ? AND colno = ?`,
		generatorID, colno,
	).Scan(&cc)
	if errors.Is(err, sql.ErrNoRows) {
		name, nameErr := m.store.ColumnName(ctx, generatorID, colno)
		if nameErr != nil {
			name = strconv.Itoa(colno)
		}
		return 0, &core.ColumnNotModelledError{
			Generator: m.generatorName(ctx, generatorID),
			Column:    name,
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to translate column %d: %w", colno, err)
	}
	return cc, nil
}

// databaseColNo translates an engine column index back to the database
// column number.
func (m *Metamodel) databaseColNo(ctx context.Context, generatorID int64, ccColno int) (int, error) {
	var colno int
	err := m.store.QueryRow(ctx,
		`SELECT colno FROM bayesdb_crosscat_column WHERE generator_id = ? AND cc_colno = ?`,
		generatorID, ccColno,
	).Scan(&colno)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &core.ColumnNotModelledError{
			Generator: m.generatorName(ctx, generatorID),
			Column:    strconv.Itoa(ccColno),
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to translate engine column %d: %w", ccColno, err)
	}
	return colno, nil
}
