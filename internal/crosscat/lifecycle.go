package crosscat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aiyi2099/bayeslite/pkg/core"
)

// CreateGenerator builds and persists the crosscat metadata for a
// generator: the engine-facing metadata document, the column number
// translation table, and the categorical code maps. The whole operation
// is one savepoint; on failure no crosscat rows remain.
func (m *Metamodel) CreateGenerator(ctx context.Context, generatorID int64, columns []core.GeneratorColumn) error {
	return m.store.Savepoint(ctx, func() error {
		tabname, err := m.store.GeneratorTable(ctx, generatorID)
		if err != nil {
			return err
		}

		meta, modelled, err := m.buildMetadata(ctx, tabname, columns)
		if err != nil {
			return err
		}

		blob, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("failed to encode crosscat metadata: %w", err)
		}
		_, err = m.store.Exec(ctx,
			`INSERT INTO bayesdb_crosscat_metadata (generator_id, metadata_json) VALUES (?, ?)`,
			generatorID, blob,
		)
		if err != nil {
			return fmt.Errorf("failed to store crosscat metadata: %w", err)
		}

		for cc, col := range modelled {
			cm := meta.Columns[cc]
			_, err := m.store.Exec(ctx,
				`INSERT INTO bayesdb_crosscat_column (generator_id, colno, cc_colno, disttype)
				    VALUES (?, ?, ?, ?)`,
				generatorID, col.ColNo, cc, string(cm.ModelType),
			)
			if err != nil {
				return fmt.Errorf("failed to record crosscat column %q: %w", col.Name, err)
			}
			for value, code := range cm.ValueToCode {
				_, err := m.store.Exec(ctx,
					`INSERT INTO bayesdb_crosscat_column_codemap (generator_id, cc_colno, code, value)
					    VALUES (?, ?, ?, ?)`,
					generatorID, cc, code, value,
				)
				if err != nil {
					return fmt.Errorf("failed to record code map for column %q: %w", col.Name, err)
				}
			}
		}

		m.logger.Debug("created crosscat generator",
			"generator", m.generatorName(ctx, generatorID),
			"columns", len(columns),
			"modelled", len(modelled))
		return nil
	})
}

// DropGenerator deletes every crosscat row belonging to a generator.
// Child tables go first so foreign keys hold throughout.
func (m *Metamodel) DropGenerator(ctx context.Context, generatorID int64) error {
	return m.store.Savepoint(ctx, func() error {
		for _, stmt := range []string{
			`DELETE FROM bayesdb_crosscat_theta WHERE generator_id = ?`,
			`DELETE FROM bayesdb_crosscat_column_codemap WHERE generator_id = ?`,
			`DELETE FROM bayesdb_crosscat_column WHERE generator_id = ?`,
			`DELETE FROM bayesdb_crosscat_metadata WHERE generator_id = ?`,
		} {
			if _, err := m.store.Exec(ctx, stmt, generatorID); err != nil {
				return fmt.Errorf("failed to drop crosscat generator %d: %w", generatorID, err)
			}
		}
		return nil
	})
}
