package crosscat

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/aiyi2099/bayeslite/pkg/core"
)

// schemaVersion is the crosscat schema generation this binding supports.
// There is no migration path: a store carrying any other version is
// unusable by this binding.
const schemaVersion = 1

//go:embed schema.sql
var schemaSQL string

// Register idempotently installs the crosscat schema. A fresh store gets
// the full schema plus its version marker as one atomic unit; an
// already-registered store is left untouched; a store registered with an
// unexpected version fails with SchemaVersionError.
func (m *Metamodel) Register(ctx context.Context) error {
	return m.store.Savepoint(ctx, func() error {
		var version int
		err := m.store.QueryRow(ctx,
			`SELECT version FROM bayesdb_metamodel WHERE name = ?`, m.Name()).Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			if _, err := m.store.Exec(ctx, schemaSQL); err != nil {
				return fmt.Errorf("failed to install crosscat schema: %w", err)
			}
			m.logger.Info("installed crosscat schema", "version", schemaVersion)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read metamodel version: %w", err)
		}
		if version != schemaVersion {
			return &core.SchemaVersionError{Metamodel: m.Name(), Version: version}
		}
		return nil
	})
}
