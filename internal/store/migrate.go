package store

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate installs or upgrades the host BayesDB bookkeeping schema.
// Metamodel-owned tables are not handled here; each binding installs its
// own schema through its Register operation.
func (s *Store) Migrate() error {
	if s.db == nil {
		return fmt.Errorf("store not opened")
	}
	// The pool holds one connection; migrating while the session owns it
	// would block forever.
	if s.conn != nil {
		return fmt.Errorf("migrate must run before the first store statement")
	}
	return MigrateDB(s.db)
}

// MigrateDB runs the host schema migrations on a raw database handle.
func MigrateDB(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the current host schema migration version.
func (s *Store) SchemaVersion() (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("store not opened")
	}
	if s.conn != nil {
		return 0, fmt.Errorf("schema version must be read before the first store statement")
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersion(s.db)
}
