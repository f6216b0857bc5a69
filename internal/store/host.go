package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aiyi2099/bayeslite/pkg/core"
)

// DescribeTable records a user table's columns in bayesdb_column, keyed
// by table name and 0-based column number, using the live table schema.
// Re-describing an already-described table is a no-op.
func (s *Store) DescribeTable(ctx context.Context, tabname string) error {
	rows, err := s.Query(ctx, "PRAGMA table_info("+QuoteIdentifier(tabname)+")")
	if err != nil {
		return fmt.Errorf("failed to inspect table %q: %w", tabname, err)
	}
	defer rows.Close()

	type columnInfo struct {
		cid  int
		name string
	}
	var cols []columnInfo
	for rows.Next() {
		var (
			ci         columnInfo
			typ        string
			notnull    int
			dflt       sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&ci.cid, &ci.name, &typ, &notnull, &dflt, &primaryKey); err != nil {
			return fmt.Errorf("failed to scan table info: %w", err)
		}
		cols = append(cols, ci)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(cols) == 0 {
		return fmt.Errorf("no such table: %q", tabname)
	}

	return s.Savepoint(ctx, func() error {
		for _, c := range cols {
			_, err := s.Exec(ctx,
				`INSERT OR IGNORE INTO bayesdb_column (tabname, colno, name) VALUES (?, ?, ?)`,
				tabname, c.cid, c.name,
			)
			if err != nil {
				return fmt.Errorf("failed to record column %q.%q: %w", tabname, c.name, err)
			}
		}
		return nil
	})
}

// CreateGenerator records a generator and its modelled-column set in the
// host bookkeeping tables and returns the generator id.
func (s *Store) CreateGenerator(ctx context.Context, name, tabname, metamodel string, columns []core.GeneratorColumn) (int64, error) {
	var id int64
	err := s.Savepoint(ctx, func() error {
		res, err := s.Exec(ctx,
			`INSERT INTO bayesdb_generator (name, tabname, metamodel) VALUES (?, ?, ?)`,
			name, tabname, metamodel,
		)
		if err != nil {
			return fmt.Errorf("failed to create generator %q: %w", name, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to resolve generator id: %w", err)
		}
		for _, col := range columns {
			_, err := s.Exec(ctx,
				`INSERT INTO bayesdb_generator_column (generator_id, colno, stattype) VALUES (?, ?, ?)`,
				id, col.ColNo, string(col.StatType),
			)
			if err != nil {
				return fmt.Errorf("failed to record generator column %q: %w", col.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// DropGenerator removes the host bookkeeping rows for a generator. The
// metamodel's own rows must be dropped first via the binding.
func (s *Store) DropGenerator(ctx context.Context, generatorID int64) error {
	return s.Savepoint(ctx, func() error {
		for _, stmt := range []string{
			`DELETE FROM bayesdb_generator_model WHERE generator_id = ?`,
			`DELETE FROM bayesdb_generator_column WHERE generator_id = ?`,
			`DELETE FROM bayesdb_generator WHERE id = ?`,
		} {
			if _, err := s.Exec(ctx, stmt, generatorID); err != nil {
				return fmt.Errorf("failed to drop generator %d: %w", generatorID, err)
			}
		}
		return nil
	})
}

// GeneratorID resolves a generator name to its id.
func (s *Store) GeneratorID(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.QueryRow(ctx, `SELECT id FROM bayesdb_generator WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("no such generator: %q", name)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up generator %q: %w", name, err)
	}
	return id, nil
}

// GeneratorName resolves a generator id to its name.
func (s *Store) GeneratorName(ctx context.Context, generatorID int64) (string, error) {
	var name string
	err := s.QueryRow(ctx, `SELECT name FROM bayesdb_generator WHERE id = ?`, generatorID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("no such generator: %d", generatorID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up generator %d: %w", generatorID, err)
	}
	return name, nil
}

// GeneratorTable returns the name of the table a generator models.
func (s *Store) GeneratorTable(ctx context.Context, generatorID int64) (string, error) {
	var tabname string
	err := s.QueryRow(ctx, `SELECT tabname FROM bayesdb_generator WHERE id = ?`, generatorID).Scan(&tabname)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("no such generator: %d", generatorID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up generator %d: %w", generatorID, err)
	}
	return tabname, nil
}

// Generators lists all registered generators ordered by id.
func (s *Store) Generators(ctx context.Context) ([]GeneratorInfo, error) {
	rows, err := s.Query(ctx,
		`SELECT id, name, tabname, metamodel FROM bayesdb_generator ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list generators: %w", err)
	}
	defer rows.Close()

	var gens []GeneratorInfo
	for rows.Next() {
		var g GeneratorInfo
		if err := rows.Scan(&g.ID, &g.Name, &g.Table, &g.Metamodel); err != nil {
			return nil, fmt.Errorf("failed to scan generator: %w", err)
		}
		gens = append(gens, g)
	}
	return gens, rows.Err()
}

// GeneratorInfo is one row of the generator catalogue.
type GeneratorInfo struct {
	ID        int64
	Name      string
	Table     string
	Metamodel string
}

// GeneratorColumns returns the generator's column set, joined with the
// table column names, in column-number order.
func (s *Store) GeneratorColumns(ctx context.Context, generatorID int64) ([]core.GeneratorColumn, error) {
	rows, err := s.Query(ctx, `
		SELECT gc.colno, c.name, gc.stattype
		    FROM bayesdb_generator_column AS gc,
		        bayesdb_generator AS g,
		        bayesdb_column AS c
		    WHERE g.id = ?
		        AND gc.generator_id = g.id
		        AND c.tabname = g.tabname
		        AND c.colno = gc.colno
		    ORDER BY gc.colno ASC`,
		generatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list generator columns: %w", err)
	}
	defer rows.Close()

	var cols []core.GeneratorColumn
	for rows.Next() {
		var (
			col      core.GeneratorColumn
			stattype string
		)
		if err := rows.Scan(&col.ColNo, &col.Name, &stattype); err != nil {
			return nil, fmt.Errorf("failed to scan generator column: %w", err)
		}
		col.StatType = core.StatType(stattype)
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// ColumnStatType returns the declared stattype of a generator column.
func (s *Store) ColumnStatType(ctx context.Context, generatorID int64, colno int) (core.StatType, error) {
	var stattype string
	err := s.QueryRow(ctx,
		`SELECT stattype FROM bayesdb_generator_column WHERE generator_id = ? AND colno = ?`,
		generatorID, colno,
	).Scan(&stattype)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("no such generator column: %d in generator %d", colno, generatorID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up column stattype: %w", err)
	}
	return core.StatType(stattype), nil
}

// ColumnName returns the table column name for a generator column number.
func (s *Store) ColumnName(ctx context.Context, generatorID int64, colno int) (string, error) {
	var name string
	err := s.QueryRow(ctx, `
		SELECT c.name
		    FROM bayesdb_column AS c, bayesdb_generator AS g
		    WHERE g.id = ? AND c.tabname = g.tabname AND c.colno = ?`,
		generatorID, colno,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("no such column %d for generator %d", colno, generatorID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up column name: %w", err)
	}
	return name, nil
}

// AddModel records a model number for a generator with a zero iteration
// counter.
func (s *Store) AddModel(ctx context.Context, generatorID int64, modelno int) error {
	_, err := s.Exec(ctx,
		`INSERT INTO bayesdb_generator_model (generator_id, modelno, iterations) VALUES (?, ?, 0)`,
		generatorID, modelno,
	)
	if err != nil {
		return fmt.Errorf("failed to add model %d for generator %d: %w", modelno, generatorID, err)
	}
	return nil
}

// ModelNumbers lists a generator's model numbers in ascending order.
func (s *Store) ModelNumbers(ctx context.Context, generatorID int64) ([]int, error) {
	rows, err := s.Query(ctx,
		`SELECT modelno FROM bayesdb_generator_model WHERE generator_id = ? ORDER BY modelno`,
		generatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var modelnos []int
	for rows.Next() {
		var modelno int
		if err := rows.Scan(&modelno); err != nil {
			return nil, fmt.Errorf("failed to scan modelno: %w", err)
		}
		modelnos = append(modelnos, modelno)
	}
	return modelnos, rows.Err()
}

// ModelIterations returns the host-side iteration counter for a model.
func (s *Store) ModelIterations(ctx context.Context, generatorID int64, modelno int) (int, error) {
	var iterations int
	err := s.QueryRow(ctx,
		`SELECT iterations FROM bayesdb_generator_model WHERE generator_id = ? AND modelno = ?`,
		generatorID, modelno,
	).Scan(&iterations)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("no such model %d for generator %d", modelno, generatorID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up model iterations: %w", err)
	}
	return iterations, nil
}

// BumpModelIterations increments a model's host-side iteration counter.
func (s *Store) BumpModelIterations(ctx context.Context, generatorID int64, modelno, delta int) error {
	res, err := s.Exec(ctx,
		`UPDATE bayesdb_generator_model SET iterations = iterations + ? WHERE generator_id = ? AND modelno = ?`,
		delta, generatorID, modelno,
	)
	if err != nil {
		return fmt.Errorf("failed to update model iterations: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("no such model %d for generator %d", modelno, generatorID)
	}
	return nil
}
