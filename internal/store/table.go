package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/aiyi2099/bayeslite/pkg/core"
)

// TableColumnNames returns a described table's column names in column
// order.
func (s *Store) TableColumnNames(ctx context.Context, tabname string) ([]string, error) {
	rows, err := s.Query(ctx,
		`SELECT name FROM bayesdb_column WHERE tabname = ? ORDER BY colno`, tabname)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %q: %w", tabname, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("table not described: %q", tabname)
	}
	return names, nil
}

// DistinctNonNullValues returns the distinct non-null values of a column
// sorted ascending, as their textual representation. Category code maps
// are built from this snapshot at generator-creation time.
func (s *Store) DistinctNonNullValues(ctx context.Context, tabname, column string) ([]string, error) {
	qt := QuoteIdentifier(tabname)
	qc := QuoteIdentifier(column)
	rows, err := s.Query(ctx, fmt.Sprintf(
		`SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY %s`, qc, qt, qc, qc))
	if err != nil {
		return nil, fmt.Errorf("failed to scan distinct values of %q.%q: %w", tabname, column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// RowValues fetches the named columns of one row by its database row id.
// It fails with NoSuchRowError when the row does not exist and
// DuplicateRowError when the lookup is unexpectedly non-unique.
func (s *Store) RowValues(ctx context.Context, tabname string, columns []string, rowid int64) ([]any, error) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdentifier(c)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE _rowid_ = ?`,
		strings.Join(quoted, ", "), QuoteIdentifier(tabname))

	rows, err := s.Query(ctx, query, rowid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch row %d of %q: %w", rowid, tabname, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, &core.NoSuchRowError{Table: tabname, RowID: rowid}
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan row %d of %q: %w", rowid, tabname, err)
	}

	if rows.Next() {
		return nil, &core.DuplicateRowError{Table: tabname, RowID: rowid}
	}
	return values, rows.Err()
}

// ColumnValue fetches a single cell by row id and column name.
func (s *Store) ColumnValue(ctx context.Context, tabname, column string, rowid int64) (any, error) {
	values, err := s.RowValues(ctx, tabname, []string{column}, rowid)
	if err != nil {
		return nil, err
	}
	return values[0], nil
}

// MaxRowID returns the largest database row id in the table, or 0 for an
// empty table.
func (s *Store) MaxRowID(ctx context.Context, tabname string) (int64, error) {
	var max *int64
	err := s.QueryRow(ctx,
		fmt.Sprintf(`SELECT MAX(_rowid_) FROM %s`, QuoteIdentifier(tabname))).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to find max rowid of %q: %w", tabname, err)
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// InsertRow appends one row to a user table.
func (s *Store) InsertRow(ctx context.Context, tabname string, columns []string, values []any) error {
	quoted := make([]string, len(columns))
	holes := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdentifier(c)
		holes[i] = "?"
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		QuoteIdentifier(tabname), strings.Join(quoted, ", "), strings.Join(holes, ", "))
	if _, err := s.Exec(ctx, query, values...); err != nil {
		return fmt.Errorf("failed to insert into %q: %w", tabname, err)
	}
	return nil
}

// TableRows reads the named columns of every row in insertion order.
func (s *Store) TableRows(ctx context.Context, tabname string, columns []string) ([][]any, error) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = QuoteIdentifier(c)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY _rowid_`,
		strings.Join(quoted, ", "), QuoteIdentifier(tabname))

	rows, err := s.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", tabname, err)
	}
	defer rows.Close()

	var result [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %q: %w", tabname, err)
		}
		result = append(result, values)
	}
	return result, rows.Err()
}
