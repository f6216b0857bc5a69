package store

import (
	"context"
	"errors"
	"testing"

	"github.com/aiyi2099/bayeslite/pkg/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(nil)
	ctx := context.Background()
	if err := s.Open(ctx, ":memory:"); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestOpenAndMigrate(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	if err := s.Open(ctx, ":memory:"); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = s.Close() }()

	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	version, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version < 1 {
		t.Errorf("schema version = %d, want >= 1", version)
	}

	// Running migrations twice is a no-op, but only before the session
	// connection is in use.
	var n int
	if err := s.QueryRow(ctx, `SELECT COUNT(*) FROM bayesdb_stattype`).Scan(&n); err != nil {
		t.Fatalf("count stattypes: %v", err)
	}
	if n != 5 {
		t.Errorf("stattypes = %d, want 5", n)
	}
	if err := s.Migrate(); err == nil {
		t.Error("expected migrate after first statement to fail")
	}
}

func TestSavepointRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Exec(ctx, `CREATE TABLE t (x INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	boom := errors.New("boom")
	err := s.Savepoint(ctx, func() error {
		if _, err := s.Exec(ctx, `INSERT INTO t (x) VALUES (1)`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("savepoint error = %v, want boom", err)
	}

	var n int
	if err := s.QueryRow(ctx, `SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("rows after rollback = %d, want 0", n)
	}
}

func TestSavepointNesting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Exec(ctx, `CREATE TABLE t (x INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	// Outer succeeds; only the failed inner savepoint rolls back.
	err := s.Savepoint(ctx, func() error {
		if _, err := s.Exec(ctx, `INSERT INTO t (x) VALUES (1)`); err != nil {
			return err
		}
		inner := s.Savepoint(ctx, func() error {
			if _, err := s.Exec(ctx, `INSERT INTO t (x) VALUES (2)`); err != nil {
				return err
			}
			return errors.New("inner boom")
		})
		if inner == nil {
			return errors.New("inner savepoint should have failed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("outer savepoint: %v", err)
	}

	var n int
	if err := s.QueryRow(ctx, `SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

func TestHostBookkeeping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Exec(ctx, `CREATE TABLE people (id TEXT, age REAL, city TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := s.DescribeTable(ctx, "people"); err != nil {
		t.Fatalf("describe: %v", err)
	}
	// Re-describing is a no-op.
	if err := s.DescribeTable(ctx, "people"); err != nil {
		t.Fatalf("re-describe: %v", err)
	}

	names, err := s.TableColumnNames(ctx, "people")
	if err != nil {
		t.Fatalf("column names: %v", err)
	}
	if len(names) != 3 || names[0] != "id" || names[2] != "city" {
		t.Fatalf("column names = %v", names)
	}

	columns := []core.GeneratorColumn{
		{ColNo: 0, Name: "id", StatType: core.StatKey},
		{ColNo: 1, Name: "age", StatType: core.StatNumerical},
		{ColNo: 2, Name: "city", StatType: core.StatCategorical},
	}
	id, err := s.CreateGenerator(ctx, "people_g", "people", "crosscat", columns)
	if err != nil {
		t.Fatalf("create generator: %v", err)
	}

	gotID, err := s.GeneratorID(ctx, "people_g")
	if err != nil || gotID != id {
		t.Fatalf("generator id = %d (%v), want %d", gotID, err, id)
	}
	name, err := s.GeneratorName(ctx, id)
	if err != nil || name != "people_g" {
		t.Fatalf("generator name = %q (%v)", name, err)
	}
	tabname, err := s.GeneratorTable(ctx, id)
	if err != nil || tabname != "people" {
		t.Fatalf("generator table = %q (%v)", tabname, err)
	}

	cols, err := s.GeneratorColumns(ctx, id)
	if err != nil {
		t.Fatalf("generator columns: %v", err)
	}
	if len(cols) != 3 || cols[1].Name != "age" || cols[1].StatType != core.StatNumerical {
		t.Fatalf("generator columns = %+v", cols)
	}

	stattype, err := s.ColumnStatType(ctx, id, 2)
	if err != nil || stattype != core.StatCategorical {
		t.Fatalf("stattype = %q (%v)", stattype, err)
	}

	for _, modelno := range []int{0, 1} {
		if err := s.AddModel(ctx, id, modelno); err != nil {
			t.Fatalf("add model %d: %v", modelno, err)
		}
	}
	modelnos, err := s.ModelNumbers(ctx, id)
	if err != nil || len(modelnos) != 2 {
		t.Fatalf("model numbers = %v (%v)", modelnos, err)
	}
	if err := s.BumpModelIterations(ctx, id, 1, 3); err != nil {
		t.Fatalf("bump: %v", err)
	}
	iterations, err := s.ModelIterations(ctx, id, 1)
	if err != nil || iterations != 3 {
		t.Fatalf("iterations = %d (%v), want 3", iterations, err)
	}
	if err := s.BumpModelIterations(ctx, id, 99, 1); err == nil {
		t.Error("expected bump of missing model to fail")
	}

	if err := s.DropGenerator(ctx, id); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, err := s.GeneratorID(ctx, "people_g"); err == nil {
		t.Error("expected lookup of dropped generator to fail")
	}
}

func TestTableAccess(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Exec(ctx, `CREATE TABLE d (city TEXT, age REAL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	max, err := s.MaxRowID(ctx, "d")
	if err != nil || max != 0 {
		t.Fatalf("empty max rowid = %d (%v), want 0", max, err)
	}

	for _, row := range [][]any{
		{"boston", 34.0},
		{"cambridge", 41.0},
		{"boston", nil},
	} {
		if err := s.InsertRow(ctx, "d", []string{"city", "age"}, row); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	values, err := s.DistinctNonNullValues(ctx, "d", "city")
	if err != nil {
		t.Fatalf("distinct: %v", err)
	}
	if len(values) != 2 || values[0] != "boston" || values[1] != "cambridge" {
		t.Fatalf("distinct values = %v", values)
	}

	row, err := s.RowValues(ctx, "d", []string{"city", "age"}, 2)
	if err != nil {
		t.Fatalf("row values: %v", err)
	}
	if row[0] != "cambridge" {
		t.Errorf("row = %v", row)
	}

	var noSuchRow *core.NoSuchRowError
	_, err = s.RowValues(ctx, "d", []string{"city"}, 99)
	if !errors.As(err, &noSuchRow) {
		t.Fatalf("error = %v, want NoSuchRowError", err)
	}

	rows, err := s.TableRows(ctx, "d", []string{"age"})
	if err != nil {
		t.Fatalf("table rows: %v", err)
	}
	if len(rows) != 3 || rows[2][0] != nil {
		t.Fatalf("table rows = %v", rows)
	}

	max, err = s.MaxRowID(ctx, "d")
	if err != nil || max != 3 {
		t.Fatalf("max rowid = %d (%v), want 3", max, err)
	}
}
