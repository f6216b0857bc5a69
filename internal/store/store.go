// Package store provides the host BayesDB relational store: a SQLite
// session with savepoint semantics, the core bookkeeping tables for
// tables, generators, columns, and models, and access to user data
// tables. Metamodel bindings persist their own schema on top of it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"
)

// Store is one session against a BayesDB SQLite store. All statements run
// on a single connection so that savepoints nest correctly; the store
// performs no concurrency of its own and assumes single-writer-at-a-time
// semantics per generator.
type Store struct {
	db     *sql.DB
	conn   *sql.Conn
	path   string
	logger *slog.Logger
	spSeq  int
}

// New creates an unopened store. A nil logger discards all output.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{logger: logger}
}

// Open opens the SQLite store. Use ":memory:" for an in-memory store.
// The pool is capped at one connection so the whole session, migrations
// included, sees a single database; the session connection itself is
// acquired on first use, after any migrations have run.
func (s *Store) Open(ctx context.Context, path string) error {
	dsn := path + "?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite store: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite store: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// OpenDB attaches the store to an existing database handle. Useful for
// tests that supply their own connection.
func (s *Store) OpenDB(ctx context.Context, db *sql.DB) error {
	s.db = db
	return nil
}

// session returns the session connection, acquiring it on first use.
// Savepoints are connection state, so every statement must run on this
// one connection.
func (s *Store) session(ctx context.Context) (*sql.Conn, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not opened")
	}
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session connection: %w", err)
	}
	s.conn = conn
	return conn, nil
}

// Close releases the session connection and the underlying handle.
func (s *Store) Close() error {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Exec runs a statement on the session connection.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	conn, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	return conn.ExecContext(ctx, query, args...)
}

// Query runs a query on the session connection.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	conn, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	return conn.QueryContext(ctx, query, args...)
}

// QueryRow runs a single-row query on the session connection.
func (s *Store) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	if s.db == nil {
		panic("store: QueryRow on unopened store")
	}
	conn, err := s.session(ctx)
	if err != nil {
		// Surface the acquisition failure through the row's Scan. With
		// no held session connection the pool call cannot contend.
		return s.db.QueryRowContext(ctx, query, args...)
	}
	return conn.QueryRowContext(ctx, query, args...)
}

// Savepoint runs fn inside a named SQLite savepoint. On error the
// savepoint is rolled back and released, leaving the store exactly as it
// was before the call; on success it is released into the enclosing
// transaction scope. Savepoints nest.
func (s *Store) Savepoint(ctx context.Context, fn func() error) error {
	conn, err := s.session(ctx)
	if err != nil {
		return err
	}

	s.spSeq++
	name := fmt.Sprintf("bayesdb_sp_%d", s.spSeq)

	if _, err := conn.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to open savepoint: %w", err)
	}

	if err := fn(); err != nil {
		if _, rbErr := conn.ExecContext(ctx, "ROLLBACK TO "+name); rbErr != nil {
			s.logger.Error("savepoint rollback failed", "savepoint", name, "error", rbErr)
		}
		if _, relErr := conn.ExecContext(ctx, "RELEASE "+name); relErr != nil {
			s.logger.Error("savepoint release failed", "savepoint", name, "error", relErr)
		}
		return err
	}

	if _, err := conn.ExecContext(ctx, "RELEASE "+name); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

// QuoteIdentifier quotes a SQL identifier for safe interpolation into
// dynamically built statements over user tables.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
