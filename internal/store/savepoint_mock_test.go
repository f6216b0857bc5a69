package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// The savepoint statement sequence matters: a failed body must emit
// ROLLBACK TO followed by RELEASE, and a successful body just RELEASE.
// sqlmock asserts the exact order.

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s := New(nil)
	if err := s.OpenDB(context.Background(), db); err != nil {
		t.Fatalf("open: %v", err)
	}
	return s, mock
}

func TestSavepointStatementSequence(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec("SAVEPOINT bayesdb_sp_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO t (x) VALUES (?)").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("RELEASE bayesdb_sp_1").WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Savepoint(ctx, func() error {
		_, err := s.Exec(ctx, "INSERT INTO t (x) VALUES (?)", 1)
		return err
	})
	if err != nil {
		t.Fatalf("savepoint: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSavepointRollbackSequence(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec("SAVEPOINT bayesdb_sp_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ROLLBACK TO bayesdb_sp_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("RELEASE bayesdb_sp_1").WillReturnResult(sqlmock.NewResult(0, 0))

	boom := errors.New("boom")
	err := s.Savepoint(ctx, func() error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("savepoint error = %v, want boom", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
