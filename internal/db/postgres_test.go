package db

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type recordingTx struct {
	pgx.Tx
	commits   int
	rollbacks int
	commitErr error
}

func (t *recordingTx) Commit(context.Context) error {
	t.commits++
	return t.commitErr
}

func (t *recordingTx) Rollback(context.Context) error {
	if t.commits > 0 && t.commitErr == nil {
		return pgx.ErrTxClosed
	}
	t.rollbacks++
	return nil
}

type fakeStarter struct {
	tx  *recordingTx
	err error
}

func (s *fakeStarter) Begin(context.Context) (pgx.Tx, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tx, nil
}

func newTestDB(tx *recordingTx) *PostgresDB {
	return &PostgresDB{begin: &fakeStarter{tx: tx}, logger: zerolog.New(io.Discard)}
}

func TestWithTransactionCommitsOnSuccess(t *testing.T) {
	tx := &recordingTx{}
	database := newTestDB(tx)

	var hasDeadline bool
	err := database.WithTransaction(context.Background(), func(ctx context.Context, got pgx.Tx) error {
		_, hasDeadline = ctx.Deadline()
		if got != tx {
			t.Error("fn must receive the started transaction")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}
	if tx.commits != 1 || tx.rollbacks != 0 {
		t.Errorf("commits=%d rollbacks=%d, want 1 and 0", tx.commits, tx.rollbacks)
	}
	if !hasDeadline {
		t.Error("transaction context should carry a default deadline")
	}
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	tx := &recordingTx{}
	database := newTestDB(tx)
	boom := errors.New("link failed")

	err := database.WithTransaction(context.Background(), func(context.Context, pgx.Tx) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if tx.commits != 0 || tx.rollbacks != 1 {
		t.Errorf("commits=%d rollbacks=%d, want 0 and 1", tx.commits, tx.rollbacks)
	}
}

func TestWithTransactionRollsBackOnPanic(t *testing.T) {
	tx := &recordingTx{}
	database := newTestDB(tx)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic should propagate to the caller")
			}
		}()
		_ = database.WithTransaction(context.Background(), func(context.Context, pgx.Tx) error {
			panic("boom")
		})
	}()

	if tx.commits != 0 || tx.rollbacks != 1 {
		t.Errorf("commits=%d rollbacks=%d, want 0 and 1", tx.commits, tx.rollbacks)
	}
}

func TestWithTransactionReportsCommitFailure(t *testing.T) {
	tx := &recordingTx{commitErr: errors.New("serialization failure")}
	database := newTestDB(tx)

	err := database.WithTransaction(context.Background(), func(context.Context, pgx.Tx) error { return nil })
	if err == nil || !errors.Is(err, tx.commitErr) {
		t.Fatalf("err = %v, want wrapped commit error", err)
	}
	if tx.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1 after a failed commit", tx.rollbacks)
	}
}

func TestWithTransactionBeginFailure(t *testing.T) {
	database := &PostgresDB{begin: &fakeStarter{err: errors.New("pool closed")}, logger: zerolog.New(io.Discard)}
	called := false

	err := database.WithTransaction(context.Background(), func(context.Context, pgx.Tx) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("err = %v, called = %v; want error and no call", err, called)
	}
}
