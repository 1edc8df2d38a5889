package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so repositories can run
// inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CommitTx is the transaction surface a unit of work needs. pgx.Tx satisfies
// it; tests substitute fakes.
type CommitTx interface {
	DBTX
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWork scopes writes to a single transaction and defers side effects
// until the transaction is durably committed. Hooks registered via OnCommit
// run after Commit succeeds and never run on rollback.
type UnitOfWork struct {
	tx       CommitTx
	hooks    []func(context.Context)
	finished bool
}

// NewUnitOfWork wraps an open transaction.
func NewUnitOfWork(tx CommitTx) *UnitOfWork {
	return &UnitOfWork{tx: tx}
}

// DB exposes the transaction for repository calls.
func (u *UnitOfWork) DB() DBTX {
	return u.tx
}

// OnCommit registers a side effect to run once the transaction commits.
func (u *UnitOfWork) OnCommit(fn func(context.Context)) {
	u.hooks = append(u.hooks, fn)
}

// Commit commits the transaction, then runs registered hooks in order. Hooks
// are skipped entirely when the commit fails.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		return err
	}
	u.finished = true
	for _, hook := range u.hooks {
		hook(ctx)
	}
	return nil
}

// Rollback aborts the transaction and discards registered hooks. Safe to call
// after Commit, which makes the deferred-rollback pattern cheap.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.finished {
		return nil
	}
	u.finished = true
	u.hooks = nil
	return u.tx.Rollback(ctx)
}

// TxStarter opens units of work; abstracted so services can be tested with
// fake transactions.
type TxStarter interface {
	Begin(ctx context.Context) (*UnitOfWork, error)
}

// TxManager starts units of work backed by pgx transactions.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager constructs a TxManager over the given pool.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// Begin opens a transaction-backed unit of work.
func (m *TxManager) Begin(ctx context.Context) (*UnitOfWork, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return NewUnitOfWork(tx), nil
}
