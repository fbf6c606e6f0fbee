package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

// DBTxKey carries an open transaction through a request context so that
// repositories participate in it instead of using the pool directly.
const DBTxKey contextKey = "db_tx"

// TxFromContext retrieves the active transaction from context, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// WithTx opens a transaction on the pool stored via BindPool and returns a
// derived context carrying it. The caller owns commit/rollback.
func WithTx(ctx context.Context) (context.Context, pgx.Tx, error) {
	pool := PoolFromContext(ctx)
	if pool == nil {
		return ctx, nil, errNoConn
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return ctx, nil, err
	}
	return context.WithValue(ctx, DBTxKey, tx), tx, nil
}

// PoolKey carries the connection pool through a request context.
const PoolKey contextKey = "db_pool"

// BindPool returns a context carrying the pool, enabling WithTx/RunInTx.
func BindPool(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, PoolKey, pool)
}

// PoolFromContext retrieves the bound pool from context, or nil.
func PoolFromContext(ctx context.Context) *pgxpool.Pool {
	pool, _ := ctx.Value(PoolKey).(*pgxpool.Pool)
	return pool
}

// RunInTx executes fn inside a single transaction. The context passed to fn
// carries the transaction, so repository calls made through it are atomic.
// If a transaction is already active on ctx, fn joins it and the outer owner
// remains responsible for commit/rollback.
func RunInTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}
	if pool == nil {
		pool = PoolFromContext(ctx)
	}
	if pool == nil {
		// No pool available (in-memory repositories); run without a transaction.
		return fn(ctx)
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	txCtx := context.WithValue(ctx, DBTxKey, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type noConnError struct{}

func (noConnError) Error() string { return "no database connection in context" }

var errNoConn = noConnError{}
