package uow

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matheusmosca/orders-inventory/internal/storedproc"
)

// Tx is an open transaction on a scope's connection.
type Tx interface {
	storedproc.Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Conn is the single connection a scope owns.
type Conn interface {
	storedproc.Querier
	Begin(ctx context.Context) (Tx, error)
	Release()
}

// Connector hands out connections to new scopes.
type Connector interface {
	Acquire(ctx context.Context) (Conn, error)
}

// PoolConnector acquires connections from a pgx pool.
type PoolConnector struct {
	pool *pgxpool.Pool
}

func NewPoolConnector(pool *pgxpool.Pool) *PoolConnector {
	return &PoolConnector{pool: pool}
}

func (c *PoolConnector) Acquire(ctx context.Context) (Conn, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &PostgresConn{conn: conn}, nil
}

// PostgresConn adapts a pooled connection.
type PostgresConn struct {
	conn *pgxpool.Conn
}

func (c *PostgresConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.conn.QueryRow(ctx, sql, args...)
}

func (c *PostgresConn) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &PostgresTx{tx: tx}, nil
}

func (c *PostgresConn) Release() { c.conn.Release() }

// PostgresTx implements Tx over pgx.
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

func (t *PostgresTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *PostgresTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
