// Package uow scopes one logical operation to one connection and at most one
// transaction. Repositories obtained from a scope run every call through
// that connection, and through the transaction while one is open.
package uow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/matheusmosca/orders-inventory/internal/inventory"
	"github.com/matheusmosca/orders-inventory/internal/orders"
	"github.com/matheusmosca/orders-inventory/internal/storedproc"
	"github.com/matheusmosca/orders-inventory/internal/users"
)

var (
	ErrTransactionInProgress = errors.New("transaction already in progress")
	ErrNoTransaction         = errors.New("no transaction in progress")
	ErrDisposed              = errors.New("unit of work disposed")
)

const defaultCleanupTimeout = 5 * time.Second

// Factory creates scopes that share a connector and call settings.
type Factory struct {
	connector      Connector
	logger         *zap.Logger
	callTimeout    time.Duration
	cleanupTimeout time.Duration
}

type Option func(*Factory)

func WithLogger(l *zap.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithCallTimeout bounds each procedure call made through a scope.
func WithCallTimeout(d time.Duration) Option {
	return func(f *Factory) { f.callTimeout = d }
}

// WithCleanupTimeout bounds the rollback issued while disposing a scope whose
// request context is already cancelled.
func WithCleanupTimeout(d time.Duration) Option {
	return func(f *Factory) {
		if d > 0 {
			f.cleanupTimeout = d
		}
	}
}

func NewFactory(connector Connector, opts ...Option) *Factory {
	f := &Factory{
		connector:      connector,
		logger:         zap.NewNop(),
		cleanupTimeout: defaultCleanupTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// New opens a scope. No connection is acquired until the first call.
func (f *Factory) New() *UnitOfWork {
	u := &UnitOfWork{
		connector:      f.connector,
		logger:         f.logger,
		cleanupTimeout: f.cleanupTimeout,
	}
	u.gateway = storedproc.NewGateway(u,
		storedproc.WithTimeout(f.callTimeout),
		storedproc.WithLogger(f.logger),
	)
	return u
}

// Run opens a scope, hands it to fn and disposes it on every exit path.
func (f *Factory) Run(ctx context.Context, fn func(ctx context.Context, u *UnitOfWork) error) error {
	u := f.New()
	defer u.Dispose(ctx)
	return fn(ctx, u)
}

// Do runs fn in a new scope and returns its result.
func Do[T any](ctx context.Context, f *Factory, fn func(ctx context.Context, u *UnitOfWork) (T, error)) (T, error) {
	var out T
	err := f.Run(ctx, func(ctx context.Context, u *UnitOfWork) error {
		var err error
		out, err = fn(ctx, u)
		return err
	})
	return out, err
}

// Transact runs fn inside a transaction of a new scope. The result is only
// returned once the transaction has committed.
func Transact[T any](ctx context.Context, f *Factory, fn func(ctx context.Context, u *UnitOfWork) (T, error)) (T, error) {
	var out T
	err := f.Run(ctx, func(ctx context.Context, u *UnitOfWork) error {
		return u.InTransaction(ctx, func(ctx context.Context) error {
			var err error
			out, err = fn(ctx, u)
			return err
		})
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// UnitOfWork is not safe for concurrent use; a scope belongs to one request.
type UnitOfWork struct {
	connector      Connector
	logger         *zap.Logger
	cleanupTimeout time.Duration
	gateway        *storedproc.Gateway

	conn     Conn
	tx       Tx
	disposed bool

	disposeOnce sync.Once
	disposeErr  error

	orders    *orders.Repository
	inventory *inventory.Repository
	users     *users.Repository
}

// Orders returns the order repository bound to this scope.
func (u *UnitOfWork) Orders() *orders.Repository {
	if u.orders == nil {
		u.orders = orders.NewRepository(u.gateway)
	}
	return u.orders
}

// Inventory returns the inventory repository bound to this scope.
func (u *UnitOfWork) Inventory() *inventory.Repository {
	if u.inventory == nil {
		u.inventory = inventory.NewRepository(u.gateway)
	}
	return u.inventory
}

// Users returns the identity store repository bound to this scope.
func (u *UnitOfWork) Users() *users.Repository {
	if u.users == nil {
		u.users = users.NewRepository(u.gateway)
	}
	return u.users
}

// QueryRow routes a call through the open transaction, or the scope
// connection when none is open. Acquisition failures surface from Scan.
func (u *UnitOfWork) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if u.HasTransaction() {
		return u.tx.QueryRow(ctx, sql, args...)
	}
	conn, err := u.connection(ctx)
	if err != nil {
		return errRow{err: err}
	}
	return conn.QueryRow(ctx, sql, args...)
}

// HasTransaction reports whether a transaction is open.
func (u *UnitOfWork) HasTransaction() bool { return u.tx != nil }

// BeginTransaction starts the scope's transaction. Nesting is not supported.
func (u *UnitOfWork) BeginTransaction(ctx context.Context) error {
	if u.disposed {
		return ErrDisposed
	}
	if u.HasTransaction() {
		return ErrTransactionInProgress
	}

	conn, err := u.connection(ctx)
	if err != nil {
		return err
	}
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	u.tx = tx
	return nil
}

// Commit commits the open transaction and clears it. When the commit fails
// the transaction is rolled back before the error is returned.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if !u.HasTransaction() {
		return ErrNoTransaction
	}
	tx := u.tx
	u.tx = nil

	if err := tx.Commit(ctx); err != nil {
		cleanupCtx, cancel := u.cleanupContext(ctx)
		defer cancel()
		if rbErr := tx.Rollback(cleanupCtx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			u.logger.Error("rollback after failed commit", zap.Error(rbErr))
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls back the open transaction, if any.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if !u.HasTransaction() {
		return nil
	}
	tx := u.tx
	u.tx = nil

	cleanupCtx, cancel := u.cleanupContext(ctx)
	defer cancel()
	if err := tx.Rollback(cleanupCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

// InTransaction runs fn inside a transaction. fn's error or panic rolls the
// transaction back; otherwise it is committed.
func (u *UnitOfWork) InTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := u.BeginTransaction(ctx); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			u.rollbackQuietly(ctx)
			panic(r)
		}
		if err != nil {
			u.rollbackQuietly(ctx)
		}
	}()

	if err = fn(ctx); err != nil {
		return err
	}
	return u.Commit(ctx)
}

// Dispose rolls back any open transaction and releases the connection. It
// runs once; later calls return the first result.
func (u *UnitOfWork) Dispose(ctx context.Context) error {
	u.disposeOnce.Do(func() {
		if u.HasTransaction() {
			u.disposeErr = u.Rollback(ctx)
		}
		if u.conn != nil {
			u.conn.Release()
			u.conn = nil
		}
		u.disposed = true

		if u.disposeErr != nil {
			u.logger.Error("dispose unit of work", zap.Error(u.disposeErr))
		}
	})
	return u.disposeErr
}

func (u *UnitOfWork) connection(ctx context.Context) (Conn, error) {
	if u.disposed {
		return nil, ErrDisposed
	}
	if u.conn == nil {
		conn, err := u.connector.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire connection: %w", err)
		}
		u.conn = conn
	}
	return u.conn, nil
}

func (u *UnitOfWork) rollbackQuietly(ctx context.Context) {
	if err := u.Rollback(ctx); err != nil {
		u.logger.Error("rollback transaction", zap.Error(err))
	}
}

// cleanupContext survives cancellation of ctx so an aborted request still
// rolls back.
func (u *UnitOfWork) cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), u.cleanupTimeout)
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error { return r.err }
