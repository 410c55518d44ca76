// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// a helper to run functions inside a transaction, and Store, which couples
// a connection with that helper so services do not depend on *sql.DB.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is the unit of work executed by WithTx.
type TxFunc func(ctx context.Context, tx DBTX) error

// Store is what services hold: a handle for single statements and a way to
// group several statements into one transaction.
type Store interface {
	Conn() DBTX
	WithTx(ctx context.Context, fn TxFunc) error
	PingContext(ctx context.Context) error
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    // use tx instead of db
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// SQLStore is a Store over a database/sql pool.
type SQLStore struct {
	db   *sql.DB
	opts *sql.TxOptions
}

// NewSQLStore wraps db. opts may be nil to use the driver default isolation
// (read committed on Postgres).
func NewSQLStore(db *sql.DB, opts *sql.TxOptions) *SQLStore {
	return &SQLStore{db: db, opts: opts}
}

func (s *SQLStore) Conn() DBTX { return s.db }

func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) WithTx(ctx context.Context, fn TxFunc) error {
	return WithTx(ctx, s.db, s.opts, fn)
}

func (s *SQLStore) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
