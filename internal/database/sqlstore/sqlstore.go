// Package sqlstore implements the repository contract on top of
// database/sql. The PostgreSQL and SQLite packages supply a Dialect and the
// connection; everything else (query construction, transactions, schema
// bootstrap) lives here.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	sq "github.com/Masterminds/squirrel"

	"coffeeapi/internal/database"
)

// Dialect captures what differs between the supported SQL engines
type Dialect struct {
	// Name is used in log fields and error messages
	Name string

	Placeholder sq.PlaceholderFormat

	// Lower names the SQL function used to fold names before comparing
	// them. It must match the function in the unique name indexes.
	// Defaults to lower.
	Lower string

	// IsUniqueViolation reports whether err is a driver error for a unique
	// or primary key constraint
	IsUniqueViolation func(err error) bool

	// Migrations holds NNN_description.sql files at its root
	Migrations fs.FS
}

// Options tunes a Repository
type Options struct {
	// QueryTimeout bounds every repository operation. Zero disables it.
	QueryTimeout time.Duration
}

// Repository implements database.Repository using a relational store
type Repository struct {
	db      *sql.DB
	sb      sq.StatementBuilderType
	dialect Dialect
	opts    Options
}

var _ database.Repository = (*Repository)(nil)

// New wraps an open connection pool and applies pending migrations.
// The caller keeps ownership of db until New succeeds; afterwards Close
// releases it.
func New(ctx context.Context, db *sql.DB, dialect Dialect, opts Options) (*Repository, error) {
	if dialect.IsUniqueViolation == nil {
		dialect.IsUniqueViolation = func(error) bool { return false }
	}
	if dialect.Lower == "" {
		dialect.Lower = "lower"
	}

	r := &Repository{
		db:      db,
		sb:      sq.StatementBuilder.PlaceholderFormat(dialect.Placeholder),
		dialect: dialect,
		opts:    opts,
	}

	if err := r.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run %s migrations: %w", dialect.Name, err)
	}

	return r, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return database.StoreError("pinging "+r.dialect.Name, err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// withTx runs fn inside a single transaction. The transaction commits only
// when fn returns nil; any error or panic rolls it back. The connection is
// released on every path.
func (r *Repository) withTx(ctx context.Context, op string, fn func(ctx context.Context, tx *sql.Tx) error) error {
	if r.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.QueryTimeout)
		defer cancel()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return database.StoreError(op, fmt.Errorf("starting transaction: %w", err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return database.StoreError(op, fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

// writeError maps a failed write to ErrAlreadyExists when the driver
// reports a unique violation, and to a store failure otherwise
func (r *Repository) writeError(op string, err error) error {
	if r.dialect.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, database.ErrAlreadyExists)
	}
	return database.StoreError(op, err)
}

// nameMatches compares a name column case-insensitively. The cast keeps
// PostgreSQL from guessing the parameter type.
func (r *Repository) nameMatches(column, name string) sq.Sqlizer {
	fn := r.dialect.Lower
	return sq.Expr(fn+"("+column+") = "+fn+"(CAST(? AS TEXT))", name)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
