// Package postgres opens the PostgreSQL-backed repository.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"coffeeapi/internal/database/sqlstore"
)

// pqUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pqUniqueViolation = "23505"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Dialect describes PostgreSQL for sqlstore, with $1, $2 placeholders
func Dialect() sqlstore.Dialect {
	migrations, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sqlstore.Dialect{
		Name:              "postgres",
		Placeholder:       sq.Dollar,
		IsUniqueViolation: isPQUniqueViolation,
		Migrations:        migrations,
	}
}

// Open connects to the database at dsn, verifies the connection and applies
// pending migrations.
func Open(ctx context.Context, dsn string, opts sqlstore.Options) (*sqlstore.Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo, err := sqlstore.New(ctx, db, Dialect(), opts)
	if err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// isPQUniqueViolation checks whether the error is a PostgreSQL unique
// constraint violation (error code 23505).
func isPQUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}
