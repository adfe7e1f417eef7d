package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	sq "github.com/Masterminds/squirrel"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"coffeeapi/internal/database"
	"coffeeapi/internal/database/sqlstore"
)

// lowerFunc folds names with database.FoldName. The built-in lower() only
// handles ASCII, so the name indexes and lookups use this instead.
const lowerFunc = "unicode_lower"

func init() {
	sqlitedriver.MustRegisterDeterministicScalarFunction(lowerFunc, 1, unicodeLower)
}

func unicodeLower(_ *sqlitedriver.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return database.FoldName(v), nil
	case []byte:
		return database.FoldName(string(v)), nil
	default:
		return v, nil
	}
}

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Dialect describes SQLite for sqlstore
func Dialect() sqlstore.Dialect {
	migrations, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sqlstore.Dialect{
		Name:              "sqlite",
		Placeholder:       sq.Question,
		Lower:             lowerFunc,
		IsUniqueViolation: isUniqueViolation,
		Migrations:        migrations,
	}
}

// Open opens (or creates) the SQLite database at dbPath and runs migrations.
// ":memory:" gives a private in-memory database.
//
// The pool is capped at one connection: SQLite allows a single writer, an
// in-memory database lives only as long as its connection, and deferred
// transactions upgrading to write locks would otherwise fail with
// SQLITE_BUSY under concurrent callers.
func Open(ctx context.Context, dbPath string, opts sqlstore.Options) (*sqlstore.Repository, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

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

// dsn enables foreign keys (needed for ON DELETE CASCADE) and a busy
// timeout on every connection the driver opens
func dsn(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlitedriver.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
