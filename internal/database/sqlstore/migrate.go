package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog/log"
)

type migration struct {
	version int
	file    string
}

// migrate applies every migration in the dialect's FS that is not yet
// recorded in schema_migrations. Each migration runs in its own transaction
// together with its bookkeeping row.
func (r *Repository) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	if r.dialect.Migrations == nil {
		return nil
	}

	migrations, err := listMigrations(r.dialect.Migrations)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		applied, err := r.migrationApplied(ctx, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		script, err := fs.ReadFile(r.dialect.Migrations, m.file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", m.file, err)
		}

		err = r.withTx(ctx, "applying migration", func(ctx context.Context, tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(script)); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", m.file, err)
			}

			record := r.sb.Insert("schema_migrations").Columns("version").Values(m.version)
			sqlStr, args, err := record.ToSql()
			if err != nil {
				return fmt.Errorf("building migration record query: %w", err)
			}
			if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
				return fmt.Errorf("failed to record migration: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		log.Info().
			Str("dialect", r.dialect.Name).
			Int("version", m.version).
			Str("file", m.file).
			Msg("Applied migration")
	}

	return nil
}

func (r *Repository) migrationApplied(ctx context.Context, version int) (bool, error) {
	query := r.sb.
		Select("COUNT(*)").
		From("schema_migrations").
		Where(sq.Eq{"version": version})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("building migration status query: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return count > 0, nil
}

// listMigrations returns the .sql files at the root of fsys ordered by the
// numeric prefix of their name (001_initial.sql -> 1)
func listMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	var migrations []migration
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		prefix, _, _ := strings.Cut(e.Name(), "_")
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s has no numeric version prefix", e.Name())
		}
		migrations = append(migrations, migration{version: version, file: e.Name()})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})
	return migrations, nil
}
