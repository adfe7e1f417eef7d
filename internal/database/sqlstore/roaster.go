package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"coffeeapi/internal/database"
	"coffeeapi/internal/models"
)

var roasterColumns = []string{"id", "name", "url", "address"}

func (r *Repository) AllRoasters(ctx context.Context) ([]models.Roaster, error) {
	roasters := []models.Roaster{}

	err := r.withTx(ctx, "listing roasters", func(ctx context.Context, tx *sql.Tx) error {
		query := r.sb.
			Select(roasterColumns...).
			From("roaster").
			OrderBy("id")

		sqlStr, args, err := query.ToSql()
		if err != nil {
			return fmt.Errorf("building roaster list query: %w", err)
		}

		rows, err := tx.QueryContext(ctx, sqlStr, args...)
		if err != nil {
			return database.StoreError("listing roasters", err)
		}
		defer rows.Close()

		for rows.Next() {
			var m models.Roaster
			if err := rows.Scan(&m.ID, &m.Name, &m.URL, &m.Address); err != nil {
				return database.StoreError("scanning roaster", err)
			}
			roasters = append(roasters, m)
		}
		if err := rows.Err(); err != nil {
			return database.StoreError("iterating roasters", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return roasters, nil
}

func (r *Repository) RoasterByName(ctx context.Context, name string) (*models.Roaster, error) {
	var found *models.Roaster
	err := r.withTx(ctx, "finding roaster by name", func(ctx context.Context, tx *sql.Tx) error {
		var err error
		found, err = r.findRoaster(ctx, tx, r.nameMatches("name", name))
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *Repository) RoasterByID(ctx context.Context, id string) (*models.Roaster, error) {
	roasterID, err := database.ParseID(id)
	if err != nil {
		return nil, err
	}

	var found *models.Roaster
	err = r.withTx(ctx, "finding roaster by id", func(ctx context.Context, tx *sql.Tx) error {
		var err error
		found, err = r.findRoaster(ctx, tx, sq.Eq{"id": roasterID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// AddRoaster checks for a case-insensitive duplicate before inserting. The
// unique index on the folded name catches inserts racing past the check.
func (r *Repository) AddRoaster(ctx context.Context, roaster models.Roaster) error {
	if err := database.ValidateRoaster(roaster); err != nil {
		return err
	}

	return r.withTx(ctx, "adding roaster", func(ctx context.Context, tx *sql.Tx) error {
		existing, err := r.findRoaster(ctx, tx, r.nameMatches("name", roaster.Name))
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("roaster %q: %w", roaster.Name, database.ErrAlreadyExists)
		}

		query := r.sb.
			Insert("roaster").
			Columns("name", "url", "address").
			Values(roaster.Name, roaster.URL, roaster.Address)

		sqlStr, args, err := query.ToSql()
		if err != nil {
			return fmt.Errorf("building roaster insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return r.writeError(fmt.Sprintf("inserting roaster %q", roaster.Name), err)
		}
		return nil
	})
}

// RemoveRoaster deletes inside a transaction so that a match on more than
// one row can be rolled back and reported instead of applied.
func (r *Repository) RemoveRoaster(ctx context.Context, name string) (bool, error) {
	var removed bool

	err := r.withTx(ctx, "removing roaster", func(ctx context.Context, tx *sql.Tx) error {
		query := r.sb.
			Delete("roaster").
			Where(r.nameMatches("name", name))

		sqlStr, args, err := query.ToSql()
		if err != nil {
			return fmt.Errorf("building roaster delete query: %w", err)
		}

		result, err := tx.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return database.StoreError("deleting roaster", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return database.StoreError("checking rows affected", err)
		}

		switch {
		case n == 0:
			removed = false
		case n == 1:
			removed = true
		default:
			return fmt.Errorf("%w: %d roasters named %q", database.ErrIntegrityViolation, n, name)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return removed, nil
}

// findRoaster returns the first roaster matching where, or nil
func (r *Repository) findRoaster(ctx context.Context, tx *sql.Tx, where sq.Sqlizer) (*models.Roaster, error) {
	query := r.sb.
		Select(roasterColumns...).
		From("roaster").
		Where(where).
		OrderBy("id").
		Limit(1)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building roaster query: %w", err)
	}

	var m models.Roaster
	err = tx.QueryRowContext(ctx, sqlStr, args...).Scan(&m.ID, &m.Name, &m.URL, &m.Address)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, database.StoreError("querying roaster", err)
	}

	return &m, nil
}
