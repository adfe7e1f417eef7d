package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"coffeeapi/internal/database"
	"coffeeapi/internal/models"
)

func (r *Repository) AllCoffees(ctx context.Context) ([]models.CoffeeWithRoaster, error) {
	coffees := []models.CoffeeWithRoaster{}

	err := r.withTx(ctx, "listing coffees", func(ctx context.Context, tx *sql.Tx) error {
		query := r.sb.
			Select("c.name", "r.name").
			From("roaster_coffee rc").
			Join("roaster r ON r.id = rc.roaster_id").
			Join("coffee c ON c.id = rc.coffee_id").
			OrderBy("r.id", "c.id")

		sqlStr, args, err := query.ToSql()
		if err != nil {
			return fmt.Errorf("building coffee list query: %w", err)
		}

		rows, err := tx.QueryContext(ctx, sqlStr, args...)
		if err != nil {
			return database.StoreError("listing coffees", err)
		}
		defer rows.Close()

		for rows.Next() {
			var c models.CoffeeWithRoaster
			if err := rows.Scan(&c.CoffeeName, &c.RoastedBy); err != nil {
				return database.StoreError("scanning coffee", err)
			}
			coffees = append(coffees, c)
		}
		if err := rows.Err(); err != nil {
			return database.StoreError("iterating coffees", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return coffees, nil
}

func (r *Repository) CoffeesByRoaster(ctx context.Context, roasterName string) ([]models.Coffee, error) {
	coffees := []models.Coffee{}

	err := r.withTx(ctx, "listing coffees by roaster", func(ctx context.Context, tx *sql.Tx) error {
		roaster, err := r.findRoaster(ctx, tx, r.nameMatches("name", roasterName))
		if err != nil {
			return err
		}
		if roaster == nil {
			return fmt.Errorf("roaster %q: %w", roasterName, database.ErrNotFound)
		}

		query := r.sb.
			Select("c.id", "c.name").
			From("coffee c").
			Join("roaster_coffee rc ON rc.coffee_id = c.id").
			Where(sq.Eq{"rc.roaster_id": roaster.ID}).
			OrderBy("c.id")

		sqlStr, args, err := query.ToSql()
		if err != nil {
			return fmt.Errorf("building roaster coffee query: %w", err)
		}

		rows, err := tx.QueryContext(ctx, sqlStr, args...)
		if err != nil {
			return database.StoreError("listing roaster coffees", err)
		}
		defer rows.Close()

		for rows.Next() {
			var c models.Coffee
			if err := rows.Scan(&c.ID, &c.Name); err != nil {
				return database.StoreError("scanning coffee", err)
			}
			coffees = append(coffees, c)
		}
		if err := rows.Err(); err != nil {
			return database.StoreError("iterating roaster coffees", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return coffees, nil
}

// AddCoffee resolves the roaster, finds or creates the coffee, and records
// the association in one transaction
func (r *Repository) AddCoffee(ctx context.Context, req models.NewCoffeeRequest) error {
	if err := database.ValidateNewCoffee(req); err != nil {
		return err
	}

	return r.withTx(ctx, "adding coffee", func(ctx context.Context, tx *sql.Tx) error {
		roaster, err := r.findRoaster(ctx, tx, r.nameMatches("name", req.RoastedBy))
		if err != nil {
			return err
		}
		if roaster == nil {
			return fmt.Errorf("roaster %q: %w", req.RoastedBy, database.ErrNotFound)
		}

		coffeeID, err := r.coffeeID(ctx, tx, req.CoffeeName)
		if err != nil {
			return err
		}

		linked, err := r.isLinked(ctx, tx, roaster.ID, coffeeID)
		if err != nil {
			return err
		}
		if linked {
			return fmt.Errorf("coffee %q roasted by %q: %w", req.CoffeeName, roaster.Name, database.ErrAlreadyExists)
		}

		query := r.sb.
			Insert("roaster_coffee").
			Columns("roaster_id", "coffee_id").
			Values(roaster.ID, coffeeID)

		sqlStr, args, err := query.ToSql()
		if err != nil {
			return fmt.Errorf("building association insert query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return r.writeError("linking coffee to roaster", err)
		}
		return nil
	})
}

// coffeeID returns the ID of the coffee named name, inserting it if needed
func (r *Repository) coffeeID(ctx context.Context, tx *sql.Tx, name string) (int, error) {
	query := r.sb.
		Select("id").
		From("coffee").
		Where(r.nameMatches("name", name)).
		OrderBy("id").
		Limit(1)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building coffee query: %w", err)
	}

	var id int
	err = tx.QueryRowContext(ctx, sqlStr, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !isNoRows(err) {
		return 0, database.StoreError("querying coffee", err)
	}

	insert := r.sb.
		Insert("coffee").
		Columns("name").
		Values(name).
		Suffix("RETURNING id")

	sqlStr, args, err = insert.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building coffee insert query: %w", err)
	}

	if err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&id); err != nil {
		return 0, r.writeError(fmt.Sprintf("inserting coffee %q", name), err)
	}
	return id, nil
}

func (r *Repository) isLinked(ctx context.Context, tx *sql.Tx, roasterID, coffeeID int) (bool, error) {
	query := r.sb.
		Select("COUNT(*)").
		From("roaster_coffee").
		Where(sq.Eq{"roaster_id": roasterID, "coffee_id": coffeeID})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("building association query: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return false, database.StoreError("querying association", err)
	}
	return count > 0, nil
}
