package database

import (
	"context"

	"coffeeapi/internal/models"
)

// RoasterRepository defines the roaster operations every backend provides.
// This abstraction allows swapping PostgreSQL, SQLite, or the in-memory
// store without touching callers.
type RoasterRepository interface {
	// AllRoasters returns every roaster ordered by ID. An empty store
	// yields an empty slice.
	AllRoasters(ctx context.Context) ([]models.Roaster, error)

	// RoasterByName matches case-insensitively. A nil roaster with a nil
	// error means no match.
	RoasterByName(ctx context.Context, name string) (*models.Roaster, error)

	// RoasterByID returns ErrInvalidArgument when id is not an integer and
	// a nil roaster when nothing matches.
	RoasterByID(ctx context.Context, id string) (*models.Roaster, error)

	// AddRoaster validates r and inserts it. Returns ErrAlreadyExists when
	// the name collides case-insensitively with a stored roaster.
	AddRoaster(ctx context.Context, r models.Roaster) error

	// RemoveRoaster deletes by case-insensitive name and reports whether
	// exactly one roaster was removed. Nothing matching is not an error.
	RemoveRoaster(ctx context.Context, name string) (bool, error)
}

// CoffeeRepository manages the association between roasters and coffees
type CoffeeRepository interface {
	AllCoffees(ctx context.Context) ([]models.CoffeeWithRoaster, error)

	// CoffeesByRoaster returns ErrNotFound when the roaster does not exist
	CoffeesByRoaster(ctx context.Context, roasterName string) ([]models.Coffee, error)

	// AddCoffee attributes a coffee to an existing roaster, creating the
	// coffee record on first use. Returns ErrNotFound for an unknown roaster
	// and ErrAlreadyExists when the association is already recorded.
	AddCoffee(ctx context.Context, req models.NewCoffeeRequest) error
}

// Repository is the full contract consumed by the handlers and the CLI
type Repository interface {
	RoasterRepository
	CoffeeRepository

	// Ping checks that the backing store is reachable
	Ping(ctx context.Context) error

	// Close releases the backing store
	Close() error
}
