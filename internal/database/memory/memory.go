// Package memory provides an in-process repository used by tests and as a
// fallback backend when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"coffeeapi/internal/database"
	"coffeeapi/internal/models"
)

// Repository keeps roasters, coffees and their associations in slices owned
// by the instance. All methods are safe for concurrent use.
//
// RoasterByID is not supported and returns database.ErrUnimplemented.
type Repository struct {
	mu       sync.RWMutex
	roasters []models.Roaster
	coffees  []models.Coffee
	links    []link
	nextID   int
}

type link struct {
	roasterID int
	coffeeID  int
}

var _ database.Repository = (*Repository)(nil)

// New creates a repository holding seed. Seed entries go through AddRoaster,
// so invalid or duplicate entries panic.
func New(seed ...models.Roaster) *Repository {
	r := &Repository{}
	for _, roaster := range seed {
		if err := r.AddRoaster(context.Background(), roaster); err != nil {
			panic(fmt.Sprintf("memory: bad seed roaster: %v", err))
		}
	}
	return r
}

// DefaultRoasters returns the roasters the service ships with
func DefaultRoasters() []models.Roaster {
	return []models.Roaster{
		{Name: "Monmouth Coffee Company", URL: "https://www.monmouthcoffee.co.uk/", Address: "123 Street"},
		{Name: "Square Mile Coffee Roasters", URL: "https://shop.squaremilecoffee.com/", Address: "123 Street"},
		{Name: "Skylark Coffee", URL: "https://skylark.coffee/", Address: "123 Street"},
		{Name: "Grindsmith", URL: "https://grindsmith.com/", Address: "123 Street"},
		{Name: "Curve Coffee", URL: "https://www.curveroasters.co.uk/", Address: "123 Street"},
	}
}

func (r *Repository) AllRoasters(ctx context.Context) ([]models.Roaster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roasters := make([]models.Roaster, len(r.roasters))
	copy(roasters, r.roasters)
	return roasters, nil
}

func (r *Repository) RoasterByName(ctx context.Context, name string) (*models.Roaster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexByName(name); i >= 0 {
		found := r.roasters[i]
		return &found, nil
	}
	return nil, nil
}

// RoasterByID still rejects malformed ids so callers see the same
// ErrInvalidArgument as with the SQL repositories
func (r *Repository) RoasterByID(ctx context.Context, id string) (*models.Roaster, error) {
	if _, err := database.ParseID(id); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("roaster lookup by id: %w", database.ErrUnimplemented)
}

func (r *Repository) AddRoaster(ctx context.Context, roaster models.Roaster) error {
	if err := database.ValidateRoaster(roaster); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexByName(roaster.Name) >= 0 {
		return fmt.Errorf("roaster %q: %w", roaster.Name, database.ErrAlreadyExists)
	}

	roaster.ID = r.newID()
	r.roasters = append(r.roasters, roaster)
	return nil
}

func (r *Repository) RemoveRoaster(ctx context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexByName(name)
	if i < 0 {
		return false, nil
	}

	removedID := r.roasters[i].ID
	r.roasters = append(r.roasters[:i], r.roasters[i+1:]...)

	kept := r.links[:0]
	for _, l := range r.links {
		if l.roasterID != removedID {
			kept = append(kept, l)
		}
	}
	r.links = kept

	return true, nil
}

func (r *Repository) AllCoffees(ctx context.Context) ([]models.CoffeeWithRoaster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coffees := []models.CoffeeWithRoaster{}
	for _, roaster := range r.roasters {
		for _, c := range r.coffeesOf(roaster.ID) {
			coffees = append(coffees, models.CoffeeWithRoaster{CoffeeName: c.Name, RoastedBy: roaster.Name})
		}
	}
	return coffees, nil
}

func (r *Repository) CoffeesByRoaster(ctx context.Context, roasterName string) ([]models.Coffee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexByName(roasterName)
	if i < 0 {
		return nil, fmt.Errorf("roaster %q: %w", roasterName, database.ErrNotFound)
	}
	return r.coffeesOf(r.roasters[i].ID), nil
}

func (r *Repository) AddCoffee(ctx context.Context, req models.NewCoffeeRequest) error {
	if err := database.ValidateNewCoffee(req); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexByName(req.RoastedBy)
	if i < 0 {
		return fmt.Errorf("roaster %q: %w", req.RoastedBy, database.ErrNotFound)
	}
	roaster := r.roasters[i]

	coffeeID := 0
	for _, c := range r.coffees {
		if database.FoldName(c.Name) == database.FoldName(req.CoffeeName) {
			coffeeID = c.ID
			break
		}
	}

	if coffeeID != 0 {
		for _, l := range r.links {
			if l.roasterID == roaster.ID && l.coffeeID == coffeeID {
				return fmt.Errorf("coffee %q roasted by %q: %w", req.CoffeeName, roaster.Name, database.ErrAlreadyExists)
			}
		}
	} else {
		coffeeID = r.newID()
		r.coffees = append(r.coffees, models.Coffee{ID: coffeeID, Name: req.CoffeeName})
	}

	r.links = append(r.links, link{roasterID: roaster.ID, coffeeID: coffeeID})
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return nil
}

func (r *Repository) Close() error {
	return nil
}

// indexByName must be called with r.mu held
func (r *Repository) indexByName(name string) int {
	for i, roaster := range r.roasters {
		if database.FoldName(roaster.Name) == database.FoldName(name) {
			return i
		}
	}
	return -1
}

// coffeesOf must be called with r.mu held
func (r *Repository) coffeesOf(roasterID int) []models.Coffee {
	coffees := []models.Coffee{}
	for _, c := range r.coffees {
		for _, l := range r.links {
			if l.roasterID == roasterID && l.coffeeID == c.ID {
				coffees = append(coffees, c)
				break
			}
		}
	}
	return coffees
}

func (r *Repository) newID() int {
	r.nextID++
	return r.nextID
}
