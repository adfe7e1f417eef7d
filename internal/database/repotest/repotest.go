// Package repotest holds the behaviour every database.Repository must
// share. Backend packages call Run from their own tests.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"coffeeapi/internal/database"
	"coffeeapi/internal/models"
)

// Factory returns an empty repository. The factory registers its own cleanup.
type Factory func(t *testing.T) database.Repository

// Capabilities describes optional operations a backend supports
type Capabilities struct {
	// LookupByID is false for backends whose RoasterByID returns
	// database.ErrUnimplemented for well-formed ids
	LookupByID bool
}

var monmouth = models.Roaster{
	Name:    "Monmouth Coffee Company",
	URL:     "https://www.monmouthcoffee.co.uk/",
	Address: "123 Street",
}

var grindsmith = models.Roaster{
	Name:    "Grindsmith",
	URL:     "https://grindsmith.com/",
	Address: "123 Street",
}

// Run executes the shared contract against repositories built by newRepo
func Run(t *testing.T, newRepo Factory, caps Capabilities) {
	t.Run("AllRoastersEmpty", func(t *testing.T) {
		repo := newRepo(t)

		roasters, err := repo.AllRoasters(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, roasters)
		assert.Empty(t, roasters)
	})

	t.Run("AddThenFindByNameAnyCasing", func(t *testing.T) {
		repo := newRepo(t)
		testAddThenFind(t, repo)
	})

	t.Run("NameLookupIsCaseInsensitive", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.AddRoaster(ctx, grindsmith))

		upper, err := repo.RoasterByName(ctx, "Grindsmith")
		require.NoError(t, err)
		lower, err := repo.RoasterByName(ctx, "grindsmith")
		require.NoError(t, err)

		require.NotNil(t, upper)
		assert.Equal(t, upper, lower)
	})

	t.Run("AccentedNameFoldsCase", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		cafe := models.Roaster{Name: "Café Émile", URL: "https://cafe-emile.example/", Address: "4 Rue Street"}
		require.NoError(t, repo.AddRoaster(ctx, cafe))

		got, err := repo.RoasterByName(ctx, "CAFÉ ÉMILE")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, cafe, withoutID(*got))

		dup := cafe
		dup.Name = "café émile"
		assert.ErrorIs(t, repo.AddRoaster(ctx, dup), database.ErrAlreadyExists)
		assertRoasterCount(t, repo, 1)
	})

	t.Run("LookupMissReturnsNil", func(t *testing.T) {
		repo := newRepo(t)

		got, err := repo.RoasterByName(context.Background(), "covfefe")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DuplicateNameRejected", func(t *testing.T) {
		repo := newRepo(t)
		testDuplicateRejected(t, repo)
	})

	t.Run("RemoveReturnsTrueOnce", func(t *testing.T) {
		repo := newRepo(t)
		testRemoveOnce(t, repo)
	})

	t.Run("RemoveMissingIsNotAnError", func(t *testing.T) {
		repo := newRepo(t)

		removed, err := repo.RemoveRoaster(context.Background(), "covfefe")
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("RoasterByIDRejectsNonNumeric", func(t *testing.T) {
		repo := newRepo(t)

		for _, id := range []string{"", "abc", "12a3", "12.3", " 4"} {
			got, err := repo.RoasterByID(context.Background(), id)
			assert.ErrorIs(t, err, database.ErrInvalidArgument, "id %q", id)
			assert.Nil(t, got, "id %q", id)
		}
	})

	t.Run("RoasterByID", func(t *testing.T) {
		repo := newRepo(t)
		testRoasterByID(t, repo, caps)
	})

	t.Run("MonmouthScenario", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.AddRoaster(ctx, monmouth))

		got, err := repo.RoasterByName(ctx, "monmouth coffee company")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, monmouth, withoutID(*got))

		removed, err := repo.RemoveRoaster(ctx, "Monmouth Coffee Company")
		require.NoError(t, err)
		assert.True(t, removed)

		got, err = repo.RoasterByName(ctx, "Monmouth Coffee Company")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("EmptyFieldsRejectedBeforeStore", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.AddRoaster(ctx, grindsmith))

		err := repo.AddRoaster(ctx, models.Roaster{Name: "", URL: "", Address: ""})
		require.ErrorIs(t, err, database.ErrInvalidArgument)

		var verr *database.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"name", "url", "address"}, verr.Fields)

		err = repo.AddRoaster(ctx, models.Roaster{Name: "Verve Coffee", URL: "  ", Address: "Santa Cruz, CA"})
		require.ErrorIs(t, err, database.ErrInvalidArgument)

		assertRoasterCount(t, repo, 1)
	})

	t.Run("ConcurrentAddSameName", func(t *testing.T) {
		repo := newRepo(t)
		testConcurrentAdd(t, repo)
	})

	t.Run("Coffees", func(t *testing.T) {
		repo := newRepo(t)
		testCoffees(t, repo)
	})
}

func testAddThenFind(t *testing.T, repo database.Repository) {
	ctx := context.Background()
	seq := 0

	rapid.Check(t, func(rt *rapid.T) {
		seq++
		want := models.Roaster{
			Name:    fmt.Sprintf("%s %d", roasterName().Draw(rt, "name"), seq),
			URL:     rapid.StringMatching(`https://[a-z]{1,12}\.example/`).Draw(rt, "url"),
			Address: rapid.StringMatching(`[0-9]{1,4} [A-Za-z]{1,16} Street`).Draw(rt, "address"),
		}
		casing := rapid.SampledFrom([]func(string) string{strings.ToUpper, strings.ToLower, strings.TrimSpace}).Draw(rt, "casing")

		require.NoError(rt, repo.AddRoaster(ctx, want))

		got, err := repo.RoasterByName(ctx, casing(want.Name))
		require.NoError(rt, err)
		require.NotNil(rt, got)
		assert.Equal(rt, want, withoutID(*got))
	})
}

func testDuplicateRejected(t *testing.T, repo database.Repository) {
	ctx := context.Background()
	seq := 0

	rapid.Check(t, func(rt *rapid.T) {
		seq++
		original := models.Roaster{
			Name:    fmt.Sprintf("%s %d", roasterName().Draw(rt, "name"), seq),
			URL:     "https://original.example/",
			Address: "1 Original Street",
		}
		require.NoError(rt, repo.AddRoaster(ctx, original))

		before, err := repo.AllRoasters(ctx)
		require.NoError(rt, err)

		upper := rapid.Bool().Draw(rt, "upper")
		duplicate := original
		duplicate.URL = "https://duplicate.example/"
		if upper {
			duplicate.Name = strings.ToUpper(original.Name)
		} else {
			duplicate.Name = strings.ToLower(original.Name)
		}

		err = repo.AddRoaster(ctx, duplicate)
		require.ErrorIs(rt, err, database.ErrAlreadyExists)

		after, err := repo.AllRoasters(ctx)
		require.NoError(rt, err)
		assert.Equal(rt, before, after)
	})
}

func testRemoveOnce(t *testing.T, repo database.Repository) {
	ctx := context.Background()
	seq := 0

	rapid.Check(t, func(rt *rapid.T) {
		seq++
		r := models.Roaster{
			Name:    fmt.Sprintf("%s %d", roasterName().Draw(rt, "name"), seq),
			URL:     "https://remove.example/",
			Address: "2 Remove Street",
		}
		require.NoError(rt, repo.AddRoaster(ctx, r))

		removed, err := repo.RemoveRoaster(ctx, r.Name)
		require.NoError(rt, err)
		assert.True(rt, removed)

		retries := rapid.IntRange(1, 3).Draw(rt, "retries")
		for i := 0; i < retries; i++ {
			removed, err := repo.RemoveRoaster(ctx, strings.ToLower(r.Name))
			require.NoError(rt, err)
			assert.False(rt, removed)
		}
	})
}

func testRoasterByID(t *testing.T, repo database.Repository, caps Capabilities) {
	ctx := context.Background()
	require.NoError(t, repo.AddRoaster(ctx, monmouth))
	require.NoError(t, repo.AddRoaster(ctx, grindsmith))

	all, err := repo.AllRoasters(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	if !caps.LookupByID {
		_, err := repo.RoasterByID(ctx, fmt.Sprint(all[1].ID))
		assert.ErrorIs(t, err, database.ErrUnimplemented)
		return
	}

	got, err := repo.RoasterByID(ctx, fmt.Sprint(all[1].ID))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, all[1], *got)

	for _, id := range []string{"999999", "3000000000"} {
		missing, err := repo.RoasterByID(ctx, id)
		require.NoError(t, err, "id %s", id)
		assert.Nil(t, missing, "id %s", id)
	}
}

func testConcurrentAdd(t *testing.T, repo database.Repository) {
	const callers = 8
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := grindsmith
			if i%2 == 1 {
				r.Name = strings.ToLower(r.Name)
			}
			errs[i] = repo.AddRoaster(ctx, r)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, database.ErrAlreadyExists):
		default:
			t.Errorf("unexpected error from concurrent AddRoaster: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assertRoasterCount(t, repo, 1)
}

func testCoffees(t *testing.T, repo database.Repository) {
	ctx := context.Background()
	require.NoError(t, repo.AddRoaster(ctx, monmouth))
	require.NoError(t, repo.AddRoaster(ctx, grindsmith))

	require.NoError(t, repo.AddCoffee(ctx, models.NewCoffeeRequest{CoffeeName: "Good Coffee", RoastedBy: "monmouth coffee company"}))
	require.NoError(t, repo.AddCoffee(ctx, models.NewCoffeeRequest{CoffeeName: "Espresso Blend", RoastedBy: "Monmouth Coffee Company"}))
	require.NoError(t, repo.AddCoffee(ctx, models.NewCoffeeRequest{CoffeeName: "good coffee", RoastedBy: "Grindsmith"}))

	err := repo.AddCoffee(ctx, models.NewCoffeeRequest{CoffeeName: "GOOD COFFEE", RoastedBy: "GRINDSMITH"})
	assert.ErrorIs(t, err, database.ErrAlreadyExists)

	err = repo.AddCoffee(ctx, models.NewCoffeeRequest{CoffeeName: "Good Coffee", RoastedBy: "covfefe"})
	assert.ErrorIs(t, err, database.ErrNotFound)

	err = repo.AddCoffee(ctx, models.NewCoffeeRequest{CoffeeName: " ", RoastedBy: "Grindsmith"})
	assert.ErrorIs(t, err, database.ErrInvalidArgument)

	coffees, err := repo.CoffeesByRoaster(ctx, "MONMOUTH COFFEE COMPANY")
	require.NoError(t, err)
	assert.Equal(t, []string{"Good Coffee", "Espresso Blend"}, coffeeNames(coffees))

	// the coffee record is shared, so Grindsmith sees the first spelling
	coffees, err = repo.CoffeesByRoaster(ctx, "grindsmith")
	require.NoError(t, err)
	assert.Equal(t, []string{"Good Coffee"}, coffeeNames(coffees))

	_, err = repo.CoffeesByRoaster(ctx, "covfefe")
	assert.ErrorIs(t, err, database.ErrNotFound)

	all, err := repo.AllCoffees(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CoffeeWithRoaster{
		{CoffeeName: "Good Coffee", RoastedBy: "Monmouth Coffee Company"},
		{CoffeeName: "Espresso Blend", RoastedBy: "Monmouth Coffee Company"},
		{CoffeeName: "Good Coffee", RoastedBy: "Grindsmith"},
	}, all)

	removed, err := repo.RemoveRoaster(ctx, "Monmouth Coffee Company")
	require.NoError(t, err)
	require.True(t, removed)

	all, err = repo.AllCoffees(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CoffeeWithRoaster{
		{CoffeeName: "Good Coffee", RoastedBy: "Grindsmith"},
	}, all)
}

// letter covers ASCII and the Latin-1 letters whose upper and lower case
// forms map onto each other one to one
const letter = `[A-Za-zÀ-ÖØ-Þà-öø-þ]`

func roasterName() *rapid.Generator[string] {
	return rapid.StringMatching(letter + `(` + letter + `| ){0,20}` + letter)
}

func withoutID(r models.Roaster) models.Roaster {
	r.ID = 0
	return r
}

func coffeeNames(coffees []models.Coffee) []string {
	names := make([]string, 0, len(coffees))
	for _, c := range coffees {
		names = append(names, c.Name)
	}
	return names
}

func assertRoasterCount(t *testing.T, repo database.Repository, want int) {
	t.Helper()
	all, err := repo.AllRoasters(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, want)
}
