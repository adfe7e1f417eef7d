package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeeapi/internal/database"
	"coffeeapi/internal/database/repotest"
	"coffeeapi/internal/models"
)

func TestRepositoryContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) database.Repository {
		return New()
	}, repotest.Capabilities{LookupByID: false})
}

func TestNew_SeedsDefaults(t *testing.T) {
	repo := New(DefaultRoasters()...)

	roasters, err := repo.AllRoasters(context.Background())
	require.NoError(t, err)
	require.Len(t, roasters, 5)

	names := make([]string, 0, len(roasters))
	for _, r := range roasters {
		names = append(names, r.Name)
		assert.NotZero(t, r.ID)
	}
	assert.Equal(t, []string{
		"Monmouth Coffee Company",
		"Square Mile Coffee Roasters",
		"Skylark Coffee",
		"Grindsmith",
		"Curve Coffee",
	}, names)
}

func TestNew_PanicsOnDuplicateSeed(t *testing.T) {
	assert.Panics(t, func() {
		New(
			models.Roaster{Name: "Skylark Coffee", URL: "https://skylark.coffee/", Address: "123 Street"},
			models.Roaster{Name: "SKYLARK COFFEE", URL: "https://skylark.coffee/", Address: "123 Street"},
		)
	})
}

func TestRoasterByID_Unimplemented(t *testing.T) {
	repo := New(DefaultRoasters()...)

	got, err := repo.RoasterByID(context.Background(), "1")
	assert.ErrorIs(t, err, database.ErrUnimplemented)
	assert.Nil(t, got)
}

func TestInstancesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := New(DefaultRoasters()...)
	b := New(DefaultRoasters()...)

	removed, err := a.RemoveRoaster(ctx, "Grindsmith")
	require.NoError(t, err)
	require.True(t, removed)

	got, err := b.RoasterByName(ctx, "Grindsmith")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestAllRoasters_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := New(DefaultRoasters()...)

	roasters, err := repo.AllRoasters(ctx)
	require.NoError(t, err)
	roasters[0].Name = "changed"

	got, err := repo.RoasterByName(ctx, "Monmouth Coffee Company")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestRemoveRoaster_KeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo := New(DefaultRoasters()...)

	removed, err := repo.RemoveRoaster(ctx, "skylark coffee")
	require.NoError(t, err)
	require.True(t, removed)

	roasters, err := repo.AllRoasters(ctx)
	require.NoError(t, err)
	require.Len(t, roasters, 4)
	assert.Equal(t, "Square Mile Coffee Roasters", roasters[1].Name)
	assert.Equal(t, "Grindsmith", roasters[2].Name)
}
