package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"coffeeapi/internal/database"
	"coffeeapi/internal/database/memory"
	"coffeeapi/internal/models"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the default roasters and coffees",
	Long:  `Adds the default roasters and their coffees to the configured store. Records that already exist are left alone, so the command can be run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		repo, err := openRepository(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer repo.Close()

		roasters, coffees, err := seedRepository(cmd.Context(), repo)
		if err != nil {
			return err
		}
		log.Info().
			Str("backend", cfg.Backend).
			Int("roasters", roasters).
			Int("coffees", coffees).
			Msg("Seed complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

// coffeesByRoaster lists what each of the first three default roasters sells
var coffeesByRoaster = [][]string{
	{"Good Coffee", "Espresso Blend"},
	{"House Blend", "French Roast"},
	{"Organic Dark Roast", "Ethiopian Light Roast"},
}

func defaultCoffees() []models.NewCoffeeRequest {
	var reqs []models.NewCoffeeRequest
	for i, roaster := range memory.DefaultRoasters()[:len(coffeesByRoaster)] {
		for _, coffee := range coffeesByRoaster[i] {
			reqs = append(reqs, models.NewCoffeeRequest{CoffeeName: coffee, RoastedBy: roaster.Name})
		}
	}
	return reqs
}

// seedRepository adds whatever part of the default data repo is missing and
// reports how many roasters and associations it created
func seedRepository(ctx context.Context, repo database.Repository) (roasters, coffees int, err error) {
	for _, r := range memory.DefaultRoasters() {
		err := repo.AddRoaster(ctx, r)
		switch {
		case err == nil:
			roasters++
		case errors.Is(err, database.ErrAlreadyExists):
		default:
			return roasters, coffees, fmt.Errorf("seeding roaster %q: %w", r.Name, err)
		}
	}

	for _, req := range defaultCoffees() {
		err := repo.AddCoffee(ctx, req)
		switch {
		case err == nil:
			coffees++
		case errors.Is(err, database.ErrAlreadyExists):
		default:
			return roasters, coffees, fmt.Errorf("seeding coffee %q for %q: %w", req.CoffeeName, req.RoastedBy, err)
		}
	}

	return roasters, coffees, nil
}
