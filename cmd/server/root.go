package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"coffeeapi/internal/config"
	"coffeeapi/internal/database"
	"coffeeapi/internal/database/memory"
	"coffeeapi/internal/database/postgres"
	"coffeeapi/internal/database/sqlite"
	"coffeeapi/internal/database/sqlstore"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "coffeeapi",
	Short:         "Roaster and coffee catalogue service",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default $"+config.ConfigPathEnv+")")
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "coffeeapi: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and installs the global logger
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.DevMode {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "coffeeapi").Str("version", version).Logger()
	}
}

// openRepository connects the backend named in cfg. The memory backend
// starts with the default roasters.
func openRepository(ctx context.Context, cfg config.Config) (database.Repository, error) {
	opts := sqlstore.Options{QueryTimeout: cfg.QueryTimeout}

	var (
		repo *sqlstore.Repository
		err  error
	)
	switch cfg.Backend {
	case config.BackendPostgres:
		repo, err = postgres.Open(ctx, cfg.DBDSN, opts)
	case config.BackendSQLite:
		repo, err = sqlite.Open(ctx, cfg.DBPath, opts)
	case config.BackendMemory:
		return memory.New(memory.DefaultRoasters()...), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s repository: %w", cfg.Backend, err)
	}
	return repo, nil
}
