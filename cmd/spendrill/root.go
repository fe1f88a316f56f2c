package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"spendrill/internal/bus"
	"spendrill/internal/config"
	"spendrill/internal/log"
	"spendrill/internal/state"
	"spendrill/internal/stats"
	"spendrill/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "spendrill",
	Short: "Spendrill expense data layer",
	Long: `spendrill drives the local expense database from the command line:
record and query transactions, manage categories, compute statistics and
move backups in and out.`,
	SilenceUsage: true,
}

// app bundles the wired data layer for one command invocation.
type app struct {
	cfg     *config.Config
	store   *storage.Store
	bus     *bus.Bus
	worker  *stats.Worker
	manager *state.Manager
}

// openApp loads configuration, opens the store and wires the bus, worker and
// manager. The returned cleanup stops the worker and closes the store.
func openApp(ctx context.Context) (*app, func(), error) {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log.SetDefault(log.New(log.ParseLevel(cfg.LogLevel), "spendrill"))

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	if cfg.SeedSamples {
		if err := store.SeedSampleData(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("seed sample data: %w", err)
		}
	}

	b := bus.New()
	worker := stats.NewWorker(b, cfg.StatsBuffer)

	a := &app{
		cfg:     cfg,
		store:   store,
		bus:     b,
		worker:  worker,
		manager: state.NewManager(store, b, worker),
	}
	cleanup := func() {
		worker.Stop()
		store.Close()
	}
	return a, cleanup, nil
}
