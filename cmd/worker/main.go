package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"synapselab/internal/pkg/logger"
	"synapselab/internal/platform/config"
	"synapselab/internal/platform/repositories"
	"synapselab/internal/workers"
)

const orphanSweepJob = "orphan_sweep"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	once := flag.Bool("once", false, "Run the orphan sweep once and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	closer := logger.Init(cfg.Logging, "synapselab-worker")
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repositories.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open datastore")
	}
	defer store.Close()

	sweep := func(ctx context.Context) error {
		ids, err := workers.SweepOrphanOrganizations(ctx, store, cfg.Workers.OrphanGracePeriod, cfg.Workers.OrphanSweepDryRun)
		log.Info().
			Int("orphans", len(ids)).
			Bool("dry_run", cfg.Workers.OrphanSweepDryRun).
			Msg("Orphan sweep finished")
		return err
	}

	runner := workers.NewRunner(ctx)

	if *once {
		if err := runner.RunOnce(orphanSweepJob, sweep); err != nil {
			store.Close()
			closer.Close()
			os.Exit(1)
		}
		return
	}

	if err := runner.Add(cfg.Workers.OrphanSweepSchedule, orphanSweepJob, sweep); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Workers.OrphanSweepSchedule).Msg("Invalid sweep schedule")
	}

	log.Info().Str("schedule", cfg.Workers.OrphanSweepSchedule).Msg("Starting background workers")
	runner.Start()

	<-ctx.Done()
	runner.Stop()
	log.Info().Msg("Workers stopped")
}
