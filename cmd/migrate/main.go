package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"synapselab/internal/pkg/logger"
	"synapselab/internal/platform/config"
	"synapselab/internal/platform/database"
	"synapselab/internal/platform/repositories"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	list := flag.Bool("list", false, "List embedded migrations and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	closer := logger.Init(cfg.Logging, "synapselab-migrate")
	defer closer.Close()

	dialect := database.DialectSQLite
	if database.IsPostgresURL(cfg.Database.URL) {
		dialect = database.DialectPostgres
	}

	if *list {
		names, err := database.Migrations(dialect)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list migrations")
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Open applies migrations itself when auto_migrate is set.
	cfg.Database.AutoMigrate = false
	store, err := repositories.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to datastore")
	}
	defer store.Close()

	migrator, ok := store.(repositories.Migrator)
	if !ok {
		log.Fatal().Str("url", cfg.Database.URL).Msg("Datastore has no schema to migrate")
	}

	if err := migrator.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Str("dialect", string(dialect)).Msg("Migration failed")
	}

	log.Info().Str("dialect", string(dialect)).Msg("Migration completed successfully")
}
