package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"synapselab/internal/api"
	"synapselab/internal/api/handlers"
	"synapselab/internal/api/middleware"
	"synapselab/internal/engine/notify"
	"synapselab/internal/engine/registration"
	"synapselab/internal/pkg/logger"
	"synapselab/internal/pkg/validator"
	"synapselab/internal/platform/config"
	"synapselab/internal/platform/repositories"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	closer := logger.Init(cfg.Logging, "synapselab-server")
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repositories.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open datastore")
	}
	defer store.Close()

	notifier, err := notify.New(cfg.Email)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure email provider")
	}

	svc := registration.NewService(store, notifier, registration.Options{
		BcryptCost:              cfg.Registration.BcryptCost,
		StoreTimeout:            cfg.Registration.StoreTimeout,
		NotifyTimeout:           cfg.Registration.NotifyTimeout,
		LookupAttempts:          cfg.Registration.LookupAttempts,
		CompensateOnUserFailure: cfg.Registration.CompensateOnUserFailure,
		Validator:               validator.New(cfg.Registration.Plans, cfg.Registration.PaymentMethods),
	})

	metrics := handlers.NewMetrics()
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RegisterPerMinute, cfg.RateLimit.TrustForwardedFor)
	defer rateLimiter.Close()

	router := api.NewRouter(&api.Dependencies{
		RegisterHandler: handlers.NewRegisterHandler(svc, metrics),
		HealthHandler:   handlers.NewHealthHandler(store),
		Metrics:         metrics,
		RateLimiter:     rateLimiter,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("email_provider", cfg.Email.Provider).
			Msg("Server starting")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
