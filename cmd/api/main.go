package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dvloznov/ledgerbook/internal/analysis"
	"github.com/dvloznov/ledgerbook/internal/api"
	"github.com/dvloznov/ledgerbook/internal/app"
	"github.com/dvloznov/ledgerbook/internal/config"
	"github.com/dvloznov/ledgerbook/internal/jobs/inmemory"
	"github.com/dvloznov/ledgerbook/internal/logger"
	"github.com/dvloznov/ledgerbook/internal/metrics"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.SetLevel(cfg.LogLevel)
	log = logger.NewWithLevel(cfg.LogLevel)

	ctx := context.Background()
	m := metrics.New()

	store, kv, err := app.OpenLedger(ctx, cfg, m, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger")
	}
	defer kv.Close()

	gw, err := app.NewGateway(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create analysis gateway")
	}

	// One worker keeps analyses of the same kind strictly sequential.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(16, 1, jobStore, log)
	coordinator := analysis.NewCoordinator(store, gw, jobQueue, cfg.AnalysisTimeout, m, log)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Msg("Starting analysis worker")
	if err := jobQueue.Start(workerCtx, coordinator.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start analysis worker")
	}

	handler := api.NewRouter(api.Deps{
		Ledger:            store,
		Coordinator:       coordinator,
		Jobs:              jobStore,
		Metrics:           m,
		LowStockThreshold: cfg.LowStockThreshold,
		Log:               log,
	})

	port := strconv.Itoa(cfg.Port)
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancelWorker()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
