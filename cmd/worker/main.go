package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"seller-gateway/config"
	"seller-gateway/internal/adapter/queue"
	"seller-gateway/internal/adapter/sellauth"
	pgStorage "seller-gateway/internal/adapter/storage/postgres"
	"seller-gateway/internal/service"
	"seller-gateway/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("worker", cfg.Log.Level, cfg.Log.Pretty)
	log.Info().
		Str("cron", cfg.Worker.ReconcileCron).
		Dur("reconcile_after", cfg.Worker.ReconcileAfter).
		Msg("Starting ledger worker")

	ctx := context.Background()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	sellerRepo := pgStorage.NewSellerRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	processor := sellauth.NewClient(cfg.Processor, logger.Component(log, "sellauth"))
	ledgerSvc := service.NewLedgerService(sellerRepo, txRepo, transactor, log)
	reconcileSvc := service.NewReconcileService(
		txRepo,
		processor,
		ledgerSvc,
		cfg.Worker.ReconcileAfter,
		cfg.Worker.BatchSize,
		logger.Component(log, "reconcile"),
	)

	srv := queue.NewServer(cfg.Redis, cfg.Worker, log)
	mux := queue.NewServeMux(queue.NewReconcileHandler(reconcileSvc, log))
	if err := srv.Start(mux); err != nil {
		log.Fatal().Err(err).Msg("Failed to start task server")
	}

	scheduler, err := queue.NewScheduler(cfg.Redis, cfg.Worker, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register schedules")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down worker...")

	scheduler.Shutdown()
	srv.Shutdown()

	log.Info().Msg("Worker exited")
}
