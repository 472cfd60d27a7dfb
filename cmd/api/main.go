package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seller-gateway/config"
	apidocs "seller-gateway/docs/api"
	httpHandler "seller-gateway/internal/adapter/http/handler"
	"seller-gateway/internal/adapter/sellauth"
	pgStorage "seller-gateway/internal/adapter/storage/postgres"
	redisStorage "seller-gateway/internal/adapter/storage/redis"
	"seller-gateway/internal/core/ports"
	"seller-gateway/internal/service"
	"seller-gateway/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	// Local .env is optional; real deployments set SPG_* directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("api", cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Seller Gateway")

	if err := cfg.Admin.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid admin configuration")
	}
	if cfg.Admin.SecretHash == "" {
		log.Warn().Msg("admin.secret_hash is empty, admin login is disabled")
	}

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	sellerRepo := pgStorage.NewSellerRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	payoutRepo := pgStorage.NewPayoutRepo(pool)
	feeRepo := pgStorage.NewFeeConfigRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	dedupStore := redisStorage.NewEventDedupStore(rdb)
	sessionStore := redisStorage.NewSessionStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.Security.AESKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2Hasher()
	tokenSvc := service.NewJWTTokenService(cfg.Admin.TokenSecret, cfg.Admin.TokenTTL, cfg.Admin.Issuer)

	feeDefaults, err := service.ParseFeeDefaults(cfg.Fees.DefaultCustomer, cfg.Fees.DefaultSeller)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid default fees")
	}

	// Processor
	processor := sellauth.NewClient(cfg.Processor, logger.Component(log, "sellauth"))

	// Initialize business services
	feeSvc := service.NewFeeService(feeRepo, sellerRepo, feeDefaults, log)
	ledgerSvc := service.NewLedgerService(sellerRepo, txRepo, transactor, log)
	sellerSvc := service.NewSellerService(sellerRepo, processor, feeSvc, sigSvc, encSvc, cfg.Security.APIKeyPepper, log)
	paymentSvc := service.NewPaymentService(
		txRepo,
		idempotencyRepo,
		idempotencyCache,
		processor,
		feeSvc,
		ledgerSvc,
		transactor,
		log,
	)
	payoutSvc := service.NewPayoutService(sellerRepo, payoutRepo, feeSvc, transactor, log)
	webhookSvc := service.NewWebhookService(
		sellerRepo,
		txRepo,
		ledgerSvc,
		sellauth.NewWebhookDecoder(),
		dedupStore,
		sigSvc,
		cfg.Processor.WebhookSecret,
		logger.Component(log, "webhook"),
	)
	adminSvc := service.NewAdminAuthService(cfg.Admin.SecretHash, hashSvc, tokenSvc, sessionStore, log)
	auditSvc := service.NewAuditService(auditRepo, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	httpHandler.SetSwaggerSpec(apidocs.OpenAPI)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		SellerSvc:         sellerSvc,
		PaymentSvc:        paymentSvc,
		PayoutSvc:         payoutSvc,
		FeeSvc:            feeSvc,
		WebhookSvc:        webhookSvc,
		AdminAuthSvc:      adminSvc,
		RateLimitStore:    rateLimitStore,
		HealthCheckers:    []ports.HealthChecker{pgHealth, redisHealth},
		AuditSvc:          auditSvc,
		WebhookAllowedIPs: cfg.Processor.WebhookAllowedIPs,
		Mode:              cfg.Server.Mode,
		Logger:            log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
