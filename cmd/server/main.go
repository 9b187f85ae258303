package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/fintrack/fintrack/internal/adapter/http"
	"github.com/fintrack/fintrack/internal/adapter/http/handler"
	"github.com/fintrack/fintrack/internal/adapter/http/middleware"
	postgresRepo "github.com/fintrack/fintrack/internal/adapter/repository/postgres"
	redisRepo "github.com/fintrack/fintrack/internal/adapter/repository/redis"
	"github.com/fintrack/fintrack/internal/infrastructure/config"
	"github.com/fintrack/fintrack/internal/infrastructure/eventpublisher"
	"github.com/fintrack/fintrack/internal/infrastructure/logger"
	"github.com/fintrack/fintrack/internal/infrastructure/logging"
	"github.com/fintrack/fintrack/internal/infrastructure/metrics"
	"github.com/fintrack/fintrack/internal/infrastructure/notifier"
	"github.com/fintrack/fintrack/internal/infrastructure/postgres"
	"github.com/fintrack/fintrack/internal/infrastructure/redis"
	"github.com/fintrack/fintrack/internal/usecase"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	slogger := logging.New(slog.LevelInfo, cfg.LogFormat).Component("api")

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	appMetrics := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	budgetRepo := postgresRepo.NewBudgetRepository(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Notification dispatch; budget alerts go through the same channel as
	// the scheduler's.
	var notify usecase.Notifier
	var amqpConn *amqp091.Connection
	if cfg.NotifierDisabled {
		notify = notifier.NewLogNotifier(slogger)
	} else {
		amqpNotifier, err := notifier.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to AMQP")
		}
		defer amqpNotifier.Close()
		notify = amqpNotifier

		amqpConn, err = amqp091.Dial(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open AMQP event connection")
		}
		defer amqpConn.Close()
	}

	// Initialize use cases
	userUC := usecase.NewUserUseCase(userRepo)
	accountUC := usecase.NewAccountUseCase(txManager, accountRepo, idGen, appMetrics)
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, transactionRepo, outboxRepo, idGen, appMetrics)
	budgetUC := usecase.NewBudgetUseCase(budgetRepo, accountRepo, transactionRepo, userRepo, notify, outboxRepo, idGen, appMetrics, slogger)
	reconciliationUC := usecase.NewReconciliationUseCase(txManager, accountRepo, transactionRepo, appMetrics)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC)
	transactionHandler := handler.NewTransactionHandler(ledgerUC)
	budgetHandler := handler.NewBudgetHandler(budgetUC)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:        accountHandler,
		TransactionHandler:    transactionHandler,
		BudgetHandler:         budgetHandler,
		ReconciliationHandler: reconciliationHandler,
		HealthHandler:         healthHandler,
		UserProvisioner:       userUC,
		IdempotencyStore:      idempotencyStore,
		Metrics:               appMetrics,
		RateLimiter:           middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Logger:                log.Logger,
	})

	// Outbox relay: ledger events written in the mutation's transaction are
	// published from here.
	var publisher eventpublisher.Publisher = eventpublisher.NewLogPublisher(slogger)
	if amqpConn != nil {
		amqpPublisher, err := eventpublisher.NewAMQPPublisher(amqpConn, cfg.AMQPEventsTopic)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up AMQP event publisher")
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	publisherCtx, stopPublisher := context.WithCancel(ctx)
	defer stopPublisher()

	eventPublisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  publisher,
		Metrics:    appMetrics,
		Logger:     slogger,
		BatchSize:  cfg.OutboxPublishBatch,
		Interval:   cfg.OutboxPollInterval,
		Retention:  time.Duration(cfg.OutboxRetentionHours) * time.Hour,
	})
	go func() {
		if err := eventPublisher.Start(publisherCtx); err != nil && publisherCtx.Err() == nil {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	// Sample pool usage for the connections gauge.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-publisherCtx.Done():
				return
			case <-ticker.C:
				appMetrics.DBConnections.Set(float64(pool.Stat().TotalConns()))
			}
		}
	}()

	// Prometheus scrape endpoint on the main mux, outside /api/v1.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopPublisher()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
