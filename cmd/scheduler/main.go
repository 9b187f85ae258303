package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	postgresRepo "github.com/fintrack/fintrack/internal/adapter/repository/postgres"
	redisRepo "github.com/fintrack/fintrack/internal/adapter/repository/redis"
	"github.com/fintrack/fintrack/internal/infrastructure/config"
	"github.com/fintrack/fintrack/internal/infrastructure/logger"
	"github.com/fintrack/fintrack/internal/infrastructure/logging"
	"github.com/fintrack/fintrack/internal/infrastructure/metrics"
	"github.com/fintrack/fintrack/internal/infrastructure/notifier"
	"github.com/fintrack/fintrack/internal/infrastructure/postgres"
	"github.com/fintrack/fintrack/internal/infrastructure/redis"
	"github.com/fintrack/fintrack/internal/scheduler"
	"github.com/fintrack/fintrack/internal/usecase"
)

// The scheduler binary runs the background jobs: recurring-transaction
// dispatch, budget monitoring, and monthly reports. It shares the database
// with the API server; row locks and due-ness revalidation keep concurrent
// instances safe.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	slogger := logging.New(slog.LevelInfo, cfg.LogFormat).Component("scheduler")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	appMetrics := metrics.New()

	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	budgetRepo := postgresRepo.NewBudgetRepository(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	var notify usecase.Notifier
	if cfg.NotifierDisabled {
		notify = notifier.NewLogNotifier(slogger)
	} else {
		amqpNotifier, err := notifier.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to AMQP")
		}
		defer amqpNotifier.Close()
		notify = amqpNotifier
	}

	recurringUC := usecase.NewRecurringUseCase(txManager, accountRepo, transactionRepo, outboxRepo, idGen)
	budgetUC := usecase.NewBudgetUseCase(budgetRepo, accountRepo, transactionRepo, userRepo, notify, outboxRepo, idGen, appMetrics, slogger)
	reportUC := usecase.NewReportUseCase(userRepo, transactionRepo, notify, nil, outboxRepo, idGen, appMetrics, slogger)

	dispatcher := scheduler.NewDispatcher(scheduler.DispatcherConfig{
		Processor:   recurringUC,
		Throttle:    redisRepo.NewThrottle(redisClient, cfg.UserThrottleLimit, cfg.UserThrottleWindow),
		Retrier:     postgresRepo.NewRetrier(),
		Metrics:     appMetrics,
		Logger:      slogger,
		Concurrency: cfg.DispatchConcurrency,
	})

	sched := scheduler.New(scheduler.Config{
		Dispatcher:        dispatcher,
		Budgets:           budgetUC,
		Reports:           reportUC,
		Logger:            slogger,
		RecurringInterval: cfg.RecurringInterval,
		BudgetInterval:    cfg.BudgetCheckInterval,
	})

	// Metrics endpoint; the scheduler has no other HTTP surface.
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	defer metricsServer.Close()

	log.Info().
		Dur("recurring_interval", cfg.RecurringInterval).
		Dur("budget_interval", cfg.BudgetCheckInterval).
		Msg("scheduler started")

	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("scheduler failed")
	}

	log.Info().Msg("scheduler stopped")
}
