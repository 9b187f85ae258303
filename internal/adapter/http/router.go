package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/adapter/http/handler"
	"github.com/fintrack/fintrack/internal/adapter/http/middleware"
	"github.com/fintrack/fintrack/internal/infrastructure/metrics"
	"github.com/fintrack/fintrack/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler        *handler.AccountHandler
	TransactionHandler    *handler.TransactionHandler
	BudgetHandler         *handler.BudgetHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler
	UserProvisioner       middleware.UserProvisioner
	IdempotencyStore      usecase.IdempotencyStore
	Metrics               *metrics.Metrics
	RateLimiter           *middleware.RateLimiter
	Logger                zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireUser)

		// User rows are provisioned on first sight of an identity so the
		// resources created below have a user to reference.
		if cfg.UserProvisioner != nil {
			r.Use(middleware.ProvisionUser(cfg.UserProvisioner))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Put("/{id}/default", cfg.AccountHandler.SetDefault)
			r.Get("/{id}/transactions", cfg.TransactionHandler.ListByAccount)
		})

		// Transactions
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", cfg.TransactionHandler.Create)
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Put("/{id}", cfg.TransactionHandler.Update)
			r.Delete("/{id}", cfg.TransactionHandler.Delete)
		})

		// Budget
		r.Route("/budget", func(r chi.Router) {
			r.Put("/", cfg.BudgetHandler.Set)
			r.Get("/", cfg.BudgetHandler.Get)
		})

	})

	// Reconciliation is an operator surface; it is not scoped to a caller.
	r.Route("/api/v1/reconciliation", func(r chi.Router) {
		r.Get("/", cfg.ReconciliationHandler.CheckAll)
		r.Get("/{id}", cfg.ReconciliationHandler.CheckAccount)
		r.Post("/{id}/repair", cfg.ReconciliationHandler.Repair)
	})

	return r
}
