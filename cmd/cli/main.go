package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	postgresRepo "github.com/fintrack/fintrack/internal/adapter/repository/postgres"
	redisRepo "github.com/fintrack/fintrack/internal/adapter/repository/redis"
	"github.com/fintrack/fintrack/internal/infrastructure/config"
	"github.com/fintrack/fintrack/internal/infrastructure/logging"
	"github.com/fintrack/fintrack/internal/infrastructure/postgres"
	"github.com/fintrack/fintrack/internal/infrastructure/redis"
	"github.com/fintrack/fintrack/internal/scheduler"
	"github.com/fintrack/fintrack/internal/usecase"
)

var (
	baseURL string
	timeout time.Duration
	repair  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fintrack-cli",
		Short: "FinTrack CLI tool",
		Long:  `A command line interface for operating the FinTrack API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the FinTrack API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	reconcileCmd := &cobra.Command{
		Use:   "reconcile [account-id]",
		Short: "Check cached balances against transaction history",
		Long: `Compares each account's cached balance with the signed sum of its
transactions. Read-only unless --repair is given.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			accountID := ""
			if len(args) == 1 {
				accountID = args[0]
			}
			reconcile(accountID)
		},
	}
	reconcileCmd.Flags().BoolVar(&repair, "repair", false, "Rewrite drifted balances from transaction history (single account only)")

	ledgerCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(ledgerCmd)

	// Scheduler commands
	schedulerCmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Scheduler operations",
	}

	dispatchCmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Run one recurring-transaction dispatch pass",
		Long: `Detects due recurring templates and materializes them, exactly as one
tick of the scheduler binary would. Safe to run alongside a live scheduler:
row locks and due-ness revalidation make duplicate passes harmless.`,
		Run: func(cmd *cobra.Command, args []string) {
			dispatchOnce()
		},
	}

	schedulerCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(schedulerCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Run: func(cmd *cobra.Command, args []string) {
			migrate()
		},
	}
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func reconcile(accountID string) {
	if repair && accountID == "" {
		fmt.Println("--repair requires an account ID")
		os.Exit(1)
	}

	url := baseURL + "/api/v1/reconciliation"
	method := http.MethodGet
	switch {
	case repair:
		url += "/" + accountID + "/repair"
		method = http.MethodPost
	case accountID != "":
		url += "/" + accountID
	}

	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Reconciliation FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	if accountID != "" {
		var result map[string]any
		if err := json.Unmarshal(body, &result); err != nil {
			fmt.Printf("Failed to parse response: %v\n", err)
			os.Exit(1)
		}
		printResult(result)
		return
	}

	var results []map[string]any
	if err := json.Unmarshal(body, &results); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	drifted := 0
	for _, result := range results {
		if reconciled, ok := result["is_reconciled"].(bool); ok && !reconciled {
			drifted++
			printResult(result)
		}
	}

	fmt.Printf("Checked %d accounts, %d drifted\n", len(results), drifted)
	if drifted > 0 {
		os.Exit(1)
	}
}

func printResult(result map[string]any) {
	fmt.Printf("Account %v: recorded=%v calculated=%v reconciled=%v\n",
		result["account_id"],
		result["recorded_balance"],
		result["calculated_balance"],
		result["is_reconciled"],
	)
}

func dispatchOnce() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		fmt.Printf("Failed to connect to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		fmt.Printf("Failed to connect to redis: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	recurringUC := usecase.NewRecurringUseCase(
		postgresRepo.NewTxManager(pool),
		postgresRepo.NewAccountRepository(pool),
		postgresRepo.NewTransactionRepository(pool),
		postgresRepo.NewOutboxRepository(pool),
		postgresRepo.NewULIDGenerator(),
	)

	dispatcher := scheduler.NewDispatcher(scheduler.DispatcherConfig{
		Processor:   recurringUC,
		Throttle:    redisRepo.NewThrottle(redisClient, cfg.UserThrottleLimit, cfg.UserThrottleWindow),
		Retrier:     postgresRepo.NewRetrier(),
		Logger:      logging.New(slog.LevelInfo, cfg.LogFormat).Component("cli"),
		Concurrency: cfg.DispatchConcurrency,
	})

	result, err := dispatcher.Dispatch(ctx, time.Now().UTC())
	if err != nil {
		fmt.Printf("Dispatch failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Detected %d, processed %d, skipped %d, deferred %d, failed %d\n",
		result.Detected, result.Processed, result.Skipped, result.Deferred, result.Failed)
	if result.Failed > 0 {
		os.Exit(1)
	}
}

func migrate() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		fmt.Printf("Migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Migrations applied")
}
