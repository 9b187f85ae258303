package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/usecase"
)

// RecurringProcessor is the slice of RecurringUseCase the dispatcher needs.
type RecurringProcessor interface {
	ListDue(ctx context.Context, now time.Time) ([]*domain.Transaction, error)
	ProcessTemplate(ctx context.Context, templateID, userID string, now time.Time) (*domain.Transaction, error)
}

// Retrier retries an operation on transient datastore failures, deadlocks
// among them. Two dispatch workers can lock the same account row in either
// order, so retries here are not hypothetical.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Metrics receives dispatch outcome counts. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RecurringDetected(n int)
	RecurringProcessed()
	RecurringSkipped()
	RecurringDeferred()
	RecurringFailed()
	DispatchObserved(seconds float64)
}

type nopMetrics struct{}

func (nopMetrics) RecurringDetected(int)    {}
func (nopMetrics) RecurringProcessed()      {}
func (nopMetrics) RecurringSkipped()        {}
func (nopMetrics) RecurringDeferred()       {}
func (nopMetrics) RecurringFailed()         {}
func (nopMetrics) DispatchObserved(float64) {}

// DispatchResult summarizes one dispatch pass.
type DispatchResult struct {
	Detected  int
	Processed int
	Skipped   int
	Deferred  int
	Failed    int
}

// Dispatcher fans due recurring templates out to the processor under a
// bounded concurrency and a per-user rate cap. Throttled templates are
// deferred, not dropped: their schedule state is untouched, so the next pass
// detects them again.
type Dispatcher struct {
	processor   RecurringProcessor
	throttle    usecase.Throttle
	retrier     Retrier
	metrics     Metrics
	logger      *slog.Logger
	concurrency int
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Processor   RecurringProcessor
	Throttle    usecase.Throttle
	Retrier     Retrier
	Metrics     Metrics
	Logger      *slog.Logger
	Concurrency int
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}

	return &Dispatcher{
		processor:   cfg.Processor,
		throttle:    cfg.Throttle,
		retrier:     cfg.Retrier,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
	}
}

// Dispatch runs one detection-and-processing pass. Per-template failures are
// counted and logged; they never abort the pass.
func (d *Dispatcher) Dispatch(ctx context.Context, now time.Time) (DispatchResult, error) {
	start := time.Now()
	defer func() {
		d.metrics.DispatchObserved(time.Since(start).Seconds())
	}()

	due, err := d.processor.ListDue(ctx, now)
	if err != nil {
		return DispatchResult{}, err
	}

	result := DispatchResult{Detected: len(due)}
	d.metrics.RecurringDetected(len(due))

	if len(due) == 0 {
		return result, nil
	}

	d.logger.InfoContext(ctx, "dispatching due recurring templates",
		"detected", len(due),
		"concurrency", d.concurrency,
	)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for _, template := range due {
		g.Go(func() error {
			outcome := d.dispatchOne(gctx, template, now)
			mu.Lock()
			switch outcome {
			case outcomeProcessed:
				result.Processed++
			case outcomeSkipped:
				result.Skipped++
			case outcomeDeferred:
				result.Deferred++
			case outcomeFailed:
				result.Failed++
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	d.logger.InfoContext(ctx, "dispatch pass complete",
		"detected", result.Detected,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"deferred", result.Deferred,
		"failed", result.Failed,
	)

	return result, nil
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeDeferred
	outcomeFailed
)

func (d *Dispatcher) dispatchOne(ctx context.Context, template *domain.Transaction, now time.Time) outcome {
	err := d.processOne(ctx, template, now)

	switch {
	case err == nil:
		d.metrics.RecurringProcessed()
		return outcomeProcessed
	case errors.Is(err, domain.ErrThrottled):
		d.metrics.RecurringDeferred()
		return outcomeDeferred
	case errors.Is(err, domain.ErrNotDue), errors.Is(err, domain.ErrNotRecurring):
		// Another pass got there first, or recurrence was switched off
		// between detection and processing.
		d.metrics.RecurringSkipped()
		return outcomeSkipped
	default:
		d.logger.ErrorContext(ctx, "processing recurring template failed",
			"template_id", template.ID,
			"user_id", template.UserID,
			"error", err,
		)
		d.metrics.RecurringFailed()
		return outcomeFailed
	}
}

func (d *Dispatcher) processOne(ctx context.Context, template *domain.Transaction, now time.Time) error {
	if d.throttle != nil {
		allowed, err := d.throttle.Allow(ctx, template.UserID)
		if err != nil {
			// Can't tell whether the user is over the cap: defer rather than
			// risk exceeding it.
			d.logger.WarnContext(ctx, "throttle check failed, deferring",
				"template_id", template.ID,
				"user_id", template.UserID,
				"error", err,
			)
			return fmt.Errorf("%w: throttle check: %v", domain.ErrThrottled, err)
		}
		if !allowed {
			return domain.ErrThrottled
		}
	}

	process := func() error {
		_, err := d.processor.ProcessTemplate(ctx, template.ID, template.UserID, now)
		return err
	}

	if d.retrier != nil {
		return d.retrier.Retry(ctx, process)
	}
	return process()
}
