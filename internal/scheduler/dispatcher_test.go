package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
)

type fakeProcessor struct {
	mu        sync.Mutex
	due       []*domain.Transaction
	processed []string

	processErr map[string]error
}

func (f *fakeProcessor) ListDue(ctx context.Context, now time.Time) ([]*domain.Transaction, error) {
	return f.due, nil
}

func (f *fakeProcessor) ProcessTemplate(ctx context.Context, templateID, userID string, now time.Time) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.processErr[templateID]; ok {
		return nil, err
	}
	f.processed = append(f.processed, templateID)
	return &domain.Transaction{ID: "occ-" + templateID}, nil
}

type countingThrottle struct {
	mu     sync.Mutex
	counts map[string]int
	cap    int
}

func (t *countingThrottle) Allow(ctx context.Context, userID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if t.counts[userID] >= t.cap {
		return false, nil
	}
	t.counts[userID]++
	return true, nil
}

func dueTemplates(n int, userID string) []*domain.Transaction {
	templates := make([]*domain.Transaction, 0, n)
	for i := range n {
		templates = append(templates, &domain.Transaction{
			ID:                fmt.Sprintf("tmpl-%d", i),
			UserID:            userID,
			AccountID:         "acc-1",
			Type:              domain.TransactionTypeExpense,
			Amount:            decimal.NewFromInt(10),
			Status:            domain.StatusCompleted,
			IsRecurring:       true,
			RecurringInterval: domain.IntervalMonthly,
		})
	}
	return templates
}

func TestDispatcher_Dispatch_ThrottleDefersOverCap(t *testing.T) {
	processor := &fakeProcessor{due: dueTemplates(15, "user-1")}
	throttle := &countingThrottle{cap: 10}

	d := NewDispatcher(DispatcherConfig{
		Processor: processor,
		Throttle:  throttle,
	})

	result, err := d.Dispatch(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Detected != 15 {
		t.Errorf("expected 15 detected, got %d", result.Detected)
	}
	if result.Processed != 10 {
		t.Errorf("expected 10 processed, got %d", result.Processed)
	}
	if result.Deferred != 5 {
		t.Errorf("expected 5 deferred, got %d", result.Deferred)
	}
	if result.Failed != 0 || result.Skipped != 0 {
		t.Errorf("expected nothing failed or skipped, got %+v", result)
	}
	// Every detected template is accounted for: none lost.
	if total := result.Processed + result.Skipped + result.Deferred + result.Failed; total != result.Detected {
		t.Errorf("expected outcomes to sum to detected, got %d of %d", total, result.Detected)
	}
}

func TestDispatcher_Dispatch_ThrottleIsPerUser(t *testing.T) {
	due := append(dueTemplates(10, "user-1"), &domain.Transaction{
		ID:                "tmpl-other",
		UserID:            "user-2",
		AccountID:         "acc-2",
		Type:              domain.TransactionTypeExpense,
		Amount:            decimal.NewFromInt(10),
		Status:            domain.StatusCompleted,
		IsRecurring:       true,
		RecurringInterval: domain.IntervalMonthly,
	})
	processor := &fakeProcessor{due: due}
	throttle := &countingThrottle{cap: 10}

	d := NewDispatcher(DispatcherConfig{
		Processor: processor,
		Throttle:  throttle,
	})

	result, err := d.Dispatch(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Processed != 11 {
		t.Errorf("expected all 11 processed across two users, got %d", result.Processed)
	}
	if result.Deferred != 0 {
		t.Errorf("expected no deferrals, got %d", result.Deferred)
	}
}

func TestDispatcher_Dispatch_FailuresDoNotAbortPass(t *testing.T) {
	processor := &fakeProcessor{
		due: dueTemplates(5, "user-1"),
		processErr: map[string]error{
			"tmpl-1": errors.New("db down"),
			"tmpl-3": domain.ErrNotDue,
		},
	}

	d := NewDispatcher(DispatcherConfig{Processor: processor})

	result, err := d.Dispatch(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Processed != 3 {
		t.Errorf("expected 3 processed, got %d", result.Processed)
	}
	if result.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", result.Failed)
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", result.Skipped)
	}
}

func TestDispatcher_Dispatch_NoDueTemplates(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Processor: &fakeProcessor{}})

	result, err := d.Dispatch(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != (DispatchResult{}) {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestDispatcher_Dispatch_ThrottleErrorDefers(t *testing.T) {
	processor := &fakeProcessor{due: dueTemplates(1, "user-1")}

	d := NewDispatcher(DispatcherConfig{
		Processor: processor,
		Throttle:  errThrottle{},
	})

	result, err := d.Dispatch(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Deferred != 1 {
		t.Errorf("expected 1 deferred on throttle error, got %+v", result)
	}
}

type errThrottle struct{}

func (errThrottle) Allow(ctx context.Context, userID string) (bool, error) {
	return false, errors.New("redis unreachable")
}

func TestDispatcher_Dispatch_OutcomeClassification(t *testing.T) {
	processor := &fakeProcessor{
		due: dueTemplates(4, "user-1"),
		processErr: map[string]error{
			"tmpl-1": domain.ErrNotRecurring,
			"tmpl-2": domain.ErrThrottled,
			"tmpl-3": fmt.Errorf("advance schedule: %w", errors.New("db down")),
		},
	}

	d := NewDispatcher(DispatcherConfig{Processor: processor})

	result, err := d.Dispatch(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Processed != 1 {
		t.Errorf("expected 1 processed, got %d", result.Processed)
	}
	// Recurrence disabled between detection and processing is a skip, not a
	// failure.
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", result.Skipped)
	}
	if result.Deferred != 1 {
		t.Errorf("expected 1 deferred, got %d", result.Deferred)
	}
	if result.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", result.Failed)
	}
}

type recordingMetrics struct {
	mu        sync.Mutex
	processed int
	deferred  int
	skipped   int
	failed    int
	detected  int
	passes    int
}

func (m *recordingMetrics) RecurringDetected(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detected += n
}

func (m *recordingMetrics) RecurringProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed++
}

func (m *recordingMetrics) RecurringSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped++
}

func (m *recordingMetrics) RecurringDeferred() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deferred++
}

func (m *recordingMetrics) RecurringFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
}

func (m *recordingMetrics) DispatchObserved(float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passes++
}

func TestDispatcher_Dispatch_Metrics(t *testing.T) {
	processor := &fakeProcessor{
		due: dueTemplates(3, "user-1"),
		processErr: map[string]error{
			"tmpl-2": domain.ErrNotDue,
		},
	}
	metrics := &recordingMetrics{}

	d := NewDispatcher(DispatcherConfig{
		Processor: processor,
		Metrics:   metrics,
	})

	if _, err := d.Dispatch(context.Background(), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if metrics.detected != 3 {
		t.Errorf("expected 3 detected counted, got %d", metrics.detected)
	}
	if metrics.processed != 2 || metrics.skipped != 1 {
		t.Errorf("expected 2 processed and 1 skipped counted, got %d and %d", metrics.processed, metrics.skipped)
	}
	if metrics.passes != 1 {
		t.Errorf("expected 1 pass duration observation, got %d", metrics.passes)
	}
}
