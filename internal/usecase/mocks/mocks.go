package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc              func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	GetByIDFunc             func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdateFunc    func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error)
	GetDefaultForUserFunc   func(ctx context.Context, userID string) (*domain.Account, error)
	UpdateBalanceFunc       func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	ClearDefaultForUserFunc func(ctx context.Context, tx usecase.Transaction, userID string) error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed inserts an account directly into the backing store.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	m.accounts[account.ID] = &cp
}

// Stored returns the stored account, bypassing any stubbed funcs.
func (m *MockAccountRepository) Stored(id string) *domain.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		cp := *acc
		return &cp
	}
	return nil
}

func (m *MockAccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, account)
	}
	m.Seed(account)
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	if acc := m.Stored(id); acc != nil {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) GetDefaultForUser(ctx context.Context, userID string) (*domain.Account, error) {
	if m.GetDefaultForUserFunc != nil {
		return m.GetDefaultForUserFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.UserID == userID && acc.IsDefault {
			cp := *acc
			return &cp, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		if acc.UserID == userID {
			cp := *acc
			accounts = append(accounts, &cp)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		cp := *acc
		accounts = append(accounts, &cp)
	}
	return accounts, nil
}

func (m *MockAccountRepository) CountForUser(ctx context.Context, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var count int64
	for _, acc := range m.accounts {
		if acc.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *MockAccountRepository) ClearDefaultForUser(ctx context.Context, tx usecase.Transaction, userID string) error {
	if m.ClearDefaultForUserFunc != nil {
		return m.ClearDefaultForUserFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.UserID == userID {
			acc.IsDefault = false
		}
	}
	return nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Balance = balance
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) SetDefault(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.IsDefault = true
		acc.UpdatedAt = updatedAt
	}
	return nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu   sync.RWMutex
	txns map[string]*domain.Transaction

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error)
	UpdateScheduleFunc   func(ctx context.Context, tx usecase.Transaction, id string, lastProcessedAt, nextRecurringDate time.Time) error
	SumExpensesFunc      func(ctx context.Context, accountID string, start, end time.Time) (decimal.Decimal, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		txns: make(map[string]*domain.Transaction),
	}
}

func (m *MockTransactionRepository) Seed(txn *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *txn
	m.txns[txn.ID] = &cp
}

func (m *MockTransactionRepository) Stored(id string) *domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if txn, ok := m.txns[id]; ok {
		cp := *txn
		return &cp
	}
	return nil
}

// StoredCount returns the number of stored transactions.
func (m *MockTransactionRepository) StoredCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txns)
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, txn)
	}
	m.Seed(txn)
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if txn := m.Stored(id); txn != nil {
		return txn, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txns[txn.ID]; !ok {
		return domain.ErrTransactionNotFound
	}
	cp := *txn
	m.txns[txn.ID] = &cp
	return nil
}

func (m *MockTransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txns[id]; !ok {
		return domain.ErrTransactionNotFound
	}
	delete(m.txns, id)
	return nil
}

func (m *MockTransactionRepository) UpdateSchedule(ctx context.Context, tx usecase.Transaction, id string, lastProcessedAt, nextRecurringDate time.Time) error {
	if m.UpdateScheduleFunc != nil {
		return m.UpdateScheduleFunc(ctx, tx, id, lastProcessedAt, nextRecurringDate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn, ok := m.txns[id]; ok {
		last := lastProcessedAt
		next := nextRecurringDate
		txn.LastProcessedAt = &last
		txn.NextRecurringDate = &next
		txn.UpdatedAt = lastProcessedAt
	}
	return nil
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txns []*domain.Transaction
	for _, txn := range m.txns {
		if txn.AccountID == accountID {
			cp := *txn
			txns = append(txns, &cp)
		}
	}
	return txns, nil
}

func (m *MockTransactionRepository) ListByUserBetween(ctx context.Context, userID string, start, end time.Time) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txns []*domain.Transaction
	for _, txn := range m.txns {
		if txn.UserID == userID && !txn.Date.Before(start) && !txn.Date.After(end) {
			cp := *txn
			txns = append(txns, &cp)
		}
	}
	return txns, nil
}

func (m *MockTransactionRepository) ListDueTemplates(ctx context.Context, now time.Time) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var txns []*domain.Transaction
	for _, txn := range m.txns {
		if txn.IsDueAt(now) {
			cp := *txn
			txns = append(txns, &cp)
		}
	}
	return txns, nil
}

func (m *MockTransactionRepository) SumExpensesForAccount(ctx context.Context, accountID string, start, end time.Time) (decimal.Decimal, error) {
	if m.SumExpensesFunc != nil {
		return m.SumExpensesFunc(ctx, accountID, start, end)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, txn := range m.txns {
		if txn.AccountID == accountID && txn.Type == domain.TransactionTypeExpense &&
			!txn.Date.Before(start) && !txn.Date.After(end) {
			sum = sum.Add(txn.Amount)
		}
	}
	return sum, nil
}

func (m *MockTransactionRepository) SumSignedByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, txn := range m.txns {
		if txn.AccountID == accountID {
			sum = sum.Add(txn.SignedAmount())
		}
	}
	return sum, nil
}

// MockBudgetRepository is a mock implementation of BudgetRepository.
type MockBudgetRepository struct {
	mu      sync.RWMutex
	budgets map[string]*domain.Budget

	UpdateLastAlertSentFunc func(ctx context.Context, id string, at time.Time) error
}

func NewMockBudgetRepository() *MockBudgetRepository {
	return &MockBudgetRepository{
		budgets: make(map[string]*domain.Budget),
	}
}

func (m *MockBudgetRepository) Seed(budget *domain.Budget) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *budget
	m.budgets[budget.ID] = &cp
}

func (m *MockBudgetRepository) Stored(id string) *domain.Budget {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.budgets[id]; ok {
		cp := *b
		return &cp
	}
	return nil
}

func (m *MockBudgetRepository) Upsert(ctx context.Context, budget *domain.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// One budget per user: an existing row keeps its identity and alert state.
	for _, b := range m.budgets {
		if b.UserID == budget.UserID {
			b.Amount = budget.Amount
			b.UpdatedAt = budget.UpdatedAt
			return nil
		}
	}
	cp := *budget
	m.budgets[budget.ID] = &cp
	return nil
}

func (m *MockBudgetRepository) GetByUserID(ctx context.Context, userID string) (*domain.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.budgets {
		if b.UserID == userID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, domain.ErrBudgetNotFound
}

func (m *MockBudgetRepository) List(ctx context.Context, limit, offset int) ([]*domain.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var budgets []*domain.Budget
	for _, b := range m.budgets {
		cp := *b
		budgets = append(budgets, &cp)
	}
	return budgets, nil
}

func (m *MockBudgetRepository) UpdateLastAlertSent(ctx context.Context, id string, at time.Time) error {
	if m.UpdateLastAlertSentFunc != nil {
		return m.UpdateLastAlertSentFunc(ctx, id, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.budgets[id]; ok {
		t := at
		b.LastAlertSent = &t
		b.UpdatedAt = at
	}
	return nil
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *MockUserRepository) Seed(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.Seed(user)
	return nil
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[user.ID]; ok {
		if user.Email != "" {
			existing.Email = user.Email
		}
		if user.Name != "" {
			existing.Name = user.Name
		}
		existing.UpdatedAt = user.UpdatedAt
		return nil
	}
	cp := *user
	if cp.Email == "" {
		cp.Email = cp.ID + "@unresolved.invalid"
	}
	m.users[cp.ID] = &cp
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var users []*domain.User
	for _, u := range m.users {
		cp := *u
		users = append(users, &cp)
	}
	return users, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var unpublished []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			unpublished = append(unpublished, e)
		}
	}
	return unpublished, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			t := publishedAt
			e.PublishedAt = &t
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	for _, e := range m.events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// Events returns all recorded events.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

// MockTx is a mock database transaction.
type MockTx struct {
	Committed  bool
	RolledBack bool

	CommitFunc func(ctx context.Context) error
}

func (t *MockTx) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	t.Committed = true
	return nil
}

func (t *MockTx) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	mu  sync.Mutex
	txs []*MockTx

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTx{}
	m.txs = append(m.txs, tx)
	return tx, nil
}

// Committed returns how many transactions were committed.
func (m *MockTransactionManager) Committed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, tx := range m.txs {
		if tx.Committed {
			count++
		}
	}
	return count
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "id-" + string(rune('0'+m.counter%10)) + "-" + time.Now().Format("150405.000000")
}

// MockThrottle is a mock implementation of Throttle.
type MockThrottle struct {
	AllowFunc func(ctx context.Context, userID string) (bool, error)
}

func (m *MockThrottle) Allow(ctx context.Context, userID string) (bool, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, userID)
	}
	return true, nil
}

// MockMetrics records metric hook calls for assertions. It satisfies the
// usecase metric interfaces.
type MockMetrics struct {
	mu sync.Mutex

	AccountsCreated       int
	AccountOps            map[string]int
	TransactionsCreated   int
	TransactionsUpdated   int
	TransactionsDeleted   int
	LedgerErrors          map[string]int
	BudgetsChecked        int
	BudgetAlertsSent      int
	BudgetAlertsFailed    int
	BudgetAlertsHeld      int
	ReportsGenerated      int
	ReportsFailed         int
	ReconciliationRuns    int
	ReconciliationDrifts  int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		AccountOps:   make(map[string]int),
		LedgerErrors: make(map[string]int),
	}
}

func (m *MockMetrics) AccountCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AccountsCreated++
}

func (m *MockMetrics) AccountOperation(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AccountOps[op]++
}

func (m *MockMetrics) TransactionCreated(float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TransactionsCreated++
}

func (m *MockMetrics) TransactionUpdated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TransactionsUpdated++
}

func (m *MockMetrics) TransactionDeleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TransactionsDeleted++
}

func (m *MockMetrics) LedgerError(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LedgerErrors[op]++
}

func (m *MockMetrics) BudgetChecked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BudgetsChecked++
}

func (m *MockMetrics) BudgetAlertSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BudgetAlertsSent++
}

func (m *MockMetrics) BudgetAlertFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BudgetAlertsFailed++
}

func (m *MockMetrics) BudgetAlertSuppressed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BudgetAlertsHeld++
}

func (m *MockMetrics) ReportGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReportsGenerated++
}

func (m *MockMetrics) ReportFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReportsFailed++
}

func (m *MockMetrics) ReconciliationRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReconciliationRuns++
}

func (m *MockMetrics) ReconciliationDrift() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReconciliationDrifts++
}
