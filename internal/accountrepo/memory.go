package accountrepo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
)

// Memory keeps accounts in process memory.
//
// It enforces the same constraints as the accounts table: unique numbers and
// non-negative balances.
type Memory struct {
	mu       sync.RWMutex
	nextID   int64
	byID     map[int64]domain.Account
	byNumber map[string]int64
	now      func() time.Time
}

// NewMemory returns an empty in-memory account store.
func NewMemory() *Memory {
	return &Memory{
		byID:     make(map[int64]domain.Account),
		byNumber: make(map[string]int64),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func ctxError(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrStoreTimeout
	}

	return domain.ErrStoreUnavailable
}

// Create stores a new account and assigns its id.
func (m *Memory) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	if err := ctxError(ctx); err != nil {
		return domain.Account{}, err
	}

	if arg.InitialBalance < 0 {
		return domain.Account{}, domain.ErrInsufficientFunds
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byNumber[arg.Number]; ok {
		return domain.Account{}, domain.ErrDuplicateAccountNumber
	}

	m.nextID++
	now := m.now()

	a := domain.Account{
		ID:         m.nextID,
		Number:     arg.Number,
		HolderName: arg.HolderName,
		Balance:    arg.InitialBalance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	m.byID[a.ID] = a
	m.byNumber[a.Number] = a.ID

	return a, nil
}

// GetByID returns the account with the given id.
func (m *Memory) GetByID(ctx context.Context, id int64) (domain.Account, error) {
	if err := ctxError(ctx); err != nil {
		return domain.Account{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.byID[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return a, nil
}

// GetByNumber returns the account with the given account number.
func (m *Memory) GetByNumber(ctx context.Context, number string) (domain.Account, error) {
	if err := ctxError(ctx); err != nil {
		return domain.Account{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byNumber[number]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return m.byID[id], nil
}

// UpdateBalances saves the balances of the given accounts all at once or not at all.
func (m *Memory) UpdateBalances(ctx context.Context, accounts ...domain.Account) ([]domain.Account, error) {
	if err := ctxError(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range accounts {
		if _, ok := m.byID[a.ID]; !ok {
			return nil, domain.ErrAccountNotFound
		}

		if a.Balance < 0 {
			return nil, domain.ErrInsufficientFunds
		}
	}

	now := m.now()
	saved := make([]domain.Account, len(accounts))

	for i, a := range accounts {
		stored := m.byID[a.ID]
		stored.Balance = a.Balance
		stored.UpdatedAt = now

		m.byID[a.ID] = stored
		saved[i] = stored
	}

	return saved, nil
}

// Len returns the number of stored accounts.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.byID)
}
