// Package ledgerservice manages business logic layer of the ledger.
//
// Service is the only component that read-modify-writes accounts and the only
// one that emits audit entries. Every mutation holds the write locks of the
// involved accounts from the load until the audit entry is dispatched.
package ledgerservice

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/audit"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/metrics"
)

// Repo provides data access layer interface needed by the ledger service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	GetByID(ctx context.Context, id int64) (domain.Account, error)
	GetByNumber(ctx context.Context, number string) (domain.Account, error)
	UpdateBalances(ctx context.Context, accounts ...domain.Account) ([]domain.Account, error)
}

// Notifier receives an entry for every accepted mutation.
type Notifier interface {
	Notify(ctx context.Context, e audit.Entry)
}

// Service facilitates ledger service layer logic.
type Service struct {
	repo         Repo
	notifier     Notifier
	metrics      *metrics.Metrics
	locks        *lockTable
	storeTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithStoreTimeout bounds every store round trip by d.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.storeTimeout = d
	}
}

// WithMetrics wires the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New returns ledger service struct to manage account mutations.
func New(r Repo, n Notifier, opts ...Option) *Service {
	s := &Service{
		repo:     r,
		notifier: n,
		locks:    newLockTable(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		s.metrics = metrics.NewNop()
	}

	return s
}

// CreateAccount opens a new account with the given initial balance.
func (s *Service) CreateAccount(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	if err := arg.Validate(); err != nil {
		l.Info().Err(err).Msgf("CreateAccount(ctx, %+v)", arg)
		return domain.Account{}, err
	}

	_, err := s.getByNumber(ctx, arg.Number)

	switch {
	case err == nil:
		l.Info().Str("account_number", arg.Number).Msg("duplicated account number")
		return domain.Account{}, domain.ErrDuplicateAccountNumber
	case !errors.Is(err, domain.ErrAccountNotFound):
		return domain.Account{}, err
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	account, err := s.repo.Create(sctx, arg)
	if err != nil {
		return domain.Account{}, s.storeError(ctx, err)
	}

	s.metrics.AccountsOpened.Inc()

	l.Info().
		Int64("account_id", account.ID).
		Str("account_number", account.Number).
		Msg("account created")

	return account, nil
}

// Deposit adds amount to the account balance.
func (s *Service) Deposit(ctx context.Context, accountID, amount int64) (domain.Account, error) {
	return s.mutate(ctx, domain.KindDeposit, accountID, amount, (*domain.Account).Deposit)
}

// Withdraw takes amount from the account balance.
func (s *Service) Withdraw(ctx context.Context, accountID, amount int64) (domain.Account, error) {
	return s.mutate(ctx, domain.KindWithdraw, accountID, amount, (*domain.Account).Withdraw)
}

func (s *Service) mutate(
	ctx context.Context,
	kind domain.TransactionKind,
	accountID, amount int64,
	apply func(*domain.Account, int64) error,
) (domain.Account, error) {
	timer := s.metrics.StartTimer()
	defer timer.ObserveDuration()

	account, err := s.mutateLocked(ctx, kind, accountID, amount, apply)
	s.metrics.RecordMutation(kind.String(), err)

	if err != nil {
		zerolog.Ctx(ctx).Info().
			Err(err).
			Str("kind", kind.String()).
			Int64("account_id", accountID).
			Int64("amount", amount).
			Msg("mutation rejected")

		return domain.Account{}, err
	}

	return account, nil
}

func (s *Service) mutateLocked(
	ctx context.Context,
	kind domain.TransactionKind,
	accountID, amount int64,
	apply func(*domain.Account, int64) error,
) (domain.Account, error) {
	if amount <= 0 {
		return domain.Account{}, domain.ErrInvalidAmount
	}

	unlock := s.locks.lock(accountID)
	defer unlock()

	account, err := s.getByID(ctx, accountID)
	if err != nil {
		return domain.Account{}, err
	}

	if err := apply(&account, amount); err != nil {
		return domain.Account{}, err
	}

	saved, err := s.save(ctx, account)
	if err != nil {
		return domain.Account{}, err
	}

	s.notifier.Notify(ctx, audit.Entry{
		AccountRef: strconv.FormatInt(accountID, 10),
		Kind:       kind,
		Amount:     amount,
	})

	return saved[0], nil
}

// Transfer moves money between two accounts.
//
// Both balances are saved through one store call, so the transfer is either
// fully visible or not at all.
func (s *Service) Transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferResult, error) {
	timer := s.metrics.StartTimer()
	defer timer.ObserveDuration()

	result, err := s.transfer(ctx, arg)
	s.metrics.RecordMutation(domain.KindTransfer.String(), err)

	if err != nil {
		zerolog.Ctx(ctx).Info().
			Err(err).
			Msgf("Transfer(ctx, %+v)", arg)

		return domain.TransferResult{}, err
	}

	return result, nil
}

func (s *Service) transfer(ctx context.Context, arg domain.TransferParams) (domain.TransferResult, error) {
	if arg.Amount <= 0 {
		return domain.TransferResult{}, domain.ErrInvalidAmount
	}

	if arg.FromAccountID == arg.ToAccountID {
		return domain.TransferResult{}, domain.ErrSameAccount
	}

	unlock := s.locks.lock(arg.FromAccountID, arg.ToAccountID)
	defer unlock()

	from, err := s.getByID(ctx, arg.FromAccountID)
	if err != nil {
		return domain.TransferResult{}, err
	}

	to, err := s.getByID(ctx, arg.ToAccountID)
	if err != nil {
		return domain.TransferResult{}, err
	}

	if err := from.TransferTo(&to, arg.Amount); err != nil {
		return domain.TransferResult{}, err
	}

	saved, err := s.save(ctx, from, to)
	if err != nil {
		return domain.TransferResult{}, err
	}

	s.notifier.Notify(ctx, audit.Entry{
		AccountRef: domain.TransferRef(arg.FromAccountID, arg.ToAccountID),
		Kind:       domain.KindTransfer,
		Amount:     arg.Amount,
	})

	return domain.TransferResult{
		FromAccount: saved[0],
		ToAccount:   saved[1],
		Amount:      arg.Amount,
	}, nil
}

// GetByID returns the account with the given id.
func (s *Service) GetByID(ctx context.Context, id int64) (domain.Account, error) {
	unlock := s.locks.rlock(id)
	defer unlock()

	return s.getByID(ctx, id)
}

// GetByNumber returns the account with the given account number.
func (s *Service) GetByNumber(ctx context.Context, number string) (domain.Account, error) {
	account, err := s.getByNumber(ctx, number)
	if err != nil {
		return domain.Account{}, err
	}

	// Re-read under the account lock so an in-flight mutation is either
	// fully visible or not at all.
	return s.GetByID(ctx, account.ID)
}

func (s *Service) getByID(ctx context.Context, id int64) (domain.Account, error) {
	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	account, err := s.repo.GetByID(sctx, id)
	if err != nil {
		return domain.Account{}, s.storeError(ctx, err)
	}

	return account, nil
}

func (s *Service) getByNumber(ctx context.Context, number string) (domain.Account, error) {
	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	account, err := s.repo.GetByNumber(sctx, number)
	if err != nil {
		return domain.Account{}, s.storeError(ctx, err)
	}

	return account, nil
}

func (s *Service) save(ctx context.Context, accounts ...domain.Account) ([]domain.Account, error) {
	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	saved, err := s.repo.UpdateBalances(sctx, accounts...)
	if err != nil {
		return nil, s.storeError(ctx, err)
	}

	if len(saved) != len(accounts) {
		zerolog.Ctx(ctx).Error().Msgf("store saved %d of %d accounts", len(saved), len(accounts))
		return nil, domain.ErrStoreUnavailable
	}

	return saved, nil
}

func (s *Service) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.storeTimeout)
}

var knownErrors = []error{
	domain.ErrAccountNotFound,
	domain.ErrDuplicateAccountNumber,
	domain.ErrInsufficientFunds,
	domain.ErrInvalidAmount,
	domain.ErrInvalidAccount,
	domain.ErrStoreUnavailable,
	domain.ErrStoreTimeout,
}

// storeError keeps raw storage errors from reaching callers.
func (s *Service) storeError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrStoreTimeout
	}

	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return known
		}
	}

	zerolog.Ctx(ctx).Error().Err(err).Msg("account store failure")

	return domain.ErrStoreUnavailable
}
