// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
)

// Constraint names of the accounts table.
const (
	numberKey    = "accounts_number_key"
	balanceCheck = "accounts_balance_check"
)

// RepoPGS facilitates account repository layer logic on PostgreSQL.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn dbpkg.TxStarter
}

// NewTxRepoPGS returns account RepoPGS working inside an existing transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns account RepoPGS with connection to start transactions.
func NewRepoPGS(db dbpkg.TxStarter) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

func scanAccount(row interface{ Scan(...any) error }) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Number,
		&a.HolderName,
		&a.Balance,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

// mapError converts a database error into a domain error.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrAccountNotFound
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrStoreTimeout
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case numberKey:
			return domain.ErrDuplicateAccountNumber
		case balanceCheck:
			return domain.ErrInsufficientFunds
		}
	}

	return domain.ErrStoreUnavailable
}

const createQuery = `
INSERT INTO
    accounts (number, holder_name, balance)
VALUES
    ($1, $2, $3)
RETURNING id, number, holder_name, balance, created_at, updated_at
`

// Create creates the account and then returns it with the assigned id.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, arg.Number, arg.HolderName, arg.InitialBalance)

	a, err := scanAccount(row)
	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx, %+v)", arg)
		return domain.Account{}, mapError(err)
	}

	return a, nil
}

const getByIDQuery = `
SELECT
	id, number, holder_name, balance, created_at, updated_at
FROM accounts
WHERE id = $1
`

// GetByID returns the account with the given id.
func (r *RepoPGS) GetByID(ctx context.Context, id int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, getByIDQuery, id))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			l.Error().Err(err).Int64("account_id", id).Send()
		}

		return domain.Account{}, mapError(err)
	}

	return a, nil
}

const getByNumberQuery = `
SELECT
	id, number, holder_name, balance, created_at, updated_at
FROM accounts
WHERE number = $1
`

// GetByNumber returns the account with the given account number.
func (r *RepoPGS) GetByNumber(ctx context.Context, number string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, getByNumberQuery, number))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			l.Error().Err(err).Str("account_number", number).Send()
		}

		return domain.Account{}, mapError(err)
	}

	return a, nil
}

const updateBalanceQuery = `
UPDATE accounts
SET balance = $1, updated_at = now()
WHERE id = $2
RETURNING id, number, holder_name, balance, created_at, updated_at
`

// UpdateBalances saves the balances of the given accounts within a single db transaction.
//
// The saved accounts are returned in argument order.
func (r *RepoPGS) UpdateBalances(ctx context.Context, accounts ...domain.Account) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var saved []domain.Account

	update := func(q dbpkg.SQLInterface) error {
		var err error

		saved, err = updateBalances(ctx, q, accounts)

		return err
	}

	var err error
	if r.conn != nil {
		err = dbpkg.ExecTx(ctx, r.conn, update)
	} else {
		err = update(r.db)
	}

	if err != nil {
		l.Error().Err(err).Msgf("UpdateBalances(ctx, %+v)", accounts)
		return nil, mapError(err)
	}

	return saved, nil
}

func updateBalances(ctx context.Context, q dbpkg.SQLInterface, accounts []domain.Account) ([]domain.Account, error) {
	// To avoid deadlocks execute statements in consistent id order
	order := make([]int, len(accounts))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(i, j int) bool {
		return accounts[order[i]].ID < accounts[order[j]].ID
	})

	saved := make([]domain.Account, len(accounts))

	for _, i := range order {
		a, err := scanAccount(q.QueryRowContext(ctx, updateBalanceQuery, accounts[i].Balance, accounts[i].ID))
		if err != nil {
			return nil, err
		}

		saved[i] = a
	}

	return saved, nil
}
