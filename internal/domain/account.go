// Package domain provides defenitions of all ledger entities.
package domain

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateAccountNumber indicates that an account with the given number already exists.
	ErrDuplicateAccountNumber = errors.New("duplicated account number")
	// ErrInvalidAccount indicates that the account data is incomplete.
	ErrInvalidAccount = errors.New("invalid account")
)

// Account holds the balance of a single account in minor currency units.
type Account struct {
	ID         int64     `json:"id"`
	Number     string    `json:"number"`
	HolderName string    `json:"holder_name"`
	Balance    int64     `json:"balance"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateAccountParams is the input data to open an account.
type CreateAccountParams struct {
	Number         string `json:"number"`
	HolderName     string `json:"holder_name"`
	InitialBalance int64  `json:"initial_balance"`
}

// Validate checks the params before they reach the store.
func (p CreateAccountParams) Validate() error {
	if p.Number == "" || p.HolderName == "" {
		return ErrInvalidAccount
	}

	if p.InitialBalance < 0 {
		return ErrInvalidAmount
	}

	return nil
}

// Deposit increases the balance by amount.
func (a *Account) Deposit(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if a.Balance > math.MaxInt64-amount {
		return ErrInvalidAmount
	}

	a.Balance += amount

	return nil
}

// Withdraw decreases the balance by amount.
//
// The balance is left untouched when it does not cover the amount.
func (a *Account) Withdraw(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if a.Balance < amount {
		return ErrInsufficientFunds
	}

	a.Balance -= amount

	return nil
}

// TransferTo moves amount from a to target.
//
// Either both accounts change or neither does.
func (a *Account) TransferTo(target *Account, amount int64) error {
	if a.ID == target.ID {
		return ErrSameAccount
	}

	if amount <= 0 {
		return ErrInvalidAmount
	}

	// Credit is checked first so a failing deposit cannot leave a debited sender.
	if target.Balance > math.MaxInt64-amount {
		return ErrInvalidAmount
	}

	if err := a.Withdraw(amount); err != nil {
		return err
	}

	return target.Deposit(amount)
}
