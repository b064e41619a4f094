package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAmount indicates invalid amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrSameAccount indicates a transfer to the sending account itself.
	ErrSameAccount = fmt.Errorf("%w: source and destination accounts are the same", ErrInvalidAmount)
	// ErrInsufficientFunds indicates that the account does not have sufficient balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrStoreUnavailable indicates that the account store could not serve the request.
	ErrStoreUnavailable = errors.New("account store unavailable")
	// ErrStoreTimeout indicates that the account store did not answer in time.
	ErrStoreTimeout = errors.New("account store timeout")
)

// TransactionKind names an accepted balance mutation.
type TransactionKind string

// Supported transaction kinds.
const (
	KindDeposit  TransactionKind = "DEPOSIT"
	KindWithdraw TransactionKind = "WITHDRAW"
	KindTransfer TransactionKind = "TRANSFER"
)

func (k TransactionKind) String() string {
	return string(k)
}

// TransferParams is the input data for the transfer transaction.
type TransferParams struct {
	FromAccountID int64 `json:"from_account_id"`
	ToAccountID   int64 `json:"to_account_id"`
	Amount        int64 `json:"amount"`
}

// TransferResult is the result of the transfer transaction.
type TransferResult struct {
	FromAccount Account `json:"from_account"`
	ToAccount   Account `json:"to_account"`
	Amount      int64   `json:"amount"`
}

// TransferRef renders the account reference used for transfer audit entries.
func TransferRef(fromID, toID int64) string {
	return fmt.Sprintf("%d to %d", fromID, toID)
}
