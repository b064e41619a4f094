// Package audit records accepted ledger mutations to append-only sinks.
package audit

import (
	"context"
	"fmt"

	"github.com/go-petr/pet-ledger/internal/domain"
)

// Entry describes one accepted mutation.
type Entry struct {
	AccountRef string
	Kind       domain.TransactionKind
	Amount     int64
}

// Line renders the entry in the audit log layout, without a trailing newline.
func (e Entry) Line() string {
	return fmt.Sprintf("Account: %s, Type: %s, Amount: $%d", e.AccountRef, e.Kind, e.Amount)
}

// Sink records audit entries to a durable target.
type Sink interface {
	Record(ctx context.Context, e Entry) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, e Entry) error

// Record calls f(ctx, e).
func (f SinkFunc) Record(ctx context.Context, e Entry) error {
	return f(ctx, e)
}
