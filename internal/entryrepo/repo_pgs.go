// Package entryrepo keeps the audit trail in the audit_entries table.
package entryrepo

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/audit"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
)

// Record is an audit entry as stored in the database.
type Record struct {
	ID int64
	audit.Entry
	CreatedAt time.Time
}

// RepoPGS is an audit sink backed by Postgres.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns entry RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const createQuery = `
INSERT INTO
    audit_entries (account_ref, kind, amount)
VALUES
    ($1, $2, $3)
`

// Record appends e to the audit_entries table.
func (r *RepoPGS) Record(ctx context.Context, e audit.Entry) error {
	if _, err := r.db.ExecContext(ctx, createQuery, e.AccountRef, e.Kind.String(), e.Amount); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("account", e.AccountRef).Send()
		return errorspkg.ErrInternal
	}

	return nil
}

const listQuery = `
SELECT id, account_ref, kind, amount, created_at FROM audit_entries
WHERE account_ref = $1
ORDER BY id
LIMIT $2 OFFSET $3
`

// List returns up to limit records for accountRef in the order they were recorded.
func (r *RepoPGS) List(ctx context.Context, accountRef string, limit, offset int32) ([]Record, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, accountRef, limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []Record{}

	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID,
			&rec.AccountRef,
			&rec.Kind,
			&rec.Amount,
			&rec.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, rec)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}
