package entryrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-ledger/internal/audit"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
)

var _ audit.Sink = (*RepoPGS)(nil)

var entryColumns = []string{"id", "account_ref", "kind", "amount", "created_at"}

func newMock(t *testing.T) (*RepoPGS, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New() returned error: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return NewRepoPGS(db), mock
}

func TestRecord(t *testing.T) {
	entry := audit.Entry{AccountRef: "1 to 2", Kind: domain.KindTransfer, Amount: 300}

	testCases := []struct {
		name       string
		buildStubs func(mock sqlmock.Sqlmock)
		wantErr    error
	}{
		{
			name: "OK",
			buildStubs: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(createQuery).
					WithArgs("1 to 2", "TRANSFER", int64(300)).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "ConnectionLost",
			buildStubs: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(createQuery).
					WithArgs("1 to 2", "TRANSFER", int64(300)).
					WillReturnError(errors.New("connection reset by peer"))
			},
			wantErr: errorspkg.ErrInternal,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo, mock := newMock(t)
			tc.buildStubs(mock)

			err := repo.Record(context.Background(), entry)
			if tc.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.wantErr)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestList(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	want := []Record{
		{ID: 1, Entry: audit.Entry{AccountRef: "4", Kind: domain.KindDeposit, Amount: 500}, CreatedAt: now},
		{ID: 3, Entry: audit.Entry{AccountRef: "4", Kind: domain.KindWithdraw, Amount: 200}, CreatedAt: now},
	}

	testCases := []struct {
		name       string
		buildStubs func(mock sqlmock.Sqlmock)
		want       []Record
		wantErr    error
	}{
		{
			name: "OK",
			buildStubs: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(entryColumns)
				for _, r := range want {
					rows.AddRow(r.ID, r.AccountRef, r.Kind.String(), r.Amount, r.CreatedAt)
				}

				mock.ExpectQuery(listQuery).WithArgs("4", int32(10), int32(0)).WillReturnRows(rows)
			},
			want: want,
		},
		{
			name: "Empty",
			buildStubs: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(listQuery).
					WithArgs("4", int32(10), int32(0)).
					WillReturnRows(sqlmock.NewRows(entryColumns))
			},
			want: []Record{},
		},
		{
			name: "QueryFailed",
			buildStubs: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(listQuery).
					WithArgs("4", int32(10), int32(0)).
					WillReturnError(errors.New("connection reset by peer"))
			},
			wantErr: errorspkg.ErrInternal,
		},
		{
			name: "RowError",
			buildStubs: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(entryColumns).
					AddRow(want[0].ID, want[0].AccountRef, want[0].Kind.String(), want[0].Amount, want[0].CreatedAt).
					RowError(0, errors.New("bad row"))

				mock.ExpectQuery(listQuery).WithArgs("4", int32(10), int32(0)).WillReturnRows(rows)
			},
			wantErr: errorspkg.ErrInternal,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo, mock := newMock(t)
			tc.buildStubs(mock)

			got, err := repo.List(context.Background(), "4", 10, 0)
			if tc.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.wantErr)
			}

			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("List(ctx, %q, 10, 0) returned unexpected difference (-want +got):\n%s", "4", diff)
			}

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
