//go:build integration

package accountrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/integrationtest"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
)

func seedAccount(t *testing.T, repo *accountrepo.RepoPGS, balance int64) domain.Account {
	t.Helper()

	a, err := repo.Create(context.Background(), domain.CreateAccountParams{
		Number:         randompkg.AccountNumber(),
		HolderName:     randompkg.HolderName(),
		InitialBalance: balance,
	})
	require.NoError(t, err)

	return a
}

func TestRepoPGSIntegration(t *testing.T) {
	config := integrationtest.LoadConfig(t)
	tx := integrationtest.SetupTX(t, config.DBDriver, config.DBSource)
	repo := accountrepo.NewTxRepoPGS(tx)
	ctx := context.Background()

	a := seedAccount(t, repo, 1000)
	b := seedAccount(t, repo, 0)

	got, err := repo.GetByNumber(ctx, a.Number)
	require.NoError(t, err)

	if diff := cmp.Diff(a, got, cmpopts.EquateApproxTime(time.Second)); diff != "" {
		t.Errorf("GetByNumber(ctx, %q) returned unexpected difference (-want +got):\n%s", a.Number, diff)
	}

	a.Balance, b.Balance = 700, 300

	saved, err := repo.UpdateBalances(ctx, a, b)
	require.NoError(t, err)
	require.Equal(t, int64(700), saved[0].Balance)
	require.Equal(t, int64(300), saved[1].Balance)

	_, err = repo.GetByID(ctx, b.ID+1000)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestRepoPGSConstraints(t *testing.T) {
	config := integrationtest.LoadConfig(t)
	db := integrationtest.SetupDB(t, config.DBDriver, config.DBSource)
	repo := accountrepo.NewRepoPGS(db)
	ctx := context.Background()

	a := seedAccount(t, repo, 100)
	b := seedAccount(t, repo, 100)

	_, err := repo.Create(ctx, domain.CreateAccountParams{Number: a.Number, HolderName: "dup"})
	require.ErrorIs(t, err, domain.ErrDuplicateAccountNumber)

	a.Balance, b.Balance = 250, -50

	_, err = repo.UpdateBalances(ctx, a, b)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100), got.Balance)
}
