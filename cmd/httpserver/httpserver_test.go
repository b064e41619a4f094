package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/audit"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/internal/metrics"
	"github.com/go-petr/pet-ledger/pkg/web"
)

type accountPayload struct {
	Account domain.Account `json:"account"`
}

type transferPayload struct {
	Transfer domain.TransferResult `json:"transfer"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	service := ledgerservice.New(accountrepo.NewMemory(), audit.NewDispatcher(m), ledgerservice.WithMetrics(m))

	server, err := New(service, zerolog.Nop(), registry)
	require.NoError(t, err)

	return server
}

func do(t *testing.T, server http.Handler, method, url, body string, data any) (int, web.Response) {
	t.Helper()

	req := httptest.NewRequest(method, url, strings.NewReader(body))
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	res := web.Response{Data: data}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))

	return recorder.Code, res
}

func TestLedgerAPI(t *testing.T) {
	server := newTestServer(t)

	code, _ := do(t, server, http.MethodPost, "/accounts",
		`{"number":"ACC1","holder_name":"Alice","initial_balance":1000}`, &accountPayload{})
	require.Equal(t, http.StatusCreated, code)

	code, _ = do(t, server, http.MethodPost, "/accounts",
		`{"number":"ACC2","holder_name":"Bob","initial_balance":500}`, &accountPayload{})
	require.Equal(t, http.StatusCreated, code)

	code, res := do(t, server, http.MethodPost, "/accounts",
		`{"number":"ACC1","holder_name":"Mallory","initial_balance":1}`, &accountPayload{})
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, domain.ErrDuplicateAccountNumber.Error(), res.Error)

	transfer := &transferPayload{}
	code, _ = do(t, server, http.MethodPost, "/transfers",
		`{"from_account_id":1,"to_account_id":2,"amount":300}`, transfer)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, int64(700), transfer.Transfer.FromAccount.Balance)
	require.Equal(t, int64(800), transfer.Transfer.ToAccount.Balance)

	deposited := &accountPayload{}
	code, _ = do(t, server, http.MethodPost, "/accounts/2/deposits", `{"amount":"200"}`, deposited)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, int64(1000), deposited.Account.Balance)

	code, res = do(t, server, http.MethodPost, "/accounts/1/withdrawals", `{"amount":701}`, &accountPayload{})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Equal(t, domain.ErrInsufficientFunds.Error(), res.Error)

	found := &accountPayload{}
	code, _ = do(t, server, http.MethodGet, "/accounts?number=ACC1", "", found)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Alice", found.Account.HolderName)
	require.Equal(t, int64(700), found.Account.Balance)

	code, res = do(t, server, http.MethodGet, "/accounts/42", "", &accountPayload{})
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, domain.ErrAccountNotFound.Error(), res.Error)
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t)

	code, _ := do(t, server, http.MethodPost, "/accounts",
		`{"number":"ACC1","holder_name":"Alice","initial_balance":10}`, &accountPayload{})
	require.Equal(t, http.StatusCreated, code)

	code, _ = do(t, server, http.MethodPost, "/accounts/1/deposits", `{"amount":5}`, &accountPayload{})
	require.Equal(t, http.StatusOK, code)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `ledger_mutations_total{kind="DEPOSIT",status="accepted"} 1`)
	require.Contains(t, string(body), "ledger_accounts_opened_total 1")
}
